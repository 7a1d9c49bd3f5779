// Package repomanager provides a concrete RepositoryManager for SQLite and
// PostgreSQL, wiring together repository constructors, driver selection and
// database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"

	"github.com/dmitrijs2005/niceweather/internal/dbx"
	"github.com/dmitrijs2005/niceweather/internal/server/migrations"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/locations"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/pushtokens"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL backend behind a DSN.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DialectFromDSN picks PostgreSQL for postgres:// URLs and SQLite otherwise.
func DialectFromDSN(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

func (d Dialect) gooseDialect() goose.Dialect {
	if d == DialectPostgres {
		return goose.DialectPostgres
	}
	return goose.DialectSQLite3
}

// sqliteDSN turns on foreign key enforcement unless dsn sets it already.
// SQLite leaves it off per connection by default.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// Open opens and pings the database addressed by dsn.
func Open(ctx context.Context, dsn string) (*sql.DB, Dialect, error) {
	dialect := DialectFromDSN(dsn)
	if dialect == DialectSQLite {
		dsn = sqliteDSN(dsn)
	}
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("db ping error: %w", err)
	}
	return db, dialect, nil
}

// SQLRepositoryManager vends the $n-placeholder SQL repositories, which run
// unchanged on both dialects.
type SQLRepositoryManager struct {
	db      *sql.DB
	dialect Dialect
}

func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) PushTokens(db dbx.DBTX) pushtokens.Repository {
	return pushtokens.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Locations(db dbx.DBTX) locations.Repository {
	return locations.NewSQLRepository(db)
}

// gooseUp is a seam for testing the goose provider.
var gooseUp = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

// RunMigrations applies the embedded migrations to the managed database.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := gooseUp(ctx, m.dialect.gooseDialect(), m.db, migrations.Migrations); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}
	return nil
}

// NewSQLRepositoryManager constructs a RepositoryManager over db.
func NewSQLRepositoryManager(db *sql.DB, dialect Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{db: db, dialect: dialect}
}
