package repomanager

import (
	"context"

	"github.com/dmitrijs2005/niceweather/internal/dbx"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/locations"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/pushtokens"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DB handle, so services can
// use the same constructors inside and outside of a transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	PushTokens(db dbx.DBTX) pushtokens.Repository
	Locations(db dbx.DBTX) locations.Repository
}
