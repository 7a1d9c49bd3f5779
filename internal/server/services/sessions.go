// Package services contains server-side business logic. This file implements
// SessionService, which handles account creation, credential and token
// authentication, session revocation and account deletion.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/niceweather/internal/clock"
	"github.com/dmitrijs2005/niceweather/internal/common"
	"github.com/dmitrijs2005/niceweather/internal/cryptox"
	"github.com/dmitrijs2005/niceweather/internal/dbx"
	"github.com/dmitrijs2005/niceweather/internal/logging"
	"github.com/dmitrijs2005/niceweather/internal/server/auth"
	"github.com/dmitrijs2005/niceweather/internal/server/config"
	"github.com/dmitrijs2005/niceweather/internal/server/metrics"
	"github.com/dmitrijs2005/niceweather/internal/server/models"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/niceweather/internal/server/weather"
	"github.com/google/uuid"
)

const minPasswordLen = 8

type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      cryptox.Hasher
	clock       clock.Clock
	logger      logging.Logger
	tokens      tokenStrategy
}

// NewSessionService wires the token design selected by cfg.SessionMode.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	hasher cryptox.Hasher, c clock.Clock, logger logging.Logger) *SessionService {
	logger = logger.With("module", "sessions")

	var tokens tokenStrategy
	if cfg.SessionMode == config.SessionModeSigned {
		tokens = &signedTokens{repomanager: m, signer: auth.NewSigner([]byte(cfg.SecretKey), c), clock: c, ttl: cfg.SessionTTL}
	} else {
		tokens = &opaqueTokens{repomanager: m, clock: c, ttl: cfg.SessionTTL, logger: logger}
	}

	return &SessionService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		clock:       c,
		logger:      logger,
		tokens:      tokens,
	}
}

// NormalizeUsername trims surrounding whitespace and lowercases.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: (%v, %v)", common.ErrInvalidLocation, lat, lon)
	}
	return nil
}

// CreateUser registers a new account, optionally with an initial location,
// and returns it together with a fresh session.
func (s *SessionService) CreateUser(ctx context.Context, username, password string, loc *weather.Location) (*models.User, *models.Session, error) {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return nil, nil, common.ErrPasswordTooShort
	}
	username = NormalizeUsername(username)
	if username == "" {
		return nil, nil, common.ErrInvalidUsername
	}
	if loc != nil {
		if err := validateCoordinates(loc.Latitude, loc.Longitude); err != nil {
			return nil, nil, err
		}
	}

	salt, err := cryptox.GenerateSalt()
	if err != nil {
		return nil, nil, fmt.Errorf("error generating salt: %w", err)
	}
	hash, err := s.hasher.Hash(password, salt)
	if err != nil {
		return nil, nil, fmt.Errorf("error hashing password: %w", err)
	}

	now := s.clock.Now()
	user := &models.User{
		ID:           uuid.NewString(),
		UserName:     username,
		PasswordHash: hash,
		Salt:         salt,
		CreatedAt:    now,
	}

	var session *models.Session
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		_, err := users.GetByUsername(ctx, username)
		if err == nil {
			return common.UserAlreadyExists(username)
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("error searching user: %w", err)
		}

		if err := users.Create(ctx, user); err != nil {
			if dbx.IsUniqueViolation(err) {
				return common.UserAlreadyExists(username)
			}
			return fmt.Errorf("error creating user: %w", err)
		}

		if loc != nil {
			if err := s.repomanager.Locations(tx).Upsert(ctx, user.ID, loc.Latitude, loc.Longitude, now); err != nil {
				return fmt.Errorf("error saving location: %w", err)
			}
		}

		session, err = s.tokens.issue(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(ctx, "user created", "user_id", user.ID)
	return user, session, nil
}

// AuthenticateByCredentials checks a username/password pair. Unknown users
// yield common.ErrorNotFound, a wrong password common.ErrIncorrectPassword.
func (s *SessionService) AuthenticateByCredentials(ctx context.Context, username, password string) (*models.User, *models.Session, error) {
	username = NormalizeUsername(username)

	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("credentials", metrics.ResultFailure).Inc()
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.NotFound(username)
		}
		return nil, nil, fmt.Errorf("error searching user: %w", err)
	}

	ok, err := cryptox.Verify(s.hasher, password, user.Salt, user.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("error hashing password: %w", err)
	}
	if !ok {
		metrics.AuthAttempts.WithLabelValues("credentials", metrics.ResultFailure).Inc()
		return nil, nil, common.IncorrectPassword(username)
	}

	var session *models.Session
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		session, err = s.tokens.issue(ctx, tx, user.ID)
		return err
	}); err != nil {
		return nil, nil, err
	}

	metrics.AuthAttempts.WithLabelValues("credentials", metrics.ResultSuccess).Inc()
	return user, session, nil
}

// AuthenticateByToken resolves a bearer token to its session.
func (s *SessionService) AuthenticateByToken(ctx context.Context, token string) (*models.Session, error) {
	session, err := s.tokens.authenticate(ctx, s.db, token)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("token", metrics.ResultFailure).Inc()
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("token", metrics.ResultSuccess).Inc()
	return session, nil
}

// RevokeSession logs a session out and drops every push token registered
// under it.
func (s *SessionService) RevokeSession(ctx context.Context, session *models.Session) error {
	var removed int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.tokens.revoke(ctx, tx, session); err != nil {
			return err
		}
		n, err := s.repomanager.PushTokens(tx).DeleteBySession(ctx, session.ID)
		if err != nil {
			return fmt.Errorf("error deleting push tokens: %w", err)
		}
		removed = n
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "session revoked", "session_id", session.ID, "push_tokens", removed)
	return nil
}

// DeleteUser removes the account and everything tied to it in one
// transaction.
func (s *SessionService) DeleteUser(ctx context.Context, userID string) error {
	var pushTokens, sessions, locations int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		if _, err := users.GetByID(ctx, userID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NotFound(userID)
			}
			return fmt.Errorf("error searching user: %w", err)
		}

		var err error
		if pushTokens, err = s.repomanager.PushTokens(tx).DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("error deleting push tokens: %w", err)
		}
		if sessions, err = s.repomanager.Sessions(tx).DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("error deleting sessions: %w", err)
		}
		if locations, err = s.repomanager.Locations(tx).Delete(ctx, userID); err != nil {
			return fmt.Errorf("error deleting location: %w", err)
		}
		if _, err = users.Delete(ctx, userID); err != nil {
			return fmt.Errorf("error deleting user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "user deleted",
		"user_id", userID,
		"push_tokens", pushTokens,
		"sessions", sessions,
		"locations", locations)
	return nil
}
