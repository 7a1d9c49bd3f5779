package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/niceweather/internal/clock"
	"github.com/dmitrijs2005/niceweather/internal/common"
	"github.com/dmitrijs2005/niceweather/internal/dbx"
	"github.com/dmitrijs2005/niceweather/internal/logging"
	"github.com/dmitrijs2005/niceweather/internal/server/auth"
	"github.com/dmitrijs2005/niceweather/internal/server/models"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// tokenStrategy is one of the two session designs. A deployment uses exactly
// one of them.
type tokenStrategy interface {
	// issue returns the session handed out after a successful credential
	// check. db is the enclosing transaction.
	issue(ctx context.Context, db dbx.DBTX, userID string) (*models.Session, error)
	authenticate(ctx context.Context, db dbx.DBTX, token string) (*models.Session, error)
	// revoke forgets the session itself; push tokens are handled by the caller.
	revoke(ctx context.Context, db dbx.DBTX, s *models.Session) error
}

// opaqueTokens keeps one random token per user in the sessions table and
// slides its expiry on every use.
type opaqueTokens struct {
	repomanager repomanager.RepositoryManager
	clock       clock.Clock
	ttl         time.Duration
	logger      logging.Logger
}

func (o *opaqueTokens) issue(ctx context.Context, db dbx.DBTX, userID string) (*models.Session, error) {
	repo := o.repomanager.Sessions(db)
	now := o.clock.Now()

	existing, err := repo.FindByUser(ctx, userID)
	switch {
	case err == nil && !existing.Expired(now):
		existing.ExpiresAt = now.Add(o.ttl)
		if err := repo.UpdateExpiry(ctx, existing.ID, existing.ExpiresAt); err != nil {
			return nil, fmt.Errorf("error refreshing session: %w", err)
		}
		return existing, nil
	case err == nil:
		// an expired session never becomes active again
		if _, err := repo.Delete(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("error deleting expired session: %w", err)
		}
		if _, err := o.repomanager.PushTokens(db).DeleteBySession(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("error deleting push tokens of expired session: %w", err)
		}
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error searching session: %w", err)
	}

	token, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, err
	}
	s := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(o.ttl),
		CreatedAt: now,
	}
	if err := repo.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}
	return s, nil
}

func (o *opaqueTokens) authenticate(ctx context.Context, db dbx.DBTX, token string) (*models.Session, error) {
	repo := o.repomanager.Sessions(db)

	s, err := repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound(common.ShortToken(token))
		}
		return nil, fmt.Errorf("error searching session: %w", err)
	}

	now := o.clock.Now()
	if s.Expired(now) {
		return nil, common.ErrTokenExpired
	}

	// Concurrent slides race; the last write wins.
	s.ExpiresAt = now.Add(o.ttl)
	if err := repo.UpdateExpiry(ctx, s.ID, s.ExpiresAt); err != nil {
		o.logger.Warn(ctx, "failed to slide session expiry", "session_id", s.ID, "error", err)
	}
	return s, nil
}

func (o *opaqueTokens) revoke(ctx context.Context, db dbx.DBTX, s *models.Session) error {
	if _, err := o.repomanager.Sessions(db).Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// signedTokens mints self-contained JWTs; nothing is stored.
type signedTokens struct {
	repomanager repomanager.RepositoryManager
	signer      *auth.Signer
	clock       clock.Clock
	ttl         time.Duration
}

func (s *signedTokens) issue(_ context.Context, _ dbx.DBTX, userID string) (*models.Session, error) {
	now := s.clock.Now()
	token, id, exp, err := s.signer.Issue(userID, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("error signing token: %w", err)
	}
	return &models.Session{ID: id, UserID: userID, Token: token, ExpiresAt: exp, CreatedAt: now}, nil
}

// authenticate verifies the signature and expiry, then checks that the
// subject still has an account.
func (s *signedTokens) authenticate(ctx context.Context, db dbx.DBTX, token string) (*models.Session, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, err
	}
	if _, err := s.repomanager.Users(db).GetByID(ctx, claims.Subject); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: account deleted", common.ErrInvalidToken)
		}
		return nil, fmt.Errorf("error reading token subject: %w", err)
	}
	session := &models.Session{
		ID:        claims.ID,
		UserID:    claims.Subject,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		session.CreatedAt = claims.IssuedAt.Time
	}
	return session, nil
}

func (s *signedTokens) revoke(context.Context, dbx.DBTX, *models.Session) error {
	return nil
}
