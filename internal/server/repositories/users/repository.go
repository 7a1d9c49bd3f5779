// Package users declares and implements persistence of user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/niceweather/internal/server/models"
)

type Repository interface {
	// Create inserts user. The id is assigned by the caller.
	Create(ctx context.Context, user *models.User) error
	// GetByUsername looks up a user by normalized username; common.ErrorNotFound when absent.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetByID looks up a user by id; common.ErrorNotFound when absent.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Delete removes the user row and reports how many rows went away.
	Delete(ctx context.Context, id string) (int64, error)
}
