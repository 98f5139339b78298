// Package session persists the authenticated session in the device
// database's metadata key/value table so it survives restarts.
package session

import (
	"context"

	"github.com/dmitrijs2005/journeykeeper/internal/client/models"
)

type Repository interface {
	// Save replaces the stored session atomically.
	Save(ctx context.Context, s models.Session) error
	// Load returns common.ErrNotFound when no session is stored.
	Load(ctx context.Context) (*models.Session, error)
	Clear(ctx context.Context) error
}
