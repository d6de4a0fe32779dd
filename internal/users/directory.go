package users

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/marketplace-core/pkg/db/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned by directories when no user matches.
var ErrNotFound = errors.New("user not found")

// Directory is the credential source consulted at login.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}
