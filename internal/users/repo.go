package users

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/marketplace-core/pkg/config"
	pkgdb "github.com/angelmondragon/marketplace-core/pkg/db"
	"github.com/angelmondragon/marketplace-core/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateEmail is returned when an address is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// SeedMissing inserts seeds whose email is not registered yet and reports how
// many were added. The batch commits atomically.
func (r *Repository) SeedMissing(ctx context.Context, seeds []Seed, cfg config.PasswordConfig) (int, error) {
	added := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scoped := &Repository{db: tx}
		added = 0
		for _, seed := range seeds {
			_, err := scoped.FindByEmail(ctx, seed.Email)
			if err == nil {
				continue
			}
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			dto, err := seed.toCreateDTO(cfg)
			if err != nil {
				return err
			}
			if _, err := scoped.Create(ctx, dto); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}
