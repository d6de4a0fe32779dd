package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/marketplace-core/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepository stores carts in the cart_snapshots table, one row per owner.
type GormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if db == nil {
		return nil, errors.New("gorm db is required")
	}
	return &GormRepository{db: db, now: time.Now}, nil
}

func (r *GormRepository) Load(ctx context.Context, owner string) (*Cart, error) {
	var row models.CartSnapshot
	err := r.db.WithContext(ctx).Where("owner = ?", owner).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return New(), nil
		}
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}
	return Decode([]byte(row.Payload))
}

func (r *GormRepository) Save(ctx context.Context, owner string, c *Cart) error {
	if c == nil {
		c = New()
	}
	blob, err := Encode(c)
	if err != nil {
		return err
	}
	row := models.CartSnapshot{
		Owner:     owner,
		Payload:   string(blob),
		LineCount: c.Len(),
		UpdatedAt: r.now().UTC(),
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "line_count", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}
