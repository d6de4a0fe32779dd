package models

import "time"

// CartSnapshot stores the encoded cart of one owner.
type CartSnapshot struct {
	Owner     string    `gorm:"column:owner;type:text;primaryKey"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	LineCount int       `gorm:"column:line_count;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}
