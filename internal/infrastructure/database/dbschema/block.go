package dbschema

import (
	"time"

	"tieba-server/services/messaging-api/internal/domain/block"
)

// UserBlock is a directed block edge.
type UserBlock struct {
	ID        uint      `gorm:"primaryKey"`
	BlockerID uint      `gorm:"uniqueIndex:uq_user_blocks_pair;not null"`
	BlockedID uint      `gorm:"uniqueIndex:uq_user_blocks_pair;index;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (UserBlock) TableName() string { return "user_blocks" }

func NewSchemaUserBlock(b *block.Block) *UserBlock {
	return &UserBlock{
		ID:        b.ID,
		BlockerID: b.BlockerID,
		BlockedID: b.BlockedID,
		CreatedAt: b.CreatedAt,
	}
}

func (b *UserBlock) EtoD() *block.Block {
	return &block.Block{
		ID:        b.ID,
		BlockerID: b.BlockerID,
		BlockedID: b.BlockedID,
		CreatedAt: b.CreatedAt,
	}
}
