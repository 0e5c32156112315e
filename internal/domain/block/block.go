package block

import (
	"context"
	"time"

	"tieba-server/services/messaging-api/internal/domain/query"
)

// Block is a directed suppression edge: messages from BlockedID to BlockerID are refused.
type Block struct {
	ID              uint
	BlockerID       uint
	BlockedID       uint
	BlockedUsername string
	CreatedAt       time.Time
}

// Repository persists block edges.
type Repository interface {
	// Create inserts the edge and flags the blocker's participant row in the
	// private conversation of the pair, if one exists. A duplicate edge yields a
	// Conflict platform error.
	Create(ctx context.Context, b *Block) error
	// Delete removes the edge and clears the participant flag. A missing edge
	// yields a NotFound platform error.
	Delete(ctx context.Context, blockerID, blockedID uint) error
	// AnyBlocking reports whether any of blockerIDs has blocked blockedID.
	AnyBlocking(ctx context.Context, blockedID uint, blockerIDs []uint) (bool, error)
	ListByBlocker(ctx context.Context, blockerID uint, pagination query.Pagination) ([]*Block, int64, error)
}
