package conversation

import (
	"context"
	"time"

	"tieba-server/services/messaging-api/internal/domain/query"
)

// Repository persists conversations and their participant read state.
type Repository interface {
	// FindOrCreatePrivate returns the private conversation keyed by pairKey,
	// creating it together with both participant rows when absent. The bool
	// reports whether this call created it. Must be atomic under concurrent
	// callers for the same key.
	FindOrCreatePrivate(ctx context.Context, pairKey string, userA, userB uint) (*Conversation, bool, error)
	CreateGroup(ctx context.Context, conv *Conversation, memberIDs []uint) error
	FindByID(ctx context.Context, id uint) (*Conversation, error)
	// ListByUser returns the conversations userID participates in, most
	// recently active first.
	ListByUser(ctx context.Context, userID uint, pagination query.Pagination) ([]*Conversation, int64, error)
	FindParticipant(ctx context.Context, conversationID, userID uint) (*Participant, error)
	// MarkConversationRead resets userID's unread counter to zero, stamps
	// last_read_at and flags the messages of other senders as read.
	MarkConversationRead(ctx context.Context, conversationID, userID uint, readAt time.Time) error
	SetMuted(ctx context.Context, conversationID, userID uint, muted bool) (*Participant, error)
	// SumUnread totals unread_count over all participant rows of userID.
	SumUnread(ctx context.Context, userID uint) (int64, error)
}

// ReadResult reports the effect of a batch read.
type ReadResult struct {
	Marked          int
	ConversationIDs []uint
}

// ReconcileResult reports how many rows a reconciliation pass corrected.
type ReconcileResult struct {
	Conversations int64
	Participants  int64
}

// MessageRepository persists messages together with the counters they drive.
type MessageRepository interface {
	// Append inserts msg and its attachments, increments unread_count of every
	// participant except the sender, and advances the conversation counters,
	// all in one transaction. msg.ID and attachment ids are populated.
	Append(ctx context.Context, msg *Message) error
	FindByID(ctx context.Context, id uint) (*Message, error)
	// ListByConversation returns non-deleted messages oldest first.
	ListByConversation(ctx context.Context, conversationID uint, pagination query.Pagination) ([]*Message, int64, error)
	// LastByConversations returns the newest non-deleted message per conversation.
	LastByConversations(ctx context.Context, conversationIDs []uint) (map[uint]*Message, error)
	// MarkRead marks messageIDs read for userID in one transaction. Ids outside
	// the user's conversations are ignored. Each touched conversation gets its
	// participant counter reset.
	MarkRead(ctx context.Context, userID uint, messageIDs []uint, readAt time.Time) (ReadResult, error)
	// SoftDelete flags the message deleted and recomputes the conversation
	// counters from the remaining messages.
	SoftDelete(ctx context.Context, messageID uint) error
	// Reconcile recomputes drifted conversation counters and clamps negative
	// unread counters.
	Reconcile(ctx context.Context) (ReconcileResult, error)
}
