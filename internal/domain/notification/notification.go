package notification

import (
	"context"
	"time"

	"tieba-server/services/messaging-api/internal/domain/query"
)

// Type classifies the event that produced a notification.
type Type string

const (
	TypePostReply         Type = "post_reply"
	TypePostLike          Type = "post_like"
	TypeReplyLike         Type = "reply_like"
	TypeFollow            Type = "follow"
	TypeBoardJoin         Type = "board_join"
	TypeBoardAnnouncement Type = "board_announcement"
	TypeSystem            Type = "system"
)

// Valid reports whether t is a known notification type.
func (t Type) Valid() bool {
	switch t {
	case TypePostReply, TypePostLike, TypeReplyLike, TypeFollow, TypeBoardJoin, TypeBoardAnnouncement, TypeSystem:
		return true
	}
	return false
}

// Notification is a recipient-owned system message produced by other forum
// subsystems. Its read state is independent of conversation read state.
type Notification struct {
	ID             uint
	RecipientID    uint
	Title          string
	Content        string
	Type           Type
	RelatedPostID  *uint
	RelatedReplyID *uint
	RelatedBoardID *uint
	RelatedUserID  *uint
	Payload        map[string]any
	IsRead         bool
	IsDeleted      bool
	CreatedAt      time.Time
}

// Filter narrows a notification listing.
type Filter struct {
	RecipientID uint
	UnreadOnly  bool
	Type        *Type
}

// Repository persists notifications. Deleted rows are invisible to every read.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	Find(ctx context.Context, filter Filter, pagination query.Pagination) ([]*Notification, int64, error)
	// FindByID returns NotFound for foreign or deleted notifications.
	FindByID(ctx context.Context, recipientID, id uint) (*Notification, error)
	// MarkRead flags the given ids read; an empty ids slice marks every
	// notification of the recipient.
	MarkRead(ctx context.Context, recipientID uint, ids []uint) (int64, error)
	SoftDelete(ctx context.Context, recipientID, id uint) error
	CountUnread(ctx context.Context, recipientID uint) (int64, error)
}
