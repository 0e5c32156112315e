package responses

import (
	"time"

	"tieba-server/services/messaging-api/internal/domain/block"
	"tieba-server/services/messaging-api/internal/domain/notification"
	"tieba-server/services/messaging-api/internal/domain/unread"
)

// BlockResponse is a block edge owned by the requester.
type BlockResponse struct {
	ID              uint      `json:"id"`
	Object          string    `json:"object"`
	BlockedUserID   uint      `json:"blocked_user_id"`
	BlockedUsername string    `json:"blocked_username"`
	CreatedAt       time.Time `json:"created_at"`
}

// NotificationResponse is a system notification of the requester.
type NotificationResponse struct {
	ID             uint           `json:"id"`
	Object         string         `json:"object"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	Type           string         `json:"notification_type"`
	RelatedPostID  *uint          `json:"related_post_id"`
	RelatedReplyID *uint          `json:"related_reply_id"`
	RelatedBoardID *uint          `json:"related_board_id"`
	RelatedUserID  *uint          `json:"related_user_id"`
	Payload        map[string]any `json:"payload,omitempty"`
	IsRead         bool           `json:"is_read"`
	CreatedAt      time.Time      `json:"created_at"`
}

// UnreadCountResponse is the badge pair of the requester.
type UnreadCountResponse struct {
	UnreadMessages      int64 `json:"unread_messages"`
	UnreadNotifications int64 `json:"unread_notifications"`
}

func NewBlockResponse(b *block.Block) BlockResponse {
	return BlockResponse{
		ID:              b.ID,
		Object:          "block",
		BlockedUserID:   b.BlockedID,
		BlockedUsername: b.BlockedUsername,
		CreatedAt:       b.CreatedAt,
	}
}

func NewNotificationResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:             n.ID,
		Object:         "notification",
		Title:          n.Title,
		Content:        n.Content,
		Type:           string(n.Type),
		RelatedPostID:  n.RelatedPostID,
		RelatedReplyID: n.RelatedReplyID,
		RelatedBoardID: n.RelatedBoardID,
		RelatedUserID:  n.RelatedUserID,
		Payload:        n.Payload,
		IsRead:         n.IsRead,
		CreatedAt:      n.CreatedAt,
	}
}

func NewUnreadCountResponse(t *unread.Totals) UnreadCountResponse {
	return UnreadCountResponse{
		UnreadMessages:      t.UnreadMessages,
		UnreadNotifications: t.UnreadNotifications,
	}
}
