package dbschema

import (
	"time"

	"gorm.io/datatypes"

	"tieba-server/services/messaging-api/internal/domain/notification"
)

// SystemNotification represents the database schema for inbox notifications
type SystemNotification struct {
	ID             uint              `gorm:"primaryKey"`
	RecipientID    uint              `gorm:"index:idx_system_notifications_inbox;not null"`
	Title          string            `gorm:"type:varchar(200);not null"`
	Content        string            `gorm:"type:text;not null;default:''"`
	Type           notification.Type `gorm:"type:varchar(50);not null;default:'system'"`
	RelatedPostID  *uint
	RelatedReplyID *uint
	RelatedBoardID *uint
	RelatedUserID  *uint
	Payload        datatypes.JSONMap `gorm:"type:jsonb"`
	IsRead         bool              `gorm:"index:idx_system_notifications_inbox;not null;default:false"`
	IsDeleted      bool              `gorm:"not null;default:false"`
	CreatedAt      time.Time         `gorm:"index:idx_system_notifications_inbox;not null"`
}

func (SystemNotification) TableName() string { return "system_notifications" }

func NewSchemaNotification(n *notification.Notification) *SystemNotification {
	var payload datatypes.JSONMap
	if len(n.Payload) > 0 {
		payload = datatypes.JSONMap(n.Payload)
	}
	return &SystemNotification{
		ID:             n.ID,
		RecipientID:    n.RecipientID,
		Title:          n.Title,
		Content:        n.Content,
		Type:           n.Type,
		RelatedPostID:  n.RelatedPostID,
		RelatedReplyID: n.RelatedReplyID,
		RelatedBoardID: n.RelatedBoardID,
		RelatedUserID:  n.RelatedUserID,
		Payload:        payload,
		IsRead:         n.IsRead,
		IsDeleted:      n.IsDeleted,
		CreatedAt:      n.CreatedAt,
	}
}

func (n *SystemNotification) EtoD() *notification.Notification {
	var payload map[string]any
	if len(n.Payload) > 0 {
		payload = map[string]any(n.Payload)
	}
	return &notification.Notification{
		ID:             n.ID,
		RecipientID:    n.RecipientID,
		Title:          n.Title,
		Content:        n.Content,
		Type:           n.Type,
		RelatedPostID:  n.RelatedPostID,
		RelatedReplyID: n.RelatedReplyID,
		RelatedBoardID: n.RelatedBoardID,
		RelatedUserID:  n.RelatedUserID,
		Payload:        payload,
		IsRead:         n.IsRead,
		IsDeleted:      n.IsDeleted,
		CreatedAt:      n.CreatedAt,
	}
}
