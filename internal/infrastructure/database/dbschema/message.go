package dbschema

import (
	"time"

	"tieba-server/services/messaging-api/internal/domain/conversation"
)

// Message represents the database schema for conversation messages
type Message struct {
	ID             uint                     `gorm:"primaryKey"`
	ConversationID uint                     `gorm:"index:idx_messages_conversation_created;not null"`
	SenderID       uint                     `gorm:"index:idx_messages_sender_created;not null"`
	Content        string                   `gorm:"type:text;not null;default:''"`
	Type           conversation.MessageType `gorm:"type:varchar(20);not null;default:'text'"`
	IsRead         bool                     `gorm:"not null;default:false"`
	IsDeleted      bool                     `gorm:"not null;default:false"`
	CreatedAt      time.Time                `gorm:"index:idx_messages_conversation_created;index:idx_messages_sender_created;not null"`

	Attachments []MessageAttachment `gorm:"foreignKey:MessageID"`
}

func (Message) TableName() string { return "messages" }

// MessageAttachment is a stored file of a message.
type MessageAttachment struct {
	ID         uint      `gorm:"primaryKey"`
	MessageID  uint      `gorm:"index;not null"`
	FileURL    string    `gorm:"type:varchar(1024);not null"`
	StorageKey string    `gorm:"type:varchar(512);not null"`
	FileName   string    `gorm:"type:varchar(255);not null"`
	FileSize   int64     `gorm:"not null;default:0"`
	FileType   string    `gorm:"type:varchar(100);not null;default:''"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (MessageAttachment) TableName() string { return "message_attachments" }

// NewSchemaMessage creates a database schema from domain message, attachments included.
func NewSchemaMessage(m *conversation.Message) *Message {
	attachments := make([]MessageAttachment, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, MessageAttachment{
			ID:         a.ID,
			MessageID:  a.MessageID,
			FileURL:    a.FileURL,
			StorageKey: a.StorageKey,
			FileName:   a.FileName,
			FileSize:   a.FileSize,
			FileType:   a.FileType,
			CreatedAt:  a.CreatedAt,
		})
	}
	return &Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		Type:           m.Type,
		IsRead:         m.IsRead,
		IsDeleted:      m.IsDeleted,
		CreatedAt:      m.CreatedAt,
		Attachments:    attachments,
	}
}

func (m *Message) EtoD() *conversation.Message {
	attachments := make([]conversation.Attachment, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, conversation.Attachment{
			ID:         a.ID,
			MessageID:  a.MessageID,
			FileURL:    a.FileURL,
			StorageKey: a.StorageKey,
			FileName:   a.FileName,
			FileSize:   a.FileSize,
			FileType:   a.FileType,
			CreatedAt:  a.CreatedAt,
		})
	}
	return &conversation.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		Type:           m.Type,
		IsRead:         m.IsRead,
		IsDeleted:      m.IsDeleted,
		CreatedAt:      m.CreatedAt,
		Attachments:    attachments,
	}
}
