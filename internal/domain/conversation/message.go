package conversation

import "time"

// MessageType tags the payload kind of a message.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

// Message is an append-only entry of a conversation. Only IsRead and
// IsDeleted change after creation.
type Message struct {
	ID             uint
	ConversationID uint
	SenderID       uint
	SenderName     string
	SenderAvatar   string
	Content        string
	Type           MessageType
	IsRead         bool
	IsDeleted      bool
	CreatedAt      time.Time
	Attachments    []Attachment
}

// Attachment describes a stored file belonging to a message.
type Attachment struct {
	ID         uint
	MessageID  uint
	FileURL    string
	StorageKey string
	FileName   string
	FileSize   int64
	FileType   string
	CreatedAt  time.Time
}
