package dbschema

import (
	"time"

	"tieba-server/services/messaging-api/internal/domain/conversation"
)

// Conversation represents the database schema for conversations
type Conversation struct {
	ID            uint                          `gorm:"primaryKey"`
	Title         string                        `gorm:"type:varchar(200);not null;default:''"`
	Type          conversation.ConversationType `gorm:"type:varchar(20);not null;default:'private'"`
	PairKey       *string                       `gorm:"type:varchar(64);uniqueIndex:uq_conversations_pair_key"`
	MessageCount  int                           `gorm:"not null;default:0"`
	LastMessageAt *time.Time
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`

	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID"`
}

func (Conversation) TableName() string { return "conversations" }

// ConversationParticipant holds one user's membership and read state.
type ConversationParticipant struct {
	ID             uint `gorm:"primaryKey"`
	ConversationID uint `gorm:"uniqueIndex:uq_conversation_participants;not null"`
	UserID         uint `gorm:"uniqueIndex:uq_conversation_participants;index;not null"`
	IsMuted        bool `gorm:"not null;default:false"`
	IsBlocked      bool `gorm:"not null;default:false"`
	UnreadCount    int  `gorm:"not null;default:0"`
	LastReadAt     *time.Time
	JoinedAt       time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (ConversationParticipant) TableName() string { return "conversation_participants" }

// NewSchemaConversation creates a database schema from domain conversation
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		ID:            c.ID,
		Title:         c.Title,
		Type:          c.Type,
		PairKey:       c.PairKey,
		MessageCount:  c.MessageCount,
		LastMessageAt: c.LastMessageAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// EtoD converts the entity and its loaded participants to the domain shape.
func (c *Conversation) EtoD() *conversation.Conversation {
	participants := make([]conversation.Participant, 0, len(c.Participants))
	for i := range c.Participants {
		participants = append(participants, *c.Participants[i].EtoD())
	}
	return &conversation.Conversation{
		ID:            c.ID,
		Title:         c.Title,
		Type:          c.Type,
		PairKey:       c.PairKey,
		MessageCount:  c.MessageCount,
		LastMessageAt: c.LastMessageAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		Participants:  participants,
	}
}

// NewSchemaParticipant builds the membership row of userID.
func NewSchemaParticipant(conversationID, userID uint, now time.Time) ConversationParticipant {
	return ConversationParticipant{
		ConversationID: conversationID,
		UserID:         userID,
		JoinedAt:       now,
		UpdatedAt:      now,
	}
}

func (p *ConversationParticipant) EtoD() *conversation.Participant {
	return &conversation.Participant{
		ID:             p.ID,
		ConversationID: p.ConversationID,
		UserID:         p.UserID,
		IsMuted:        p.IsMuted,
		IsBlocked:      p.IsBlocked,
		UnreadCount:    p.UnreadCount,
		LastReadAt:     p.LastReadAt,
		JoinedAt:       p.JoinedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
