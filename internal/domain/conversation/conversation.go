package conversation

import (
	"fmt"
	"time"
)

// ConversationType distinguishes one-to-one threads from multi-member groups.
type ConversationType string

const (
	ConversationTypePrivate ConversationType = "private"
	ConversationTypeGroup   ConversationType = "group"
)

// Valid reports whether t is a known conversation type.
func (t ConversationType) Valid() bool {
	return t == ConversationTypePrivate || t == ConversationTypeGroup
}

// Conversation is a persistent thread between a fixed set of participants.
//
// MessageCount and LastMessageAt are denormalized from the non-deleted
// messages and maintained in the same transaction as every message write.
type Conversation struct {
	ID            uint
	Title         string
	Type          ConversationType
	PairKey       *string
	MessageCount  int
	LastMessageAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Participants  []Participant
}

// Participant carries the per-user read state of a conversation.
type Participant struct {
	ID             uint
	ConversationID uint
	UserID         uint
	Username       string
	Nickname       string
	Avatar         string
	IsMuted        bool
	IsBlocked      bool
	UnreadCount    int
	LastReadAt     *time.Time
	JoinedAt       time.Time
	UpdatedAt      time.Time
}

// Participant returns the participant row of userID, if any.
func (c *Conversation) Participant(userID uint) (*Participant, bool) {
	for i := range c.Participants {
		if c.Participants[i].UserID == userID {
			return &c.Participants[i], true
		}
	}
	return nil, false
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID uint) bool {
	_, ok := c.Participant(userID)
	return ok
}

// OtherParticipantIDs lists every participant except userID.
func (c *Conversation) OtherParticipantIDs(userID uint) []uint {
	ids := make([]uint, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p.UserID != userID {
			ids = append(ids, p.UserID)
		}
	}
	return ids
}

// ParticipantIDs lists every participant user id.
func (c *Conversation) ParticipantIDs() []uint {
	ids := make([]uint, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

// UnreadCountFor returns userID's unread counter, 0 when the row is absent.
func (c *Conversation) UnreadCountFor(userID uint) int {
	if p, ok := c.Participant(userID); ok {
		return p.UnreadCount
	}
	return 0
}

// PairKey is the canonical key of an unordered user pair. It is stored on
// private conversations under a unique index so the pair maps to one row.
func PairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// Summary is the list shape of a conversation as seen by one requester.
type Summary struct {
	Conversation *Conversation
	LastMessage  *Message
	UnreadCount  int
}

// Detail extends the summary with the ordered message history.
type Detail struct {
	Summary
	Messages []*Message
}
