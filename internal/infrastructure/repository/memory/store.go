package memory

import (
	"sync"
	"time"

	"tieba-server/services/messaging-api/internal/domain/block"
	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/domain/notification"
	"tieba-server/services/messaging-api/internal/domain/user"
)

// Store is a thread-safe in-process backend for every repository. A single
// mutex stands in for database transactions, so each repository call is
// atomic with respect to the others.
type Store struct {
	mu sync.RWMutex

	users         map[uint]*user.User
	conversations map[uint]*conversation.Conversation
	pairs         map[string]uint
	messages      map[uint]*conversation.Message
	blocks        map[uint]*block.Block
	notifications map[uint]*notification.Notification

	nextConversationID uint
	nextParticipantID  uint
	nextMessageID      uint
	nextAttachmentID   uint
	nextBlockID        uint
	nextNotificationID uint

	now func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:         make(map[uint]*user.User),
		conversations: make(map[uint]*conversation.Conversation),
		pairs:         make(map[string]uint),
		messages:      make(map[uint]*conversation.Message),
		blocks:        make(map[uint]*block.Block),
		notifications: make(map[uint]*notification.Notification),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// PutUser seeds or replaces a user profile.
func (s *Store) PutUser(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := u
	s.users[u.ID] = &cp
}

// Conversations exposes the store as a conversation.Repository.
func (s *Store) Conversations() *ConversationRepository {
	return &ConversationRepository{s: s}
}

// Messages exposes the store as a conversation.MessageRepository.
func (s *Store) Messages() *MessageRepository {
	return &MessageRepository{s: s}
}

// Blocks exposes the store as a block.Repository.
func (s *Store) Blocks() *BlockRepository {
	return &BlockRepository{s: s}
}

// Notifications exposes the store as a notification.Repository.
func (s *Store) Notifications() *NotificationRepository {
	return &NotificationRepository{s: s}
}

// Users exposes the store as a user.Directory.
func (s *Store) Users() *UserDirectory {
	return &UserDirectory{s: s}
}

func cloneConversation(c *conversation.Conversation) *conversation.Conversation {
	cp := *c
	if c.PairKey != nil {
		key := *c.PairKey
		cp.PairKey = &key
	}
	if c.LastMessageAt != nil {
		t := *c.LastMessageAt
		cp.LastMessageAt = &t
	}
	cp.Participants = make([]conversation.Participant, len(c.Participants))
	for i, p := range c.Participants {
		cp.Participants[i] = cloneParticipant(p)
	}
	return &cp
}

func cloneParticipant(p conversation.Participant) conversation.Participant {
	if p.LastReadAt != nil {
		t := *p.LastReadAt
		p.LastReadAt = &t
	}
	return p
}

func cloneMessage(m *conversation.Message) *conversation.Message {
	cp := *m
	cp.Attachments = append([]conversation.Attachment(nil), m.Attachments...)
	return &cp
}
