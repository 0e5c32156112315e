package memory

import (
	"context"
	"sort"
	"time"

	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/domain/query"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

type ConversationRepository struct {
	s *Store
}

var _ conversation.Repository = (*ConversationRepository)(nil)

func (r *ConversationRepository) FindOrCreatePrivate(_ context.Context, pairKey string, userA, userB uint) (*conversation.Conversation, bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.pairs[pairKey]; ok {
		return cloneConversation(s.conversations[id]), false, nil
	}

	now := s.now()
	key := pairKey
	conv := &conversation.Conversation{
		Type:      conversation.ConversationTypePrivate,
		PairKey:   &key,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.insertConversation(conv, []uint{userA, userB}, now)
	s.pairs[pairKey] = conv.ID
	return cloneConversation(conv), true, nil
}

func (r *ConversationRepository) CreateGroup(_ context.Context, conv *conversation.Conversation, memberIDs []uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneConversation(conv)
	stored.PairKey = nil
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
		stored.UpdatedAt = stored.CreatedAt
	}
	s.insertConversation(stored, memberIDs, stored.CreatedAt)
	*conv = *cloneConversation(stored)
	return nil
}

// insertConversation assigns ids and stores conv with one participant per member.
// Callers hold the write lock.
func (s *Store) insertConversation(conv *conversation.Conversation, memberIDs []uint, now time.Time) {
	s.nextConversationID++
	conv.ID = s.nextConversationID
	conv.Participants = make([]conversation.Participant, 0, len(memberIDs))
	for _, uid := range memberIDs {
		s.nextParticipantID++
		conv.Participants = append(conv.Participants, conversation.Participant{
			ID:             s.nextParticipantID,
			ConversationID: conv.ID,
			UserID:         uid,
			JoinedAt:       now,
			UpdatedAt:      now,
		})
	}
	s.conversations[conv.ID] = conv
}

func (r *ConversationRepository) FindByID(ctx context.Context, id uint) (*conversation.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	conv, ok := r.s.conversations[id]
	if !ok {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "720ba1a2-d8b5-403e-a0f3-58e358ef2c4b", map[string]any{"conversation_id": id})
	}
	return cloneConversation(conv), nil
}

func (r *ConversationRepository) ListByUser(_ context.Context, userID uint, pagination query.Pagination) ([]*conversation.Conversation, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*conversation.Conversation
	for _, c := range r.s.conversations {
		if c.HasParticipant(userID) {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch {
		case a.LastMessageAt != nil && b.LastMessageAt == nil:
			return true
		case a.LastMessageAt == nil && b.LastMessageAt != nil:
			return false
		case a.LastMessageAt != nil && !a.LastMessageAt.Equal(*b.LastMessageAt):
			return a.LastMessageAt.After(*b.LastMessageAt)
		case !a.UpdatedAt.Equal(b.UpdatedAt):
			return a.UpdatedAt.After(b.UpdatedAt)
		default:
			return a.ID > b.ID
		}
	})

	start, end := pagination.Window(len(matched))
	result := make([]*conversation.Conversation, 0, end-start)
	for _, c := range matched[start:end] {
		result = append(result, cloneConversation(c))
	}
	return result, int64(len(matched)), nil
}

func (r *ConversationRepository) FindParticipant(ctx context.Context, conversationID, userID uint) (*conversation.Participant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, err := r.s.participant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	cp := cloneParticipant(*p)
	return &cp, nil
}

// participant returns the live participant row. Callers hold the lock.
func (s *Store) participant(ctx context.Context, conversationID, userID uint) (*conversation.Participant, error) {
	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "35b3296d-396e-4f2b-b3cd-c5b2feafbb72")
	}
	p, ok := conv.Participant(userID)
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "participant not found", nil, "56a1db9f-c34e-4d8a-b584-cfcaf9e82dbd")
	}
	return p, nil
}

func (r *ConversationRepository) MarkConversationRead(ctx context.Context, conversationID, userID uint, readAt time.Time) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.participant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	at := readAt
	p.UnreadCount = 0
	p.LastReadAt = &at
	p.UpdatedAt = readAt

	for _, m := range s.messages {
		if m.ConversationID == conversationID && m.SenderID != userID && !m.IsDeleted {
			m.IsRead = true
		}
	}
	return nil
}

func (r *ConversationRepository) SetMuted(ctx context.Context, conversationID, userID uint, muted bool) (*conversation.Participant, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.participant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	p.IsMuted = muted
	p.UpdatedAt = s.now()
	cp := cloneParticipant(*p)
	return &cp, nil
}

func (r *ConversationRepository) SumUnread(_ context.Context, userID uint) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var sum int64
	for _, c := range r.s.conversations {
		if p, ok := c.Participant(userID); ok {
			sum += int64(p.UnreadCount)
		}
	}
	return sum, nil
}
