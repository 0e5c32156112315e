package memory

import (
	"context"
	"sort"
	"time"

	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/domain/query"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

type MessageRepository struct {
	s *Store
}

var _ conversation.MessageRepository = (*MessageRepository)(nil)

func (r *MessageRepository) Append(ctx context.Context, msg *conversation.Message) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[msg.ConversationID]
	if !ok {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "82a50ab5-118f-423a-b723-51f58c9b2e4b")
	}

	s.nextMessageID++
	msg.ID = s.nextMessageID
	for i := range msg.Attachments {
		s.nextAttachmentID++
		msg.Attachments[i].ID = s.nextAttachmentID
		msg.Attachments[i].MessageID = msg.ID
	}
	s.messages[msg.ID] = cloneMessage(msg)

	sentAt := msg.CreatedAt
	for i := range conv.Participants {
		p := &conv.Participants[i]
		if p.UserID == msg.SenderID {
			at := sentAt
			p.LastReadAt = &at
		} else {
			p.UnreadCount++
		}
		p.UpdatedAt = sentAt
	}

	conv.MessageCount++
	if conv.LastMessageAt == nil || sentAt.After(*conv.LastMessageAt) {
		at := sentAt
		conv.LastMessageAt = &at
	}
	conv.UpdatedAt = sentAt
	return nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id uint) (*conversation.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.messages[id]
	if !ok {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "message not found", nil, "d64b1ed2-a9cd-4e67-8a7d-0816236e0e6d", map[string]any{"message_id": id})
	}
	return cloneMessage(m), nil
}

// live returns the non-deleted messages of a conversation, oldest first.
// Callers hold the lock.
func (s *Store) live(conversationID uint) []*conversation.Message {
	var result []*conversation.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID && !m.IsDeleted {
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (r *MessageRepository) ListByConversation(_ context.Context, conversationID uint, pagination query.Pagination) ([]*conversation.Message, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := r.s.live(conversationID)
	start, end := pagination.Window(len(all))
	result := make([]*conversation.Message, 0, end-start)
	for _, m := range all[start:end] {
		result = append(result, cloneMessage(m))
	}
	return result, int64(len(all)), nil
}

func (r *MessageRepository) LastByConversations(_ context.Context, conversationIDs []uint) (map[uint]*conversation.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make(map[uint]*conversation.Message, len(conversationIDs))
	for _, id := range conversationIDs {
		if all := r.s.live(id); len(all) > 0 {
			result[id] = cloneMessage(all[len(all)-1])
		}
	}
	return result, nil
}

func (r *MessageRepository) MarkRead(_ context.Context, userID uint, messageIDs []uint, readAt time.Time) (conversation.ReadResult, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var result conversation.ReadResult
	newest := make(map[uint]time.Time)
	for _, id := range messageIDs {
		m, ok := s.messages[id]
		if !ok || m.IsDeleted || m.SenderID == userID {
			continue
		}
		conv, ok := s.conversations[m.ConversationID]
		if !ok || !conv.HasParticipant(userID) {
			continue
		}
		m.IsRead = true
		result.Marked++
		if t, seen := newest[conv.ID]; !seen || m.CreatedAt.After(t) {
			newest[conv.ID] = m.CreatedAt
		}
	}

	for convID, newestAt := range newest {
		p, _ := s.conversations[convID].Participant(userID)
		lastRead := readAt
		if newestAt.After(lastRead) {
			lastRead = newestAt
		}
		p.UnreadCount = 0
		p.LastReadAt = &lastRead
		p.UpdatedAt = readAt
		result.ConversationIDs = append(result.ConversationIDs, convID)
	}
	sort.Slice(result.ConversationIDs, func(i, j int) bool { return result.ConversationIDs[i] < result.ConversationIDs[j] })
	return result, nil
}

func (r *MessageRepository) SoftDelete(ctx context.Context, messageID uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[messageID]
	if !ok {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "message not found", nil, "c1dacb2e-3521-4bf0-a265-cd188db28879")
	}
	m.IsDeleted = true
	if conv, ok := s.conversations[m.ConversationID]; ok {
		s.recompute(conv)
		conv.UpdatedAt = s.now()
	}
	return nil
}

// recompute derives the counters of conv from its live messages and reports
// whether they changed. Callers hold the write lock.
func (s *Store) recompute(conv *conversation.Conversation) bool {
	live := s.live(conv.ID)
	var last *time.Time
	if len(live) > 0 {
		at := live[len(live)-1].CreatedAt
		last = &at
	}

	changed := conv.MessageCount != len(live)
	switch {
	case last == nil && conv.LastMessageAt != nil, last != nil && conv.LastMessageAt == nil:
		changed = true
	case last != nil && !last.Equal(*conv.LastMessageAt):
		changed = true
	}
	conv.MessageCount = len(live)
	conv.LastMessageAt = last
	return changed
}

func (r *MessageRepository) Reconcile(_ context.Context) (conversation.ReconcileResult, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var result conversation.ReconcileResult
	for _, conv := range s.conversations {
		if s.recompute(conv) {
			result.Conversations++
		}
		for i := range conv.Participants {
			if conv.Participants[i].UnreadCount < 0 {
				conv.Participants[i].UnreadCount = 0
				result.Participants++
			}
		}
	}
	return result, nil
}
