package memory

import (
	"context"
	"sort"

	"tieba-server/services/messaging-api/internal/domain/notification"
	"tieba-server/services/messaging-api/internal/domain/query"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

type NotificationRepository struct {
	s *Store
}

var _ notification.Repository = (*NotificationRepository)(nil)

func cloneNotification(n *notification.Notification) *notification.Notification {
	cp := *n
	if n.Payload != nil {
		cp.Payload = make(map[string]any, len(n.Payload))
		for k, v := range n.Payload {
			cp.Payload[k] = v
		}
	}
	return &cp
}

func (r *NotificationRepository) Create(_ context.Context, n *notification.Notification) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextNotificationID++
	n.ID = s.nextNotificationID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if n.Type == "" {
		n.Type = notification.TypeSystem
	}
	s.notifications[n.ID] = cloneNotification(n)
	return nil
}

func (r *NotificationRepository) Find(_ context.Context, filter notification.Filter, pagination query.Pagination) ([]*notification.Notification, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*notification.Notification
	for _, n := range r.s.notifications {
		if n.RecipientID != filter.RecipientID || n.IsDeleted {
			continue
		}
		if filter.UnreadOnly && n.IsRead {
			continue
		}
		if filter.Type != nil && n.Type != *filter.Type {
			continue
		}
		matched = append(matched, n)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	start, end := pagination.Window(len(matched))
	result := make([]*notification.Notification, 0, end-start)
	for _, n := range matched[start:end] {
		result = append(result, cloneNotification(n))
	}
	return result, int64(len(matched)), nil
}

// visible returns the live notification when it belongs to recipientID. Callers hold the lock.
func (s *Store) visible(recipientID, id uint) (*notification.Notification, bool) {
	n, ok := s.notifications[id]
	if !ok || n.IsDeleted || n.RecipientID != recipientID {
		return nil, false
	}
	return n, true
}

func (r *NotificationRepository) FindByID(ctx context.Context, recipientID, id uint) (*notification.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n, ok := r.s.visible(recipientID, id)
	if !ok {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "notification not found", nil, "ad3d9722-7003-4338-b952-6a3469b83f43", map[string]any{"notification_id": id})
	}
	return cloneNotification(n), nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, recipientID uint, ids []uint) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var marked int64
	mark := func(n *notification.Notification) {
		if !n.IsRead {
			n.IsRead = true
			marked++
		}
	}
	if len(ids) == 0 {
		for _, n := range s.notifications {
			if n.RecipientID == recipientID && !n.IsDeleted {
				mark(n)
			}
		}
		return marked, nil
	}
	for _, id := range ids {
		if n, ok := s.visible(recipientID, id); ok {
			mark(n)
		}
	}
	return marked, nil
}

func (r *NotificationRepository) SoftDelete(ctx context.Context, recipientID, id uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.visible(recipientID, id)
	if !ok {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "notification not found", nil, "f4f36054-4203-4d23-a8bf-d11447d01b30")
	}
	n.IsDeleted = true
	return nil
}

func (r *NotificationRepository) CountUnread(_ context.Context, recipientID uint) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var count int64
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID && !n.IsDeleted && !n.IsRead {
			count++
		}
	}
	return count, nil
}
