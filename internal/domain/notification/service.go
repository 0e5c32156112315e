package notification

import (
	"context"

	"github.com/rs/zerolog"

	"tieba-server/services/messaging-api/internal/domain"
	"tieba-server/services/messaging-api/internal/domain/query"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

// UnreadInvalidator drops cached unread totals of the given users.
type UnreadInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...uint)
}

// MarkReadInput selects the notifications to mark read.
type MarkReadInput struct {
	IDs []uint
	All bool
}

// Service is the notification inbox of the principal.
type Service interface {
	List(ctx context.Context, principal domain.Principal, filter Filter, pagination query.Pagination) ([]*Notification, int64, error)
	// Get returns the notification and marks it read.
	Get(ctx context.Context, principal domain.Principal, id uint) (*Notification, error)
	MarkRead(ctx context.Context, principal domain.Principal, input MarkReadInput) (int64, error)
	Delete(ctx context.Context, principal domain.Principal, id uint) error
}

type service struct {
	repo   Repository
	unread UnreadInvalidator
	log    zerolog.Logger
}

// NewService constructs the notification service.
func NewService(repo Repository, unread UnreadInvalidator, log zerolog.Logger) Service {
	return &service{
		repo:   repo,
		unread: unread,
		log:    log.With().Str("component", "notification-service").Logger(),
	}
}

func (s *service) List(ctx context.Context, principal domain.Principal, filter Filter, pagination query.Pagination) ([]*Notification, int64, error) {
	filter.RecipientID = principal.UserID
	items, total, err := s.repo.Find(ctx, filter, pagination)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list notifications")
	}
	return items, total, nil
}

func (s *service) Get(ctx context.Context, principal domain.Principal, id uint) (*Notification, error) {
	n, err := s.repo.FindByID(ctx, principal.UserID, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load notification")
	}
	if !n.IsRead {
		if _, err := s.repo.MarkRead(ctx, principal.UserID, []uint{n.ID}); err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to mark notification read")
		}
		n.IsRead = true
		s.invalidate(ctx, principal.UserID)
	}
	return n, nil
}

func (s *service) MarkRead(ctx context.Context, principal domain.Principal, input MarkReadInput) (int64, error) {
	if !input.All && len(input.IDs) == 0 {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "either ids or all must be provided", nil, "f2813fe5-fadf-4287-ab0a-a9585126067f")
	}
	ids := input.IDs
	if input.All {
		ids = nil
	}
	marked, err := s.repo.MarkRead(ctx, principal.UserID, ids)
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to mark notifications read")
	}
	if marked > 0 {
		s.invalidate(ctx, principal.UserID)
	}
	return marked, nil
}

func (s *service) Delete(ctx context.Context, principal domain.Principal, id uint) error {
	if err := s.repo.SoftDelete(ctx, principal.UserID, id); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete notification")
	}
	s.invalidate(ctx, principal.UserID)
	return nil
}

func (s *service) invalidate(ctx context.Context, userID uint) {
	if s.unread != nil {
		s.unread.Invalidate(ctx, userID)
	}
}
