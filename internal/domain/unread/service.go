package unread

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tieba-server/services/messaging-api/internal/domain"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

// Totals is the badge pair shown to a user.
type Totals struct {
	UnreadMessages      int64 `json:"unread_messages"`
	UnreadNotifications int64 `json:"unread_notifications"`
}

// MessageCounter sums unread_count over every participant row of a user.
type MessageCounter interface {
	SumUnread(ctx context.Context, userID uint) (int64, error)
}

// NotificationCounter counts unread, non-deleted notifications of a user.
type NotificationCounter interface {
	CountUnread(ctx context.Context, recipientID uint) (int64, error)
}

// Cache stores computed totals. Implementations must tolerate misses and
// backend failures silently.
//
// Every Invalidate advances a per-user generation. Set writes only while the
// generation still equals the one read before the totals were computed, so a
// send that commits mid-computation cannot have its invalidation overwritten.
type Cache interface {
	Get(ctx context.Context, userID uint) (*Totals, bool)
	Generation(ctx context.Context, userID uint) (int64, bool)
	Set(ctx context.Context, userID uint, generation int64, totals Totals)
	Invalidate(ctx context.Context, userIDs ...uint)
}

// Service computes unread totals.
type Service interface {
	Totals(ctx context.Context, principal domain.Principal) (*Totals, error)
}

type service struct {
	messages      MessageCounter
	notifications NotificationCounter
	cache         Cache
	log           zerolog.Logger
}

// NewService constructs the unread totals service. cache may be nil.
func NewService(messages MessageCounter, notifications NotificationCounter, cache Cache, log zerolog.Logger) Service {
	return &service{
		messages:      messages,
		notifications: notifications,
		cache:         cache,
		log:           log.With().Str("component", "unread-service").Logger(),
	}
}

func (s *service) Totals(ctx context.Context, principal domain.Principal) (*Totals, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, principal.UserID); ok {
			return cached, nil
		}
	}

	var (
		generation int64
		cacheable  bool
	)
	if s.cache != nil {
		generation, cacheable = s.cache.Generation(ctx, principal.UserID)
	}

	var totals Totals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.messages.SumUnread(gctx, principal.UserID)
		if err != nil {
			return err
		}
		totals.UnreadMessages = n
		return nil
	})
	g.Go(func() error {
		n, err := s.notifications.CountUnread(gctx, principal.UserID)
		if err != nil {
			return err
		}
		totals.UnreadNotifications = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to compute unread totals")
	}

	if totals.UnreadMessages < 0 {
		s.log.Warn().Uint("user_id", principal.UserID).Int64("sum", totals.UnreadMessages).Msg("negative unread sum clamped")
		totals.UnreadMessages = 0
	}

	if cacheable {
		s.cache.Set(ctx, principal.UserID, generation, totals)
	}
	return &totals, nil
}
