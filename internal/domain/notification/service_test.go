package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tieba-server/services/messaging-api/internal/domain"
	"tieba-server/services/messaging-api/internal/domain/notification"
	"tieba-server/services/messaging-api/internal/domain/query"
	"tieba-server/services/messaging-api/internal/infrastructure/repository/memory"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

type invalidations struct {
	users []uint
}

func (i *invalidations) Invalidate(_ context.Context, userIDs ...uint) {
	i.users = append(i.users, userIDs...)
}

type seeded struct {
	svc     notification.Service
	repo    notification.Repository
	cache   *invalidations
	ids     []uint
	foreign uint
}

// seed stores three notifications for user 1, oldest first, and one for user 2.
func seed(t *testing.T) *seeded {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	repo := store.Notifications()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	items := []*notification.Notification{
		{RecipientID: 1, Title: "reply", Type: notification.TypePostReply, CreatedAt: base},
		{RecipientID: 1, Title: "like", Type: notification.TypePostLike, CreatedAt: base.Add(time.Minute)},
		{RecipientID: 1, Title: "welcome", Type: notification.TypeSystem, CreatedAt: base.Add(2 * time.Minute)},
		{RecipientID: 2, Title: "other", Type: notification.TypeFollow, CreatedAt: base},
	}
	s := &seeded{repo: repo, cache: &invalidations{}}
	for _, n := range items {
		require.NoError(t, repo.Create(ctx, n))
		if n.RecipientID == 1 {
			s.ids = append(s.ids, n.ID)
		} else {
			s.foreign = n.ID
		}
	}
	s.svc = notification.NewService(repo, s.cache, zerolog.Nop())
	return s
}

var owner = domain.Principal{UserID: 1}

func TestListNewestFirstWithFilters(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	items, total, err := s.svc.List(ctx, owner, notification.Filter{RecipientID: 2}, query.All())
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 3)
	assert.Equal(t, "welcome", items[0].Title)
	assert.Equal(t, "reply", items[2].Title)

	like := notification.TypePostLike
	items, total, err = s.svc.List(ctx, owner, notification.Filter{Type: &like}, query.All())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, s.ids[1], items[0].ID)

	_, err = s.svc.MarkRead(ctx, owner, notification.MarkReadInput{IDs: []uint{s.ids[0]}})
	require.NoError(t, err)
	_, total, err = s.svc.List(ctx, owner, notification.Filter{UnreadOnly: true}, query.Page(1, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestGetMarksRead(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	n, err := s.svc.Get(ctx, owner, s.ids[0])
	require.NoError(t, err)
	assert.True(t, n.IsRead)
	assert.Equal(t, []uint{1}, s.cache.users)

	count, err := s.repo.CountUnread(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// A second read does not touch the cache again.
	_, err = s.svc.Get(ctx, owner, s.ids[0])
	require.NoError(t, err)
	assert.Len(t, s.cache.users, 1)
}

func TestGetForeignNotificationIsNotFound(t *testing.T) {
	s := seed(t)

	_, err := s.svc.Get(context.Background(), owner, s.foreign)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestMarkRead(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	_, err := s.svc.MarkRead(ctx, owner, notification.MarkReadInput{})
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))

	marked, err := s.svc.MarkRead(ctx, owner, notification.MarkReadInput{IDs: []uint{s.ids[1], s.foreign}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	marked, err = s.svc.MarkRead(ctx, owner, notification.MarkReadInput{All: true, IDs: []uint{s.ids[1]}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	marked, err = s.svc.MarkRead(ctx, owner, notification.MarkReadInput{All: true})
	require.NoError(t, err)
	assert.Zero(t, marked)

	foreignCount, err := s.repo.CountUnread(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), foreignCount)
	assert.Equal(t, []uint{1, 1}, s.cache.users)
}

func TestDelete(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	require.NoError(t, s.svc.Delete(ctx, owner, s.ids[2]))

	_, err := s.svc.Get(ctx, owner, s.ids[2])
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	err = s.svc.Delete(ctx, owner, s.ids[2])
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	err = s.svc.Delete(ctx, owner, s.foreign)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	count, err := s.repo.CountUnread(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
