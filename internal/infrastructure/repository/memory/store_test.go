package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tieba-server/services/messaging-api/internal/domain/block"
	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/domain/query"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

func TestFindOrCreatePrivateConcurrent(t *testing.T) {
	store := NewStore()
	repo := store.Conversations()
	ctx := context.Background()
	key := conversation.PairKey(7, 3)

	const callers = 32
	ids := make([]uint, callers)
	created := make([]bool, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := uint(3), uint(7)
			if i%2 == 0 {
				a, b = b, a
			}
			conv, isNew, err := repo.FindOrCreatePrivate(ctx, key, a, b)
			if !assert.NoError(t, err) {
				return
			}
			ids[i] = conv.ID
			created[i] = isNew
		}(i)
	}
	wg.Wait()

	creators := 0
	for i := range ids {
		assert.Equal(t, ids[0], ids[i])
		if created[i] {
			creators++
		}
	}
	assert.Equal(t, 1, creators)
	assert.Len(t, store.conversations, 1)
	assert.Len(t, store.conversations[ids[0]].Participants, 2)
}

func TestAppendMaintainsCounters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	conv, _, err := store.Conversations().FindOrCreatePrivate(ctx, conversation.PairKey(1, 2), 1, 2)
	require.NoError(t, err)

	msgs := store.Messages()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		m := &conversation.Message{ConversationID: conv.ID, SenderID: 1, Content: "hi", Type: conversation.MessageTypeText, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, msgs.Append(ctx, m))
		assert.NotZero(t, m.ID)
	}

	got, err := store.Conversations().FindByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.MessageCount)
	require.NotNil(t, got.LastMessageAt)
	assert.True(t, got.LastMessageAt.Equal(base.Add(2*time.Minute)))
	assert.Equal(t, 3, got.UnreadCountFor(2))
	assert.Equal(t, 0, got.UnreadCountFor(1))

	sender, _ := got.Participant(1)
	require.NotNil(t, sender.LastReadAt)
	assert.True(t, sender.LastReadAt.Equal(base.Add(2*time.Minute)))
}

func TestAppendUnknownConversation(t *testing.T) {
	store := NewStore()
	err := store.Messages().Append(context.Background(), &conversation.Message{ConversationID: 99, SenderID: 1})
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestMarkReadScopesToParticipant(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	ab, _, _ := store.Conversations().FindOrCreatePrivate(ctx, conversation.PairKey(1, 2), 1, 2)
	cd, _, _ := store.Conversations().FindOrCreatePrivate(ctx, conversation.PairKey(3, 4), 3, 4)

	now := time.Now().UTC()
	fromA := &conversation.Message{ConversationID: ab.ID, SenderID: 1, CreatedAt: now}
	fromC := &conversation.Message{ConversationID: cd.ID, SenderID: 3, CreatedAt: now}
	own := &conversation.Message{ConversationID: ab.ID, SenderID: 2, CreatedAt: now}
	for _, m := range []*conversation.Message{fromA, fromC, own} {
		require.NoError(t, store.Messages().Append(ctx, m))
	}

	res, err := store.Messages().MarkRead(ctx, 2, []uint{fromA.ID, fromC.ID, own.ID, 999}, now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Marked)
	assert.Equal(t, []uint{ab.ID}, res.ConversationIDs)

	outside, _ := store.Messages().FindByID(ctx, fromC.ID)
	assert.False(t, outside.IsRead)
	mine, _ := store.Messages().FindByID(ctx, own.ID)
	assert.False(t, mine.IsRead)

	sum, err := store.Conversations().SumUnread(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum)
	sum, _ = store.Conversations().SumUnread(ctx, 4)
	assert.Equal(t, int64(1), sum)
}

func TestSoftDeleteRecomputesCounters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	conv, _, _ := store.Conversations().FindOrCreatePrivate(ctx, conversation.PairKey(1, 2), 1, 2)

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := &conversation.Message{ConversationID: conv.ID, SenderID: 1, CreatedAt: t0}
	second := &conversation.Message{ConversationID: conv.ID, SenderID: 1, CreatedAt: t0.Add(time.Hour)}
	require.NoError(t, store.Messages().Append(ctx, first))
	require.NoError(t, store.Messages().Append(ctx, second))

	require.NoError(t, store.Messages().SoftDelete(ctx, second.ID))
	got, _ := store.Conversations().FindByID(ctx, conv.ID)
	assert.Equal(t, 1, got.MessageCount)
	assert.True(t, got.LastMessageAt.Equal(t0))
	assert.Equal(t, 2, got.UnreadCountFor(2))

	last, err := store.Messages().LastByConversations(ctx, []uint{conv.ID})
	require.NoError(t, err)
	assert.Equal(t, first.ID, last[conv.ID].ID)

	require.NoError(t, store.Messages().SoftDelete(ctx, first.ID))
	got, _ = store.Conversations().FindByID(ctx, conv.ID)
	assert.Equal(t, 0, got.MessageCount)
	assert.Nil(t, got.LastMessageAt)
}

func TestReconcileRepairsDrift(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	conv, _, _ := store.Conversations().FindOrCreatePrivate(ctx, conversation.PairKey(1, 2), 1, 2)
	require.NoError(t, store.Messages().Append(ctx, &conversation.Message{ConversationID: conv.ID, SenderID: 1, CreatedAt: time.Now().UTC()}))

	store.mu.Lock()
	live := store.conversations[conv.ID]
	live.MessageCount = 9
	live.Participants[1].UnreadCount = -4
	store.mu.Unlock()

	res, err := store.Messages().Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Conversations)
	assert.Equal(t, int64(1), res.Participants)

	got, _ := store.Conversations().FindByID(ctx, conv.ID)
	assert.Equal(t, 1, got.MessageCount)
	assert.Equal(t, 0, got.UnreadCountFor(2))

	res, err = store.Messages().Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Conversations)
}

func TestBlockFlagsPrivateParticipant(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	conv, _, _ := store.Conversations().FindOrCreatePrivate(ctx, conversation.PairKey(1, 2), 1, 2)

	require.NoError(t, store.Blocks().Create(ctx, &block.Block{BlockerID: 2, BlockedID: 1, CreatedAt: time.Now()}))
	err := store.Blocks().Create(ctx, &block.Block{BlockerID: 2, BlockedID: 1})
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict))

	p, err := store.Conversations().FindParticipant(ctx, conv.ID, 2)
	require.NoError(t, err)
	assert.True(t, p.IsBlocked)

	blocked, _ := store.Blocks().AnyBlocking(ctx, 1, []uint{2})
	assert.True(t, blocked)
	blocked, _ = store.Blocks().AnyBlocking(ctx, 2, []uint{1})
	assert.False(t, blocked)

	require.NoError(t, store.Blocks().Delete(ctx, 2, 1))
	p, _ = store.Conversations().FindParticipant(ctx, conv.ID, 2)
	assert.False(t, p.IsBlocked)

	err = store.Blocks().Delete(ctx, 2, 1)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestListByUserOrdering(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repo := store.Conversations()

	quiet, _, _ := repo.FindOrCreatePrivate(ctx, conversation.PairKey(1, 2), 1, 2)
	older, _, _ := repo.FindOrCreatePrivate(ctx, conversation.PairKey(1, 3), 1, 3)
	newer, _, _ := repo.FindOrCreatePrivate(ctx, conversation.PairKey(1, 4), 1, 4)

	t0 := time.Now().UTC()
	require.NoError(t, store.Messages().Append(ctx, &conversation.Message{ConversationID: older.ID, SenderID: 3, CreatedAt: t0}))
	require.NoError(t, store.Messages().Append(ctx, &conversation.Message{ConversationID: newer.ID, SenderID: 4, CreatedAt: t0.Add(time.Minute)}))

	convs, total, err := repo.ListByUser(ctx, 1, query.Page(10, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, convs, 3)
	assert.Equal(t, []uint{newer.ID, older.ID, quiet.ID}, []uint{convs[0].ID, convs[1].ID, convs[2].ID})

	page, _, _ := repo.ListByUser(ctx, 1, query.Page(1, 1))
	require.Len(t, page, 1)
	assert.Equal(t, older.ID, page[0].ID)
}
