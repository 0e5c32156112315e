package block_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tieba-server/services/messaging-api/internal/domain"
	"tieba-server/services/messaging-api/internal/domain/block"
	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/domain/query"
	"tieba-server/services/messaging-api/internal/domain/user"
	"tieba-server/services/messaging-api/internal/infrastructure/repository/memory"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

func setup(t *testing.T) (*memory.Store, block.Service) {
	t.Helper()
	store := memory.NewStore()
	for id, name := range map[uint]string{1: "alice", 2: "bob", 3: "carol"} {
		store.PutUser(user.User{ID: id, Username: name, AllowPrivateMessages: true})
	}
	return store, block.NewService(store.Blocks(), store.Users(), zerolog.Nop())
}

func principal(id uint) domain.Principal {
	return domain.Principal{UserID: id}
}

func TestBlockAndUnblock(t *testing.T) {
	store, svc := setup(t)
	ctx := context.Background()

	conv, _, err := store.Conversations().FindOrCreatePrivate(ctx, conversation.PairKey(1, 2), 1, 2)
	require.NoError(t, err)

	b, err := svc.Block(ctx, principal(2), 1)
	require.NoError(t, err)
	assert.Equal(t, uint(2), b.BlockerID)
	assert.Equal(t, uint(1), b.BlockedID)
	assert.Equal(t, "alice", b.BlockedUsername)

	reloaded, err := store.Conversations().FindByID(ctx, conv.ID)
	require.NoError(t, err)
	p, ok := reloaded.Participant(2)
	require.True(t, ok)
	assert.True(t, p.IsBlocked)

	err = svc.AssertCanSend(ctx, 1, 2)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeForbidden))
	assert.NoError(t, svc.AssertCanSend(ctx, 2, 1), "blocks are directed")

	require.NoError(t, svc.Unblock(ctx, principal(2), 1))
	assert.NoError(t, svc.AssertCanSend(ctx, 1, 2))

	reloaded, err = store.Conversations().FindByID(ctx, conv.ID)
	require.NoError(t, err)
	p, _ = reloaded.Participant(2)
	assert.False(t, p.IsBlocked)
}

func TestBlockValidation(t *testing.T) {
	_, svc := setup(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		blocker   uint
		blocked   uint
		wantError platformerrors.ErrorType
	}{
		{"self", 1, 1, platformerrors.ErrorTypeValidation},
		{"missing id", 1, 0, platformerrors.ErrorTypeValidation},
		{"unknown user", 1, 77, platformerrors.ErrorTypeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Block(ctx, principal(tt.blocker), tt.blocked)
			require.Error(t, err)
			assert.True(t, platformerrors.IsErrorType(err, tt.wantError), "got %v", err)
		})
	}
}

func TestBlockDuplicateIsValidationError(t *testing.T) {
	_, svc := setup(t)
	ctx := context.Background()

	_, err := svc.Block(ctx, principal(1), 3)
	require.NoError(t, err)
	_, err = svc.Block(ctx, principal(1), 3)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func TestUnblockMissingEdge(t *testing.T) {
	_, svc := setup(t)
	ctx := context.Background()

	err := svc.Unblock(ctx, principal(1), 2)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	err = svc.Unblock(ctx, principal(1), 99)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestAssertCanSendIgnoresSender(t *testing.T) {
	_, svc := setup(t)
	ctx := context.Background()

	_, err := svc.Block(ctx, principal(3), 1)
	require.NoError(t, err)

	assert.NoError(t, svc.AssertCanSend(ctx, 1))
	assert.NoError(t, svc.AssertCanSend(ctx, 1, 1, 2))
	assert.Error(t, svc.AssertCanSend(ctx, 1, 2, 3))
}

func TestListBlocks(t *testing.T) {
	store, svc := setup(t)
	ctx := context.Background()

	_, err := svc.Block(ctx, principal(1), 2)
	require.NoError(t, err)
	_, err = svc.Block(ctx, principal(1), 3)
	require.NoError(t, err)
	_, err = svc.Block(ctx, principal(2), 3)
	require.NoError(t, err)

	store.PutUser(user.User{ID: 3, Username: "carol_renamed"})

	blocks, total, err := svc.List(ctx, principal(1), query.Page(10, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, blocks, 2)

	names := map[uint]string{}
	for _, b := range blocks {
		assert.Equal(t, uint(1), b.BlockerID)
		names[b.BlockedID] = b.BlockedUsername
	}
	assert.Equal(t, map[uint]string{2: "bob", 3: "carol_renamed"}, names)

	page, total, err := svc.List(ctx, principal(1), query.Page(1, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, page, 1)
}
