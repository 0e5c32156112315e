package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tieba-server/services/messaging-api/internal/domain/user"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

type countingDirectory struct {
	users   map[uint]*user.User
	byID    int
	batches [][]uint
}

func (d *countingDirectory) FindByID(ctx context.Context, id uint) (*user.User, error) {
	d.byID++
	u, ok := d.users[id]
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "user not found", nil, "")
	}
	cp := *u
	return &cp, nil
}

func (d *countingDirectory) FindByIDs(_ context.Context, ids []uint) (map[uint]*user.User, error) {
	d.batches = append(d.batches, append([]uint(nil), ids...))
	result := make(map[uint]*user.User)
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			cp := *u
			result[id] = &cp
		}
	}
	return result, nil
}

func TestUserDirectoryCachesProfiles(t *testing.T) {
	backend := &countingDirectory{users: map[uint]*user.User{
		1: {ID: 1, Username: "alice"},
		2: {ID: 2, Username: "bob"},
	}}
	dir, err := NewUserDirectory(backend, 16, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	u, err := dir.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	_, _ = dir.FindByID(ctx, 1)
	assert.Equal(t, 1, backend.byID)

	got, err := dir.FindByIDs(ctx, []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	require.Len(t, backend.batches, 1)
	assert.Equal(t, []uint{2, 3}, backend.batches[0])

	_, err = dir.FindByID(ctx, 3)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestUserDirectoryExpiresEntries(t *testing.T) {
	backend := &countingDirectory{users: map[uint]*user.User{1: {ID: 1, Username: "alice"}}}
	dir, err := NewUserDirectory(backend, 16, time.Second)
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dir.now = func() time.Time { return now }

	ctx := context.Background()
	_, _ = dir.FindByID(ctx, 1)
	now = now.Add(2 * time.Second)
	_, _ = dir.FindByID(ctx, 1)
	assert.Equal(t, 2, backend.byID)
}

func TestBuildUniversalOptions(t *testing.T) {
	opts, err := buildUniversalOptions("redis://:secret@cache-a:6379/2, cache-b:6380")
	require.NoError(t, err)
	assert.Equal(t, []string{"cache-a:6379", "cache-b:6380"}, opts.Addrs)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	_, err = buildUniversalOptions(" , ")
	assert.Error(t, err)
}
