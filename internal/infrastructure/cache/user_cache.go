package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"tieba-server/services/messaging-api/internal/domain/user"
)

type userEntry struct {
	user      user.User
	expiresAt time.Time
}

// UserDirectory is a read-through LRU in front of a user.Directory. Profiles
// change rarely and every list response enriches them, so misses are batched.
type UserDirectory struct {
	next  user.Directory
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

var _ user.Directory = (*UserDirectory)(nil)

func NewUserDirectory(next user.Directory, size int, ttl time.Duration) (*UserDirectory, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &UserDirectory{
		next:  next,
		cache: c,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

func (d *UserDirectory) lookup(id uint) (*user.User, bool) {
	raw, ok := d.cache.Get(id)
	if !ok {
		return nil, false
	}
	entry := raw.(*userEntry)
	if d.now().After(entry.expiresAt) {
		d.cache.Remove(id)
		return nil, false
	}
	u := entry.user
	return &u, true
}

func (d *UserDirectory) store(u *user.User) {
	d.cache.Add(u.ID, &userEntry{user: *u, expiresAt: d.now().Add(d.ttl)})
}

func (d *UserDirectory) FindByID(ctx context.Context, id uint) (*user.User, error) {
	if u, ok := d.lookup(id); ok {
		return u, nil
	}
	u, err := d.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.store(u)
	return u, nil
}

func (d *UserDirectory) FindByIDs(ctx context.Context, ids []uint) (map[uint]*user.User, error) {
	result := make(map[uint]*user.User, len(ids))
	var missing []uint
	for _, id := range ids {
		if u, ok := d.lookup(id); ok {
			result[id] = u
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := d.next.FindByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, u := range fetched {
		d.store(u)
		result[id] = u
	}
	return result, nil
}
