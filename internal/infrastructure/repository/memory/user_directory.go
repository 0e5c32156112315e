package memory

import (
	"context"

	"tieba-server/services/messaging-api/internal/domain/user"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

type UserDirectory struct {
	s *Store
}

var _ user.Directory = (*UserDirectory)(nil)

func (d *UserDirectory) FindByID(ctx context.Context, id uint) (*user.User, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	u, ok := d.s.users[id]
	if !ok {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "user not found", nil, "f2c9c7a3-f60b-4b62-85aa-8e157865ecb9", map[string]any{"user_id": id})
	}
	cp := *u
	return &cp, nil
}

func (d *UserDirectory) FindByIDs(_ context.Context, ids []uint) (map[uint]*user.User, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	result := make(map[uint]*user.User, len(ids))
	for _, id := range ids {
		if u, ok := d.s.users[id]; ok {
			cp := *u
			result[id] = &cp
		}
	}
	return result, nil
}
