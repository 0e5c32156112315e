package memory

import (
	"context"
	"sort"

	"tieba-server/services/messaging-api/internal/domain/block"
	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/domain/query"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

type BlockRepository struct {
	s *Store
}

var _ block.Repository = (*BlockRepository)(nil)

func (r *BlockRepository) Create(ctx context.Context, b *block.Block) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findBlock(b.BlockerID, b.BlockedID) != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict, "block already exists", nil, "ec68e165-ed2a-4b86-a1db-6e0dc33284e0")
	}
	s.nextBlockID++
	b.ID = s.nextBlockID
	cp := *b
	s.blocks[b.ID] = &cp
	s.flagBlocked(b.BlockerID, b.BlockedID, true)
	return nil
}

func (r *BlockRepository) Delete(ctx context.Context, blockerID, blockedID uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.findBlock(blockerID, blockedID)
	if existing == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "block not found", nil, "3e9bfaca-a2b5-406d-ab58-bd797dcb9041")
	}
	delete(s.blocks, existing.ID)
	s.flagBlocked(blockerID, blockedID, false)
	return nil
}

func (r *BlockRepository) AnyBlocking(_ context.Context, blockedID uint, blockerIDs []uint) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, blocker := range blockerIDs {
		if r.s.findBlock(blocker, blockedID) != nil {
			return true, nil
		}
	}
	return false, nil
}

func (r *BlockRepository) ListByBlocker(_ context.Context, blockerID uint, pagination query.Pagination) ([]*block.Block, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*block.Block
	for _, b := range r.s.blocks {
		if b.BlockerID == blockerID {
			matched = append(matched, b)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	start, end := pagination.Window(len(matched))
	result := make([]*block.Block, 0, end-start)
	for _, b := range matched[start:end] {
		cp := *b
		result = append(result, &cp)
	}
	return result, int64(len(matched)), nil
}

func (s *Store) findBlock(blockerID, blockedID uint) *block.Block {
	for _, b := range s.blocks {
		if b.BlockerID == blockerID && b.BlockedID == blockedID {
			return b
		}
	}
	return nil
}

// flagBlocked mirrors a block edge onto the blocker's row of the pair's
// private conversation. Callers hold the write lock.
func (s *Store) flagBlocked(blockerID, blockedID uint, blocked bool) {
	id, ok := s.pairs[conversation.PairKey(blockerID, blockedID)]
	if !ok {
		return
	}
	if p, ok := s.conversations[id].Participant(blockerID); ok {
		p.IsBlocked = blocked
		p.UpdatedAt = s.now()
	}
}
