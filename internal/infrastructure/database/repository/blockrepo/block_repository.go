package blockrepo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tieba-server/services/messaging-api/internal/domain/block"
	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/domain/query"
	"tieba-server/services/messaging-api/internal/infrastructure/database"
	"tieba-server/services/messaging-api/internal/infrastructure/database/dbschema"
	"tieba-server/services/messaging-api/internal/infrastructure/database/transaction"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

type BlockGormRepository struct {
	db *transaction.Database
}

var _ block.Repository = (*BlockGormRepository)(nil)

func NewBlockGormRepository(db *transaction.Database) *BlockGormRepository {
	return &BlockGormRepository{db: db}
}

func (repo *BlockGormRepository) Create(ctx context.Context, b *block.Block) error {
	entity := dbschema.NewSchemaUserBlock(b)
	err := repo.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Create(entity).Error; err != nil {
			return err
		}
		return setParticipantBlocked(tx, b.BlockerID, b.BlockedID, true)
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict, "block already exists", err, "1b9b22d7-73f4-4aec-b267-8dede4e8a955")
		}
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to create block", err, "9ce7067d-e3cf-4314-9e96-612d9c412377")
	}
	b.ID = entity.ID
	return nil
}

func (repo *BlockGormRepository) Delete(ctx context.Context, blockerID, blockedID uint) error {
	var removed int64
	err := repo.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		res := tx.Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).Delete(&dbschema.UserBlock{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		if removed == 0 {
			return nil
		}
		return setParticipantBlocked(tx, blockerID, blockedID, false)
	})
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete block", err, "7b8d909a-a223-4a13-a1a3-0f514df8cdbe")
	}
	if removed == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "block not found", nil, "30746b63-6abe-44b6-916c-ff7d9558a34a")
	}
	return nil
}

func (repo *BlockGormRepository) AnyBlocking(ctx context.Context, blockedID uint, blockerIDs []uint) (bool, error) {
	if len(blockerIDs) == 0 {
		return false, nil
	}
	var count int64
	err := repo.db.GetTx(ctx).
		Model(&dbschema.UserBlock{}).
		Where("blocked_id = ? AND blocker_id IN ?", blockedID, blockerIDs).
		Count(&count).Error
	if err != nil {
		return false, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to check blocks", err, "9ca93e0a-a732-415e-9a81-a2b5b8a073ff")
	}
	return count > 0, nil
}

func (repo *BlockGormRepository) ListByBlocker(ctx context.Context, blockerID uint, pagination query.Pagination) ([]*block.Block, int64, error) {
	db := repo.db.GetTx(ctx).
		Model(&dbschema.UserBlock{}).
		Where("blocker_id = ?", blockerID).
		Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to count blocks", err, "30f72bab-3290-460f-a9d5-7886a65131e5")
	}

	var entities []dbschema.UserBlock
	q := db.Order("created_at DESC").Order("id DESC").Offset(pagination.Offset)
	if pagination.Limit > 0 {
		q = q.Limit(pagination.Limit)
	}
	if err := q.Find(&entities).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list blocks", err, "9b700e0b-2363-4227-a4ac-e76ea8e458b8")
	}

	blocks := make([]*block.Block, 0, len(entities))
	for i := range entities {
		blocks = append(blocks, entities[i].EtoD())
	}
	return blocks, total, nil
}

// setParticipantBlocked mirrors the edge onto the blocker's row of the pair's
// private conversation, when that conversation exists.
func setParticipantBlocked(tx *gorm.DB, blockerID, blockedID uint, blocked bool) error {
	return tx.Model(&dbschema.ConversationParticipant{}).
		Where("user_id = ?", blockerID).
		Where("conversation_id IN (SELECT id FROM conversations WHERE pair_key = ?)", conversation.PairKey(blockerID, blockedID)).
		Updates(map[string]any{
			"is_blocked": blocked,
			"updated_at": time.Now().UTC(),
		}).Error
}
