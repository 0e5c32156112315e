package conversationrepo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/domain/query"
	"tieba-server/services/messaging-api/internal/infrastructure/database"
	"tieba-server/services/messaging-api/internal/infrastructure/database/dbschema"
	"tieba-server/services/messaging-api/internal/infrastructure/database/transaction"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

type ConversationGormRepository struct {
	db *transaction.Database
}

var _ conversation.Repository = (*ConversationGormRepository)(nil)

func NewConversationGormRepository(db *transaction.Database) *ConversationGormRepository {
	return &ConversationGormRepository{db: db}
}

func participantsByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// FindOrCreatePrivate relies on the unique pair_key index: a concurrent
// insert of the same key blocks on the index until the first transaction
// commits, then becomes a no-op and the re-read sees the committed row.
func (repo *ConversationGormRepository) FindOrCreatePrivate(ctx context.Context, pairKey string, userA, userB uint) (*conversation.Conversation, bool, error) {
	var (
		result  *conversation.Conversation
		created bool
	)
	err := repo.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		now := time.Now().UTC()
		key := pairKey
		entity := &dbschema.Conversation{
			Type:      conversation.ConversationTypePrivate,
			PairKey:   &key,
			CreatedAt: now,
			UpdatedAt: now,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).Create(entity)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 1 {
			created = true
			participants := []dbschema.ConversationParticipant{
				dbschema.NewSchemaParticipant(entity.ID, userA, now),
				dbschema.NewSchemaParticipant(entity.ID, userB, now),
			}
			if err := tx.Create(&participants).Error; err != nil {
				return err
			}
		}

		var loaded dbschema.Conversation
		if err := tx.Preload("Participants", participantsByID).
			Where("pair_key = ?", key).
			First(&loaded).Error; err != nil {
			return err
		}
		result = loaded.EtoD()
		return nil
	})
	if err != nil {
		return nil, false, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to resolve private conversation", err, "987bf1fc-8866-4f36-8de0-e04a05a34e04")
	}
	return result, created, nil
}

func (repo *ConversationGormRepository) CreateGroup(ctx context.Context, conv *conversation.Conversation, memberIDs []uint) error {
	entity := dbschema.NewSchemaConversation(conv)
	entity.PairKey = nil
	err := repo.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Create(entity).Error; err != nil {
			return err
		}
		participants := make([]dbschema.ConversationParticipant, 0, len(memberIDs))
		for _, id := range memberIDs {
			participants = append(participants, dbschema.NewSchemaParticipant(entity.ID, id, entity.CreatedAt))
		}
		if err := tx.Create(&participants).Error; err != nil {
			return err
		}
		entity.Participants = participants
		return nil
	})
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to create group conversation", err, "ee59c9d8-0eb8-4305-98fb-007b97b6a8ad")
	}
	*conv = *entity.EtoD()
	return nil
}

func (repo *ConversationGormRepository) FindByID(ctx context.Context, id uint) (*conversation.Conversation, error) {
	var entity dbschema.Conversation
	err := repo.db.GetTx(ctx).
		Preload("Participants", participantsByID).
		Where("id = ?", id).
		First(&entity).Error
	if database.IsNotFound(err) {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", err, "48a2f612-1a59-4700-8cde-46578e872a7f", map[string]any{"conversation_id": id})
	}
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find conversation", err, "7aa0b7ab-d0da-44d3-9caf-696487a5f9d7")
	}
	return entity.EtoD(), nil
}

func (repo *ConversationGormRepository) ListByUser(ctx context.Context, userID uint, pagination query.Pagination) ([]*conversation.Conversation, int64, error) {
	base := repo.db.GetTx(ctx).
		Model(&dbschema.Conversation{}).
		Joins("JOIN conversation_participants self ON self.conversation_id = conversations.id AND self.user_id = ?", userID).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to count conversations", err, "1d257b1d-eda4-4dd1-86c9-ee12b2f69642")
	}

	q := base.Select("conversations.*").
		Preload("Participants", participantsByID).
		Order("conversations.last_message_at DESC NULLS LAST").
		Order("conversations.updated_at DESC").
		Order("conversations.id DESC").
		Offset(pagination.Offset)
	if pagination.Limit > 0 {
		q = q.Limit(pagination.Limit)
	}

	var entities []dbschema.Conversation
	if err := q.Find(&entities).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list conversations", err, "734d5f05-e6e6-4c5b-986e-c6e84f24516d")
	}

	result := make([]*conversation.Conversation, 0, len(entities))
	for i := range entities {
		result = append(result, entities[i].EtoD())
	}
	return result, total, nil
}

func (repo *ConversationGormRepository) FindParticipant(ctx context.Context, conversationID, userID uint) (*conversation.Participant, error) {
	var entity dbschema.ConversationParticipant
	err := repo.db.GetTx(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&entity).Error
	if database.IsNotFound(err) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "participant not found", err, "1d453f56-51fe-4af2-8dc5-b49a72c266a7")
	}
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find participant", err, "ff1b68ba-6c12-4aed-8797-1435852de7fe")
	}
	return entity.EtoD(), nil
}

func (repo *ConversationGormRepository) MarkConversationRead(ctx context.Context, conversationID, userID uint, readAt time.Time) error {
	var affected int64
	err := repo.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		res := tx.Model(&dbschema.ConversationParticipant{}).
			Where("conversation_id = ? AND user_id = ?", conversationID, userID).
			Updates(map[string]any{
				"unread_count": 0,
				"last_read_at": readAt,
				"updated_at":   readAt,
			})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		if affected == 0 {
			return nil
		}
		return tx.Model(&dbschema.Message{}).
			Where("conversation_id = ? AND sender_id <> ? AND is_read = ? AND is_deleted = ?", conversationID, userID, false, false).
			Update("is_read", true).Error
	})
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to mark conversation read", err, "e6eb26d6-3155-4c8c-8286-db94cf236e26")
	}
	if affected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "participant not found", nil, "55e3d7c8-4ac9-46c7-b823-f6030f740a51")
	}
	return nil
}

func (repo *ConversationGormRepository) SetMuted(ctx context.Context, conversationID, userID uint, muted bool) (*conversation.Participant, error) {
	res := repo.db.GetTx(ctx).
		Model(&dbschema.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Updates(map[string]any{
			"is_muted":   muted,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to update mute state", res.Error, "f13746e0-c0d2-4e9e-a5cf-8723586a60e3")
	}
	if res.RowsAffected == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "participant not found", nil, "1604691c-6837-493b-9a8b-75babc125670")
	}
	return repo.FindParticipant(ctx, conversationID, userID)
}

func (repo *ConversationGormRepository) SumUnread(ctx context.Context, userID uint) (int64, error) {
	var sum int64
	err := repo.db.GetTx(ctx).
		Model(&dbschema.ConversationParticipant{}).
		Select("COALESCE(SUM(unread_count), 0)").
		Where("user_id = ?", userID).
		Scan(&sum).Error
	if err != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to sum unread counts", err, "44d78bfa-78af-462c-8cef-0978620b1e1b")
	}
	return sum, nil
}
