package messagerepo

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

const lastMessageIDsSQL = `
SELECT DISTINCT ON (conversation_id) id
FROM messages
WHERE conversation_id IN ? AND is_deleted = FALSE
ORDER BY conversation_id, created_at DESC, id DESC`

const recomputeCountersSQL = `
UPDATE conversations
SET message_count = (SELECT COUNT(*) FROM messages WHERE conversation_id = @id AND is_deleted = FALSE),
    last_message_at = (SELECT MAX(created_at) FROM messages WHERE conversation_id = @id AND is_deleted = FALSE),
    updated_at = @now
WHERE id = @id`

const reconcileConversationsSQL = `
UPDATE conversations c
SET message_count = s.cnt,
    last_message_at = s.last_at
FROM (
    SELECT c2.id, COUNT(m.id) AS cnt, MAX(m.created_at) AS last_at
    FROM conversations c2
    LEFT JOIN messages m ON m.conversation_id = c2.id AND m.is_deleted = FALSE
    GROUP BY c2.id
) s
WHERE c.id = s.id
  AND (c.message_count IS DISTINCT FROM s.cnt OR c.last_message_at IS DISTINCT FROM s.last_at)`

type MessageGormRepository struct {
	db *transaction.Database
}

var _ conversation.MessageRepository = (*MessageGormRepository)(nil)

func NewMessageGormRepository(db *transaction.Database) *MessageGormRepository {
	return &MessageGormRepository{db: db}
}

func attachmentsByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// lockConversation takes the row lock that serializes counter writes of one conversation.
func lockConversation(tx *gorm.DB, conversationID uint) error {
	var conv dbschema.Conversation
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", conversationID).
		First(&conv).Error
}

func (repo *MessageGormRepository) Append(ctx context.Context, msg *conversation.Message) error {
	entity := dbschema.NewSchemaMessage(msg)
	sentAt := entity.CreatedAt
	err := repo.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := lockConversation(tx, msg.ConversationID); err != nil {
			return err
		}
		if err := tx.Create(entity).Error; err != nil {
			return err
		}

		if err := tx.Model(&dbschema.ConversationParticipant{}).
			Where("conversation_id = ? AND user_id <> ?", msg.ConversationID, msg.SenderID).
			Updates(map[string]any{
				"unread_count": gorm.Expr("unread_count + 1"),
				"updated_at":   sentAt,
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&dbschema.ConversationParticipant{}).
			Where("conversation_id = ? AND user_id = ?", msg.ConversationID, msg.SenderID).
			Updates(map[string]any{
				"last_read_at": sentAt,
				"updated_at":   sentAt,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&dbschema.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Updates(map[string]any{
				"message_count":   gorm.Expr("message_count + 1"),
				"last_message_at": gorm.Expr("GREATEST(COALESCE(last_message_at, ?), ?)", sentAt, sentAt),
				"updated_at":      sentAt,
			}).Error
	})
	if database.IsNotFound(err) {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", err, "153a2063-9d99-4a5b-b338-106772ea7574")
	}
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to append message", err, "420b3dd1-f157-425e-88cd-7ce43d78dbe9")
	}

	msg.ID = entity.ID
	for i := range msg.Attachments {
		if i < len(entity.Attachments) {
			msg.Attachments[i].ID = entity.Attachments[i].ID
			msg.Attachments[i].MessageID = entity.ID
		}
	}
	return nil
}

func (repo *MessageGormRepository) FindByID(ctx context.Context, id uint) (*conversation.Message, error) {
	var entity dbschema.Message
	err := repo.db.GetTx(ctx).
		Preload("Attachments", attachmentsByID).
		Where("id = ?", id).
		First(&entity).Error
	if database.IsNotFound(err) {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "message not found", err, "f94483ea-fc59-4ce3-8991-31c9f53291c3", map[string]any{"message_id": id})
	}
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find message", err, "630c7923-c70e-4892-ac11-c424ae79b641")
	}
	return entity.EtoD(), nil
}

func (repo *MessageGormRepository) ListByConversation(ctx context.Context, conversationID uint, pagination query.Pagination) ([]*conversation.Message, int64, error) {
	base := repo.db.GetTx(ctx).
		Model(&dbschema.Message{}).
		Where("conversation_id = ? AND is_deleted = ?", conversationID, false).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to count messages", err, "5c76d1f0-ff85-4c2c-bd13-901668d30769")
	}

	q := base.Preload("Attachments", attachmentsByID).
		Order("created_at ASC").
		Order("id ASC").
		Offset(pagination.Offset)
	if pagination.Limit > 0 {
		q = q.Limit(pagination.Limit)
	}

	var entities []dbschema.Message
	if err := q.Find(&entities).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list messages", err, "2789a159-3984-4e95-9b40-71c741ee1121")
	}
	return toDomain(entities), total, nil
}

func (repo *MessageGormRepository) LastByConversations(ctx context.Context, conversationIDs []uint) (map[uint]*conversation.Message, error) {
	result := make(map[uint]*conversation.Message, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return result, nil
	}

	db := repo.db.GetTx(ctx)
	var ids []uint
	if err := db.Raw(lastMessageIDsSQL, conversationIDs).Scan(&ids).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find last messages", err, "e9c9e919-5923-4f5c-be1a-acb12be1bbf6")
	}
	if len(ids) == 0 {
		return result, nil
	}

	var entities []dbschema.Message
	if err := db.Preload("Attachments", attachmentsByID).Where("id IN ?", ids).Find(&entities).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to load last messages", err, "8f68586f-92ac-4472-9553-8cc1e29006ed")
	}
	for _, m := range toDomain(entities) {
		result[m.ConversationID] = m
	}
	return result, nil
}

type readCandidate struct {
	ID             uint
	ConversationID uint
	SenderID       uint
	CreatedAt      time.Time
}

func (repo *MessageGormRepository) MarkRead(ctx context.Context, userID uint, messageIDs []uint, readAt time.Time) (conversation.ReadResult, error) {
	var result conversation.ReadResult
	if len(messageIDs) == 0 {
		return result, nil
	}

	err := repo.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var candidates []readCandidate
		if err := tx.Table("messages").
			Select("messages.id, messages.conversation_id, messages.sender_id, messages.created_at").
			Joins("JOIN conversation_participants cp ON cp.conversation_id = messages.conversation_id AND cp.user_id = ?", userID).
			Where("messages.id IN ? AND messages.is_deleted = ?", messageIDs, false).
			Scan(&candidates).Error; err != nil {
			return err
		}

		newest := make(map[uint]time.Time)
		var ids []uint
		for _, c := range candidates {
			if c.SenderID == userID {
				continue
			}
			ids = append(ids, c.ID)
			if t, ok := newest[c.ConversationID]; !ok || c.CreatedAt.After(t) {
				newest[c.ConversationID] = c.CreatedAt
			}
		}
		if len(ids) == 0 {
			return nil
		}

		res := tx.Model(&dbschema.Message{}).Where("id IN ?", ids).Update("is_read", true)
		if res.Error != nil {
			return res.Error
		}
		result.Marked = int(res.RowsAffected)

		for convID, newestAt := range newest {
			lastRead := readAt
			if newestAt.After(lastRead) {
				lastRead = newestAt
			}
			if err := tx.Model(&dbschema.ConversationParticipant{}).
				Where("conversation_id = ? AND user_id = ?", convID, userID).
				Updates(map[string]any{
					"unread_count": 0,
					"last_read_at": lastRead,
					"updated_at":   readAt,
				}).Error; err != nil {
				return err
			}
			result.ConversationIDs = append(result.ConversationIDs, convID)
		}
		return nil
	})
	if err != nil {
		return conversation.ReadResult{}, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to mark messages read", err, "45244b08-c562-4294-9297-aa9ce7070164")
	}
	return result, nil
}

func (repo *MessageGormRepository) SoftDelete(ctx context.Context, messageID uint) error {
	err := repo.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var entity dbschema.Message
		if err := tx.Select("id", "conversation_id").Where("id = ?", messageID).First(&entity).Error; err != nil {
			return err
		}
		if err := lockConversation(tx, entity.ConversationID); err != nil {
			return err
		}
		if err := tx.Model(&dbschema.Message{}).Where("id = ?", messageID).Update("is_deleted", true).Error; err != nil {
			return err
		}
		return tx.Exec(recomputeCountersSQL, map[string]any{
			"id":  entity.ConversationID,
			"now": time.Now().UTC(),
		}).Error
	})
	if database.IsNotFound(err) {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "message not found", err, "02760c5c-4ad8-4a2e-bad0-2b2c0ef41893")
	}
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete message", err, "2506094d-930b-4abb-b89f-ab0ca4d2e09d")
	}
	return nil
}

func (repo *MessageGormRepository) Reconcile(ctx context.Context) (conversation.ReconcileResult, error) {
	var result conversation.ReconcileResult
	err := repo.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		res := tx.Exec(reconcileConversationsSQL)
		if res.Error != nil {
			return res.Error
		}
		result.Conversations = res.RowsAffected

		res = tx.Model(&dbschema.ConversationParticipant{}).
			Where("unread_count < 0").
			Update("unread_count", 0)
		if res.Error != nil {
			return res.Error
		}
		result.Participants = res.RowsAffected
		return nil
	})
	if err != nil {
		return conversation.ReconcileResult{}, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to reconcile conversation counters", err, "c365c1e0-65cb-4106-8e73-981a514705bf")
	}
	return result, nil
}

func toDomain(entities []dbschema.Message) []*conversation.Message {
	result := make([]*conversation.Message, 0, len(entities))
	for i := range entities {
		result = append(result, entities[i].EtoD())
	}
	return result
}
