package notificationrepo

import (
	"context"

	"gorm.io/gorm"

	"tieba-server/services/messaging-api/internal/domain/notification"
	"tieba-server/services/messaging-api/internal/domain/query"
	"tieba-server/services/messaging-api/internal/infrastructure/database"
	"tieba-server/services/messaging-api/internal/infrastructure/database/dbschema"
	"tieba-server/services/messaging-api/internal/infrastructure/database/transaction"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

type NotificationGormRepository struct {
	db *transaction.Database
}

var _ notification.Repository = (*NotificationGormRepository)(nil)

func NewNotificationGormRepository(db *transaction.Database) *NotificationGormRepository {
	return &NotificationGormRepository{db: db}
}

func (repo *NotificationGormRepository) inbox(ctx context.Context, recipientID uint) *gorm.DB {
	return repo.db.GetTx(ctx).
		Model(&dbschema.SystemNotification{}).
		Where("recipient_id = ? AND is_deleted = ?", recipientID, false)
}

func (repo *NotificationGormRepository) Create(ctx context.Context, n *notification.Notification) error {
	entity := dbschema.NewSchemaNotification(n)
	if err := repo.db.GetTx(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to create notification", err, "4212c016-f7a5-4c59-b525-0df4b8365424")
	}
	n.ID = entity.ID
	return nil
}

func (repo *NotificationGormRepository) Find(ctx context.Context, filter notification.Filter, pagination query.Pagination) ([]*notification.Notification, int64, error) {
	base := repo.inbox(ctx, filter.RecipientID)
	if filter.UnreadOnly {
		base = base.Where("is_read = ?", false)
	}
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to count notifications", err, "95219de1-9608-40ff-8127-3bb2261f83a9")
	}

	q := base.Order("created_at DESC").Order("id DESC").Offset(pagination.Offset)
	if pagination.Limit > 0 {
		q = q.Limit(pagination.Limit)
	}
	var entities []dbschema.SystemNotification
	if err := q.Find(&entities).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list notifications", err, "b11bdc88-89e8-491b-a130-37c08ec53c38")
	}

	result := make([]*notification.Notification, 0, len(entities))
	for i := range entities {
		result = append(result, entities[i].EtoD())
	}
	return result, total, nil
}

func (repo *NotificationGormRepository) FindByID(ctx context.Context, recipientID, id uint) (*notification.Notification, error) {
	var entity dbschema.SystemNotification
	err := repo.inbox(ctx, recipientID).Where("id = ?", id).First(&entity).Error
	if database.IsNotFound(err) {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "notification not found", err, "c96edf5b-80be-4b9a-8992-66110344ff68", map[string]any{"notification_id": id})
	}
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find notification", err, "aa76fb83-48a5-480b-8df1-b082c5d5c554")
	}
	return entity.EtoD(), nil
}

func (repo *NotificationGormRepository) MarkRead(ctx context.Context, recipientID uint, ids []uint) (int64, error) {
	q := repo.inbox(ctx, recipientID).Where("is_read = ?", false)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	res := q.Update("is_read", true)
	if res.Error != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to mark notifications read", res.Error, "5221009a-9890-4eb0-9aab-96ae914d6373")
	}
	return res.RowsAffected, nil
}

func (repo *NotificationGormRepository) SoftDelete(ctx context.Context, recipientID, id uint) error {
	res := repo.inbox(ctx, recipientID).Where("id = ?", id).Update("is_deleted", true)
	if res.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete notification", res.Error, "d09af9a7-50ad-44b6-97ce-349d21b82bf8")
	}
	if res.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "notification not found", nil, "515386a0-a7cf-4ec5-9bac-56040061556b")
	}
	return nil
}

func (repo *NotificationGormRepository) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	if err := repo.inbox(ctx, recipientID).Where("is_read = ?", false).Count(&count).Error; err != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to count unread notifications", err, "7979ff4c-d9bf-4c8d-a9ca-3142d4ee10c7")
	}
	return count, nil
}
