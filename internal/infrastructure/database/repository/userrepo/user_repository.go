package userrepo

import (
	"context"

	"tieba-server/services/messaging-api/internal/domain/user"
	"tieba-server/services/messaging-api/internal/infrastructure/database/dbschema"
	"tieba-server/services/messaging-api/internal/infrastructure/database/transaction"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

const profileColumns = "users.id, users.username, users.nickname, users.avatar, " +
	"COALESCE(user_settings.allow_private_messages, TRUE) AS allow_private_messages"

type UserGormRepository struct {
	db *transaction.Database
}

var _ user.Directory = (*UserGormRepository)(nil)

func NewUserGormRepository(db *transaction.Database) *UserGormRepository {
	return &UserGormRepository{db: db}
}

func (repo *UserGormRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	var rows []dbschema.UserProfile
	err := repo.db.GetTx(ctx).
		Table("users").
		Select(profileColumns).
		Joins("LEFT JOIN user_settings ON user_settings.user_id = users.id").
		Where("users.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find user by ID", err, "ed15cd48-8536-4859-a8f6-a0055d7813ed")
	}
	if len(rows) == 0 {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "user not found", nil, "9bb116f9-3e65-42c0-becc-be84e9895b72", map[string]any{"user_id": id})
	}
	return rows[0].EtoD(), nil
}

func (repo *UserGormRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]*user.User, error) {
	result := make(map[uint]*user.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var rows []dbschema.UserProfile
	err := repo.db.GetTx(ctx).
		Table("users").
		Select(profileColumns).
		Joins("LEFT JOIN user_settings ON user_settings.user_id = users.id").
		Where("users.id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find users by ID", err, "87bb8f8e-47c2-4a71-ad29-f80104fe3f35")
	}
	for i := range rows {
		result[rows[i].ID] = rows[i].EtoD()
	}
	return result, nil
}
