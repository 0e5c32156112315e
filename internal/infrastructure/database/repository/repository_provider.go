package repository

import (
	"github.com/google/wire"

	"tieba-server/services/messaging-api/internal/domain/block"
	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/domain/notification"
	"tieba-server/services/messaging-api/internal/infrastructure/database/repository/blockrepo"
	"tieba-server/services/messaging-api/internal/infrastructure/database/repository/conversationrepo"
	"tieba-server/services/messaging-api/internal/infrastructure/database/repository/messagerepo"
	"tieba-server/services/messaging-api/internal/infrastructure/database/repository/notificationrepo"
	"tieba-server/services/messaging-api/internal/infrastructure/database/repository/userrepo"
	"tieba-server/services/messaging-api/internal/infrastructure/database/transaction"
)

var RepositoryProvider = wire.NewSet(
	transaction.NewDatabase,
	conversationrepo.NewConversationGormRepository,
	wire.Bind(new(conversation.Repository), new(*conversationrepo.ConversationGormRepository)),
	messagerepo.NewMessageGormRepository,
	wire.Bind(new(conversation.MessageRepository), new(*messagerepo.MessageGormRepository)),
	blockrepo.NewBlockGormRepository,
	wire.Bind(new(block.Repository), new(*blockrepo.BlockGormRepository)),
	notificationrepo.NewNotificationGormRepository,
	wire.Bind(new(notification.Repository), new(*notificationrepo.NotificationGormRepository)),
	userrepo.NewUserGormRepository,
)
