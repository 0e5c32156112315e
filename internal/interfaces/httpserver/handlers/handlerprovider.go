package handlers

import (
	"github.com/rs/zerolog"

	"tieba-server/services/messaging-api/internal/domain/block"
	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/domain/notification"
	"tieba-server/services/messaging-api/internal/domain/unread"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/handlers/blockhandler"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/handlers/conversationhandler"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/handlers/inboxhandler"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/handlers/messagehandler"
)

// Provider groups the HTTP handlers registered by the v1 routes.
type Provider struct {
	Conversations *conversationhandler.ConversationHandler
	Messages      *messagehandler.MessageHandler
	Blocks        *blockhandler.BlockHandler
	Notifications *inboxhandler.NotificationHandler
	Unread        *inboxhandler.UnreadHandler
}

func NewProvider(
	conversations conversation.Service,
	messages conversation.MessageService,
	blocks block.Service,
	notifications notification.Service,
	unreadService unread.Service,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		Conversations: conversationhandler.NewConversationHandler(conversations, log),
		Messages:      messagehandler.NewMessageHandler(messages, log),
		Blocks:        blockhandler.NewBlockHandler(blocks, log),
		Notifications: inboxhandler.NewNotificationHandler(notifications, log),
		Unread:        inboxhandler.NewUnreadHandler(unreadService, log),
	}
}
