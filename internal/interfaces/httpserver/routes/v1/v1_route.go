package v1

import (
	"github.com/gin-gonic/gin"

	"tieba-server/services/messaging-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
	auth     gin.HandlerFunc
}

func NewRoutes(provider *handlers.Provider, auth gin.HandlerFunc) *Routes {
	return &Routes{handlers: provider, auth: auth}
}

// Register attaches all authenticated v1 routes under the /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")
	if r.auth != nil {
		group.Use(r.auth)
	}

	conversations := group.Group("/conversations")
	conversations.GET("", r.handlers.Conversations.List)
	conversations.POST("", r.handlers.Conversations.Create)
	conversations.GET("/:conversation_id", r.handlers.Conversations.Get)
	conversations.GET("/:conversation_id/messages", r.handlers.Messages.List)
	conversations.PATCH("/:conversation_id/mute", r.handlers.Conversations.Mute)

	messages := group.Group("/messages")
	messages.POST("", r.handlers.Messages.Send)
	messages.POST("/mark-read", r.handlers.Messages.MarkRead)
	messages.DELETE("/:message_id", r.handlers.Messages.Delete)

	group.POST("/send", r.handlers.Messages.SendDirect)
	group.GET("/unread-count", r.handlers.Unread.Get)

	blocks := group.Group("/blocks")
	blocks.GET("", r.handlers.Blocks.List)
	blocks.POST("", r.handlers.Blocks.Create)
	blocks.DELETE("/:user_id", r.handlers.Blocks.Delete)

	notifications := group.Group("/notifications")
	notifications.GET("", r.handlers.Notifications.List)
	notifications.POST("/mark-read", r.handlers.Notifications.MarkRead)
	notifications.GET("/:notification_id", r.handlers.Notifications.Get)
	notifications.DELETE("/:notification_id", r.handlers.Notifications.Delete)
}
