package inboxhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tieba-server/services/messaging-api/internal/domain/unread"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/middlewares"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/responses"
)

// UnreadHandler serves the badge totals.
type UnreadHandler struct {
	service unread.Service
	log     zerolog.Logger
}

func NewUnreadHandler(service unread.Service, log zerolog.Logger) *UnreadHandler {
	return &UnreadHandler{
		service: service,
		log:     log.With().Str("component", "unread-handler").Logger(),
	}
}

// Get godoc
// @Summary      Unread totals
// @Description  Sum of the caller's per-conversation unread counters plus unread notifications.
// @Tags         unread
// @Produce      json
// @Success      200  {object}  responses.UnreadCountResponse
// @Failure      401  {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/unread-count [get]
func (h *UnreadHandler) Get(c *gin.Context) {
	principal, ok := middlewares.RequirePrincipal(c)
	if !ok {
		return
	}

	totals, err := h.service.Totals(c.Request.Context(), principal)
	if err != nil {
		responses.HandleError(c, err, "failed to load unread totals")
		return
	}
	c.JSON(http.StatusOK, responses.NewUnreadCountResponse(totals))
}
