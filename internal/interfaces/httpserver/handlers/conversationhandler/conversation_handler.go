package conversationhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/middlewares"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/requests"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/responses"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

// ConversationHandler exposes conversation endpoints.
type ConversationHandler struct {
	service conversation.Service
	log     zerolog.Logger
}

func NewConversationHandler(service conversation.Service, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: service,
		log:     log.With().Str("component", "conversation-handler").Logger(),
	}
}

// List godoc
// @Summary      List conversations
// @Description  Lists the caller's conversations, most recently active first, each with its last message and the caller's unread count.
// @Tags         conversations
// @Produce      json
// @Param        limit   query     int  false  "Page size (max 100)"  default(20)
// @Param        offset  query     int  false  "Rows to skip"
// @Success      200     {object}  responses.ListResponse[responses.ConversationResponse]
// @Failure      400     {object}  responses.ErrorResponse
// @Failure      401     {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	principal, ok := middlewares.RequirePrincipal(c)
	if !ok {
		return
	}
	pagination, err := requests.GetPaginationFromQuery(c)
	if err != nil {
		responses.HandleError(c, err, "invalid pagination")
		return
	}

	summaries, total, err := h.service.List(c.Request.Context(), principal, pagination)
	if err != nil {
		responses.HandleError(c, err, "failed to list conversations")
		return
	}
	c.JSON(http.StatusOK, responses.NewListResponse(responses.MapItems(summaries, responses.NewSummaryResponse), total, pagination))
}

// Get godoc
// @Summary      Get conversation
// @Description  Returns the conversation with its full message history and marks it read for the caller.
// @Tags         conversations
// @Produce      json
// @Param        conversation_id  path      int  true  "Conversation ID"
// @Success      200              {object}  responses.ConversationDetailResponse
// @Failure      400              {object}  responses.ErrorResponse
// @Failure      403              {object}  responses.ErrorResponse
// @Failure      404              {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/conversations/{conversation_id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	principal, ok := middlewares.RequirePrincipal(c)
	if !ok {
		return
	}
	conversationID, err := requests.GetIDParam(c, "conversation_id")
	if err != nil {
		responses.HandleError(c, err, "invalid conversation id")
		return
	}

	detail, err := h.service.GetDetail(c.Request.Context(), principal, conversationID)
	if err != nil {
		responses.HandleError(c, err, "failed to load conversation")
		return
	}
	c.JSON(http.StatusOK, responses.NewDetailResponse(detail))
}

// Create godoc
// @Summary      Create conversation
// @Description  Creates a group conversation, or resolves the existing private conversation with a single other user.
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Param        request  body      requests.CreateConversationRequest  true  "Conversation"
// @Success      201      {object}  responses.ConversationResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      404      {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/conversations [post]
func (h *ConversationHandler) Create(c *gin.Context) {
	principal, ok := middlewares.RequirePrincipal(c)
	if !ok {
		return
	}
	var req requests.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body: "+err.Error(), "15f68cc2-b395-426f-a426-8bb606196b0d")
		return
	}

	conv, err := h.service.Create(c.Request.Context(), principal, req.ToInput())
	if err != nil {
		responses.HandleError(c, err, "failed to create conversation")
		return
	}
	c.JSON(http.StatusCreated, responses.NewConversationResponse(conv, principal.UserID))
}

// Mute godoc
// @Summary      Mute or unmute a conversation
// @Description  Muted conversations keep counting unread messages but are skipped by push delivery.
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Param        conversation_id  path      int                   true  "Conversation ID"
// @Param        request          body      requests.MuteRequest  true  "Mute state"
// @Success      200              {object}  responses.MuteResponse
// @Failure      400              {object}  responses.ErrorResponse
// @Failure      403              {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/conversations/{conversation_id}/mute [patch]
func (h *ConversationHandler) Mute(c *gin.Context) {
	principal, ok := middlewares.RequirePrincipal(c)
	if !ok {
		return
	}
	conversationID, err := requests.GetIDParam(c, "conversation_id")
	if err != nil {
		responses.HandleError(c, err, "invalid conversation id")
		return
	}
	var req requests.MuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "is_muted is required", "d5d5305e-6308-42f6-9aca-671389ce5c5c")
		return
	}

	p, err := h.service.SetMuted(c.Request.Context(), principal, conversationID, *req.IsMuted)
	if err != nil {
		responses.HandleError(c, err, "failed to update mute state")
		return
	}
	c.JSON(http.StatusOK, responses.MuteResponse{ConversationID: conversationID, IsMuted: p.IsMuted})
}
