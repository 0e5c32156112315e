package messagehandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/infrastructure/metrics"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/middlewares"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/requests"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/responses"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

// MessageHandler exposes message delivery and read endpoints.
type MessageHandler struct {
	service conversation.MessageService
	log     zerolog.Logger
}

func NewMessageHandler(service conversation.MessageService, log zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		service: service,
		log:     log.With().Str("component", "message-handler").Logger(),
	}
}

// Send godoc
// @Summary      Send message
// @Description  Posts a message into a conversation the caller belongs to. Attachments carry base64 encoded data.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        request  body      requests.SendMessageRequest  true  "Message"
// @Success      201      {object}  responses.MessageResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      403      {object}  responses.ErrorResponse
// @Failure      404      {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	principal, ok := middlewares.RequirePrincipal(c)
	if !ok {
		return
	}
	var req requests.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body: "+err.Error(), "ae58a701-ee05-4534-88f6-0aa7fc5a6104")
		return
	}

	msg, err := h.service.Send(c.Request.Context(), principal, req.ToInput())
	if err != nil {
		recordRejection(err)
		responses.HandleError(c, err, "failed to send message")
		return
	}
	metrics.RecordMessageSent("conversation")
	c.JSON(http.StatusCreated, responses.NewMessageResponse(msg))
}

// SendDirect godoc
// @Summary      Send direct message
// @Description  Sends a message to a user, resolving or creating the single private conversation of the pair.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        request  body      requests.DirectMessageRequest  true  "Direct message"
// @Success      201      {object}  responses.MessageResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      403      {object}  responses.ErrorResponse
// @Failure      404      {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/send [post]
func (h *MessageHandler) SendDirect(c *gin.Context) {
	principal, ok := middlewares.RequirePrincipal(c)
	if !ok {
		return
	}
	var req requests.DirectMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body: "+err.Error(), "0372d589-2296-4200-b1cb-aa3ccddffcb2")
		return
	}

	msg, err := h.service.SendDirect(c.Request.Context(), principal, req.ToInput())
	if err != nil {
		recordRejection(err)
		responses.HandleError(c, err, "failed to send message")
		return
	}
	metrics.RecordMessageSent("direct")
	c.JSON(http.StatusCreated, responses.NewMessageResponse(msg))
}

// List godoc
// @Summary      List messages
// @Description  Lists the non-deleted messages of a conversation in creation order.
// @Tags         messages
// @Produce      json
// @Param        conversation_id  path      int  true   "Conversation ID"
// @Param        limit            query     int  false  "Page size (max 100)"  default(20)
// @Param        offset           query     int  false  "Rows to skip"
// @Success      200              {object}  responses.ListResponse[responses.MessageResponse]
// @Failure      403              {object}  responses.ErrorResponse
// @Failure      404              {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/conversations/{conversation_id}/messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	principal, ok := middlewares.RequirePrincipal(c)
	if !ok {
		return
	}
	conversationID, err := requests.GetIDParam(c, "conversation_id")
	if err != nil {
		responses.HandleError(c, err, "invalid conversation id")
		return
	}
	pagination, err := requests.GetPaginationFromQuery(c)
	if err != nil {
		responses.HandleError(c, err, "invalid pagination")
		return
	}

	messages, total, err := h.service.List(c.Request.Context(), principal, conversationID, pagination)
	if err != nil {
		responses.HandleError(c, err, "failed to list messages")
		return
	}
	c.JSON(http.StatusOK, responses.NewListResponse(responses.MapItems(messages, responses.NewMessageResponse), total, pagination))
}

// MarkRead godoc
// @Summary      Mark messages read
// @Description  Marks the listed messages read and resets the caller's unread counter of every touched conversation.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        request  body      requests.MarkMessagesReadRequest  true  "Message ids"
// @Success      200      {object}  responses.MarkReadResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/messages/mark-read [post]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	principal, ok := middlewares.RequirePrincipal(c)
	if !ok {
		return
	}
	var req requests.MarkMessagesReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "message_ids must be a non-empty list", "72855823-2026-4dcf-a072-acc39e89c918")
		return
	}

	marked, err := h.service.MarkRead(c.Request.Context(), principal, req.MessageIDs)
	if err != nil {
		responses.HandleError(c, err, "failed to mark messages read")
		return
	}
	c.JSON(http.StatusOK, responses.MarkReadResponse{Success: true, Marked: marked})
}

// Delete godoc
// @Summary      Delete message
// @Description  Soft deletes a message sent by the caller.
// @Tags         messages
// @Produce      json
// @Param        message_id  path      int  true  "Message ID"
// @Success      200         {object}  responses.DeletedResponse
// @Failure      403         {object}  responses.ErrorResponse
// @Failure      404         {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/messages/{message_id} [delete]
func (h *MessageHandler) Delete(c *gin.Context) {
	principal, ok := middlewares.RequirePrincipal(c)
	if !ok {
		return
	}
	messageID, err := requests.GetIDParam(c, "message_id")
	if err != nil {
		responses.HandleError(c, err, "invalid message id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), principal, messageID); err != nil {
		responses.HandleError(c, err, "failed to delete message")
		return
	}
	c.JSON(http.StatusOK, responses.DeletedResponse{ID: messageID, Object: "message", Deleted: true})
}

func recordRejection(err error) {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		metrics.RecordSendRejected(string(platformErr.Type))
		return
	}
	metrics.RecordSendRejected(string(platformerrors.ErrorTypeInternal))
}
