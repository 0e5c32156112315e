package inboxhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tieba-server/services/messaging-api/internal/domain/notification"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/middlewares"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/requests"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/responses"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

// NotificationHandler exposes the system notification inbox.
type NotificationHandler struct {
	service notification.Service
	log     zerolog.Logger
}

func NewNotificationHandler(service notification.Service, log zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		log:     log.With().Str("component", "notification-handler").Logger(),
	}
}

// List godoc
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Param        unread_only        query     bool    false  "Only unread notifications"
// @Param        notification_type  query     string  false  "Filter by type"
// @Param        limit              query     int     false  "Page size (max 100)"  default(20)
// @Param        offset             query     int     false  "Rows to skip"
// @Success      200                {object}  responses.ListResponse[responses.NotificationResponse]
// @Failure      400                {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	principal, ok := middlewares.RequirePrincipal(c)
	if !ok {
		return
	}
	pagination, err := requests.GetPaginationFromQuery(c)
	if err != nil {
		responses.HandleError(c, err, "invalid pagination")
		return
	}
	unreadOnly, err := requests.GetBoolQuery(c, "unread_only")
	if err != nil {
		responses.HandleError(c, err, "invalid unread_only")
		return
	}

	filter := notification.Filter{UnreadOnly: unreadOnly}
	if raw := c.Query("notification_type"); raw != "" {
		t := notification.Type(raw)
		if !t.Valid() {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "unknown notification_type", "e1617ec1-cbc1-4774-890a-2cd0f2e2e7b1")
			return
		}
		filter.Type = &t
	}

	items, total, err := h.service.List(c.Request.Context(), principal, filter, pagination)
	if err != nil {
		responses.HandleError(c, err, "failed to list notifications")
		return
	}
	c.JSON(http.StatusOK, responses.NewListResponse(responses.MapItems(items, responses.NewNotificationResponse), total, pagination))
}

// Get godoc
// @Summary      Get notification
// @Description  Returns the notification and marks it read.
// @Tags         notifications
// @Produce      json
// @Param        notification_id  path      int  true  "Notification ID"
// @Success      200              {object}  responses.NotificationResponse
// @Failure      404              {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/notifications/{notification_id} [get]
func (h *NotificationHandler) Get(c *gin.Context) {
	principal, ok := middlewares.RequirePrincipal(c)
	if !ok {
		return
	}
	id, err := requests.GetIDParam(c, "notification_id")
	if err != nil {
		responses.HandleError(c, err, "invalid notification id")
		return
	}

	n, err := h.service.Get(c.Request.Context(), principal, id)
	if err != nil {
		responses.HandleError(c, err, "failed to load notification")
		return
	}
	c.JSON(http.StatusOK, responses.NewNotificationResponse(n))
}

// MarkRead godoc
// @Summary      Mark notifications read
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        request  body      requests.MarkNotificationsReadRequest  true  "Notification ids or all"
// @Success      200      {object}  responses.AckResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/notifications/mark-read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	principal, ok := middlewares.RequirePrincipal(c)
	if !ok {
		return
	}
	var req requests.MarkNotificationsReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body: "+err.Error(), "6b543201-a9ee-48b6-8a12-20f223ebf9a7")
		return
	}

	updated, err := h.service.MarkRead(c.Request.Context(), principal, req.ToInput())
	if err != nil {
		responses.HandleError(c, err, "failed to mark notifications read")
		return
	}
	c.JSON(http.StatusOK, responses.AckResponse{Success: true, Updated: updated})
}

// Delete godoc
// @Summary      Delete notification
// @Tags         notifications
// @Produce      json
// @Param        notification_id  path      int  true  "Notification ID"
// @Success      200              {object}  responses.DeletedResponse
// @Failure      404              {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/notifications/{notification_id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	principal, ok := middlewares.RequirePrincipal(c)
	if !ok {
		return
	}
	id, err := requests.GetIDParam(c, "notification_id")
	if err != nil {
		responses.HandleError(c, err, "invalid notification id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), principal, id); err != nil {
		responses.HandleError(c, err, "failed to delete notification")
		return
	}
	c.JSON(http.StatusOK, responses.DeletedResponse{ID: id, Object: "notification", Deleted: true})
}
