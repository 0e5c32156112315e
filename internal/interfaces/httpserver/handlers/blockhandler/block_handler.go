package blockhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tieba-server/services/messaging-api/internal/domain/block"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/middlewares"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/requests"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/responses"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

// BlockHandler manages the caller's block list.
type BlockHandler struct {
	service block.Service
	log     zerolog.Logger
}

func NewBlockHandler(service block.Service, log zerolog.Logger) *BlockHandler {
	return &BlockHandler{
		service: service,
		log:     log.With().Str("component", "block-handler").Logger(),
	}
}

// List godoc
// @Summary      List blocked users
// @Tags         blocks
// @Produce      json
// @Param        limit   query     int  false  "Page size (max 100)"  default(20)
// @Param        offset  query     int  false  "Rows to skip"
// @Success      200     {object}  responses.ListResponse[responses.BlockResponse]
// @Security     BearerAuth
// @Router       /v1/blocks [get]
func (h *BlockHandler) List(c *gin.Context) {
	principal, ok := middlewares.RequirePrincipal(c)
	if !ok {
		return
	}
	pagination, err := requests.GetPaginationFromQuery(c)
	if err != nil {
		responses.HandleError(c, err, "invalid pagination")
		return
	}

	blocks, total, err := h.service.List(c.Request.Context(), principal, pagination)
	if err != nil {
		responses.HandleError(c, err, "failed to list blocks")
		return
	}
	c.JSON(http.StatusOK, responses.NewListResponse(responses.MapItems(blocks, responses.NewBlockResponse), total, pagination))
}

// Create godoc
// @Summary      Block user
// @Description  Refuses future messages from the user. Existing history stays visible.
// @Tags         blocks
// @Accept       json
// @Produce      json
// @Param        request  body      requests.BlockUserRequest  true  "User to block"
// @Success      201      {object}  responses.BlockResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      404      {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/blocks [post]
func (h *BlockHandler) Create(c *gin.Context) {
	principal, ok := middlewares.RequirePrincipal(c)
	if !ok {
		return
	}
	var req requests.BlockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "blocked_user_id is required", "6da191bf-5115-4956-b921-c5a7696c27c5")
		return
	}

	b, err := h.service.Block(c.Request.Context(), principal, req.BlockedUserID)
	if err != nil {
		responses.HandleError(c, err, "failed to block user")
		return
	}
	c.JSON(http.StatusCreated, responses.NewBlockResponse(b))
}

// Delete godoc
// @Summary      Unblock user
// @Tags         blocks
// @Produce      json
// @Param        user_id  path      int  true  "Blocked user ID"
// @Success      200      {object}  responses.DeletedResponse
// @Failure      404      {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/blocks/{user_id} [delete]
func (h *BlockHandler) Delete(c *gin.Context) {
	principal, ok := middlewares.RequirePrincipal(c)
	if !ok {
		return
	}
	userID, err := requests.GetIDParam(c, "user_id")
	if err != nil {
		responses.HandleError(c, err, "invalid user id")
		return
	}

	if err := h.service.Unblock(c.Request.Context(), principal, userID); err != nil {
		responses.HandleError(c, err, "failed to unblock user")
		return
	}
	c.JSON(http.StatusOK, responses.DeletedResponse{ID: userID, Object: "block", Deleted: true})
}
