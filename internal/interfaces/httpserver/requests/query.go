package requests

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"tieba-server/services/messaging-api/internal/domain/query"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

// GetPaginationFromQuery reads limit/offset, clamping limit to the allowed window.
func GetPaginationFromQuery(reqCtx *gin.Context) (query.Pagination, error) {
	limit := query.DefaultLimit
	if limitStr := reqCtx.Query("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			return query.Pagination{}, platformerrors.NewError(reqCtx.Request.Context(), platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "invalid limit number", err, "d775fd2f-9fe2-4717-9a90-c0df4f371ae4")
		}
		limit = v
	}

	offset := 0
	if offsetStr := reqCtx.Query("offset"); offsetStr != "" {
		v, err := strconv.Atoi(offsetStr)
		if err != nil || v < 0 {
			return query.Pagination{}, platformerrors.NewError(reqCtx.Request.Context(), platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "invalid offset number", err, "80fb937d-0b4c-423e-86cc-f9bce6aaee5e")
		}
		offset = v
	}

	return query.Page(limit, offset), nil
}

// GetIDParam parses a positive numeric path parameter that fits a BIGINT column.
func GetIDParam(reqCtx *gin.Context, name string) (uint, error) {
	raw := reqCtx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 63)
	if err != nil || id == 0 {
		return 0, platformerrors.NewErrorWithContext(reqCtx.Request.Context(), platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "invalid "+name, err, "2d64ebee-753c-440a-ae2e-239dfd6a102e", map[string]any{name: raw})
	}
	return uint(id), nil
}

// GetBoolQuery parses an optional boolean query flag.
func GetBoolQuery(reqCtx *gin.Context, name string) (bool, error) {
	raw := reqCtx.Query(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, platformerrors.NewError(reqCtx.Request.Context(), platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "invalid "+name, err, "e8f0322d-0e5d-4874-bc6b-20fd1d127565")
	}
	return v, nil
}
