package v1_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tieba-server/services/messaging-api/internal/domain"
	"tieba-server/services/messaging-api/internal/domain/block"
	"tieba-server/services/messaging-api/internal/domain/notification"
	"tieba-server/services/messaging-api/internal/domain/query"
	"tieba-server/services/messaging-api/internal/domain/unread"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/responses"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

func TestUnreadHandler_Get(t *testing.T) {
	m := newMocks()
	m.unread.TotalsFunc = func(ctx context.Context, principal domain.Principal) (*unread.Totals, error) {
		return &unread.Totals{UnreadMessages: 3, UnreadNotifications: 1}, nil
	}
	r := setupTestRouter(m)

	w := doRequest(t, r, http.MethodGet, "/v1/unread-count", 2, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[responses.UnreadCountResponse](t, w)
	assert.Equal(t, int64(3), body.UnreadMessages)
	assert.Equal(t, int64(1), body.UnreadNotifications)
}

func TestUnreadHandler_InternalErrorHidesCause(t *testing.T) {
	m := newMocks()
	m.unread.TotalsFunc = func(ctx context.Context, principal domain.Principal) (*unread.Totals, error) {
		return nil, errors.New("pq: connection refused")
	}
	r := setupTestRouter(m)

	w := doRequest(t, r, http.MethodGet, "/v1/unread-count", 2, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode[responses.ErrorResponse](t, w)
	assert.Equal(t, "failed to load unread totals", body.Error)
}

func TestBlockHandler(t *testing.T) {
	m := newMocks()
	m.blocks.BlockFunc = func(ctx context.Context, principal domain.Principal, blockedID uint) (*block.Block, error) {
		if blockedID == principal.UserID {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "cannot block yourself", nil, "")
		}
		return &block.Block{ID: 1, BlockerID: principal.UserID, BlockedID: blockedID, BlockedUsername: "bob"}, nil
	}
	m.blocks.UnblockFunc = func(ctx context.Context, principal domain.Principal, blockedID uint) error {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "block not found", nil, "")
	}
	m.blocks.ListFunc = func(ctx context.Context, principal domain.Principal, pagination query.Pagination) ([]*block.Block, int64, error) {
		return []*block.Block{{ID: 1, BlockerID: principal.UserID, BlockedID: 2, BlockedUsername: "bob"}}, 1, nil
	}
	r := setupTestRouter(m)

	w := doRequest(t, r, http.MethodPost, "/v1/blocks", 1, map[string]any{"blocked_user_id": 2})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[responses.BlockResponse](t, w)
	assert.Equal(t, uint(2), created.BlockedUserID)
	assert.Equal(t, "bob", created.BlockedUsername)

	w = doRequest(t, r, http.MethodPost, "/v1/blocks", 1, map[string]any{"blocked_user_id": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodGet, "/v1/blocks", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[responses.ListResponse[responses.BlockResponse]](t, w)
	assert.Len(t, list.Data, 1)

	w = doRequest(t, r, http.MethodDelete, "/v1/blocks/3", 1, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotificationHandler_List(t *testing.T) {
	m := newMocks()
	var gotFilter notification.Filter
	m.notifications.ListFunc = func(ctx context.Context, principal domain.Principal, filter notification.Filter, pagination query.Pagination) ([]*notification.Notification, int64, error) {
		gotFilter = filter
		return []*notification.Notification{{ID: 4, RecipientID: principal.UserID, Title: "reply", Type: notification.TypePostReply}}, 1, nil
	}
	r := setupTestRouter(m)

	w := doRequest(t, r, http.MethodGet, "/v1/notifications?unread_only=true&notification_type=post_reply", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotFilter.UnreadOnly)
	require.NotNil(t, gotFilter.Type)
	assert.Equal(t, notification.TypePostReply, *gotFilter.Type)

	body := decode[responses.ListResponse[responses.NotificationResponse]](t, w)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "post_reply", body.Data[0].Type)

	w = doRequest(t, r, http.MethodGet, "/v1/notifications?notification_type=nope", 1, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodGet, "/v1/notifications?unread_only=maybe", 1, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotificationHandler_GetMarkReadDelete(t *testing.T) {
	m := newMocks()
	m.notifications.GetFunc = func(ctx context.Context, principal domain.Principal, id uint) (*notification.Notification, error) {
		return &notification.Notification{ID: id, RecipientID: principal.UserID, IsRead: true, Type: notification.TypeSystem}, nil
	}
	var gotInput notification.MarkReadInput
	m.notifications.MarkReadFunc = func(ctx context.Context, principal domain.Principal, input notification.MarkReadInput) (int64, error) {
		gotInput = input
		return 6, nil
	}
	m.notifications.DeleteFunc = func(ctx context.Context, principal domain.Principal, id uint) error {
		return nil
	}
	r := setupTestRouter(m)

	w := doRequest(t, r, http.MethodGet, "/v1/notifications/12", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	n := decode[responses.NotificationResponse](t, w)
	assert.True(t, n.IsRead)

	w = doRequest(t, r, http.MethodPost, "/v1/notifications/mark-read", 1, map[string]any{"all": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotInput.All)
	ack := decode[responses.AckResponse](t, w)
	assert.Equal(t, int64(6), ack.Updated)

	w = doRequest(t, r, http.MethodDelete, "/v1/notifications/12", 1, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
