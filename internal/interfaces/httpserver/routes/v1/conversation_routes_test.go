package v1_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tieba-server/services/messaging-api/internal/domain"
	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/domain/query"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/responses"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

func privateConversation(id uint, a, b uint) *conversation.Conversation {
	key := conversation.PairKey(a, b)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &conversation.Conversation{
		ID:        id,
		Type:      conversation.ConversationTypePrivate,
		PairKey:   &key,
		CreatedAt: now,
		UpdatedAt: now,
		Participants: []conversation.Participant{
			{ConversationID: id, UserID: a, Username: "alice", UnreadCount: 0},
			{ConversationID: id, UserID: b, Username: "bob", UnreadCount: 3},
		},
	}
}

func TestConversationHandler_RequiresPrincipal(t *testing.T) {
	r := setupTestRouter(newMocks())

	w := doRequest(t, r, http.MethodGet, "/v1/conversations", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, r, http.MethodGet, "/v1/unread-count", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConversationHandler_List(t *testing.T) {
	m := newMocks()
	var gotPage query.Pagination
	m.conversations.ListFunc = func(ctx context.Context, principal domain.Principal, pagination query.Pagination) ([]*conversation.Summary, int64, error) {
		assert.Equal(t, uint(2), principal.UserID)
		gotPage = pagination
		conv := privateConversation(7, 1, 2)
		return []*conversation.Summary{{
			Conversation: conv,
			LastMessage:  &conversation.Message{ID: 11, ConversationID: 7, SenderID: 1, Content: "hi", Type: conversation.MessageTypeText},
			UnreadCount:  conv.UnreadCountFor(principal.UserID),
		}}, 5, nil
	}
	r := setupTestRouter(m)

	w := doRequest(t, r, http.MethodGet, "/v1/conversations?limit=1&offset=2", 2, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, query.Pagination{Limit: 1, Offset: 2}, gotPage)

	body := decode[responses.ListResponse[responses.ConversationResponse]](t, w)
	assert.Equal(t, "list", body.Object)
	assert.Equal(t, int64(5), body.Total)
	assert.True(t, body.HasMore)
	require.Len(t, body.Data, 1)
	assert.Equal(t, 3, body.Data[0].UnreadCount)
	require.NotNil(t, body.Data[0].LastMessage)
	assert.Equal(t, "hi", body.Data[0].LastMessage.Content)
}

func TestConversationHandler_ListRejectsBadPagination(t *testing.T) {
	r := setupTestRouter(newMocks())

	w := doRequest(t, r, http.MethodGet, "/v1/conversations?limit=abc", 1, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodGet, "/v1/conversations?offset=-1", 1, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConversationHandler_GetDetail(t *testing.T) {
	m := newMocks()
	m.conversations.GetDetailFunc = func(ctx context.Context, principal domain.Principal, conversationID uint) (*conversation.Detail, error) {
		if conversationID != 7 {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "")
		}
		conv := privateConversation(7, 1, 2)
		msgs := []*conversation.Message{
			{ID: 1, ConversationID: 7, SenderID: 1, Content: "one", IsRead: true},
			{ID: 2, ConversationID: 7, SenderID: 1, Content: "two", IsRead: true},
		}
		return &conversation.Detail{
			Summary:  conversation.Summary{Conversation: conv, LastMessage: msgs[1]},
			Messages: msgs,
		}, nil
	}
	r := setupTestRouter(m)

	w := doRequest(t, r, http.MethodGet, "/v1/conversations/7", 2, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[responses.ConversationDetailResponse](t, w)
	assert.Equal(t, uint(7), body.ID)
	assert.Equal(t, 0, body.UnreadCount)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "two", body.LastMessage.Content)

	w = doRequest(t, r, http.MethodGet, "/v1/conversations/8", 2, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, r, http.MethodGet, "/v1/conversations/zero", 2, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodGet, "/v1/conversations/9223372036854775808", 2, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConversationHandler_GetForbidden(t *testing.T) {
	m := newMocks()
	m.conversations.GetDetailFunc = func(ctx context.Context, principal domain.Principal, conversationID uint) (*conversation.Detail, error) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden, "you are not a participant of this conversation", nil, "")
	}
	r := setupTestRouter(m)

	w := doRequest(t, r, http.MethodGet, "/v1/conversations/7", 9, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	body := decode[responses.ErrorResponse](t, w)
	assert.Contains(t, body.Error, "not a participant")
}

func TestConversationHandler_Create(t *testing.T) {
	m := newMocks()
	var got conversation.CreateInput
	m.conversations.CreateFunc = func(ctx context.Context, principal domain.Principal, input conversation.CreateInput) (*conversation.Conversation, error) {
		got = input
		return privateConversation(3, principal.UserID, input.ParticipantIDs[0]), nil
	}
	r := setupTestRouter(m)

	w := doRequest(t, r, http.MethodPost, "/v1/conversations", 1, map[string]any{
		"participant_ids":   []uint{2},
		"conversation_type": "private",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []uint{2}, got.ParticipantIDs)
	assert.Equal(t, conversation.ConversationTypePrivate, got.Type)

	body := decode[responses.ConversationResponse](t, w)
	assert.Equal(t, "private", body.Type)
	assert.Len(t, body.Participants, 2)

	w = doRequest(t, r, http.MethodPost, "/v1/conversations", 1, map[string]any{"participant_ids": []uint{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConversationHandler_Mute(t *testing.T) {
	m := newMocks()
	m.conversations.SetMutedFunc = func(ctx context.Context, principal domain.Principal, conversationID uint, muted bool) (*conversation.Participant, error) {
		return &conversation.Participant{ConversationID: conversationID, UserID: principal.UserID, IsMuted: muted}, nil
	}
	r := setupTestRouter(m)

	w := doRequest(t, r, http.MethodPatch, "/v1/conversations/4/mute", 1, map[string]any{"is_muted": true})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[responses.MuteResponse](t, w)
	assert.True(t, body.IsMuted)
	assert.Equal(t, uint(4), body.ConversationID)

	w = doRequest(t, r, http.MethodPatch, "/v1/conversations/4/mute", 1, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
