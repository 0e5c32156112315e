package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"tieba-server/services/messaging-api/internal/domain"
	"tieba-server/services/messaging-api/internal/domain/block"
	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/domain/notification"
	"tieba-server/services/messaging-api/internal/domain/query"
	"tieba-server/services/messaging-api/internal/domain/unread"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/handlers"
	"tieba-server/services/messaging-api/internal/interfaces/httpserver/middlewares"
	v1 "tieba-server/services/messaging-api/internal/interfaces/httpserver/routes/v1"
)

// MockConversationService is a mock implementation of conversation.Service for testing.
type MockConversationService struct {
	ResolvePrivateFunc func(ctx context.Context, principal domain.Principal, otherUserID uint) (*conversation.Conversation, error)
	CreateFunc         func(ctx context.Context, principal domain.Principal, input conversation.CreateInput) (*conversation.Conversation, error)
	ListFunc           func(ctx context.Context, principal domain.Principal, pagination query.Pagination) ([]*conversation.Summary, int64, error)
	GetDetailFunc      func(ctx context.Context, principal domain.Principal, conversationID uint) (*conversation.Detail, error)
	SetMutedFunc       func(ctx context.Context, principal domain.Principal, conversationID uint, muted bool) (*conversation.Participant, error)
}

func (m *MockConversationService) ResolvePrivate(ctx context.Context, principal domain.Principal, otherUserID uint) (*conversation.Conversation, error) {
	if m.ResolvePrivateFunc != nil {
		return m.ResolvePrivateFunc(ctx, principal, otherUserID)
	}
	return nil, nil
}

func (m *MockConversationService) Create(ctx context.Context, principal domain.Principal, input conversation.CreateInput) (*conversation.Conversation, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, principal, input)
	}
	return nil, nil
}

func (m *MockConversationService) List(ctx context.Context, principal domain.Principal, pagination query.Pagination) ([]*conversation.Summary, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, principal, pagination)
	}
	return nil, 0, nil
}

func (m *MockConversationService) GetDetail(ctx context.Context, principal domain.Principal, conversationID uint) (*conversation.Detail, error) {
	if m.GetDetailFunc != nil {
		return m.GetDetailFunc(ctx, principal, conversationID)
	}
	return nil, nil
}

func (m *MockConversationService) SetMuted(ctx context.Context, principal domain.Principal, conversationID uint, muted bool) (*conversation.Participant, error) {
	if m.SetMutedFunc != nil {
		return m.SetMutedFunc(ctx, principal, conversationID, muted)
	}
	return nil, nil
}

// MockMessageService is a mock implementation of conversation.MessageService for testing.
type MockMessageService struct {
	SendFunc       func(ctx context.Context, principal domain.Principal, input conversation.SendInput) (*conversation.Message, error)
	SendDirectFunc func(ctx context.Context, principal domain.Principal, input conversation.DirectInput) (*conversation.Message, error)
	ListFunc       func(ctx context.Context, principal domain.Principal, conversationID uint, pagination query.Pagination) ([]*conversation.Message, int64, error)
	MarkReadFunc   func(ctx context.Context, principal domain.Principal, messageIDs []uint) (int, error)
	DeleteFunc     func(ctx context.Context, principal domain.Principal, messageID uint) error
}

func (m *MockMessageService) Send(ctx context.Context, principal domain.Principal, input conversation.SendInput) (*conversation.Message, error) {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, principal, input)
	}
	return nil, nil
}

func (m *MockMessageService) SendDirect(ctx context.Context, principal domain.Principal, input conversation.DirectInput) (*conversation.Message, error) {
	if m.SendDirectFunc != nil {
		return m.SendDirectFunc(ctx, principal, input)
	}
	return nil, nil
}

func (m *MockMessageService) List(ctx context.Context, principal domain.Principal, conversationID uint, pagination query.Pagination) ([]*conversation.Message, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, principal, conversationID, pagination)
	}
	return nil, 0, nil
}

func (m *MockMessageService) MarkRead(ctx context.Context, principal domain.Principal, messageIDs []uint) (int, error) {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, principal, messageIDs)
	}
	return 0, nil
}

func (m *MockMessageService) Delete(ctx context.Context, principal domain.Principal, messageID uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, principal, messageID)
	}
	return nil
}

// MockBlockService is a mock implementation of block.Service for testing.
type MockBlockService struct {
	AssertCanSendFunc func(ctx context.Context, senderID uint, recipientIDs ...uint) error
	BlockFunc         func(ctx context.Context, principal domain.Principal, blockedID uint) (*block.Block, error)
	UnblockFunc       func(ctx context.Context, principal domain.Principal, blockedID uint) error
	ListFunc          func(ctx context.Context, principal domain.Principal, pagination query.Pagination) ([]*block.Block, int64, error)
}

func (m *MockBlockService) AssertCanSend(ctx context.Context, senderID uint, recipientIDs ...uint) error {
	if m.AssertCanSendFunc != nil {
		return m.AssertCanSendFunc(ctx, senderID, recipientIDs...)
	}
	return nil
}

func (m *MockBlockService) Block(ctx context.Context, principal domain.Principal, blockedID uint) (*block.Block, error) {
	if m.BlockFunc != nil {
		return m.BlockFunc(ctx, principal, blockedID)
	}
	return nil, nil
}

func (m *MockBlockService) Unblock(ctx context.Context, principal domain.Principal, blockedID uint) error {
	if m.UnblockFunc != nil {
		return m.UnblockFunc(ctx, principal, blockedID)
	}
	return nil
}

func (m *MockBlockService) List(ctx context.Context, principal domain.Principal, pagination query.Pagination) ([]*block.Block, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, principal, pagination)
	}
	return nil, 0, nil
}

// MockNotificationService is a mock implementation of notification.Service for testing.
type MockNotificationService struct {
	ListFunc     func(ctx context.Context, principal domain.Principal, filter notification.Filter, pagination query.Pagination) ([]*notification.Notification, int64, error)
	GetFunc      func(ctx context.Context, principal domain.Principal, id uint) (*notification.Notification, error)
	MarkReadFunc func(ctx context.Context, principal domain.Principal, input notification.MarkReadInput) (int64, error)
	DeleteFunc   func(ctx context.Context, principal domain.Principal, id uint) error
}

func (m *MockNotificationService) List(ctx context.Context, principal domain.Principal, filter notification.Filter, pagination query.Pagination) ([]*notification.Notification, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, principal, filter, pagination)
	}
	return nil, 0, nil
}

func (m *MockNotificationService) Get(ctx context.Context, principal domain.Principal, id uint) (*notification.Notification, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, principal, id)
	}
	return nil, nil
}

func (m *MockNotificationService) MarkRead(ctx context.Context, principal domain.Principal, input notification.MarkReadInput) (int64, error) {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, principal, input)
	}
	return 0, nil
}

func (m *MockNotificationService) Delete(ctx context.Context, principal domain.Principal, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, principal, id)
	}
	return nil
}

// MockUnreadService is a mock implementation of unread.Service for testing.
type MockUnreadService struct {
	TotalsFunc func(ctx context.Context, principal domain.Principal) (*unread.Totals, error)
}

func (m *MockUnreadService) Totals(ctx context.Context, principal domain.Principal) (*unread.Totals, error) {
	if m.TotalsFunc != nil {
		return m.TotalsFunc(ctx, principal)
	}
	return &unread.Totals{}, nil
}

type mocks struct {
	conversations *MockConversationService
	messages      *MockMessageService
	blocks        *MockBlockService
	notifications *MockNotificationService
	unread        *MockUnreadService
}

func newMocks() *mocks {
	return &mocks{
		conversations: &MockConversationService{},
		messages:      &MockMessageService{},
		blocks:        &MockBlockService{},
		notifications: &MockNotificationService{},
		unread:        &MockUnreadService{},
	}
}

// setupTestRouter registers the v1 routes behind gateway header auth.
func setupTestRouter(m *mocks) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middlewares.RequestID())

	provider := handlers.NewProvider(m.conversations, m.messages, m.blocks, m.notifications, m.unread, zerolog.Nop())
	v1.NewRoutes(provider, middlewares.AuthMiddleware(nil, zerolog.Nop())).Register(r)
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path string, userID uint, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set(middlewares.UserIDHeader, strconv.FormatUint(uint64(userID), 10))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
