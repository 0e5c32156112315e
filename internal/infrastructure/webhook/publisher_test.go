package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

func testEvent() conversation.MessageEvent {
	return conversation.MessageEvent{
		Message: &conversation.Message{
			ID:             11,
			ConversationID: 4,
			SenderID:       1,
			SenderName:     "alice",
			Content:        "hello",
			Type:           conversation.MessageTypeText,
			CreatedAt:      time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		},
		RecipientIDs: []uint{2},
	}
}

func TestPublisherPostsPayload(t *testing.T) {
	received := make(chan Payload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))
		var p Payload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		received <- p
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	pub := NewPublisher(srv.URL, time.Second, nil, zerolog.Nop())
	ctx := platformerrors.WithRequestID(context.Background(), "req-1")
	pub.MessageCreated(ctx, testEvent())

	select {
	case p := <-received:
		assert.Equal(t, "message.created", p.Event)
		assert.Equal(t, uint(4), p.ConversationID)
		assert.Equal(t, []uint{2}, p.RecipientIDs)
		assert.Equal(t, "hello", p.Message.Content)
	case <-time.After(3 * time.Second):
		t.Fatal("webhook was not delivered")
	}
}

func TestPublisherSkipsEmptyRecipients(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected webhook call")
	}))
	defer srv.Close()

	event := testEvent()
	event.RecipientIDs = nil
	NewPublisher(srv.URL, time.Second, nil, zerolog.Nop()).MessageCreated(context.Background(), event)
	time.Sleep(50 * time.Millisecond)
}

func TestDeliverReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	pub := NewPublisher(srv.URL, time.Second, nil, zerolog.Nop())
	err := pub.deliver(context.Background(), "", NewPayload(testEvent()))
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal))
}

func TestPublisherAppliesPreview(t *testing.T) {
	received := make(chan Payload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p Payload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		received <- p
	}))
	defer srv.Close()

	pub := NewPublisher(srv.URL, time.Second, NewPreviewer(ContentModeHidden, ""), zerolog.Nop())
	pub.MessageCreated(context.Background(), testEvent())

	select {
	case p := <-received:
		assert.Equal(t, hiddenPlaceholder, p.Message.Content)
	case <-time.After(3 * time.Second):
		t.Fatal("webhook was not delivered")
	}
}
