package webhook

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/infrastructure/metrics"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

const eventMessageCreated = "message.created"

// Payload is the JSON body posted for every committed message.
type Payload struct {
	Event          string       `json:"event"`
	ConversationID uint         `json:"conversation_id"`
	RecipientIDs   []uint       `json:"recipient_ids"`
	Message        MessageBody  `json:"message"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

type MessageBody struct {
	ID           uint      `json:"id"`
	SenderID     uint      `json:"sender_id"`
	SenderName   string    `json:"sender_name"`
	SenderAvatar string    `json:"sender_avatar"`
	Content      string    `json:"content"`
	Type         string    `json:"type"`
	CreatedAt    time.Time `json:"created_at"`
}

type Attachment struct {
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
}

// Publisher posts message events to the push gateway. Delivery happens after
// commit on a detached context, so a slow or failing gateway never affects
// the send that produced the event.
type Publisher struct {
	client  *resty.Client
	url     string
	timeout time.Duration
	preview *Previewer
	log     zerolog.Logger
}

var _ conversation.EventPublisher = (*Publisher)(nil)

// NewPublisher builds a publisher. preview may be nil to forward content as is.
func NewPublisher(url string, timeout time.Duration, preview *Previewer, log zerolog.Logger) *Publisher {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "Tieba-Messaging-API/1.0")
	return &Publisher{
		client:  client,
		url:     url,
		timeout: timeout,
		preview: preview,
		log:     log.With().Str("component", "webhook-publisher").Logger(),
	}
}

func (p *Publisher) MessageCreated(ctx context.Context, event conversation.MessageEvent) {
	if len(event.RecipientIDs) == 0 {
		return
	}
	payload := NewPayload(event)
	payload.Message.Content = p.preview.Content(payload.Message.Content)
	requestID := platformerrors.RequestIDFromContext(ctx)
	detached := context.WithoutCancel(ctx)

	go func() {
		sendCtx, cancel := context.WithTimeout(detached, p.timeout*3)
		defer cancel()
		if err := p.deliver(sendCtx, requestID, payload); err != nil {
			metrics.RecordWebhook("error")
			p.log.Warn().Err(err).
				Str("request_id", requestID).
				Uint("message_id", payload.Message.ID).
				Msg("message webhook delivery failed")
			return
		}
		metrics.RecordWebhook("ok")
	}()
}

func (p *Publisher) deliver(ctx context.Context, requestID string, payload Payload) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", requestID).
		SetBody(payload).
		Post(p.url)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "webhook request failed", err, "50dbd3fa-8f94-4e34-9782-342ee46fcafa")
	}
	if resp.IsError() {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "webhook rejected event", nil, "bc2ed6bc-1bcf-464c-8d7d-6a15c7c4a540", map[string]any{
			"status": resp.StatusCode(),
			"body":   resp.String(),
		})
	}
	return nil
}

// NewPayload flattens a message event into its wire form.
func NewPayload(event conversation.MessageEvent) Payload {
	msg := event.Message
	payload := Payload{
		Event:          eventMessageCreated,
		ConversationID: msg.ConversationID,
		RecipientIDs:   event.RecipientIDs,
		Message: MessageBody{
			ID:           msg.ID,
			SenderID:     msg.SenderID,
			SenderName:   msg.SenderName,
			SenderAvatar: msg.SenderAvatar,
			Content:      msg.Content,
			Type:         string(msg.Type),
			CreatedAt:    msg.CreatedAt,
		},
	}
	for _, a := range msg.Attachments {
		payload.Attachments = append(payload.Attachments, Attachment{
			FileURL:  a.FileURL,
			FileName: a.FileName,
			FileType: a.FileType,
			FileSize: a.FileSize,
		})
	}
	return payload
}
