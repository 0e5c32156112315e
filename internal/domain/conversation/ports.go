package conversation

import (
	"context"
	"io"
	"time"
)

// BlockGuard refuses delivery when a recipient has blocked the sender.
type BlockGuard interface {
	AssertCanSend(ctx context.Context, senderID uint, recipientIDs ...uint) error
}

// Locker serializes a critical section across service replicas.
type Locker interface {
	WithLock(ctx context.Context, name string, ttl time.Duration, fn func() error) error
}

// MessageEvent is emitted after a message commits.
type MessageEvent struct {
	Message      *Message
	Conversation *Conversation
	// RecipientIDs excludes the sender and muted participants.
	RecipientIDs []uint
}

// EventPublisher forwards committed messages to push delivery.
type EventPublisher interface {
	MessageCreated(ctx context.Context, event MessageEvent)
}

// AttachmentStorage stores attachment blobs and returns their public URL.
type AttachmentStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// UnreadInvalidator drops cached unread totals of the given users.
type UnreadInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...uint)
}

type noLock struct{}

func (noLock) WithLock(_ context.Context, _ string, _ time.Duration, fn func() error) error {
	return fn()
}

type noPublisher struct{}

func (noPublisher) MessageCreated(context.Context, MessageEvent) {}

type noInvalidator struct{}

func (noInvalidator) Invalidate(context.Context, ...uint) {}
