package conversation

import (
	"context"

	"github.com/rs/zerolog"

	"tieba-server/services/messaging-api/internal/domain"
	"tieba-server/services/messaging-api/internal/domain/query"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

// MessageService exposes message delivery and read operations.
type MessageService interface {
	Send(ctx context.Context, principal domain.Principal, input SendInput) (*Message, error)
	SendDirect(ctx context.Context, principal domain.Principal, input DirectInput) (*Message, error)
	List(ctx context.Context, principal domain.Principal, conversationID uint, pagination query.Pagination) ([]*Message, int64, error)
	// MarkRead marks the listed messages read and resets the principal's unread
	// counter of every touched conversation, atomically. It returns the number
	// of messages marked.
	MarkRead(ctx context.Context, principal domain.Principal, messageIDs []uint) (int, error)
	Delete(ctx context.Context, principal domain.Principal, messageID uint) error
}

type messageService struct {
	deps     ServiceDeps
	resolver Service
	log      zerolog.Logger
}

// NewMessageService constructs the message service. resolver provides the
// private conversation lookup used by direct sends.
func NewMessageService(deps ServiceDeps, resolver Service, log zerolog.Logger) MessageService {
	return &messageService{
		deps:     deps.withDefaults(),
		resolver: resolver,
		log:      log.With().Str("component", "message-service").Logger(),
	}
}

func (s *messageService) Send(ctx context.Context, principal domain.Principal, input SendInput) (*Message, error) {
	if err := validateInput(ctx, input); err != nil {
		return nil, err
	}
	if input.Content == "" && len(input.Attachments) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "message content or an attachment is required", nil, "36960d23-fcde-40eb-a017-c097bd872de7")
	}

	conv, err := s.deps.Conversations.FindByID(ctx, input.ConversationID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load conversation")
	}
	if !conv.HasParticipant(principal.UserID) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden, "you are not a participant of this conversation", nil, "39525aab-f4d9-4cc4-af6a-ec07ddaccd6a")
	}
	if err := s.deps.Guard.AssertCanSend(ctx, principal.UserID, conv.OtherParticipantIDs(principal.UserID)...); err != nil {
		return nil, err
	}

	attachments, err := s.storeAttachments(ctx, principal, input.Attachments)
	if err != nil {
		return nil, err
	}

	msgType := input.Type
	if msgType == "" {
		msgType = MessageTypeText
	}
	return s.deliver(ctx, principal, conv, &Message{
		ConversationID: conv.ID,
		SenderID:       principal.UserID,
		Content:        input.Content,
		Type:           msgType,
		Attachments:    attachments,
	})
}

func (s *messageService) SendDirect(ctx context.Context, principal domain.Principal, input DirectInput) (*Message, error) {
	if err := validateInput(ctx, input); err != nil {
		return nil, err
	}
	if input.RecipientID == principal.UserID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "cannot message yourself", nil, "82bb7ce2-2dbd-474a-8815-f860ef2304d0")
	}

	recipient, err := s.deps.Users.FindByID(ctx, input.RecipientID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load recipient")
	}
	if err := s.deps.Guard.AssertCanSend(ctx, principal.UserID, recipient.ID); err != nil {
		return nil, err
	}
	if !recipient.AllowPrivateMessages {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden, "the recipient does not accept private messages", nil, "ec90c816-d89f-417e-a770-a60acaa8b409")
	}

	conv, err := s.resolver.ResolvePrivate(ctx, principal, recipient.ID)
	if err != nil {
		return nil, err
	}

	msgType := input.Type
	if msgType == "" {
		msgType = MessageTypeText
	}
	return s.deliver(ctx, principal, conv, &Message{
		ConversationID: conv.ID,
		SenderID:       principal.UserID,
		Content:        input.Content,
		Type:           msgType,
	})
}

// deliver appends the message, refreshes caches and emits the push event.
func (s *messageService) deliver(ctx context.Context, principal domain.Principal, conv *Conversation, msg *Message) (*Message, error) {
	msg.CreatedAt = s.deps.Now()
	for i := range msg.Attachments {
		msg.Attachments[i].CreatedAt = msg.CreatedAt
	}

	if err := s.deps.Messages.Append(ctx, msg); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to send message")
	}

	s.deps.Unread.Invalidate(ctx, conv.ParticipantIDs()...)
	if err := enrichProfiles(ctx, s.deps.Users, nil, []*Message{msg}); err != nil {
		s.log.Warn().Err(err).Uint("message_id", msg.ID).Msg("failed to load sender profile")
	}

	recipients := make([]uint, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		if p.UserID != principal.UserID && !p.IsMuted {
			recipients = append(recipients, p.UserID)
		}
	}
	s.deps.Publisher.MessageCreated(ctx, MessageEvent{
		Message:      msg,
		Conversation: conv,
		RecipientIDs: recipients,
	})

	s.log.Debug().
		Uint("conversation_id", conv.ID).
		Uint("message_id", msg.ID).
		Str("type", string(msg.Type)).
		Msg("message delivered")
	return msg, nil
}

func (s *messageService) List(ctx context.Context, principal domain.Principal, conversationID uint, pagination query.Pagination) ([]*Message, int64, error) {
	conv, err := s.deps.Conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load conversation")
	}
	if !conv.HasParticipant(principal.UserID) {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden, "you are not a participant of this conversation", nil, "34643cb2-c4a5-416d-b2aa-8deaca3f3b52")
	}

	messages, total, err := s.deps.Messages.ListByConversation(ctx, conversationID, pagination)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list messages")
	}
	if err := enrichProfiles(ctx, s.deps.Users, nil, messages); err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (s *messageService) MarkRead(ctx context.Context, principal domain.Principal, messageIDs []uint) (int, error) {
	if len(messageIDs) == 0 {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "message_ids must not be empty", nil, "e46d1c13-4cea-4b3e-a389-46cc35b8c714")
	}

	ids := make([]uint, 0, len(messageIDs))
	seen := make(map[uint]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	result, err := s.deps.Messages.MarkRead(ctx, principal.UserID, ids, s.deps.Now())
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to mark messages read")
	}
	if len(result.ConversationIDs) > 0 {
		s.deps.Unread.Invalidate(ctx, principal.UserID)
	}
	return result.Marked, nil
}

func (s *messageService) Delete(ctx context.Context, principal domain.Principal, messageID uint) error {
	msg, err := s.deps.Messages.FindByID(ctx, messageID)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load message")
	}
	if msg.IsDeleted {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "message not found", nil, "10b154fa-4a75-4214-99dc-2efb5d31e03c")
	}
	if msg.SenderID != principal.UserID {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden, "only the sender can delete a message", nil, "1ce2e77b-bd8c-4316-90b8-f272358cfac3")
	}
	if err := s.deps.Messages.SoftDelete(ctx, messageID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete message")
	}
	return nil
}
