package conversation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tieba-server/services/messaging-api/internal/domain"
	"tieba-server/services/messaging-api/internal/domain/query"
	"tieba-server/services/messaging-api/internal/domain/user"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

// Service exposes conversation resolution, listing and read-state operations.
type Service interface {
	// ResolvePrivate finds or creates the single private conversation between
	// the principal and otherUserID.
	ResolvePrivate(ctx context.Context, principal domain.Principal, otherUserID uint) (*Conversation, error)
	Create(ctx context.Context, principal domain.Principal, input CreateInput) (*Conversation, error)
	List(ctx context.Context, principal domain.Principal, pagination query.Pagination) ([]*Summary, int64, error)
	// GetDetail returns the conversation with its full history and marks it
	// read for the principal.
	GetDetail(ctx context.Context, principal domain.Principal, conversationID uint) (*Detail, error)
	SetMuted(ctx context.Context, principal domain.Principal, conversationID uint, muted bool) (*Participant, error)
}

// ServiceDeps groups the collaborators of the conversation services. Optional
// collaborators fall back to no-ops when nil.
type ServiceDeps struct {
	Conversations Repository
	Messages      MessageRepository
	Users         user.Directory
	Guard         BlockGuard
	Locker        Locker
	LockTTL       time.Duration
	Publisher     EventPublisher
	Storage       AttachmentStorage
	Unread        UnreadInvalidator
	MaxAttachment int64
	Now           func() time.Time
}

func (d ServiceDeps) withDefaults() ServiceDeps {
	if d.Locker == nil {
		d.Locker = noLock{}
	}
	if d.LockTTL <= 0 {
		d.LockTTL = 5 * time.Second
	}
	if d.Publisher == nil {
		d.Publisher = noPublisher{}
	}
	if d.Unread == nil {
		d.Unread = noInvalidator{}
	}
	if d.MaxAttachment <= 0 {
		d.MaxAttachment = 10 << 20
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

type service struct {
	deps ServiceDeps
	log  zerolog.Logger
}

// NewService constructs the conversation service.
func NewService(deps ServiceDeps, log zerolog.Logger) Service {
	return &service{
		deps: deps.withDefaults(),
		log:  log.With().Str("component", "conversation-service").Logger(),
	}
}

func (s *service) ResolvePrivate(ctx context.Context, principal domain.Principal, otherUserID uint) (*Conversation, error) {
	if otherUserID == principal.UserID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "cannot message yourself", nil, "5b6981c2-0041-4283-be25-e21f5c75d4f6")
	}
	if _, err := s.deps.Users.FindByID(ctx, otherUserID); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load recipient")
	}

	key := PairKey(principal.UserID, otherUserID)
	var (
		conv    *Conversation
		created bool
	)
	err := s.deps.Locker.WithLock(ctx, "conversation:pair:"+key, s.deps.LockTTL, func() error {
		var err error
		conv, created, err = s.deps.Conversations.FindOrCreatePrivate(ctx, key, principal.UserID, otherUserID)
		return err
	})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to resolve private conversation")
	}

	if created {
		s.log.Info().Uint("conversation_id", conv.ID).Str("pair_key", key).Msg("private conversation created")
	}
	return conv, nil
}

func (s *service) Create(ctx context.Context, principal domain.Principal, input CreateInput) (*Conversation, error) {
	if err := validateInput(ctx, input); err != nil {
		return nil, err
	}

	others := make([]uint, 0, len(input.ParticipantIDs))
	seen := map[uint]struct{}{principal.UserID: {}}
	for _, id := range input.ParticipantIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		others = append(others, id)
	}

	convType := input.Type
	if convType == "" {
		convType = ConversationTypePrivate
	}

	switch convType {
	case ConversationTypePrivate:
		if len(others) == 0 {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "cannot message yourself", nil, "bab694fe-ca42-4e84-8e18-0678b3d30c2a")
		}
		if len(others) > 1 {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "a private conversation has exactly one other participant", nil, "a813146b-d80f-4061-a568-ac44bfa16e96")
		}
		return s.ResolvePrivate(ctx, principal, others[0])
	default:
		if len(others) == 0 {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "a group conversation needs at least two participants", nil, "839ad238-83e6-4d39-8d15-3465f782e3be")
		}
		profiles, err := s.deps.Users.FindByIDs(ctx, others)
		if err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load participants")
		}
		for _, id := range others {
			if _, ok := profiles[id]; !ok {
				return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "participant not found", nil, "03d78553-b7e9-43a9-ab3a-57fad9fd4a41", map[string]any{"user_id": id})
			}
		}

		now := s.deps.Now()
		conv := &Conversation{
			Title:     input.Title,
			Type:      ConversationTypeGroup,
			CreatedAt: now,
			UpdatedAt: now,
		}
		members := append([]uint{principal.UserID}, others...)
		if err := s.deps.Conversations.CreateGroup(ctx, conv, members); err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create group conversation")
		}
		s.log.Info().Uint("conversation_id", conv.ID).Int("members", len(members)).Msg("group conversation created")
		return conv, nil
	}
}

func (s *service) List(ctx context.Context, principal domain.Principal, pagination query.Pagination) ([]*Summary, int64, error) {
	convs, total, err := s.deps.Conversations.ListByUser(ctx, principal.UserID, pagination)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list conversations")
	}
	if len(convs) == 0 {
		return []*Summary{}, total, nil
	}

	ids := make([]uint, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.ID)
	}
	lastMessages, err := s.deps.Messages.LastByConversations(ctx, ids)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load last messages")
	}

	summaries := make([]*Summary, 0, len(convs))
	var msgs []*Message
	for _, c := range convs {
		last := lastMessages[c.ID]
		if last != nil {
			msgs = append(msgs, last)
		}
		summaries = append(summaries, &Summary{
			Conversation: c,
			LastMessage:  last,
			UnreadCount:  c.UnreadCountFor(principal.UserID),
		})
	}

	if err := s.enrich(ctx, convs, msgs); err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

func (s *service) GetDetail(ctx context.Context, principal domain.Principal, conversationID uint) (*Detail, error) {
	conv, err := s.loadForParticipant(ctx, principal, conversationID)
	if err != nil {
		return nil, err
	}

	readAt := s.deps.Now()
	if err := s.deps.Conversations.MarkConversationRead(ctx, conv.ID, principal.UserID, readAt); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to mark conversation read")
	}
	s.deps.Unread.Invalidate(ctx, principal.UserID)
	if p, ok := conv.Participant(principal.UserID); ok {
		p.UnreadCount = 0
		p.LastReadAt = &readAt
	}

	messages, _, err := s.deps.Messages.ListByConversation(ctx, conv.ID, query.All())
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load messages")
	}
	for _, m := range messages {
		if m.SenderID != principal.UserID {
			m.IsRead = true
		}
	}
	if err := s.enrich(ctx, []*Conversation{conv}, messages); err != nil {
		return nil, err
	}

	var last *Message
	if len(messages) > 0 {
		last = messages[len(messages)-1]
	}
	return &Detail{
		Summary: Summary{
			Conversation: conv,
			LastMessage:  last,
			UnreadCount:  0,
		},
		Messages: messages,
	}, nil
}

func (s *service) SetMuted(ctx context.Context, principal domain.Principal, conversationID uint, muted bool) (*Participant, error) {
	if _, err := s.loadForParticipant(ctx, principal, conversationID); err != nil {
		return nil, err
	}
	p, err := s.deps.Conversations.SetMuted(ctx, conversationID, principal.UserID, muted)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update mute state")
	}
	return p, nil
}

// loadForParticipant fetches a conversation and checks the principal belongs to it.
func (s *service) loadForParticipant(ctx context.Context, principal domain.Principal, conversationID uint) (*Conversation, error) {
	conv, err := s.deps.Conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load conversation")
	}
	if !conv.HasParticipant(principal.UserID) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden, "you are not a participant of this conversation", nil, "684de7d5-420b-4c3b-b67a-e61265b4873d")
	}
	return conv, nil
}

// enrich fills profile fields of participants and message senders in one directory lookup.
func (s *service) enrich(ctx context.Context, convs []*Conversation, msgs []*Message) error {
	return enrichProfiles(ctx, s.deps.Users, convs, msgs)
}

func enrichProfiles(ctx context.Context, users user.Directory, convs []*Conversation, msgs []*Message) error {
	seen := make(map[uint]struct{})
	var ids []uint
	add := func(id uint) {
		if _, ok := seen[id]; ok || id == 0 {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, c := range convs {
		for _, p := range c.Participants {
			add(p.UserID)
		}
	}
	for _, m := range msgs {
		add(m.SenderID)
	}
	if len(ids) == 0 {
		return nil
	}

	profiles, err := users.FindByIDs(ctx, ids)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load user profiles")
	}
	for _, c := range convs {
		for i := range c.Participants {
			if u, ok := profiles[c.Participants[i].UserID]; ok {
				c.Participants[i].Username = u.Username
				c.Participants[i].Nickname = u.Nickname
				c.Participants[i].Avatar = u.Avatar
			}
		}
	}
	for _, m := range msgs {
		if u, ok := profiles[m.SenderID]; ok {
			m.SenderName = u.Username
			m.SenderAvatar = u.Avatar
		}
	}
	return nil
}
