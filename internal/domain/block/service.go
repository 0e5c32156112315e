package block

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tieba-server/services/messaging-api/internal/domain"
	"tieba-server/services/messaging-api/internal/domain/query"
	"tieba-server/services/messaging-api/internal/domain/user"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

// Guard is the delivery gate consulted before any message is written.
type Guard interface {
	AssertCanSend(ctx context.Context, senderID uint, recipientIDs ...uint) error
}

// Service manages the principal's block list and enforces it on delivery.
type Service interface {
	Guard
	Block(ctx context.Context, principal domain.Principal, blockedID uint) (*Block, error)
	Unblock(ctx context.Context, principal domain.Principal, blockedID uint) error
	List(ctx context.Context, principal domain.Principal, pagination query.Pagination) ([]*Block, int64, error)
}

type service struct {
	repo  Repository
	users user.Directory
	log   zerolog.Logger
}

// NewService constructs the block service.
func NewService(repo Repository, users user.Directory, log zerolog.Logger) Service {
	return &service{
		repo:  repo,
		users: users,
		log:   log.With().Str("component", "block-service").Logger(),
	}
}

// AssertCanSend fails with a Forbidden error when any recipient has blocked the sender.
// The sender itself is never treated as a recipient.
func (s *service) AssertCanSend(ctx context.Context, senderID uint, recipientIDs ...uint) error {
	blockers := make([]uint, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		if id != 0 && id != senderID {
			blockers = append(blockers, id)
		}
	}
	if len(blockers) == 0 {
		return nil
	}

	blocked, err := s.repo.AnyBlocking(ctx, senderID, blockers)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to check block list")
	}
	if blocked {
		s.log.Debug().Uint("sender_id", senderID).Msg("delivery refused by recipient block")
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden, "you have been blocked by the recipient and cannot send messages", nil, "daea702e-e1e1-4920-a5a9-2b39ac4b425a")
	}
	return nil
}

func (s *service) Block(ctx context.Context, principal domain.Principal, blockedID uint) (*Block, error) {
	if blockedID == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "blocked user id is required", nil, "d77aefc5-feb0-4d37-9499-055130af402e")
	}
	if blockedID == principal.UserID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "cannot block yourself", nil, "f2edfff3-1d1b-4f58-805c-6f0dffe5d60f")
	}

	target, err := s.users.FindByID(ctx, blockedID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load user")
	}

	b := &Block{
		BlockerID:       principal.UserID,
		BlockedID:       blockedID,
		BlockedUsername: target.Username,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, b); err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "user is already blocked", err, "6cf42924-f3f8-43df-83bb-16ad495db47b")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to block user")
	}

	s.log.Info().Uint("blocker_id", b.BlockerID).Uint("blocked_id", b.BlockedID).Msg("user blocked")
	return b, nil
}

func (s *service) Unblock(ctx context.Context, principal domain.Principal, blockedID uint) error {
	if _, err := s.users.FindByID(ctx, blockedID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load user")
	}
	if err := s.repo.Delete(ctx, principal.UserID, blockedID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to unblock user")
	}
	s.log.Info().Uint("blocker_id", principal.UserID).Uint("blocked_id", blockedID).Msg("user unblocked")
	return nil
}

func (s *service) List(ctx context.Context, principal domain.Principal, pagination query.Pagination) ([]*Block, int64, error) {
	blocks, total, err := s.repo.ListByBlocker(ctx, principal.UserID, pagination)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list blocks")
	}

	ids := make([]uint, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.BlockedID)
	}
	profiles, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load blocked users")
	}
	for _, b := range blocks {
		if u, ok := profiles[b.BlockedID]; ok {
			b.BlockedUsername = u.Username
		}
	}
	return blocks, total, nil
}
