package services

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kaelo-io/referral_backend/models"
	"github.com/kaelo-io/referral_backend/repositories"
)

// BlockService owns blocking and unblocking of a user's referral
// participation. Block and Unblock are idempotent: blocking an already
// blocked user returns the existing block, unblocking a never-blocked
// user is a no-op.
type BlockService struct {
	blocks      repositories.BlockRepository
	reasons     repositories.BlockReasonRepository
	users       repositories.UserRepository
	maintenance *LinkMaintenanceService
	tx          repositories.Transactor
	notifier    Notifier
}

// NewBlockService creates a new block service
func NewBlockService(
	blocks repositories.BlockRepository,
	reasons repositories.BlockReasonRepository,
	users repositories.UserRepository,
	maintenance *LinkMaintenanceService,
	tx repositories.Transactor,
	notifier Notifier,
) *BlockService {
	return &BlockService{
		blocks:      blocks,
		reasons:     reasons,
		users:       users,
		maintenance: maintenance,
		tx:          tx,
		notifier:    notifier,
	}
}

// Block removes the user from referral participation. When cancelLinks is
// set the user's active links are cancelled in the same transaction.
func (s *BlockService) Block(ctx context.Context, actorID primitive.ObjectID, req *models.BlockRequest) (*models.Block, error) {
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return nil, NewNotFoundError("User", req.UserID)
	}
	reasonID, err := primitive.ObjectIDFromHex(req.ReasonID)
	if err != nil {
		return nil, NewNotFoundError("Block reason", req.ReasonID)
	}

	existing, err := s.blocks.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing block: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if user == nil {
		return nil, NewNotFoundError("User", userID.Hex())
	}

	reason, err := s.reasons.GetByID(ctx, reasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve block reason: %w", err)
	}
	if reason == nil {
		return nil, NewNotFoundError("Block reason", reasonID.Hex())
	}

	block := &models.Block{
		UserID:       userID,
		ReasonID:     reason.ID,
		Reason:       reason.Name,
		CommentBlock: req.Comment,
		Active:       true,
		BlockedBy:    actorID,
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.blocks.Create(ctx, block); err != nil {
			return fmt.Errorf("failed to create block: %w", err)
		}
		if req.CancelLinks {
			_, err := s.maintenance.CancelByUserID(ctx, userID)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Blocked user %s (reason '%s', cancelLinks=%v)", userID.Hex(), reason.Name, req.CancelLinks)
	s.notify(func() error { return s.notifier.UserBlocked(user, block) })

	return block, nil
}

// Unblock restores the user's referral participation. Returns nil without
// writing when no active block exists.
func (s *BlockService) Unblock(ctx context.Context, actorID primitive.ObjectID, req *models.UnblockRequest) (*models.Block, error) {
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return nil, NewNotFoundError("User", req.UserID)
	}

	block, err := s.blocks.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing block: %w", err)
	}
	if block == nil {
		return nil, nil
	}

	block.Active = false
	block.CommentUnblock = req.Comment
	block.UnblockedBy = &actorID
	if err := s.blocks.Update(ctx, block); err != nil {
		return nil, fmt.Errorf("failed to update block: %w", err)
	}

	log.Printf("Unblocked user %s", userID.Hex())

	user, err := s.users.GetByID(ctx, userID)
	if err == nil && user != nil {
		s.notify(func() error { return s.notifier.UserUnblocked(user, block) })
	}

	return block, nil
}

// GetByUserIDOrNil returns the user's active block, or nil.
func (s *BlockService) GetByUserIDOrNil(ctx context.Context, userID primitive.ObjectID) (*models.Block, error) {
	return s.blocks.GetActiveByUserID(ctx, userID)
}

// IsBlocked reports whether the user currently holds an active block.
func (s *BlockService) IsBlocked(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	block, err := s.blocks.GetActiveByUserID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check block: %w", err)
	}
	return block != nil, nil
}

func (s *BlockService) notify(send func() error) {
	if s.notifier == nil {
		return
	}
	if err := send(); err != nil {
		log.Printf("Failed to send notification: %v", err)
	}
}
