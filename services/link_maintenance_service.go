package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kaelo-io/referral_backend/models"
	"github.com/kaelo-io/referral_backend/repositories"
)

// LinkMaintenanceService performs bulk cascading state changes on links.
// Program, link and usage rows are mutated only by their owning service;
// cross-aggregate cascades go through here.
type LinkMaintenanceService struct {
	links  repositories.LinkRepository
	usages repositories.LinkUsageRepository
	tx     repositories.Transactor
}

// NewLinkMaintenanceService creates a new link maintenance service
func NewLinkMaintenanceService(links repositories.LinkRepository, usages repositories.LinkUsageRepository, tx repositories.Transactor) *LinkMaintenanceService {
	return &LinkMaintenanceService{links: links, usages: usages, tx: tx}
}

// CancelByUserID cancels all of a user's active links and returns the
// number of links affected.
func (s *LinkMaintenanceService) CancelByUserID(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	links, err := s.links.ListByUserAndStatus(ctx, userID, models.LinkStatusActive)
	if err != nil {
		return 0, fmt.Errorf("failed to list active links for user: %w", err)
	}
	if len(links) == 0 {
		return 0, nil
	}

	count, err := s.links.UpdateStatus(ctx, linkIDs(links), models.LinkStatusCancelled)
	if err != nil {
		return 0, err
	}

	log.Printf("Cancelled %d active link(s) for user %s", count, userID.Hex())
	return count, nil
}

// CancelByProgramID cancels all active links of a program.
func (s *LinkMaintenanceService) CancelByProgramID(ctx context.Context, programID primitive.ObjectID) (int64, error) {
	links, err := s.links.ListByProgramAndStatus(ctx, programID, models.LinkStatusActive)
	if err != nil {
		return 0, fmt.Errorf("failed to list active links for program: %w", err)
	}
	if len(links) == 0 {
		return 0, nil
	}

	count, err := s.links.UpdateStatus(ctx, linkIDs(links), models.LinkStatusCancelled)
	if err != nil {
		return 0, err
	}

	log.Printf("Cancelled %d active link(s) for program %s", count, programID.Hex())
	return count, nil
}

// LimitReachedByProgramID flips all of a program's active links to limit
// reached once the program's global cap is exhausted.
func (s *LinkMaintenanceService) LimitReachedByProgramID(ctx context.Context, programID primitive.ObjectID) (int64, error) {
	links, err := s.links.ListByProgramAndStatus(ctx, programID, models.LinkStatusActive)
	if err != nil {
		return 0, fmt.Errorf("failed to list active links for program: %w", err)
	}
	if len(links) == 0 {
		return 0, nil
	}

	count, err := s.links.UpdateStatus(ctx, linkIDs(links), models.LinkStatusLimitReached)
	if err != nil {
		return 0, err
	}

	log.Printf("Flipped %d active link(s) to limit reached for program %s", count, programID.Hex())
	return count, nil
}

// ExpireByProgramIDs expires all active links of the given programs and,
// in the same transaction, expires their still-pending usages.
func (s *LinkMaintenanceService) ExpireByProgramIDs(ctx context.Context, programIDs []primitive.ObjectID) error {
	if len(programIDs) == 0 {
		return nil
	}

	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var ids []primitive.ObjectID
		for _, programID := range programIDs {
			links, err := s.links.ListByProgramAndStatus(ctx, programID, models.LinkStatusActive)
			if err != nil {
				return fmt.Errorf("failed to list active links for program: %w", err)
			}
			ids = append(ids, linkIDs(links)...)
		}
		if len(ids) == 0 {
			return nil
		}

		if _, err := s.links.UpdateStatus(ctx, ids, models.LinkStatusExpired); err != nil {
			return err
		}

		pending, err := s.usages.ListPendingByLinkIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to list pending usages: %w", err)
		}

		now := time.Now().UTC()
		for i := range pending {
			usage := pending[i]
			usage.Status = models.LinkUsageStatusExpired
			usage.DateExpired = &now
			if err := s.usages.Update(ctx, &usage); err != nil {
				return err
			}
		}

		log.Printf("Expired %d link(s) and %d pending usage(s) across %d program(s)", len(ids), len(pending), len(programIDs))
		return nil
	})
}

func linkIDs(links []models.Link) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(links))
	for _, link := range links {
		ids = append(ids, link.ID)
	}
	return ids
}
