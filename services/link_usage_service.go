package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kaelo-io/referral_backend/models"
	"github.com/kaelo-io/referral_backend/repositories"
)

// errCompletionCapRace aborts a completion transaction when a concurrent
// completion exhausted a cap between the guard check and the increment.
// The atomic increments make this detectable; the usage is expired
// afterwards instead of completed.
var errCompletionCapRace = errors.New("completion cap exhausted concurrently")

// LinkUsageService owns the referee claim flow and completion processing.
type LinkUsageService struct {
	usages   repositories.LinkUsageRepository
	links    *LinkService
	programs *ProgramService
	users    repositories.UserRepository
	blocks   *BlockService
	lock     ProgressLock
	tx       repositories.Transactor
}

// NewLinkUsageService creates a new link usage service
func NewLinkUsageService(
	usages repositories.LinkUsageRepository,
	links *LinkService,
	programs *ProgramService,
	users repositories.UserRepository,
	blocks *BlockService,
	lock ProgressLock,
	tx repositories.Transactor,
) *LinkUsageService {
	return &LinkUsageService{
		usages:   usages,
		links:    links,
		programs: programs,
		users:    users,
		blocks:   blocks,
		lock:     lock,
		tx:       tx,
	}
}

// ClaimAsReferee claims a link for the acting user, creating a pending
// usage. All guards run inside the claim transaction so concurrent claims
// cannot oversell caps; a failed claim persists nothing.
func (s *LinkUsageService) ClaimAsReferee(ctx context.Context, userID primitive.ObjectID, linkID primitive.ObjectID) (*models.LinkUsage, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if user == nil {
		return nil, NewNotFoundError("User", userID.Hex())
	}

	var usage *models.LinkUsage

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		link, err := s.links.GetByIDAny(ctx, linkID)
		if err != nil {
			return err
		}
		program, err := s.programs.GetByID(ctx, link.ProgramID)
		if err != nil {
			return err
		}

		if link.UserID == userID {
			return NewValidationError(ReasonSelfReferral,
				"You cannot claim your own referral link")
		}

		if !user.Onboarded() {
			return NewValidationError(ReasonNotOnboarded,
				"You must complete your profile before claiming a referral link")
		}

		existing, err := s.usages.GetByUserAndProgram(ctx, userID, program.ID)
		if err != nil {
			return fmt.Errorf("failed to check existing usage: %w", err)
		}
		if existing != nil {
			return s.existingUsageError(existing, program, link)
		}

		now := time.Now().UTC()

		if program.Status != models.ProgramStatusActive {
			return NewValidationError(ReasonProgramNotActive,
				"Program '%s' status is '%s'", program.Name, program.Status)
		}
		if program.DateStart.After(now) {
			return NewValidationError(ReasonProgramNotStarted,
				"Program '%s' only starts on '%s'", program.Name, program.DateStart.Format("2006-01-02"))
		}
		if program.DateEnd != nil && !program.DateEnd.After(now) {
			return NewValidationError(ReasonProgramExpired,
				"Program '%s' expired on '%s'", program.Name, program.DateEnd.Format("2006-01-02"))
		}

		if program.CompletionLimit != nil {
			if balance := program.CompletionBalance(); balance == nil || *balance <= 0 {
				return NewValidationError(ReasonCompletionLimit,
					"Program '%s' has reached its completion limit", program.Name)
			}
		}

		// Blocks apply to referrers; a blocked referrer's surviving
		// active links are unclaimable.
		blocked, err := s.blocks.IsBlocked(ctx, link.UserID)
		if err != nil {
			return err
		}
		if blocked {
			return NewValidationError(ReasonUserBlocked,
				"Referral link '%s' is no longer available", link.Name)
		}

		if link.Status != models.LinkStatusActive {
			return NewValidationError(ReasonLinkNotActive,
				"Referral link '%s' status is '%s'", link.Name, link.Status)
		}

		if program.CompletionLimitReferee != nil && link.CompletionTotal >= *program.CompletionLimitReferee {
			return NewValidationError(ReasonCompletionLimit,
				"Program '%s' has reached its completion limit", program.Name)
		}

		usage = &models.LinkUsage{
			ProgramID:      program.ID,
			LinkID:         link.ID,
			UserID:         userID,
			UserIDReferrer: link.UserID,
			Status:         models.LinkUsageStatusPending,
			DateClaimed:    now,
		}
		return s.usages.Create(ctx, usage)
	})
	if err != nil {
		return nil, err
	}

	return usage, nil
}

// GetByProgramIDAsReferee returns the caller's usage for a program, or a
// NotFoundError when they never claimed it.
func (s *LinkUsageService) GetByProgramIDAsReferee(ctx context.Context, userID, programID primitive.ObjectID) (*models.LinkUsage, error) {
	usage, err := s.usages.GetByUserAndProgram(ctx, userID, programID)
	if err != nil {
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}
	if usage == nil {
		return nil, NewNotFoundError("Referral link usage", programID.Hex())
	}
	return usage, nil
}

// GetUsageByID returns the usage or a NotFoundError.
func (s *LinkUsageService) GetUsageByID(ctx context.Context, id primitive.ObjectID) (*models.LinkUsage, error) {
	usage, err := s.usages.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}
	if usage == nil {
		return nil, NewNotFoundError("Referral link usage", id.Hex())
	}
	return usage, nil
}

// Search returns a referee- or referrer-scoped page of usages.
func (s *LinkUsageService) Search(ctx context.Context, filter models.LinkUsageSearchFilter) (*models.LinkUsageSearchResults, error) {
	return s.usages.Search(ctx, filter)
}

// ProcessCompletion completes a pending usage once the referee's criteria
// are externally satisfied: it computes the payout, marks the usage
// completed and advances the link and program counters in one
// transaction, serialized per referee by the progress lock. Non-pending
// usages are an idempotent no-op. When program or link state, the
// completion window, or an exhausted cap no longer allows completion, the
// usage is expired instead.
func (s *LinkUsageService) ProcessCompletion(ctx context.Context, usageID primitive.ObjectID) (*models.LinkUsage, error) {
	initial, err := s.GetUsageByID(ctx, usageID)
	if err != nil {
		return nil, err
	}
	if initial.Status != models.LinkUsageStatusPending {
		return initial, nil
	}

	release, err := s.lock.Acquire(ctx, initial.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	var usage *models.LinkUsage

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		usage, err = s.GetUsageByID(ctx, usageID)
		if err != nil {
			return err
		}
		if usage.Status != models.LinkUsageStatusPending {
			return nil
		}

		program, err := s.programs.GetByID(ctx, usage.ProgramID)
		if err != nil {
			return err
		}
		link, err := s.links.GetByIDAny(ctx, usage.LinkID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		if reason := completionDisallowed(program, link, usage, now); reason != "" {
			log.Printf("Expiring usage %s: %s", usage.ID.Hex(), reason)
			return s.expire(ctx, usage, now)
		}

		rewardReferee, rewardReferrer := computePayout(program)

		// Link first, then program; both increments are cap-guarded and
		// the transaction rolls back on a concurrent exhaustion.
		if _, err := s.links.ProcessCompletion(ctx, program, usage.LinkID, rewardReferrer); err != nil {
			if errors.Is(err, repositories.ErrLimitReached) {
				return errCompletionCapRace
			}
			return err
		}
		if _, err := s.programs.ProcessCompletion(ctx, usage.ProgramID, rewardReferee+rewardReferrer); err != nil {
			if errors.Is(err, repositories.ErrLimitReached) {
				return errCompletionCapRace
			}
			return err
		}

		usage.Status = models.LinkUsageStatusCompleted
		usage.ZltoRewardReferee = &rewardReferee
		usage.ZltoRewardReferrer = &rewardReferrer
		usage.DateCompleted = &now
		return s.usages.Update(ctx, usage)
	})
	if errors.Is(err, errCompletionCapRace) {
		return s.expireAfterCapRace(ctx, usageID)
	}
	if err != nil {
		return nil, err
	}

	return usage, nil
}

// ExpirePastWindow expires pending usages whose completion window has
// elapsed. Invoked by the background sweep.
func (s *LinkUsageService) ExpirePastWindow(ctx context.Context) error {
	pending, err := s.usages.ListByStatus(ctx, models.LinkUsageStatusPending)
	if err != nil {
		return fmt.Errorf("failed to list pending usages: %w", err)
	}

	now := time.Now().UTC()
	for i := range pending {
		usage := pending[i]

		program, err := s.programs.GetByID(ctx, usage.ProgramID)
		if err != nil {
			if errors.As(err, new(*NotFoundError)) {
				continue
			}
			return err
		}
		if !windowElapsed(program, &usage, now) {
			continue
		}

		if err := s.expire(ctx, &usage, now); err != nil {
			return err
		}
		log.Printf("Expired usage %s (claimed %s, window %v days)",
			usage.ID.Hex(), usage.DateClaimed.Format("2006-01-02"), program.CompletionWindowInDays)
	}
	return nil
}

func (s *LinkUsageService) expire(ctx context.Context, usage *models.LinkUsage, now time.Time) error {
	usage.Status = models.LinkUsageStatusExpired
	usage.DateExpired = &now
	return s.usages.Update(ctx, usage)
}

func (s *LinkUsageService) expireAfterCapRace(ctx context.Context, usageID primitive.ObjectID) (*models.LinkUsage, error) {
	usage, err := s.GetUsageByID(ctx, usageID)
	if err != nil {
		return nil, err
	}
	if usage.Status != models.LinkUsageStatusPending {
		return usage, nil
	}
	now := time.Now().UTC()
	if err := s.expire(ctx, usage, now); err != nil {
		return nil, err
	}
	return usage, nil
}

func (s *LinkUsageService) existingUsageError(existing *models.LinkUsage, program *models.Program, link *models.Link) error {
	prefix := fmt.Sprintf("You have already participated in program '%s' and cannot claim again", program.Name)

	switch existing.Status {
	case models.LinkUsageStatusPending:
		return NewValidationError(ReasonAlreadyClaimedPending,
			"%s. You already claimed link '%s' on '%s' and it is still pending",
			prefix, link.Name, existing.DateClaimed.Format("2006-01-02"))
	case models.LinkUsageStatusCompleted:
		completed := ""
		if existing.DateCompleted != nil {
			completed = existing.DateCompleted.Format("2006-01-02")
		}
		return NewValidationError(ReasonAlreadyClaimedCompleted,
			"%s. You already completed program '%s' using link '%s' on '%s'",
			prefix, program.Name, link.Name, completed)
	case models.LinkUsageStatusExpired:
		expired := ""
		if existing.DateExpired != nil {
			expired = existing.DateExpired.Format("2006-01-02")
		}
		return NewValidationError(ReasonAlreadyClaimedExpired,
			"%s. Your claim for link '%s' on '%s' expired on '%s'",
			prefix, link.Name, existing.DateClaimed.Format("2006-01-02"), expired)
	}
	return fmt.Errorf("unsupported usage status '%s'", existing.Status)
}

// completionDisallowed reports why a pending usage can no longer complete,
// or "" when it may. Caps that filled up after the claim expire the usage
// rather than overshooting.
func completionDisallowed(program *models.Program, link *models.Link, usage *models.LinkUsage, now time.Time) string {
	if program.Status != models.ProgramStatusActive {
		return fmt.Sprintf("program status is '%s'", program.Status)
	}
	if link.Status != models.LinkStatusActive {
		return fmt.Sprintf("link status is '%s'", link.Status)
	}
	if windowElapsed(program, usage, now) {
		return "completion window elapsed"
	}
	return ""
}

// windowElapsed reports whether the usage's completion window has passed.
// Programs without a window fall back to their end date.
func windowElapsed(program *models.Program, usage *models.LinkUsage, now time.Time) bool {
	if program.CompletionWindowInDays != nil {
		return now.After(usage.DateClaimed.AddDate(0, 0, *program.CompletionWindowInDays))
	}
	if program.DateEnd != nil {
		return !program.DateEnd.After(now)
	}
	return false
}

// computePayout resolves the actual award amounts for one completion,
// honoring the program's remaining reward pool. The referee is paid
// first; the referrer absorbs any shortfall.
func computePayout(program *models.Program) (rewardReferee, rewardReferrer float64) {
	if program.ZltoRewardReferee != nil {
		rewardReferee = *program.ZltoRewardReferee
	}
	if program.ZltoRewardReferrer != nil {
		rewardReferrer = *program.ZltoRewardReferrer
	}

	balance := program.ZltoRewardBalance()
	if balance == nil {
		return rewardReferee, rewardReferrer
	}

	remaining := *balance
	if rewardReferee > remaining {
		rewardReferee = remaining
	}
	remaining -= rewardReferee
	if rewardReferrer > remaining {
		rewardReferrer = remaining
	}

	return rewardReferee, rewardReferrer
}
