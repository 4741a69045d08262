package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kaelo-io/referral_backend/models"
	"github.com/kaelo-io/referral_backend/repositories"
	"github.com/kaelo-io/referral_backend/utils"
)

// LinkService owns link creation and cancellation. Creation enforces
// program state, country eligibility and the per-user link policy; caps
// are checked inside the creation transaction so concurrent requests
// cannot oversell them.
type LinkService struct {
	links      repositories.LinkRepository
	programs   *ProgramService
	users      repositories.UserRepository
	countries  repositories.CountryRepository
	shortener  ShortLinkProvider
	tx         repositories.Transactor
	appBaseURL string
}

// NewLinkService creates a new link service
func NewLinkService(
	links repositories.LinkRepository,
	programs *ProgramService,
	users repositories.UserRepository,
	countries repositories.CountryRepository,
	shortener ShortLinkProvider,
	tx repositories.Transactor,
	appBaseURL string,
) *LinkService {
	return &LinkService{
		links:      links,
		programs:   programs,
		users:      users,
		countries:  countries,
		shortener:  shortener,
		tx:         tx,
		appBaseURL: appBaseURL,
	}
}

// Create validates and persists a new active link for the acting user.
// Short-link generation is part of creation; its failure aborts the
// operation.
func (s *LinkService) Create(ctx context.Context, userID primitive.ObjectID, req *models.LinkRequest) (*models.Link, error) {
	programID, err := primitive.ObjectIDFromHex(req.ProgramID)
	if err != nil {
		return nil, NewNotFoundError("Program", req.ProgramID)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if user == nil {
		return nil, NewNotFoundError("User", userID.Hex())
	}

	var link *models.Link

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		program, err := s.programs.GetByID(ctx, programID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		if program.Status != models.ProgramStatusActive || program.DateStart.After(now) {
			return NewValidationError(ReasonProgramNotActive,
				"Referral program '%s' is not active or has not started", program.Name)
		}

		if program.DateEnd != nil && !program.DateEnd.After(now) {
			return NewValidationError(ReasonProgramExpired,
				"Referral program '%s' expired on '%s'", program.Name, program.DateEnd.Format("2006-01-02"))
		}

		if program.CompletionLimit != nil {
			if balance := program.CompletionBalance(); balance == nil || *balance <= 0 {
				return NewValidationError(ReasonCompletionLimit,
					"Referral program '%s' has reached its completion limit", program.Name)
			}
		}

		worldwideID, err := s.worldwideCountryID(ctx)
		if err != nil {
			return err
		}
		if !ProgramAccessibleToUser(worldwideID, user.CountryID, program.CountryIDs) {
			return NewValidationError(ReasonCountryNotAvailable,
				"Referral program '%s' is not available in your country", program.Name)
		}

		if !program.MultipleLinksAllowed {
			existing, err := s.links.GetActiveByUserAndProgram(ctx, userID, programID)
			if err != nil {
				return fmt.Errorf("failed to check active links: %w", err)
			}
			if existing != nil {
				return NewValidationError(ReasonMultipleLinks,
					"Multiple active referral links are not allowed for program '%s'", program.Name)
			}
		}

		existingByName, err := s.links.GetByName(ctx, userID, programID, req.Name)
		if err != nil {
			return fmt.Errorf("failed to check link name: %w", err)
		}
		if existingByName != nil {
			return NewValidationError(ReasonDuplicateName,
				"A referral link with the name '%s' already exists for the current user", req.Name)
		}

		link = &models.Link{
			ID:          primitive.NewObjectID(),
			ProgramID:   programID,
			UserID:      userID,
			Name:        req.Name,
			Description: req.Description,
			Status:      models.LinkStatusActive,
		}
		link.URL = fmt.Sprintf("%s/referral/%s/claim", s.appBaseURL, link.ID.Hex())

		shortURL, err := s.shortener.CreateShortLink(ctx, link.Name, link.URL)
		if err != nil {
			return fmt.Errorf("failed to generate short link: %w", err)
		}
		link.ShortURL = shortURL

		return s.links.Create(ctx, link)
	})
	if err != nil {
		return nil, err
	}

	if req.IncludeQRCode {
		if err := s.attachQRCode(link); err != nil {
			return nil, err
		}
	}

	return link, nil
}

// Cancel cancels the caller's link. Cancelling an already-cancelled link
// returns it unchanged with no write.
func (s *LinkService) Cancel(ctx context.Context, actorID primitive.ObjectID, isAdmin bool, linkID primitive.ObjectID) (*models.Link, error) {
	link, err := s.getOwned(ctx, actorID, isAdmin, linkID)
	if err != nil {
		return nil, err
	}

	if link.Status == models.LinkStatusCancelled {
		return link, nil
	}

	if !models.CanTransitionLink(link.Status, models.LinkStatusCancelled) {
		return nil, NewValidationError(ReasonLinkNotCancellable,
			"Referral link '%s' can no longer be cancelled (current status '%s')", link.Name, link.Status)
	}

	link.Status = models.LinkStatusCancelled
	if err := s.links.Update(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to cancel link: %w", err)
	}

	return link, nil
}

// GetByID returns the caller's link or a NotFoundError. Admins may fetch
// any link.
func (s *LinkService) GetByID(ctx context.Context, actorID primitive.ObjectID, isAdmin bool, linkID primitive.ObjectID, includeQRCode bool) (*models.Link, error) {
	link, err := s.getOwned(ctx, actorID, isAdmin, linkID)
	if err != nil {
		return nil, err
	}

	if includeQRCode {
		if err := s.attachQRCode(link); err != nil {
			return nil, err
		}
	}

	return link, nil
}

// GetByIDAny returns a link regardless of ownership, for internal callers.
func (s *LinkService) GetByIDAny(ctx context.Context, linkID primitive.ObjectID) (*models.Link, error) {
	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	if link == nil {
		return nil, NewNotFoundError("Referral link", linkID.Hex())
	}
	return link, nil
}

// GetByNameOrNil returns the user's link with the given name for a
// program, or nil.
func (s *LinkService) GetByNameOrNil(ctx context.Context, userID, programID primitive.ObjectID, name string) (*models.Link, error) {
	return s.links.GetByName(ctx, userID, programID, name)
}

// Search returns the owner-scoped page of links.
func (s *LinkService) Search(ctx context.Context, filter models.LinkSearchFilter) (*models.LinkSearchResults, error) {
	return s.links.Search(ctx, filter)
}

// ProcessCompletion advances the link's counters for one completed usage.
// Runs inside the caller's completion transaction; the per-referee cap
// check and the increment are a single atomic repository operation. The
// link flips to LimitReached when its cap is newly hit or the program's
// global cap is exhausted.
func (s *LinkService) ProcessCompletion(ctx context.Context, program *models.Program, linkID primitive.ObjectID, rewardAmount float64) (*models.Link, error) {
	link, err := s.links.IncrementCompletion(ctx, linkID, program.CompletionLimitReferee, rewardAmount)
	if err != nil {
		return nil, err
	}

	perRefereeCapHit := program.CompletionLimitReferee != nil &&
		link.CompletionTotal >= *program.CompletionLimitReferee
	programCapHit := program.Status == models.ProgramStatusLimitReached

	if link.Status == models.LinkStatusActive && (perRefereeCapHit || programCapHit) {
		link.Status = models.LinkStatusLimitReached
		if err := s.links.Update(ctx, link); err != nil {
			return nil, fmt.Errorf("failed to flip link to limit reached: %w", err)
		}
		log.Printf("Link %s flipped to limit reached (per-referee cap %v, program cap %v)",
			link.ID.Hex(), perRefereeCapHit, programCapHit)
	}

	return link, nil
}

func (s *LinkService) getOwned(ctx context.Context, actorID primitive.ObjectID, isAdmin bool, linkID primitive.ObjectID) (*models.Link, error) {
	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	// Ownership is not disclosed: a foreign link reads as missing.
	if link == nil || (!isAdmin && link.UserID != actorID) {
		return nil, NewNotFoundError("Referral link", linkID.Hex())
	}
	return link, nil
}

func (s *LinkService) attachQRCode(link *models.Link) error {
	qr, err := utils.GenerateQRCodeBase64(link.URL)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}
	link.QRCodeBase64 = qr
	return nil
}

func (s *LinkService) worldwideCountryID(ctx context.Context) (primitive.ObjectID, error) {
	country, err := s.countries.GetByCodeAlpha2(ctx, models.WorldwideCodeAlpha2)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to resolve worldwide country: %w", err)
	}
	if country == nil {
		return primitive.NilObjectID, fmt.Errorf("worldwide country '%s' is not seeded", models.WorldwideCodeAlpha2)
	}
	return country.ID, nil
}
