package services

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kaelo-io/referral_backend/models"
	"github.com/kaelo-io/referral_backend/repositories"
)

// ProgramService owns program status transitions, completion-cap
// bookkeeping and the default-program designation.
type ProgramService struct {
	programs    repositories.ProgramRepository
	countries   repositories.CountryRepository
	users       repositories.UserRepository
	maintenance *LinkMaintenanceService
	tx          repositories.Transactor
	notifier    Notifier
}

// NewProgramService creates a new program service
func NewProgramService(
	programs repositories.ProgramRepository,
	countries repositories.CountryRepository,
	users repositories.UserRepository,
	maintenance *LinkMaintenanceService,
	tx repositories.Transactor,
	notifier Notifier,
) *ProgramService {
	return &ProgramService{
		programs:    programs,
		countries:   countries,
		users:       users,
		maintenance: maintenance,
		tx:          tx,
		notifier:    notifier,
	}
}

// programStatusesEditable are the states in which a program may still be
// updated.
var programStatusesEditable = []models.ProgramStatus{
	models.ProgramStatusActive,
	models.ProgramStatusInactive,
	models.ProgramStatusUnCompletable,
}

// GetByID returns the program or a NotFoundError.
func (s *ProgramService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Program, error) {
	program, err := s.programs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	if program == nil {
		return nil, NewNotFoundError("Program", id.Hex())
	}
	return program, nil
}

// GetByNameOrNil returns the program with the given name, or nil when no
// program carries it.
func (s *ProgramService) GetByNameOrNil(ctx context.Context, name string) (*models.Program, error) {
	return s.programs.GetByName(ctx, name)
}

// GetDefaultOrNil returns the platform default program, or nil when none
// is designated.
func (s *ProgramService) GetDefaultOrNil(ctx context.Context) (*models.Program, error) {
	return s.programs.GetDefault(ctx)
}

// Create persists a new program. The initial status is Inactive unless the
// request pre-activates it; setting it as the default happens in the same
// transaction.
func (s *ProgramService) Create(ctx context.Context, actorID primitive.ObjectID, req *models.ProgramRequest) (*models.Program, error) {
	existing, err := s.programs.GetByName(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check program name: %w", err)
	}
	if existing != nil {
		return nil, NewValidationError(ReasonDuplicateName,
			"Program with the specified name '%s' already exists", req.Name)
	}

	countryIDs, err := s.resolveCountryIDs(ctx, req.CountryIDs)
	if err != nil {
		return nil, err
	}

	status := models.ProgramStatusInactive
	if req.Activate {
		status = models.ProgramStatusActive
	}

	program := &models.Program{
		Name:                      req.Name,
		Description:               req.Description,
		ImageURL:                  req.ImageURL,
		CompletionWindowInDays:    req.CompletionWindowInDays,
		CompletionLimitReferee:    req.CompletionLimitReferee,
		CompletionLimit:           req.CompletionLimit,
		ZltoRewardReferrer:        req.ZltoRewardReferrer,
		ZltoRewardReferee:         req.ZltoRewardReferee,
		ZltoRewardPool:            req.ZltoRewardPool,
		ProofOfPersonhoodRequired: req.ProofOfPersonhoodRequired,
		PathwayRequired:           req.PathwayRequired,
		MultipleLinksAllowed:      req.MultipleLinksAllowed,
		Status:                    status,
		DateStart:                 req.DateStart,
		DateEnd:                   req.DateEnd,
		CountryIDs:                countryIDs,
		CreatedBy:                 actorID,
		ModifiedBy:                actorID,
	}

	if req.IsDefault {
		worldwideID, err := s.worldwideCountryID(ctx)
		if err != nil {
			return nil, err
		}
		if !DefaultProgramIsWorldwide(worldwideID, program.CountryIDs) {
			return nil, NewValidationError(ReasonNotWorldwide,
				"Program '%s' cannot be set as default: a default program must be available worldwide", req.Name)
		}
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.programs.Create(ctx, program); err != nil {
			return fmt.Errorf("failed to create program: %w", err)
		}
		if req.IsDefault {
			return s.setAsDefault(ctx, program)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return program, nil
}

// Update modifies a program's configuration while it is still editable.
func (s *ProgramService) Update(ctx context.Context, actorID, id primitive.ObjectID, req *models.ProgramRequest) (*models.Program, error) {
	program, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !programEditable(program.Status) {
		return nil, NewValidationError(ReasonInvalidTransition,
			"Program '%s' can no longer be updated (current status '%s')", program.Name, program.Status)
	}

	existing, err := s.programs.GetByName(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check program name: %w", err)
	}
	if existing != nil && existing.ID != program.ID {
		return nil, NewValidationError(ReasonDuplicateName,
			"Program with the specified name '%s' already exists", req.Name)
	}

	countryIDs, err := s.resolveCountryIDs(ctx, req.CountryIDs)
	if err != nil {
		return nil, err
	}

	program.Name = req.Name
	program.Description = req.Description
	program.ImageURL = req.ImageURL
	program.CompletionWindowInDays = req.CompletionWindowInDays
	program.CompletionLimitReferee = req.CompletionLimitReferee
	program.CompletionLimit = req.CompletionLimit
	program.ZltoRewardReferrer = req.ZltoRewardReferrer
	program.ZltoRewardReferee = req.ZltoRewardReferee
	program.ZltoRewardPool = req.ZltoRewardPool
	program.ProofOfPersonhoodRequired = req.ProofOfPersonhoodRequired
	program.PathwayRequired = req.PathwayRequired
	program.MultipleLinksAllowed = req.MultipleLinksAllowed
	program.DateStart = req.DateStart
	program.DateEnd = req.DateEnd
	program.CountryIDs = countryIDs
	program.ModifiedBy = actorID

	if err := s.programs.Update(ctx, program); err != nil {
		return nil, fmt.Errorf("failed to update program: %w", err)
	}

	return program, nil
}

// UpdateStatus applies an explicit status transition. Transitioning into
// Deleted cancels the program's links; into Expired, expires them along
// with their pending usages.
func (s *ProgramService) UpdateStatus(ctx context.Context, actorID, id primitive.ObjectID, to models.ProgramStatus) (*models.Program, error) {
	var program *models.Program

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		program, err = s.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if !models.CanTransitionProgram(program.Status, to) {
			return NewValidationError(ReasonInvalidTransition,
				"Invalid status transition for program '%s': '%s' to '%s'", program.Name, program.Status, to)
		}

		program.Status = to
		program.ModifiedBy = actorID
		if err := s.programs.Update(ctx, program); err != nil {
			return fmt.Errorf("failed to update program status: %w", err)
		}

		switch to {
		case models.ProgramStatusDeleted:
			_, err = s.maintenance.CancelByProgramID(ctx, program.ID)
			return err
		case models.ProgramStatusExpired:
			return s.maintenance.ExpireByProgramIDs(ctx, []primitive.ObjectID{program.ID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return program, nil
}

// ProcessCompletion advances the program's completion counters for one
// completed usage. The cap check and the increment are a single atomic
// repository operation; repositories.ErrLimitReached means the global cap
// is already exhausted and nothing was written. When the cap is newly
// reached the program flips to LimitReached and the link cascade fires
// exactly once.
func (s *ProgramService) ProcessCompletion(ctx context.Context, id primitive.ObjectID, rewardAmount float64) (*models.Program, error) {
	program, err := s.programs.IncrementCompletion(ctx, id, rewardAmount)
	if err != nil {
		return nil, err
	}

	if program.CompletionLimit != nil &&
		program.CompletionTotal >= *program.CompletionLimit &&
		program.Status == models.ProgramStatusActive {

		program.Status = models.ProgramStatusLimitReached
		if err := s.programs.Update(ctx, program); err != nil {
			return nil, fmt.Errorf("failed to flip program to limit reached: %w", err)
		}

		if _, err := s.maintenance.LimitReachedByProgramID(ctx, program.ID); err != nil {
			return nil, err
		}

		s.notify(func() error { return s.notifier.ProgramLimitReached(program) })
	}

	return program, nil
}

// SetAsDefault designates the program as the platform default. Only
// worldwide-accessible programs qualify; the previous default is cleared
// in the same transaction.
func (s *ProgramService) SetAsDefault(ctx context.Context, actorID, id primitive.ObjectID) (*models.Program, error) {
	program, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	worldwideID, err := s.worldwideCountryID(ctx)
	if err != nil {
		return nil, err
	}
	if !DefaultProgramIsWorldwide(worldwideID, program.CountryIDs) {
		return nil, NewValidationError(ReasonNotWorldwide,
			"Program '%s' cannot be set as default: a default program must be available worldwide", program.Name)
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		program.ModifiedBy = actorID
		return s.setAsDefault(ctx, program)
	})
	if err != nil {
		return nil, err
	}

	return program, nil
}

// Search returns programs visible to the caller. The country filter is
// resolved via the eligibility policy: non-admins never see beyond their
// own country plus worldwide.
func (s *ProgramService) Search(ctx context.Context, isAuthenticated, isAdmin bool, userID *primitive.ObjectID, filter models.ProgramSearchFilter) (*models.ProgramSearchResults, error) {
	worldwideID, err := s.worldwideCountryID(ctx)
	if err != nil {
		return nil, err
	}

	var userCountryID *primitive.ObjectID
	if isAuthenticated && userID != nil {
		user, err := s.users.GetByID(ctx, *userID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve user: %w", err)
		}
		if user != nil {
			userCountryID = user.CountryID
		}
	}

	filter.Countries = ResolveAvailableCountriesForProgramSearch(
		worldwideID, isAuthenticated, isAdmin, userCountryID, filter.Countries)

	return s.programs.Search(ctx, filter)
}

// ExpirePastEndDate moves programs whose end date has passed to Expired
// and cascades to their links and pending usages. Invoked by the
// background sweep.
func (s *ProgramService) ExpirePastEndDate(ctx context.Context) error {
	programs, err := s.programs.ListEnded(ctx)
	if err != nil {
		return fmt.Errorf("failed to list ended programs: %w", err)
	}
	if len(programs) == 0 {
		return nil
	}

	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		ids := make([]primitive.ObjectID, 0, len(programs))
		for i := range programs {
			program := programs[i]
			if !models.CanTransitionProgram(program.Status, models.ProgramStatusExpired) {
				continue
			}
			program.Status = models.ProgramStatusExpired
			if err := s.programs.Update(ctx, &program); err != nil {
				return err
			}
			ids = append(ids, program.ID)
			log.Printf("Expired program %s ('%s'), end date %v", program.ID.Hex(), program.Name, program.DateEnd)
		}
		return s.maintenance.ExpireByProgramIDs(ctx, ids)
	})
}

// setAsDefault clears the previous default and marks the program. Must run
// inside a transaction.
func (s *ProgramService) setAsDefault(ctx context.Context, program *models.Program) error {
	current, err := s.programs.GetDefault(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current default program: %w", err)
	}
	if current != nil && current.ID == program.ID {
		return nil
	}

	if current != nil {
		current.IsDefault = false
		if err := s.programs.Update(ctx, current); err != nil {
			return fmt.Errorf("failed to clear previous default program: %w", err)
		}
	}

	program.IsDefault = true
	return s.programs.Update(ctx, program)
}

func (s *ProgramService) worldwideCountryID(ctx context.Context) (primitive.ObjectID, error) {
	country, err := s.countries.GetByCodeAlpha2(ctx, models.WorldwideCodeAlpha2)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to resolve worldwide country: %w", err)
	}
	if country == nil {
		return primitive.NilObjectID, fmt.Errorf("worldwide country '%s' is not seeded", models.WorldwideCodeAlpha2)
	}
	return country.ID, nil
}

func (s *ProgramService) resolveCountryIDs(ctx context.Context, hexIDs []string) ([]primitive.ObjectID, error) {
	if len(hexIDs) == 0 {
		return nil, nil
	}

	ids := make([]primitive.ObjectID, 0, len(hexIDs))
	for _, hex := range hexIDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return nil, NewNotFoundError("Country", hex)
		}
		ids = append(ids, id)
	}
	ids = dedupeObjectIDs(ids)

	countries, err := s.countries.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve countries: %w", err)
	}
	if len(countries) != len(ids) {
		found := make(map[primitive.ObjectID]struct{}, len(countries))
		for _, c := range countries {
			found[c.ID] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				return nil, NewNotFoundError("Country", id.Hex())
			}
		}
	}

	return ids, nil
}

func (s *ProgramService) notify(send func() error) {
	if s.notifier == nil {
		return
	}
	if err := send(); err != nil {
		log.Printf("Failed to send notification: %v", err)
	}
}

func programEditable(status models.ProgramStatus) bool {
	for _, allowed := range programStatusesEditable {
		if allowed == status {
			return true
		}
	}
	return false
}
