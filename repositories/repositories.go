// repositories/repositories.go
package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kaelo-io/referral_backend/models"
)

// ErrLimitReached is returned by the guarded counter increments when a
// configured completion cap would be exceeded. The guard and the increment
// are a single atomic operation; callers never check-then-act.
var ErrLimitReached = errors.New("completion limit reached")

// Transactor runs fn inside a single transaction. All read-then-write
// counter mutations go through here so that Program and Link updates for
// one logical completion commit atomically.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProgramRepository persists referral programs. Get* methods return
// (nil, nil) when no document matches.
type ProgramRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Program, error)
	GetByName(ctx context.Context, name string) (*models.Program, error)
	GetDefault(ctx context.Context) (*models.Program, error)
	Create(ctx context.Context, program *models.Program) error
	Update(ctx context.Context, program *models.Program) error
	Search(ctx context.Context, filter models.ProgramSearchFilter) (*models.ProgramSearchResults, error)
	// ListEnded returns non-terminal programs whose end date has passed
	ListEnded(ctx context.Context) ([]models.Program, error)
	// IncrementCompletion atomically increments the completion counters,
	// guarded against the global cap; returns ErrLimitReached when the cap
	// is exhausted and the updated program otherwise.
	IncrementCompletion(ctx context.Context, id primitive.ObjectID, reward float64) (*models.Program, error)
}

// LinkRepository persists referral links
type LinkRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Link, error)
	GetByName(ctx context.Context, userID, programID primitive.ObjectID, name string) (*models.Link, error)
	GetActiveByUserAndProgram(ctx context.Context, userID, programID primitive.ObjectID) (*models.Link, error)
	Create(ctx context.Context, link *models.Link) error
	Update(ctx context.Context, link *models.Link) error
	Search(ctx context.Context, filter models.LinkSearchFilter) (*models.LinkSearchResults, error)
	ListByUserAndStatus(ctx context.Context, userID primitive.ObjectID, status models.LinkStatus) ([]models.Link, error)
	ListByProgramAndStatus(ctx context.Context, programID primitive.ObjectID, status models.LinkStatus) ([]models.Link, error)
	// UpdateStatus bulk-moves the given links to a new status
	UpdateStatus(ctx context.Context, ids []primitive.ObjectID, to models.LinkStatus) (int64, error)
	// IncrementCompletion atomically increments the link counters, guarded
	// against the per-link cap when limit is non-nil
	IncrementCompletion(ctx context.Context, id primitive.ObjectID, limit *int, reward float64) (*models.Link, error)
	// AggregateByOwner groups links by owning user for referrer analytics
	AggregateByOwner(ctx context.Context, filter models.AnalyticsSearchFilter) ([]models.ReferralAnalyticsUser, error)
}

// LinkUsageRepository persists referee claims
type LinkUsageRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.LinkUsage, error)
	GetByUserAndProgram(ctx context.Context, userID, programID primitive.ObjectID) (*models.LinkUsage, error)
	Create(ctx context.Context, usage *models.LinkUsage) error
	Update(ctx context.Context, usage *models.LinkUsage) error
	Search(ctx context.Context, filter models.LinkUsageSearchFilter) (*models.LinkUsageSearchResults, error)
	ListByStatus(ctx context.Context, status models.LinkUsageStatus) ([]models.LinkUsage, error)
	ListPendingByLinkIDs(ctx context.Context, linkIDs []primitive.ObjectID) ([]models.LinkUsage, error)
	// AggregateByReferee groups usages by claiming user
	AggregateByReferee(ctx context.Context, filter models.AnalyticsSearchFilter) ([]models.ReferralAnalyticsUser, error)
	// AggregateByReferrer counts pending/expired usages per link owner
	AggregateByReferrer(ctx context.Context, filter models.AnalyticsSearchFilter) ([]models.ReferralAnalyticsUser, error)
}

// BlockRepository persists referral participation blocks
type BlockRepository interface {
	GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Block, error)
	Create(ctx context.Context, block *models.Block) error
	Update(ctx context.Context, block *models.Block) error
}

// BlockReasonRepository looks up block reasons
type BlockReasonRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.BlockReason, error)
}

// UserRepository is the read-only user directory consumed by the engine
type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// CountryRepository resolves country lookups, including the worldwide
// sentinel (code "WW")
type CountryRepository interface {
	GetByCodeAlpha2(ctx context.Context, code string) (*models.Country, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Country, error)
}
