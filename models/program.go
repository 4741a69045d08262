// models/program.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Program is a time-boxed referral campaign with limits, rewards and
// eligibility rules. Exactly one program may be the platform default.
//
// Caps are enforced at claim time: once a cap is reached, new claims are
// blocked. Claims created before the cap was reached may still complete.
// Rewards are read at completion time from the then-current configuration.
type Program struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	ImageURL    string             `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`

	// Days allowed for a referee to finish after claiming. nil = no window.
	CompletionWindowInDays *int `json:"completionWindowInDays,omitempty" bson:"completionWindowInDays,omitempty"`
	// Per-link completion cap. nil = no per-link cap.
	CompletionLimitReferee *int `json:"completionLimitReferee,omitempty" bson:"completionLimitReferee,omitempty"`
	// Program-wide completion cap. nil = no global cap.
	CompletionLimit *int `json:"completionLimit,omitempty" bson:"completionLimit,omitempty"`
	CompletionTotal int  `json:"completionTotal" bson:"completionTotal"`

	ZltoRewardReferrer   *float64 `json:"zltoRewardReferrer,omitempty" bson:"zltoRewardReferrer,omitempty"`
	ZltoRewardReferee    *float64 `json:"zltoRewardReferee,omitempty" bson:"zltoRewardReferee,omitempty"`
	ZltoRewardPool       *float64 `json:"zltoRewardPool,omitempty" bson:"zltoRewardPool,omitempty"`
	ZltoRewardCumulative float64  `json:"zltoRewardCumulative" bson:"zltoRewardCumulative"`

	ProofOfPersonhoodRequired bool `json:"proofOfPersonhoodRequired" bson:"proofOfPersonhoodRequired"`
	PathwayRequired           bool `json:"pathwayRequired" bson:"pathwayRequired"`
	MultipleLinksAllowed      bool `json:"multipleLinksAllowed" bson:"multipleLinksAllowed"`

	Status    ProgramStatus `json:"status" bson:"status"`
	IsDefault bool          `json:"isDefault" bson:"isDefault"`

	DateStart time.Time  `json:"dateStart" bson:"dateStart"`
	DateEnd   *time.Time `json:"dateEnd,omitempty" bson:"dateEnd,omitempty"`

	// Associated countries; empty means worldwide.
	CountryIDs []primitive.ObjectID `json:"countryIds,omitempty" bson:"countryIds,omitempty"`

	CreatedBy  primitive.ObjectID `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	ModifiedBy primitive.ObjectID `json:"modifiedBy,omitempty" bson:"modifiedBy,omitempty"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CompletionBalance returns the remaining allowed completions, or nil when
// no global cap is configured.
func (p *Program) CompletionBalance() *int {
	if p.CompletionLimit == nil {
		return nil
	}
	balance := *p.CompletionLimit - p.CompletionTotal
	if balance < 0 {
		balance = 0
	}
	return &balance
}

// ZltoRewardBalance returns the remaining reward pool, or nil when no pool
// is configured.
func (p *Program) ZltoRewardBalance() *float64 {
	if p.ZltoRewardPool == nil {
		return nil
	}
	balance := *p.ZltoRewardPool - p.ZltoRewardCumulative
	if balance < 0 {
		balance = 0
	}
	return &balance
}

// ProgramRequest is the request body for creating or updating a program
type ProgramRequest struct {
	Name                      string   `json:"name" validate:"required"`
	Description               string   `json:"description"`
	ImageURL                  string   `json:"imageUrl"`
	CompletionWindowInDays    *int     `json:"completionWindowInDays" validate:"omitempty,min=1"`
	CompletionLimitReferee    *int     `json:"completionLimitReferee" validate:"omitempty,min=1"`
	CompletionLimit           *int     `json:"completionLimit" validate:"omitempty,min=1"`
	ZltoRewardReferrer        *float64 `json:"zltoRewardReferrer" validate:"omitempty,min=0"`
	ZltoRewardReferee         *float64 `json:"zltoRewardReferee" validate:"omitempty,min=0"`
	ZltoRewardPool            *float64 `json:"zltoRewardPool" validate:"omitempty,min=0"`
	ProofOfPersonhoodRequired bool     `json:"proofOfPersonhoodRequired"`
	PathwayRequired           bool     `json:"pathwayRequired"`
	MultipleLinksAllowed      bool     `json:"multipleLinksAllowed"`
	Activate                  bool     `json:"activate"`
	IsDefault                 bool     `json:"isDefault"`
	DateStart                 time.Time  `json:"dateStart" validate:"required"`
	DateEnd                   *time.Time `json:"dateEnd"`
	CountryIDs                []string   `json:"countryIds"`
}

// ProgramSearchFilter narrows program searches; nil Countries means
// unrestricted (admin only).
type ProgramSearchFilter struct {
	Countries     []primitive.ObjectID
	Statuses      []ProgramStatus
	ValueContains string
	PageNumber    int
	PageSize      int
}

// ProgramSearchResults is a page of programs plus the total match count
type ProgramSearchResults struct {
	TotalCount int64     `json:"totalCount"`
	Items      []Program `json:"items"`
}
