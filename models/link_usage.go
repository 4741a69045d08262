// models/link_usage.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LinkUsage is one referee's claim-and-completion record against a link.
// At most one usage exists per (referee, program) pair; reward amounts are
// assigned only at completion.
type LinkUsage struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ProgramID primitive.ObjectID `json:"programId" bson:"programId"`
	LinkID    primitive.ObjectID `json:"linkId" bson:"linkId"`
	// The claiming user (referee)
	UserID primitive.ObjectID `json:"userId" bson:"userId"`
	// The link owner (referrer), denormalised for reporting
	UserIDReferrer primitive.ObjectID `json:"userIdReferrer" bson:"userIdReferrer"`

	Status LinkUsageStatus `json:"status" bson:"status"`

	ZltoRewardReferrer *float64 `json:"zltoRewardReferrer,omitempty" bson:"zltoRewardReferrer,omitempty"`
	ZltoRewardReferee  *float64 `json:"zltoRewardReferee,omitempty" bson:"zltoRewardReferee,omitempty"`

	DateClaimed   time.Time  `json:"dateClaimed" bson:"dateClaimed"`
	DateCompleted *time.Time `json:"dateCompleted,omitempty" bson:"dateCompleted,omitempty"`
	DateExpired   *time.Time `json:"dateExpired,omitempty" bson:"dateExpired,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ClaimRequest is the request body for claiming a referral link
type ClaimRequest struct {
	LinkID string `json:"linkId" validate:"required"`
}

// LinkUsageSearchFilter narrows usage searches, scoped to a referee or a
// referrer
type LinkUsageSearchFilter struct {
	LinkID         *primitive.ObjectID
	ProgramID      *primitive.ObjectID
	UserIDReferee  *primitive.ObjectID
	UserIDReferrer *primitive.ObjectID
	Statuses       []LinkUsageStatus
	DateStart      *time.Time
	DateEnd        *time.Time
	PageNumber     int
	PageSize       int
}

// LinkUsageSearchResults is a page of usages plus the total match count
type LinkUsageSearchResults struct {
	TotalCount int64       `json:"totalCount"`
	Items      []LinkUsage `json:"items"`
}
