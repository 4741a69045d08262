// models/analytics.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParticipationRole selects which side of a referral the analytics cover
type ParticipationRole string

const (
	RoleReferrer ParticipationRole = "referrer"
	RoleReferee  ParticipationRole = "referee"
)

// ReferralAnalyticsUser is one user's aggregated referral activity
type ReferralAnalyticsUser struct {
	UserID          primitive.ObjectID `json:"userId" bson:"_id"`
	UserDisplayName string             `json:"userDisplayName" bson:"userDisplayName"`

	LinkCount       int `json:"linkCount,omitempty" bson:"linkCount,omitempty"`
	LinkCountActive int `json:"linkCountActive,omitempty" bson:"linkCountActive,omitempty"`

	UsageCountCompleted int `json:"usageCountCompleted" bson:"usageCountCompleted"`
	UsageCountPending   int `json:"usageCountPending" bson:"usageCountPending"`
	UsageCountExpired   int `json:"usageCountExpired" bson:"usageCountExpired"`

	ZltoRewardTotal float64 `json:"zltoRewardTotal" bson:"zltoRewardTotal"`
}

// AnalyticsSearchFilter narrows referral analytics queries
type AnalyticsSearchFilter struct {
	Role       ParticipationRole
	UserID     *primitive.ObjectID
	ProgramID  *primitive.ObjectID
	DateStart  *time.Time
	DateEnd    *time.Time
	PageNumber int
	PageSize   int
}

// AnalyticsSearchResults is a page of analytics rows ordered as a
// leaderboard (completed count descending)
type AnalyticsSearchResults struct {
	TotalCount int64                   `json:"totalCount"`
	Items      []ReferralAnalyticsUser `json:"items"`
}
