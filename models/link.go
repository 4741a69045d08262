// models/link.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Link is a per-referrer, per-program shareable claim target. The name is
// unique per user+program; URL and ShortURL are set once at creation.
type Link struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ProgramID   primitive.ObjectID `json:"programId" bson:"programId"`
	UserID      primitive.ObjectID `json:"userId" bson:"userId"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`

	Status   LinkStatus `json:"status" bson:"status"`
	URL      string     `json:"url" bson:"url"`
	ShortURL string     `json:"shortUrl" bson:"shortUrl"`

	CompletionTotal      int     `json:"completionTotal" bson:"completionTotal"`
	ZltoRewardCumulative float64 `json:"zltoRewardCumulative" bson:"zltoRewardCumulative"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`

	// Populated on demand, never stored
	QRCodeBase64 string `json:"qrCodeBase64,omitempty" bson:"-"`
}

// LinkRequest is the request body for creating a referral link
type LinkRequest struct {
	ProgramID     string `json:"programId" validate:"required"`
	Name          string `json:"name" validate:"required,max=100"`
	Description   string `json:"description" validate:"max=500"`
	IncludeQRCode bool   `json:"includeQRCode"`
}

// LinkSearchFilter narrows link searches for a given owner
type LinkSearchFilter struct {
	UserID     *primitive.ObjectID
	ProgramID  *primitive.ObjectID
	Statuses   []LinkStatus
	DateStart  *time.Time
	DateEnd    *time.Time
	PageNumber int
	PageSize   int
}

// LinkSearchResults is a page of links plus the total match count
type LinkSearchResults struct {
	TotalCount int64  `json:"totalCount"`
	Items      []Link `json:"items"`
}
