// models/block.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Block removes a user from referral participation. At most one active
// block exists per user; unblocking flips Active rather than deleting.
type Block struct {
	ID       primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID   primitive.ObjectID `json:"userId" bson:"userId"`
	ReasonID primitive.ObjectID `json:"reasonId" bson:"reasonId"`
	Reason   string             `json:"reason" bson:"reason"`

	CommentBlock   string `json:"commentBlock,omitempty" bson:"commentBlock,omitempty"`
	CommentUnblock string `json:"commentUnblock,omitempty" bson:"commentUnblock,omitempty"`
	Active         bool   `json:"active" bson:"active"`

	BlockedBy   primitive.ObjectID  `json:"blockedBy" bson:"blockedBy"`
	UnblockedBy *primitive.ObjectID `json:"unblockedBy,omitempty" bson:"unblockedBy,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// BlockReason is a lookup describing why a user was blocked
type BlockReason struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
}

// BlockRequest is the request body for blocking a user
type BlockRequest struct {
	UserID      string `json:"userId" validate:"required"`
	ReasonID    string `json:"reasonId" validate:"required"`
	Comment     string `json:"comment" validate:"max=500"`
	CancelLinks bool   `json:"cancelLinks"`
}

// UnblockRequest is the request body for unblocking a user
type UnblockRequest struct {
	UserID  string `json:"userId" validate:"required"`
	Comment string `json:"comment" validate:"max=500"`
}
