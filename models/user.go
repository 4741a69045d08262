// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the directory projection the referral engine consumes: identity,
// country and onboarding state. Accounts are managed elsewhere.
type User struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Username    string             `json:"username" bson:"username"`
	Email       string             `json:"email" bson:"email"`
	Password    string             `json:"password,omitempty" bson:"password"`
	DisplayName string             `json:"displayName,omitempty" bson:"displayName,omitempty"`
	IsAdmin     bool               `json:"isAdmin" bson:"isAdmin"`

	CountryID *primitive.ObjectID `json:"countryId,omitempty" bson:"countryId,omitempty"`

	// Set once the user has completed their profile; referees may only
	// claim once onboarded.
	DateOnboarded *time.Time `json:"dateOnboarded,omitempty" bson:"dateOnboarded,omitempty"`

	PhoneNumber          string `json:"phoneNumber,omitempty" bson:"phoneNumber,omitempty"`
	PhoneNumberConfirmed bool   `json:"phoneNumberConfirmed" bson:"phoneNumberConfirmed"`
	EmailConfirmed       bool   `json:"emailConfirmed" bson:"emailConfirmed"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Onboarded reports whether the user has completed their profile
func (u *User) Onboarded() bool {
	return u.DateOnboarded != nil
}

// Response is the standard API envelope
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
