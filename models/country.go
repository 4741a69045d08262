// models/country.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// WorldwideCodeAlpha2 is the sentinel country code meaning "no geographic
// restriction".
const WorldwideCodeAlpha2 = "WW"

// Country lookup entry; the worldwide sentinel is seeded with code "WW".
type Country struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name       string             `json:"name" bson:"name"`
	CodeAlpha2 string             `json:"codeAlpha2" bson:"codeAlpha2"`
}
