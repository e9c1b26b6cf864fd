package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is keyed by the identity provider's uid.
type User struct {
	ID          string       `json:"id" bson:"_id"`
	Email       string       `json:"email" bson:"email"`
	DisplayName string       `json:"display_name" bson:"display_name"`
	University  string       `json:"university" bson:"university"`
	Phone       string       `json:"phone,omitempty" bson:"phone,omitempty"`
	PhotoURL    string       `json:"photo_url,omitempty" bson:"photo_url,omitempty"`
	Devices     []DeviceInfo `json:"-" bson:"devices,omitempty"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" bson:"updated_at"`
}

type DeviceInfo struct {
	Token     string    `json:"token" bson:"token"`
	Platform  string    `json:"platform" bson:"platform"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type Car struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerID   string             `json:"owner_id" bson:"owner_id"`
	Make      string             `json:"make" bson:"make"`
	Model     string             `json:"model" bson:"model"`
	Color     string             `json:"color" bson:"color"`
	Plate     string             `json:"plate" bson:"plate"`
	Seats     int                `json:"seats" bson:"seats"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
