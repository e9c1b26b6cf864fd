package validators

import (
	"campusride/internal/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UpsertProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=1,max=80"`
	University  string `json:"university" validate:"required,max=120"`
	Phone       string `json:"phone" validate:"omitempty,phone_number"`
	PhotoURL    string `json:"photo_url" validate:"omitempty,url,max=1024"`
}

// ToInput takes the email from the verified token rather than the body.
func (r *UpsertProfileRequest) ToInput(email string) *services.ProfileInput {
	return &services.ProfileInput{
		Email:       email,
		DisplayName: SanitizeInput(r.DisplayName),
		University:  SanitizeInput(r.University),
		Phone:       r.Phone,
		PhotoURL:    r.PhotoURL,
	}
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required,max=4096"`
	Platform string `json:"platform" validate:"required,oneof=android ios web"`
}

type CreateCarRequest struct {
	Make  string `json:"make" validate:"required,max=60"`
	Model string `json:"model" validate:"required,max=60"`
	Color string `json:"color" validate:"omitempty,max=30"`
	Plate string `json:"plate" validate:"omitempty,license_plate"`
	Seats int    `json:"seats" validate:"required,min=1,max=8"`
}

func (r *CreateCarRequest) ToInput() *services.CarInput {
	return &services.CarInput{
		Make:  SanitizeInput(r.Make),
		Model: SanitizeInput(r.Model),
		Color: SanitizeInput(r.Color),
		Plate: r.Plate,
		Seats: r.Seats,
	}
}

type StartChatRequest struct {
	OtherUserID string `json:"other_user_id" validate:"required,max=128"`
	ChatType    string `json:"chat_type" validate:"required,chat_type"`
	ListingID   string `json:"listing_id" validate:"omitempty,object_id"`
}

func (r *StartChatRequest) ListingObjectID() *primitive.ObjectID {
	return optionalObjectID(r.ListingID)
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}
