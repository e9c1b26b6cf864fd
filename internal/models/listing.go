package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ListingStatus string

const (
	ListingStatusActive ListingStatus = "active"
	ListingStatusSold   ListingStatus = "sold"
)

type ListingCondition string

const (
	ConditionNew     ListingCondition = "new"
	ConditionLikeNew ListingCondition = "like_new"
	ConditionGood    ListingCondition = "good"
	ConditionFair    ListingCondition = "fair"
	ConditionPoor    ListingCondition = "poor"
)

func (c ListingCondition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

type Listing struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SellerID    string             `json:"seller_id" bson:"seller_id"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Price       float64            `json:"price" bson:"price"`
	Category    string             `json:"category" bson:"category"`
	Condition   ListingCondition   `json:"condition" bson:"condition"`
	Location    string             `json:"location" bson:"location"`
	Images      []string           `json:"images" bson:"images"`
	ImageKeys   []string           `json:"-" bson:"image_keys,omitempty"`
	Status      ListingStatus      `json:"status" bson:"status"`
	SoldAt      *time.Time         `json:"sold_at,omitempty" bson:"sold_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// Normalize maps legacy documents with an empty status onto active.
func (l *Listing) Normalize() {
	if l.Status == "" {
		l.Status = ListingStatusActive
	}
	if l.Images == nil {
		l.Images = []string{}
	}
}

func (l *Listing) IsActive() bool {
	return l.Status == "" || l.Status == ListingStatusActive
}

type SavedItem struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"user_id" bson:"user_id"`
	ListingID primitive.ObjectID `json:"listing_id" bson:"listing_id"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
