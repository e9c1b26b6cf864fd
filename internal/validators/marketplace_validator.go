package validators

import (
	"strings"

	"campusride/internal/models"
	"campusride/internal/services"
)

type CreateListingRequest struct {
	Title       string   `json:"title" validate:"required,max=120"`
	Description string   `json:"description" validate:"omitempty,max=2000"`
	Price       float64  `json:"price" validate:"gte=0,lte=100000"`
	Category    string   `json:"category" validate:"required,max=60"`
	Condition   string   `json:"condition" validate:"required,listing_condition"`
	Location    string   `json:"location" validate:"omitempty,max=120"`
	ImageKeys   []string `json:"image_keys" validate:"omitempty,max=8,dive,required,max=512"`
}

func (r *CreateListingRequest) ToInput() *services.ListingInput {
	return &services.ListingInput{
		Title:       SanitizeInput(r.Title),
		Description: SanitizeInput(r.Description),
		Price:       r.Price,
		Category:    strings.ToLower(strings.TrimSpace(r.Category)),
		Condition:   models.ListingCondition(r.Condition),
		Location:    SanitizeInput(r.Location),
		ImageKeys:   r.ImageKeys,
	}
}

// UpdateListingRequest uses pointers so absent fields stay untouched.
type UpdateListingRequest struct {
	Title       *string   `json:"title" validate:"omitempty,min=1,max=120"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	Price       *float64  `json:"price" validate:"omitempty,gte=0,lte=100000"`
	Category    *string   `json:"category" validate:"omitempty,min=1,max=60"`
	Condition   *string   `json:"condition" validate:"omitempty,listing_condition"`
	Location    *string   `json:"location" validate:"omitempty,max=120"`
	ImageKeys   *[]string `json:"image_keys" validate:"omitempty,max=8,dive,required,max=512"`
}

func (r *UpdateListingRequest) ToUpdate() *services.ListingUpdate {
	update := &services.ListingUpdate{
		Price:     r.Price,
		ImageKeys: r.ImageKeys,
	}
	if r.Title != nil {
		v := SanitizeInput(*r.Title)
		update.Title = &v
	}
	if r.Description != nil {
		v := SanitizeInput(*r.Description)
		update.Description = &v
	}
	if r.Category != nil {
		v := strings.ToLower(strings.TrimSpace(*r.Category))
		update.Category = &v
	}
	if r.Condition != nil {
		v := models.ListingCondition(*r.Condition)
		update.Condition = &v
	}
	if r.Location != nil {
		v := SanitizeInput(*r.Location)
		update.Location = &v
	}
	return update
}

// ListingSearchQuery is bound from the query string. Conditions is a comma
// separated list.
type ListingSearchQuery struct {
	Query      string   `form:"q" json:"q" validate:"omitempty,max=200"`
	Category   string   `form:"category" json:"category" validate:"omitempty,max=60"`
	MinPrice   *float64 `form:"min_price" json:"min_price" validate:"omitempty,gte=0"`
	MaxPrice   *float64 `form:"max_price" json:"max_price" validate:"omitempty,gte=0"`
	Conditions string   `form:"conditions" json:"conditions" validate:"omitempty,max=100"`
}

func (q *ListingSearchQuery) ToFilter() (services.ListingFilter, ValidationErrors) {
	filter := services.ListingFilter{
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		Category: strings.ToLower(strings.TrimSpace(q.Category)),
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return filter, ValidationErrors{{Field: "min_price", Tag: "lte", Message: "min_price must not exceed max_price"}}
	}

	for _, raw := range strings.Split(q.Conditions, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		c := models.ListingCondition(raw)
		if !c.Valid() {
			return filter, ValidationErrors{{Field: "conditions", Tag: "listing_condition", Value: raw, Message: "Unknown item condition"}}
		}
		filter.Conditions = append(filter.Conditions, c)
	}
	return filter, nil
}
