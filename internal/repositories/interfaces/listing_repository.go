package interfaces

import (
	"context"
	"time"

	"campusride/internal/models"
	"campusride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Listing, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Listing, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	MarkSold(ctx context.Context, id primitive.ObjectID, at time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListBySeller(ctx context.Context, sellerID string, params *utils.PaginationParams) ([]*models.Listing, int64, error)
	ListAllBySeller(ctx context.Context, sellerID string) ([]*models.Listing, error)
	// ListActive returns up to limit active listings, newest first, with an
	// optional category equality filter.
	ListActive(ctx context.Context, category string, limit int) ([]*models.Listing, error)
}

type SavedItemRepository interface {
	Save(ctx context.Context, item *models.SavedItem) error
	Delete(ctx context.Context, userID string, listingID primitive.ObjectID) error
	ListByUser(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.SavedItem, int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteByListing(ctx context.Context, listingID primitive.ObjectID) (int64, error)
}
