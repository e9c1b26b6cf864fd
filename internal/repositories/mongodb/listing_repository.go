package mongodb

import (
	"context"
	"fmt"
	"time"

	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"
	"campusride/internal/utils"
	"campusride/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type listingRepository struct {
	collection *mongo.Collection
}

func NewListingRepository(db *mongo.Database) interfaces.ListingRepository {
	return &listingRepository{
		collection: db.Collection(database.CollectionListings),
	}
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if listing.ID.IsZero() {
		listing.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, listing); err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&listing); err != nil {
		return nil, notFound(err)
	}
	listing.Normalize()
	return &listing, nil
}

func (r *listingRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Listing, error) {
	if len(ids) == 0 {
		return []*models.Listing{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

func (r *listingRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	set := bson.M{"updated_at": time.Now()}
	for k, v := range updates {
		set[k] = v
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *listingRepository) MarkSold(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.ListingStatusSold}},
		bson.M{"$set": bson.M{"status": models.ListingStatusSold, "sold_at": at, "updated_at": at}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark listing sold: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return interfaces.ErrConflict
	}
	return nil
}

func (r *listingRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if result.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *listingRepository) ListBySeller(ctx context.Context, sellerID string, params *utils.PaginationParams) ([]*models.Listing, int64, error) {
	filter := bson.M{"seller_id": sellerID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	listings, err := r.find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func (r *listingRepository) ListAllBySeller(ctx context.Context, sellerID string) ([]*models.Listing, error) {
	return r.find(ctx, bson.M{"seller_id": sellerID}, options.Find())
}

// ListActive treats a missing or null status as active.
func (r *listingRepository) ListActive(ctx context.Context, category string, limit int) ([]*models.Listing, error) {
	filter := bson.M{"status": bson.M{"$ne": models.ListingStatusSold}}
	if category != "" {
		filter["category"] = category
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, filter, opts)
}

func (r *listingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Listing, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find listings: %w", err)
	}
	defer cursor.Close(ctx)

	listings := make([]*models.Listing, 0)
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	for _, l := range listings {
		l.Normalize()
	}
	return listings, nil
}

type savedItemRepository struct {
	collection *mongo.Collection
}

func NewSavedItemRepository(db *mongo.Database) interfaces.SavedItemRepository {
	return &savedItemRepository{
		collection: db.Collection(database.CollectionSavedItems),
	}
}

func (r *savedItemRepository) Save(ctx context.Context, item *models.SavedItem) error {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		if isDuplicateKey(err) {
			return interfaces.ErrDuplicate
		}
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

func (r *savedItemRepository) Delete(ctx context.Context, userID string, listingID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "listing_id": listingID})
	if err != nil {
		return fmt.Errorf("failed to delete saved item: %w", err)
	}
	if result.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *savedItemRepository) ListByUser(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.SavedItem, int64, error) {
	filter := bson.M{"user_id": userID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count saved items: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list saved items: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]*models.SavedItem, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("failed to decode saved items: %w", err)
	}
	return items, total, nil
}

func (r *savedItemRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete saved items: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *savedItemRepository) DeleteByListing(ctx context.Context, listingID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"listing_id": listingID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete saved items: %w", err)
	}
	return result.DeletedCount, nil
}
