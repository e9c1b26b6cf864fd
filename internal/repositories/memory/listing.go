package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"
	"campusride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type listingRepository struct {
	s *Store
}

func NewListingRepository(s *Store) interfaces.ListingRepository {
	return &listingRepository{s: s}
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if listing.ID.IsZero() {
		listing.ID = primitive.NewObjectID()
	}
	remember(ctx, r.s, r.s.listings, listing.ID, cloneListing)
	r.s.listings[listing.ID] = cloneListing(*listing)
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Listing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.listings[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	out := cloneListing(l)
	out.Normalize()
	return &out, nil
}

func (r *listingRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Listing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Listing, 0, len(ids))
	for _, id := range ids {
		if l, ok := r.s.listings[id]; ok {
			c := cloneListing(l)
			c.Normalize()
			out = append(out, &c)
		}
	}
	return out, nil
}

// Update applies the same field names the mongo adapter $sets.
func (r *listingRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.listings[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	l = cloneListing(l)

	for field, value := range updates {
		switch field {
		case "title":
			l.Title = value.(string)
		case "description":
			l.Description = value.(string)
		case "price":
			l.Price = value.(float64)
		case "category":
			l.Category = value.(string)
		case "condition":
			l.Condition = value.(models.ListingCondition)
		case "location":
			l.Location = value.(string)
		case "images":
			l.Images = cloneStrings(value.([]string))
		case "image_keys":
			l.ImageKeys = cloneStrings(value.([]string))
		default:
			return fmt.Errorf("unsupported listing field %q", field)
		}
	}
	l.UpdatedAt = time.Now()
	remember(ctx, r.s, r.s.listings, id, cloneListing)
	r.s.listings[id] = l
	return nil
}

func (r *listingRepository) MarkSold(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.listings[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if l.Status == models.ListingStatusSold {
		return interfaces.ErrConflict
	}
	t := at
	l.Status = models.ListingStatusSold
	l.SoldAt = &t
	l.UpdatedAt = at
	remember(ctx, r.s, r.s.listings, id, cloneListing)
	r.s.listings[id] = l
	return nil
}

func (r *listingRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.listings[id]; !ok {
		return interfaces.ErrNotFound
	}
	remember(ctx, r.s, r.s.listings, id, cloneListing)
	delete(r.s.listings, id)
	return nil
}

func (r *listingRepository) ListBySeller(ctx context.Context, sellerID string, params *utils.PaginationParams) ([]*models.Listing, int64, error) {
	all, _ := r.ListAllBySeller(ctx, sellerID)
	return page(all, params, func(l *models.Listing) time.Time { return l.CreatedAt }), int64(len(all)), nil
}

func (r *listingRepository) ListAllBySeller(ctx context.Context, sellerID string) ([]*models.Listing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Listing, 0)
	for _, l := range r.s.listings {
		if l.SellerID == sellerID {
			c := cloneListing(l)
			c.Normalize()
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *listingRepository) ListActive(ctx context.Context, category string, limit int) ([]*models.Listing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Listing, 0)
	for _, l := range r.s.listings {
		if !l.IsActive() || (category != "" && l.Category != category) {
			continue
		}
		c := cloneListing(l)
		c.Normalize()
		out = append(out, &c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type savedItemRepository struct {
	s *Store
}

func NewSavedItemRepository(s *Store) interfaces.SavedItemRepository {
	return &savedItemRepository{s: s}
}

func (r *savedItemRepository) Save(ctx context.Context, item *models.SavedItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.saved {
		if existing.UserID == item.UserID && existing.ListingID == item.ListingID {
			return interfaces.ErrDuplicate
		}
	}
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	remember(ctx, r.s, r.s.saved, item.ID, identity[models.SavedItem])
	r.s.saved[item.ID] = *item
	return nil
}

func (r *savedItemRepository) Delete(ctx context.Context, userID string, listingID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, item := range r.s.saved {
		if item.UserID == userID && item.ListingID == listingID {
			remember(ctx, r.s, r.s.saved, id, identity[models.SavedItem])
			delete(r.s.saved, id)
			return nil
		}
	}
	return interfaces.ErrNotFound
}

func (r *savedItemRepository) ListByUser(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.SavedItem, int64, error) {
	r.s.mu.RLock()
	all := make([]*models.SavedItem, 0)
	for _, item := range r.s.saved {
		if item.UserID == userID {
			c := item
			all = append(all, &c)
		}
	}
	r.s.mu.RUnlock()

	return page(all, params, func(s *models.SavedItem) time.Time { return s.CreatedAt }), int64(len(all)), nil
}

func (r *savedItemRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return r.deleteWhere(ctx, func(item models.SavedItem) bool { return item.UserID == userID }), nil
}

func (r *savedItemRepository) DeleteByListing(ctx context.Context, listingID primitive.ObjectID) (int64, error) {
	return r.deleteWhere(ctx, func(item models.SavedItem) bool { return item.ListingID == listingID }), nil
}

func (r *savedItemRepository) deleteWhere(ctx context.Context, match func(models.SavedItem) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, item := range r.s.saved {
		if match(item) {
			remember(ctx, r.s, r.s.saved, id, identity[models.SavedItem])
			delete(r.s.saved, id)
			n++
		}
	}
	return n
}
