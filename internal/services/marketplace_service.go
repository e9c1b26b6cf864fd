package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"
	"campusride/internal/utils"
	"campusride/pkg/logger"
	"campusride/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MarketplaceService interface {
	CreateListing(ctx context.Context, sellerID string, input *ListingInput) (*models.Listing, error)
	UploadImage(ctx context.Context, userID, filename string, r io.Reader) (*UploadedImage, error)
	Get(ctx context.Context, listingID primitive.ObjectID) (*models.Listing, error)
	Update(ctx context.Context, listingID primitive.ObjectID, sellerID string, input *ListingUpdate) (*models.Listing, error)
	MarkSold(ctx context.Context, listingID primitive.ObjectID, sellerID string) (*models.Listing, error)
	Delete(ctx context.Context, listingID primitive.ObjectID, sellerID string) error
	ListBySeller(ctx context.Context, sellerID string, params *utils.PaginationParams) ([]*models.Listing, int64, error)
	Search(ctx context.Context, query string, filter ListingFilter) ([]*models.Listing, error)
	Browse(ctx context.Context, category string, filter ListingFilter) ([]*models.Listing, error)
	Save(ctx context.Context, userID string, listingID primitive.ObjectID) error
	Unsave(ctx context.Context, userID string, listingID primitive.ObjectID) error
	ListSaved(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Listing, int64, error)
	ContactSeller(ctx context.Context, listingID primitive.ObjectID, buyerID string) (*models.Chat, error)
	// PurgeUploads deletes every object under the user's upload prefix,
	// including images never attached to a listing.
	PurgeUploads(ctx context.Context, userID string) (int, error)
}

type ListingInput struct {
	Title       string
	Description string
	Price       float64
	Category    string
	Condition   models.ListingCondition
	Location    string
	// ImageKeys are storage keys returned by UploadImage.
	ImageKeys []string
}

// ListingUpdate carries only the fields being changed.
type ListingUpdate struct {
	Title       *string
	Description *string
	Price       *float64
	Category    *string
	Condition   *models.ListingCondition
	Location    *string
	ImageKeys   *[]string
}

type UploadedImage struct {
	Key     string `json:"key"`
	URL     string `json:"url"`
	Resized bool   `json:"resized"`
}

type marketplaceService struct {
	listingRepo  interfaces.ListingRepository
	savedRepo    interfaces.SavedItemRepository
	storage      storage.StorageProvider
	chats        ChatService
	notifier     NotificationService
	maxDimension uint
	logger       *logger.Logger
	now          func() time.Time
}

func NewMarketplaceService(
	listingRepo interfaces.ListingRepository,
	savedRepo interfaces.SavedItemRepository,
	store storage.StorageProvider,
	chats ChatService,
	notifier NotificationService,
	maxDimension uint,
	log *logger.Logger,
) MarketplaceService {
	return &marketplaceService{
		listingRepo:  listingRepo,
		savedRepo:    savedRepo,
		storage:      store,
		chats:        chats,
		notifier:     notifier,
		maxDimension: maxDimension,
		logger:       log,
		now:          time.Now,
	}
}

// ImageKey builds marketplace/{userId}/{unixMillis}_{filename}.
func ImageKey(userID string, at time.Time, filename string) string {
	return fmt.Sprintf("%s/%s/%d_%s", utils.MarketplaceKeyPrefix, userID, at.UnixMilli(), utils.SanitizeFilename(filename))
}

func (s *marketplaceService) CreateListing(ctx context.Context, sellerID string, input *ListingInput) (*models.Listing, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalid("title", "is required")
	}
	if len(title) > utils.MaxListingTitleLength {
		return nil, invalid("title", "must be at most %d characters", utils.MaxListingTitleLength)
	}
	if input.Price < 0 {
		return nil, invalid("price", "must not be negative")
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return nil, invalid("category", "is required")
	}
	if !input.Condition.Valid() {
		return nil, invalid("condition", "unknown condition %q", input.Condition)
	}

	urls, err := s.imageURLs(ctx, sellerID, input.ImageKeys)
	if err != nil {
		return nil, err
	}

	now := s.now()
	listing := &models.Listing{
		ID:          primitive.NewObjectID(),
		SellerID:    sellerID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Category:    category,
		Condition:   input.Condition,
		Location:    strings.TrimSpace(input.Location),
		Images:      urls,
		ImageKeys:   input.ImageKeys,
		Status:      models.ListingStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.logger.LogUserAction(sellerID, "listing_created", map[string]interface{}{
		"listing_id": listing.ID.Hex(),
		"category":   category,
	})
	return listing, nil
}

// imageURLs only accepts keys under the seller's own upload prefix.
func (s *marketplaceService) imageURLs(ctx context.Context, sellerID string, keys []string) ([]string, error) {
	if len(keys) > utils.MaxListingImages {
		return nil, invalid("images", "at most %d images are allowed", utils.MaxListingImages)
	}

	prefix := utils.MarketplaceKeyPrefix + "/" + sellerID + "/"
	urls := make([]string, 0, len(keys))
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) || strings.Contains(key, "..") {
			return nil, invalid("images", "image %q was not uploaded by you", key)
		}
		exists, err := s.storage.FileExists(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to check image: %w", err)
		}
		if !exists {
			return nil, invalid("images", "image %q does not exist", key)
		}
		url, err := s.storage.GetURL(ctx, key, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve image url: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *marketplaceService) UploadImage(ctx context.Context, userID, filename string, r io.Reader) (*UploadedImage, error) {
	if !utils.IsImageFile(filename) {
		return nil, invalid("file", "unsupported image type")
	}

	img, err := utils.DownscaleImage(io.LimitReader(r, utils.MaxImageSize+1), s.maxDimension)
	if err != nil {
		if errors.Is(err, utils.ErrUnsupportedImage) {
			return nil, invalid("file", "could not decode image")
		}
		return nil, fmt.Errorf("failed to process image: %w", err)
	}
	if !img.Resized && len(img.Data) > utils.MaxImageSize {
		return nil, invalid("file", "image exceeds %d bytes", utils.MaxImageSize)
	}

	key := ImageKey(userID, s.now(), filename)
	resp, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:          key,
		Reader:       bytes.NewReader(img.Data),
		ContentType:  img.ContentType,
		Size:         int64(len(img.Data)),
		Metadata:     map[string]string{"uploaded_by": userID},
		CacheControl: "public, max-age=31536000",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	return &UploadedImage{Key: resp.Key, URL: resp.URL, Resized: img.Resized}, nil
}

func (s *marketplaceService) Get(ctx context.Context, listingID primitive.ObjectID) (*models.Listing, error) {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	return listing, nil
}

func (s *marketplaceService) owned(ctx context.Context, listingID primitive.ObjectID, sellerID string) (*models.Listing, error) {
	listing, err := s.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != sellerID {
		return nil, ErrForbidden
	}
	return listing, nil
}

func (s *marketplaceService) Update(ctx context.Context, listingID primitive.ObjectID, sellerID string, input *ListingUpdate) (*models.Listing, error) {
	listing, err := s.owned(ctx, listingID, sellerID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" || len(title) > utils.MaxListingTitleLength {
			return nil, invalid("title", "must be 1 to %d characters", utils.MaxListingTitleLength)
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, invalid("price", "must not be negative")
		}
		updates["price"] = *input.Price
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return nil, invalid("category", "is required")
		}
		updates["category"] = category
	}
	if input.Condition != nil {
		if !input.Condition.Valid() {
			return nil, invalid("condition", "unknown condition %q", *input.Condition)
		}
		updates["condition"] = *input.Condition
	}
	if input.Location != nil {
		updates["location"] = strings.TrimSpace(*input.Location)
	}

	var removed []string
	if input.ImageKeys != nil {
		urls, err := s.imageURLs(ctx, sellerID, *input.ImageKeys)
		if err != nil {
			return nil, err
		}
		updates["images"] = urls
		updates["image_keys"] = *input.ImageKeys
		removed = missingKeys(listing.ImageKeys, *input.ImageKeys)
	}

	if len(updates) == 0 {
		return listing, nil
	}
	if err := s.listingRepo.Update(ctx, listingID, updates); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	s.deleteImages(ctx, removed)

	return s.Get(ctx, listingID)
}

func (s *marketplaceService) MarkSold(ctx context.Context, listingID primitive.ObjectID, sellerID string) (*models.Listing, error) {
	if _, err := s.owned(ctx, listingID, sellerID); err != nil {
		return nil, err
	}

	if err := s.listingRepo.MarkSold(ctx, listingID, s.now()); err != nil {
		if errors.Is(err, interfaces.ErrConflict) {
			return nil, ErrListingSold
		}
		return nil, fmt.Errorf("failed to mark listing sold: %w", err)
	}
	return s.Get(ctx, listingID)
}

func (s *marketplaceService) Delete(ctx context.Context, listingID primitive.ObjectID, sellerID string) error {
	listing, err := s.owned(ctx, listingID, sellerID)
	if err != nil {
		return err
	}
	return s.deleteListing(ctx, listing)
}

func (s *marketplaceService) deleteListing(ctx context.Context, listing *models.Listing) error {
	if err := s.listingRepo.Delete(ctx, listing.ID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if _, err := s.savedRepo.DeleteByListing(ctx, listing.ID); err != nil {
		s.logger.WithError(err).Warn("Failed to delete saved references to listing")
	}
	s.deleteImages(ctx, listing.ImageKeys)
	return nil
}

// deleteImages is best effort; orphaned objects are only a storage cost.
func (s *marketplaceService) deleteImages(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Failed to delete listing image")
		}
	}
}

func (s *marketplaceService) ListBySeller(ctx context.Context, sellerID string, params *utils.PaginationParams) ([]*models.Listing, int64, error) {
	listings, total, err := s.listingRepo.ListBySeller(ctx, sellerID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list listings: %w", err)
	}
	return listings, total, nil
}

// Search scans the newest MaxSearchScan active listings (optionally within
// one category) and ranks them in memory.
func (s *marketplaceService) Search(ctx context.Context, query string, filter ListingFilter) ([]*models.Listing, error) {
	listings, err := s.listingRepo.ListActive(ctx, filter.Category, utils.MaxSearchScan)
	if err != nil {
		return nil, fmt.Errorf("failed to search listings: %w", err)
	}
	return RankListings(FilterListings(listings, filter), query), nil
}

func (s *marketplaceService) Browse(ctx context.Context, category string, filter ListingFilter) ([]*models.Listing, error) {
	filter.Category = category
	listings, err := s.listingRepo.ListActive(ctx, category, utils.MaxSearchScan)
	if err != nil {
		return nil, fmt.Errorf("failed to browse listings: %w", err)
	}
	return FilterListings(listings, filter), nil
}

func (s *marketplaceService) Save(ctx context.Context, userID string, listingID primitive.ObjectID) error {
	if _, err := s.Get(ctx, listingID); err != nil {
		return err
	}

	err := s.savedRepo.Save(ctx, &models.SavedItem{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		ListingID: listingID,
		CreatedAt: s.now(),
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return ErrAlreadySaved
		}
		return fmt.Errorf("failed to save listing: %w", err)
	}
	return nil
}

func (s *marketplaceService) Unsave(ctx context.Context, userID string, listingID primitive.ObjectID) error {
	if err := s.savedRepo.Delete(ctx, userID, listingID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrListingNotFound
		}
		return fmt.Errorf("failed to unsave listing: %w", err)
	}
	return nil
}

// ListSaved returns the saved listings that still exist, in saved order.
func (s *marketplaceService) ListSaved(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Listing, int64, error) {
	items, total, err := s.savedRepo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list saved items: %w", err)
	}

	ids := make([]primitive.ObjectID, len(items))
	for i, item := range items {
		ids[i] = item.ListingID
	}
	listings, err := s.listingRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load saved listings: %w", err)
	}

	byID := make(map[primitive.ObjectID]*models.Listing, len(listings))
	for _, l := range listings {
		byID[l.ID] = l
	}
	out := make([]*models.Listing, 0, len(items))
	for _, item := range items {
		if l, ok := byID[item.ListingID]; ok {
			out = append(out, l)
		}
	}
	return out, total, nil
}

// ContactSeller opens (or reuses) the marketplace chat for this listing and
// notifies the seller the first time a buyer reaches out.
func (s *marketplaceService) ContactSeller(ctx context.Context, listingID primitive.ObjectID, buyerID string) (*models.Chat, error) {
	listing, err := s.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID == buyerID {
		return nil, invalid("listing_id", "cannot contact yourself about your own listing")
	}

	chat, err := s.chats.FindOrCreate(ctx, buyerID, listing.SellerID, models.ChatTypeMarketplace, &listing.ID)
	if err != nil {
		return nil, err
	}

	_, err = s.notifier.CreateBatch(ctx, []*models.Notification{{
		UserID:    listing.SellerID,
		Type:      models.NotificationTypeListingMessage,
		Title:     "Someone is interested in your item",
		Message:   fmt.Sprintf("A buyer wants to talk about %q", listing.Title),
		ChatID:    &chat.ID,
		ListingID: &listing.ID,
		DedupeKey: "contact:" + chat.ID.Hex(),
	}})
	if err != nil {
		s.logger.WithError(err).WithUserID(listing.SellerID).Warn("Failed to notify seller")
	}
	return chat, nil
}

func (s *marketplaceService) PurgeUploads(ctx context.Context, userID string) (int, error) {
	prefix := utils.MarketplaceKeyPrefix + "/" + userID + "/"
	files, err := s.storage.ListFiles(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list uploads: %w", err)
	}

	keys := make([]string, 0, len(files))
	for _, f := range files {
		// local listing matches on path prefix, so "amy" would also see "amyx"
		if strings.HasPrefix(f.Key, prefix) {
			keys = append(keys, f.Key)
		}
	}
	s.deleteImages(ctx, keys)
	return len(keys), nil
}

func missingKeys(before, after []string) []string {
	keep := make(map[string]bool, len(after))
	for _, k := range after {
		keep[k] = true
	}
	var out []string
	for _, k := range before {
		if !keep[k] {
			out = append(out, k)
		}
	}
	return out
}
