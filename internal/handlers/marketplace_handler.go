package handlers

import (
	"net/http"

	"campusride/internal/middleware"
	"campusride/internal/services"
	"campusride/internal/utils"
	"campusride/internal/validators"
	"campusride/pkg/logger"

	"github.com/gin-gonic/gin"
)

type MarketplaceHandler struct {
	marketplaceService services.MarketplaceService
	maxUploadSize      int64
	logger             *logger.Logger
}

func NewMarketplaceHandler(marketplaceService services.MarketplaceService, maxUploadSize int64, log *logger.Logger) *MarketplaceHandler {
	return &MarketplaceHandler{
		marketplaceService: marketplaceService,
		maxUploadSize:      maxUploadSize,
		logger:             log,
	}
}

func (h *MarketplaceHandler) CreateListing(c *gin.Context) {
	var request validators.CreateListingRequest
	if !bindJSON(c, &request) {
		return
	}

	listing, err := h.marketplaceService.CreateListing(c.Request.Context(), middleware.GetUserID(c), request.ToInput())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Listing created successfully", listing)
}

// UploadImage accepts a multipart "image" field and returns the storage key
// to reference from a listing.
func (h *MarketplaceHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		utils.BadRequestResponse(c, "Image file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeBadRequest, utils.ErrFileUploadFailed)
		return
	}
	defer file.Close()

	uploaded, err := h.marketplaceService.UploadImage(c.Request.Context(), middleware.GetUserID(c), fileHeader.Filename, file)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Image uploaded successfully", uploaded)
}

func (h *MarketplaceHandler) GetListing(c *gin.Context) {
	listingID, ok := paramObjectID(c, "id", "listing")
	if !ok {
		return
	}

	listing, err := h.marketplaceService.Get(c.Request.Context(), listingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Listing retrieved successfully", listing)
}

func (h *MarketplaceHandler) UpdateListing(c *gin.Context) {
	listingID, ok := paramObjectID(c, "id", "listing")
	if !ok {
		return
	}
	var request validators.UpdateListingRequest
	if !bindJSON(c, &request) {
		return
	}

	listing, err := h.marketplaceService.Update(c.Request.Context(), listingID, middleware.GetUserID(c), request.ToUpdate())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Listing updated successfully", listing)
}

func (h *MarketplaceHandler) MarkSold(c *gin.Context) {
	listingID, ok := paramObjectID(c, "id", "listing")
	if !ok {
		return
	}

	listing, err := h.marketplaceService.MarkSold(c.Request.Context(), listingID, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Listing marked as sold", listing)
}

func (h *MarketplaceHandler) DeleteListing(c *gin.Context) {
	listingID, ok := paramObjectID(c, "id", "listing")
	if !ok {
		return
	}

	if err := h.marketplaceService.Delete(c.Request.Context(), listingID, middleware.GetUserID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Listing deleted successfully", nil)
}

func (h *MarketplaceHandler) ListMyListings(c *gin.Context) {
	params := utils.GetPaginationParams(c, "created_at", "price")
	listings, total, err := h.marketplaceService.ListBySeller(c.Request.Context(), middleware.GetUserID(c), params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.PaginatedResponse(c, "Listings retrieved successfully", listings, params, total)
}

// SearchListings ranks by relevance when q is set and by recency otherwise.
func (h *MarketplaceHandler) SearchListings(c *gin.Context) {
	var query validators.ListingSearchQuery
	if !bindQuery(c, &query) {
		return
	}
	filter, verrs := query.ToFilter()
	if len(verrs) > 0 {
		utils.ValidationErrorResponse(c, verrs.ToMap())
		return
	}

	listings, err := h.marketplaceService.Search(c.Request.Context(), query.Query, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Listings retrieved successfully", listings)
}

func (h *MarketplaceHandler) BrowseCategory(c *gin.Context) {
	var query validators.ListingSearchQuery
	if !bindQuery(c, &query) {
		return
	}
	filter, verrs := query.ToFilter()
	if len(verrs) > 0 {
		utils.ValidationErrorResponse(c, verrs.ToMap())
		return
	}

	listings, err := h.marketplaceService.Browse(c.Request.Context(), c.Param("category"), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Listings retrieved successfully", listings)
}

func (h *MarketplaceHandler) SaveListing(c *gin.Context) {
	listingID, ok := paramObjectID(c, "id", "listing")
	if !ok {
		return
	}

	if err := h.marketplaceService.Save(c.Request.Context(), middleware.GetUserID(c), listingID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Listing saved", nil)
}

func (h *MarketplaceHandler) UnsaveListing(c *gin.Context) {
	listingID, ok := paramObjectID(c, "id", "listing")
	if !ok {
		return
	}

	if err := h.marketplaceService.Unsave(c.Request.Context(), middleware.GetUserID(c), listingID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Listing removed from saved items", nil)
}

func (h *MarketplaceHandler) ListSaved(c *gin.Context) {
	params := utils.GetPaginationParams(c, "created_at")
	listings, total, err := h.marketplaceService.ListSaved(c.Request.Context(), middleware.GetUserID(c), params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.PaginatedResponse(c, "Saved listings retrieved successfully", listings, params, total)
}

func (h *MarketplaceHandler) ContactSeller(c *gin.Context) {
	listingID, ok := paramObjectID(c, "id", "listing")
	if !ok {
		return
	}

	chat, err := h.marketplaceService.ContactSeller(c.Request.Context(), listingID, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Chat ready", chat)
}
