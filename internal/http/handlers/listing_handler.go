// README: Listing handlers for batch creation and browse queries.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"foodbridge/internal/modules/inventory"
	"foodbridge/internal/types"
)

type ListingHandler struct {
	listings *inventory.Service
}

func NewListingHandler(listings *inventory.Service) *ListingHandler {
	return &ListingHandler{listings: listings}
}

type createListingReq struct {
	DonorID        int64   `json:"donor_id"`
	Name           string  `json:"name"`
	Quantity       int     `json:"quantity"`
	ExpiryDate     string  `json:"expiry_date"`
	PickupLocation string  `json:"pickup_location"`
	PickupLat      float64 `json:"pickup_latitude"`
	PickupLng      float64 `json:"pickup_longitude"`
}

type listingResponse struct {
	ID             int64   `json:"id"`
	DonorID        int64   `json:"donor_id"`
	Name           string  `json:"name"`
	Quantity       int     `json:"quantity"`
	ExpiryDate     string  `json:"expiry_date"`
	PickupLocation string  `json:"pickup_location"`
	PickupLat      float64 `json:"pickup_latitude"`
	PickupLng      float64 `json:"pickup_longitude"`
	Matched        bool    `json:"matched"`
	CreatedAt      string  `json:"created_at"`
}

// Create accepts one donor's batch of listings.
func (h *ListingHandler) Create(c *gin.Context) {
	var reqs []createListingReq
	if err := c.ShouldBindJSON(&reqs); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if len(reqs) == 0 {
		writeError(c, http.StatusBadRequest, "empty batch")
		return
	}

	donorID := types.ID(reqs[0].DonorID)
	items := make([]inventory.NewListing, 0, len(reqs))
	for _, r := range reqs {
		expiry, err := time.Parse("2006-01-02", r.ExpiryDate)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid expiry_date")
			return
		}
		items = append(items, inventory.NewListing{
			Name:           r.Name,
			Quantity:       r.Quantity,
			ExpiryDate:     expiry,
			PickupLocation: r.PickupLocation,
			Pickup:         types.Point{Lat: r.PickupLat, Lng: r.PickupLng},
		})
	}

	created, err := h.listings.CreateListings(c.Request.Context(), donorID, items)
	if err != nil {
		writeInventoryError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toListingResponses(created))
}

func (h *ListingHandler) List(c *gin.Context) {
	listings, err := h.listings.ListAvailable(c.Request.Context())
	if err != nil {
		writeInventoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, toListingResponses(listings))
}

func (h *ListingHandler) ByDonor(c *gin.Context) {
	donorID, ok := parseID(c, "id")
	if !ok {
		return
	}
	listings, err := h.listings.ByDonor(c.Request.Context(), donorID)
	if err != nil {
		writeInventoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, toListingResponses(listings))
}

func (h *ListingHandler) Nearby(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	radius, err3 := strconv.ParseFloat(c.DefaultQuery("distance", "5"), 64)
	if err1 != nil || err2 != nil || err3 != nil {
		writeError(c, http.StatusBadRequest, "invalid coordinates")
		return
	}
	listings, err := h.listings.Nearby(c.Request.Context(), types.Point{Lat: lat, Lng: lng}, radius)
	if err != nil {
		writeInventoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, toListingResponses(listings))
}

func toListingResponses(listings []inventory.Listing) []listingResponse {
	out := make([]listingResponse, len(listings))
	for i, l := range listings {
		out[i] = listingResponse{
			ID:             int64(l.ID),
			DonorID:        int64(l.DonorID),
			Name:           l.Name,
			Quantity:       l.Quantity,
			ExpiryDate:     l.ExpiryDate.Format("2006-01-02"),
			PickupLocation: l.PickupLocation,
			PickupLat:      l.Pickup.Lat,
			PickupLng:      l.Pickup.Lng,
			Matched:        l.Matched,
			CreatedAt:      l.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return out
}
