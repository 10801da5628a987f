// README: Pickup request handlers; reservation and lifecycle resolution.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"foodbridge/internal/modules/delivery"
	"foodbridge/internal/types"
)

type PickupHandler struct {
	deliveries *delivery.Service
}

func NewPickupHandler(deliveries *delivery.Service) *PickupHandler {
	return &PickupHandler{deliveries: deliveries}
}

type pickupItemReq struct {
	FoodItemID int64 `json:"food_item_id"`
	Quantity   int   `json:"quantity"`
}

type createPickupReq struct {
	DonorID    int64           `json:"donor_id"`
	ReceiverID int64           `json:"receiver_id"`
	PickupDate string          `json:"pickup_date"`
	PickupTime string          `json:"pickup_time"`
	Items      []pickupItemReq `json:"items"`
}

type lineItemResponse struct {
	ID             int64  `json:"id"`
	DeliveryNumber string `json:"delivery_number"`
	ReceiverID     int64  `json:"receiver_id"`
	DonorID        int64  `json:"donor_id"`
	FoodItemID     int64  `json:"food_item_id"`
	PickupDate     string `json:"pickup_date"`
	PickupTime     string `json:"pickup_time"`
	Quantity       int    `json:"quantity"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

type itemFailureResponse struct {
	FoodItemID int64  `json:"food_item_id"`
	Quantity   int    `json:"quantity"`
	Reason     string `json:"reason"`
}

type reserveResponse struct {
	DeliveryNumber string                `json:"delivery_number"`
	Created        []lineItemResponse    `json:"created"`
	Failed         []itemFailureResponse `json:"failed,omitempty"`
}

// Create reserves quantities and opens a PENDING delivery. Items succeed or
// fail independently; both sides come back in the response.
func (h *PickupHandler) Create(c *gin.Context) {
	var req createPickupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	cmd := delivery.ReserveCommand{
		DonorID:    types.ID(req.DonorID),
		ReceiverID: types.ID(req.ReceiverID),
		PickupDate: req.PickupDate,
		PickupTime: req.PickupTime,
		Items:      make([]delivery.ReserveItem, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		cmd.Items = append(cmd.Items, delivery.ReserveItem{
			ListingID: types.ID(it.FoodItemID),
			Quantity:  it.Quantity,
		})
	}

	result, err := h.deliveries.Reserve(c.Request.Context(), cmd)
	if err != nil {
		writeDeliveryError(c, err)
		return
	}

	resp := reserveResponse{
		DeliveryNumber: result.DeliveryNumber,
		Created:        toLineItemResponses(result.Created),
	}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, itemFailureResponse{
			FoodItemID: int64(f.ListingID),
			Quantity:   f.Quantity,
			Reason:     f.Err.Error(),
		})
	}

	status := http.StatusCreated
	if len(result.Created) == 0 {
		status = http.StatusConflict
	}
	c.JSON(status, resp)
}

type resolvePickupReq struct {
	Status string `json:"status"`
}

// Resolve applies the terminal transition to every line-item under the
// delivery number. A CANCELLED target restores reserved quantities.
func (h *PickupHandler) Resolve(c *gin.Context) {
	deliveryNumber := c.Param("deliveryNumber")

	var req resolvePickupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	target := delivery.StatusCompleted
	if req.Status == string(delivery.StatusCancelled) {
		target = delivery.StatusCancelled
	}

	result, err := h.deliveries.ResolveDelivery(c.Request.Context(), deliveryNumber, target)
	if err != nil {
		writeDeliveryError(c, err)
		return
	}

	resp := gin.H{
		"delivery_number": result.DeliveryNumber,
		"status":          string(target),
		"resolved":        result.Resolved,
	}
	if err := result.Err(); err != nil {
		resp["warnings"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PickupHandler) ByDeliveryNumber(c *gin.Context) {
	items, err := h.deliveries.ByDeliveryNumber(c.Request.Context(), c.Param("deliveryNumber"))
	if err != nil {
		writeDeliveryError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLineItemResponses(items))
}

func (h *PickupHandler) ByDonor(c *gin.Context) {
	donorID, ok := parseID(c, "id")
	if !ok {
		return
	}
	items, err := h.deliveries.ByDonor(c.Request.Context(), donorID)
	if err != nil {
		writeDeliveryError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLineItemResponses(items))
}

func (h *PickupHandler) ByReceiver(c *gin.Context) {
	receiverID, ok := parseID(c, "id")
	if !ok {
		return
	}
	items, err := h.deliveries.ByReceiver(c.Request.Context(), receiverID)
	if err != nil {
		writeDeliveryError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLineItemResponses(items))
}

func toLineItemResponses(items []delivery.LineItem) []lineItemResponse {
	out := make([]lineItemResponse, len(items))
	for i, li := range items {
		out[i] = lineItemResponse{
			ID:             int64(li.ID),
			DeliveryNumber: li.DeliveryNumber,
			ReceiverID:     int64(li.ReceiverID),
			DonorID:        int64(li.DonorID),
			FoodItemID:     int64(li.ListingID),
			PickupDate:     li.PickupDate.Format("2006-01-02"),
			PickupTime:     li.PickupTime,
			Quantity:       li.Quantity,
			Status:         string(li.Status),
			CreatedAt:      li.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return out
}
