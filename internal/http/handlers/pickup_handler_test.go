// README: HTTP tests for pickup and listing handlers over in-memory services.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"foodbridge/internal/http/handlers"
	"foodbridge/internal/modules/delivery"
	"foodbridge/internal/modules/inventory"
	"foodbridge/internal/types"
)

// memListings backs both the delivery engine and the listing service.
type memListings struct {
	nextID   types.ID
	listings map[types.ID]*inventory.Listing
}

func newMemListings() *memListings {
	return &memListings{listings: make(map[types.ID]*inventory.Listing)}
}

func (m *memListings) Create(ctx context.Context, l *inventory.Listing) error {
	m.nextID++
	l.ID = m.nextID
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	cp := *l
	m.listings[l.ID] = &cp
	return nil
}

func (m *memListings) Get(ctx context.Context, id types.ID) (*inventory.Listing, error) {
	l, ok := m.listings[id]
	if !ok {
		return nil, inventory.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memListings) ListAvailable(ctx context.Context) ([]inventory.Listing, error) {
	var out []inventory.Listing
	for _, l := range m.listings {
		if l.Quantity > 0 {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memListings) FindByDonor(ctx context.Context, donorID types.ID) ([]inventory.Listing, error) {
	var out []inventory.Listing
	for _, l := range m.listings {
		if l.DonorID == donorID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memListings) ListNearby(ctx context.Context, p types.Point, radiusKm float64) ([]inventory.Listing, error) {
	return m.ListAvailable(ctx)
}

func (m *memListings) AdjustQuantity(ctx context.Context, id types.ID, delta int) (int64, error) {
	l, ok := m.listings[id]
	if !ok || l.Quantity+delta < 0 {
		return 0, nil
	}
	l.Quantity += delta
	return 1, nil
}

func (m *memListings) DeleteIfZeroQuantity(ctx context.Context, id types.ID) (bool, error) {
	if l, ok := m.listings[id]; ok && l.Quantity == 0 {
		delete(m.listings, id)
		return true, nil
	}
	return false, nil
}

type memLineItems struct {
	nextID types.ID
	items  map[types.ID]delivery.LineItem
}

func newMemLineItems() *memLineItems {
	return &memLineItems{items: make(map[types.ID]delivery.LineItem)}
}

func (m *memLineItems) Create(ctx context.Context, li *delivery.LineItem) error {
	m.nextID++
	li.ID = m.nextID
	li.CreatedAt = time.Now()
	m.items[li.ID] = *li
	return nil
}

func (m *memLineItems) Delete(ctx context.Context, id types.ID) error {
	delete(m.items, id)
	return nil
}

func (m *memLineItems) FindByDeliveryNumber(ctx context.Context, dn string) ([]delivery.LineItem, error) {
	var out []delivery.LineItem
	for _, li := range m.items {
		if li.DeliveryNumber == dn {
			out = append(out, li)
		}
	}
	return out, nil
}

func (m *memLineItems) FindByDonor(ctx context.Context, donorID types.ID) ([]delivery.LineItem, error) {
	var out []delivery.LineItem
	for _, li := range m.items {
		if li.DonorID == donorID {
			out = append(out, li)
		}
	}
	return out, nil
}

func (m *memLineItems) FindByReceiver(ctx context.Context, receiverID types.ID) ([]delivery.LineItem, error) {
	var out []delivery.LineItem
	for _, li := range m.items {
		if li.ReceiverID == receiverID {
			out = append(out, li)
		}
	}
	return out, nil
}

func (m *memLineItems) DeliveryNumberExists(ctx context.Context, dn string) (bool, error) {
	for _, li := range m.items {
		if li.DeliveryNumber == dn {
			return true, nil
		}
	}
	return false, nil
}

func buildTestRouter(t *testing.T) (*gin.Engine, *memListings) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	listings := newMemListings()
	listingSvc := inventory.NewService(listings, nil, nil)
	deliverySvc := delivery.NewService(newMemLineItems(), listings, rand.New(rand.NewPCG(1, 2)))

	lh := handlers.NewListingHandler(listingSvc)
	ph := handlers.NewPickupHandler(deliverySvc)

	r := gin.New()
	r.POST("/api/add-items", lh.Create)
	r.GET("/api/items", lh.List)
	r.POST("/api/pickup-requests", ph.Create)
	r.GET("/api/pickup-requests/delivery-number/:deliveryNumber", ph.ByDeliveryNumber)
	r.PATCH("/api/pickup-requests/delivery-number/:deliveryNumber/status", ph.Resolve)
	return r, listings
}

func doRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedListing(t *testing.T, listings *memListings, quantity int) types.ID {
	t.Helper()
	l := inventory.Listing{
		DonorID:    1,
		Name:       "Bread",
		Quantity:   quantity,
		ExpiryDate: time.Now().Add(48 * time.Hour),
	}
	if err := listings.Create(context.Background(), &l); err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return l.ID
}

func TestCreatePickup_ReservesAndReturnsNumber(t *testing.T) {
	r, listings := buildTestRouter(t)
	listingID := seedListing(t, listings, 10)

	w := doRequest(r, http.MethodPost, "/api/pickup-requests", map[string]interface{}{
		"donor_id":    1,
		"receiver_id": 2,
		"pickup_date": "2026-09-01",
		"pickup_time": "14:30",
		"items": []map[string]interface{}{
			{"food_item_id": listingID, "quantity": 4},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		DeliveryNumber string `json:"delivery_number"`
		Created        []struct {
			Status string `json:"status"`
		} `json:"created"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.DeliveryNumber == "" || len(resp.Created) != 1 {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}
	if resp.Created[0].Status != "PENDING" {
		t.Fatalf("expected PENDING line-item, got %s", resp.Created[0].Status)
	}
	if q := listings.listings[listingID].Quantity; q != 6 {
		t.Fatalf("expected quantity 6 after reservation, got %d", q)
	}
}

func TestCreatePickup_AllItemsFailIsConflict(t *testing.T) {
	r, listings := buildTestRouter(t)
	listingID := seedListing(t, listings, 2)

	w := doRequest(r, http.MethodPost, "/api/pickup-requests", map[string]interface{}{
		"donor_id":    1,
		"receiver_id": 2,
		"pickup_date": "2026-09-01",
		"pickup_time": "14:30",
		"items": []map[string]interface{}{
			{"food_item_id": listingID, "quantity": 5},
		},
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 when nothing could be reserved, got %d", w.Code)
	}
}

func TestCreatePickup_BadRequest(t *testing.T) {
	r, _ := buildTestRouter(t)

	w := doRequest(r, http.MethodPost, "/api/pickup-requests", map[string]interface{}{
		"donor_id": 1,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", w.Code)
	}
}

func TestResolvePickup_CancelRestoresQuantity(t *testing.T) {
	r, listings := buildTestRouter(t)
	listingID := seedListing(t, listings, 10)

	w := doRequest(r, http.MethodPost, "/api/pickup-requests", map[string]interface{}{
		"donor_id":    1,
		"receiver_id": 2,
		"pickup_date": "2026-09-01",
		"pickup_time": "14:30",
		"items": []map[string]interface{}{
			{"food_item_id": listingID, "quantity": 4},
		},
	})
	var created struct {
		DeliveryNumber string `json:"delivery_number"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = doRequest(r, http.MethodPatch,
		"/api/pickup-requests/delivery-number/"+created.DeliveryNumber+"/status",
		map[string]string{"status": "CANCELLED"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if q := listings.listings[listingID].Quantity; q != 10 {
		t.Fatalf("expected quantity restored to 10, got %d", q)
	}

	// A second resolve finds nothing.
	w = doRequest(r, http.MethodPatch,
		"/api/pickup-requests/delivery-number/"+created.DeliveryNumber+"/status",
		map[string]string{"status": "CANCELLED"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second resolve, got %d", w.Code)
	}
}

func TestResolvePickup_UnknownNumber(t *testing.T) {
	r, _ := buildTestRouter(t)
	w := doRequest(r, http.MethodPatch,
		"/api/pickup-requests/delivery-number/DEL-20260830-000001/status",
		map[string]string{"status": "COMPLETED"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAddItems_CreatesBatch(t *testing.T) {
	r, _ := buildTestRouter(t)

	w := doRequest(r, http.MethodPost, "/api/add-items", []map[string]interface{}{
		{"donor_id": 1, "name": "Bread", "quantity": 3, "expiry_date": "2026-09-15"},
		{"donor_id": 1, "name": "Milk", "quantity": 2, "expiry_date": "2026-09-10"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodGet, "/api/items", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var items []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(items))
	}
}

func TestAddItems_EmptyBatch(t *testing.T) {
	r, _ := buildTestRouter(t)
	w := doRequest(r, http.MethodPost, "/api/add-items", []map[string]interface{}{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", w.Code)
	}
}
