// README: Listing model; the authoritative record of donated food inventory.
package inventory

import (
	"errors"
	"time"

	"foodbridge/internal/types"
)

var (
	ErrNotFound   = errors.New("listing not found")
	ErrBadRequest = errors.New("bad request")
)

// Listing is one donor-submitted quantity of food available for pickup.
// Quantity never goes negative: every decrement is guarded in SQL.
type Listing struct {
	ID             types.ID
	DonorID        types.ID
	Name           string
	Quantity       int
	ExpiryDate     time.Time
	PickupLocation string
	Pickup         types.Point
	Matched        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewListing is a creation request for one listing.
type NewListing struct {
	Name           string
	Quantity       int
	ExpiryDate     time.Time
	PickupLocation string
	Pickup         types.Point
}

func (n NewListing) validate() error {
	if n.Name == "" {
		return ErrBadRequest
	}
	if n.Quantity <= 0 {
		return ErrBadRequest
	}
	if n.ExpiryDate.IsZero() {
		return ErrBadRequest
	}
	return nil
}
