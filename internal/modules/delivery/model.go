// README: Pickup line-item model and delivery number generation.
package delivery

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"foodbridge/internal/types"
)

type Status string

const (
	// StatusPending is the only non-terminal state. COMPLETED and CANCELLED
	// are modeled as deletion of the line-item, not as retained values.
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

var (
	ErrDeliveryNotFound        = errors.New("delivery not found")
	ErrInsufficientQuantity    = errors.New("insufficient quantity")
	ErrListingNotFound         = errors.New("listing not found")
	ErrBadRequest              = errors.New("bad request")
	ErrDeliveryNumberExhausted = errors.New("could not generate a unique delivery number")
)

// LineItem is one (listing, quantity) reservation belonging to a delivery.
// All line-items of one delivery share receiver, donor, pickup date/time and
// the delivery number.
type LineItem struct {
	ID             types.ID
	DeliveryNumber string
	ReceiverID     types.ID
	DonorID        types.ID
	ListingID      types.ID
	PickupDate     time.Time
	PickupTime     string
	Quantity       int
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// GenerateDeliveryNumber builds DEL-YYYYMMDD-NNNNNN with a 6-digit random
// suffix in [1, 999999]. Uniqueness is probabilistic; Reserve regenerates on
// collision.
func GenerateDeliveryNumber(rng *rand.Rand, now time.Time) string {
	return fmt.Sprintf("DEL-%s-%06d", now.Format("20060102"), rng.IntN(999999)+1)
}
