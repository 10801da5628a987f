// README: Search index boundary; a derived, eventually-consistent projection of listings.
package search

import (
	"context"
	"errors"
	"time"

	"foodbridge/internal/types"
)

// ErrIndexUnavailable marks index backend failures. The service layer
// degrades every read to empty results instead of surfacing it, and the
// write path never fails on it.
var ErrIndexUnavailable = errors.New("search index unavailable")

// Entry is the denormalized projection of one listing.
type Entry struct {
	ID             types.ID
	Name           string
	PickupLocation string
	Quantity       int
	ExpiryDate     time.Time
	DonorID        types.ID
}

// Index abstracts the physical index. The redis implementation backs
// production; the memory implementation backs tests and single-process
// deployments. Both are idempotent upserts keyed by listing id.
type Index interface {
	// Sync upserts the entry; safe to call repeatedly for the same id.
	Sync(ctx context.Context, e Entry) error

	// Remove deletes the entry; removing an absent id is a no-op.
	Remove(ctx context.Context, id types.ID) error

	// Suggest returns up to limit distinct names starting with prefix.
	Suggest(ctx context.Context, prefix string, limit int) ([]string, error)

	// Search evaluates criteria and returns matching entries, best first.
	Search(ctx context.Context, c Criteria) ([]Entry, error)
}
