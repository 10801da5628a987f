// README: Expiry sweeper; removes expired listings from store and index.
package sweeper

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"foodbridge/internal/modules/inventory"
	"foodbridge/internal/types"
)

// ListingStore is the authoritative-store slice the sweeper needs.
type ListingStore interface {
	FindExpiredBefore(ctx context.Context, cutoff time.Time) ([]inventory.Listing, error)
	DeleteByID(ctx context.Context, id types.ID) error
}

// ReservationChecker guards against deleting a listing that a PENDING
// line-item still references.
type ReservationChecker interface {
	HasPendingForListing(ctx context.Context, listingID types.ID) (bool, error)
}

// IndexRemover drops the derived index entry; best-effort only.
type IndexRemover interface {
	Remove(ctx context.Context, id types.ID) error
}

type Service struct {
	listings     ListingStore
	reservations ReservationChecker
	index        IndexRemover
	interval     time.Duration
}

func NewService(listings ListingStore, reservations ReservationChecker, index IndexRemover, interval time.Duration) *Service {
	return &Service{listings: listings, reservations: reservations, index: index, interval: interval}
}

// Sweep deletes listings expired strictly before now. Listings that still
// have pending reservations are skipped and retried on the next pass; index
// removal failures are logged, never fatal, because the authoritative row is
// already gone and the outbox will reconcile.
func (s *Service) Sweep(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.listings.FindExpiredBefore(ctx, now)
	if err != nil {
		return 0, err
	}

	removed, skipped := 0, 0
	for _, l := range expired {
		pending, err := s.reservations.HasPendingForListing(ctx, l.ID)
		if err != nil {
			return removed, err
		}
		if pending {
			skipped++
			continue
		}
		if err := s.listings.DeleteByID(ctx, l.ID); err != nil {
			return removed, err
		}
		removed++
		if s.index != nil {
			if err := s.index.Remove(ctx, l.ID); err != nil {
				logrus.WithError(err).WithField("listing_id", l.ID).
					Warn("index removal failed for expired listing")
			}
		}
	}

	logrus.WithFields(logrus.Fields{
		"removed": removed,
		"skipped": skipped,
	}).Info("expired food items swept")
	return removed, nil
}

// Run performs a startup sweep and then repeats on the configured interval
// until the context ends.
func (s *Service) Run(ctx context.Context) {
	if _, err := s.Sweep(ctx, time.Now()); err != nil {
		logrus.WithError(err).Error("startup expiry sweep failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx, time.Now()); err != nil {
				logrus.WithError(err).Error("expiry sweep failed")
			}
		}
	}
}
