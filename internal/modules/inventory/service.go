// README: Listing service; batch creation, geocoding fill-in and notification fan-out.
package inventory

import (
	"context"

	"github.com/sirupsen/logrus"

	"foodbridge/internal/types"
)

// ListingStore is what the service needs from persistence.
type ListingStore interface {
	Create(ctx context.Context, l *Listing) error
	Get(ctx context.Context, id types.ID) (*Listing, error)
	ListAvailable(ctx context.Context) ([]Listing, error)
	FindByDonor(ctx context.Context, donorID types.ID) ([]Listing, error)
	ListNearby(ctx context.Context, p types.Point, radiusKm float64) ([]Listing, error)
}

// Geocoder resolves a free-text pickup location; nil disables geocoding.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

// Notifier fans a freshly created batch out to nearby receivers. Failures are
// the notifier's problem; listing creation never fails on them.
type Notifier interface {
	NotifyNearby(ctx context.Context, listings []Listing) (int, error)
}

type Service struct {
	store    ListingStore
	geocoder Geocoder
	notifier Notifier
}

func NewService(store ListingStore, geocoder Geocoder, notifier Notifier) *Service {
	return &Service{store: store, geocoder: geocoder, notifier: notifier}
}

// CreateListings persists a donor's batch. Each item is validated up front so
// a malformed batch creates nothing. Notification happens after every write
// committed and is fire-and-forget.
func (s *Service) CreateListings(ctx context.Context, donorID types.ID, items []NewListing) ([]Listing, error) {
	if donorID == 0 || len(items) == 0 {
		return nil, ErrBadRequest
	}
	for _, item := range items {
		if err := item.validate(); err != nil {
			return nil, err
		}
	}

	created := make([]Listing, 0, len(items))
	for _, item := range items {
		pickup := item.Pickup
		if pickup.Zero() && item.PickupLocation != "" && s.geocoder != nil {
			if p, err := s.geocoder.Geocode(ctx, item.PickupLocation); err == nil {
				pickup = p
			} else {
				logrus.WithError(err).WithField("location", item.PickupLocation).
					Warn("geocoding failed, keeping listing without coordinates")
			}
		}
		l := Listing{
			DonorID:        donorID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			ExpiryDate:     item.ExpiryDate,
			PickupLocation: item.PickupLocation,
			Pickup:         pickup,
		}
		if err := s.store.Create(ctx, &l); err != nil {
			return nil, err
		}
		created = append(created, l)
	}

	if s.notifier != nil {
		if _, err := s.notifier.NotifyNearby(ctx, created); err != nil {
			logrus.WithError(err).Warn("receiver notification failed")
		}
	}
	return created, nil
}

func (s *Service) ListAvailable(ctx context.Context) ([]Listing, error) {
	return s.store.ListAvailable(ctx)
}

func (s *Service) ByDonor(ctx context.Context, donorID types.ID) ([]Listing, error) {
	return s.store.FindByDonor(ctx, donorID)
}

func (s *Service) Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]Listing, error) {
	if radiusKm <= 0 {
		return nil, ErrBadRequest
	}
	return s.store.ListNearby(ctx, p, radiusKm)
}
