// README: Search service; keeps the index fed and rehydrates results from the store.
package search

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"foodbridge/internal/modules/inventory"
	"foodbridge/internal/types"
)

// expiringSoonWindow is the fixed "expiring soon" horizon.
const expiringSoonWindow = 3 * 24 * time.Hour

const suggestionLimit = 5

// ListingSource rehydrates authoritative listings for index hits.
type ListingSource interface {
	GetMany(ctx context.Context, ids []types.ID) ([]inventory.Listing, error)
	All(ctx context.Context) ([]inventory.Listing, error)
}

type Service struct {
	index Index
	store ListingSource
}

func NewService(index Index, store ListingSource) *Service {
	return &Service{index: index, store: store}
}

// Sync projects one listing into the index. Called by the outbox drain for
// every authoritative mutation; idempotent.
func (s *Service) Sync(ctx context.Context, l inventory.Listing) error {
	return s.index.Sync(ctx, entryFrom(l))
}

func (s *Service) Remove(ctx context.Context, id types.ID) error {
	return s.index.Remove(ctx, id)
}

// SyncAll re-indexes every listing from a store snapshot. Bootstrap and
// repair path; the store keeps taking writes while this runs.
func (s *Service) SyncAll(ctx context.Context) (int, error) {
	listings, err := s.store.All(ctx)
	if err != nil {
		return 0, err
	}
	for i, l := range listings {
		if err := s.index.Sync(ctx, entryFrom(l)); err != nil {
			return i, err
		}
	}
	return len(listings), nil
}

// PrefixSuggest returns up to five distinct name completions. Blank prefixes
// and index failures both yield an empty result, never an error.
func (s *Service) PrefixSuggest(ctx context.Context, prefix string) []string {
	names, err := s.index.Suggest(ctx, prefix, suggestionLimit)
	if err != nil {
		logrus.WithError(err).Warn("prefix suggest degraded to empty result")
		return nil
	}
	return names
}

// FuzzySearch matches the term against indexed names and locations with typo
// tolerance and rehydrates the hits. Blank terms and index failures yield an
// empty result.
func (s *Service) FuzzySearch(ctx context.Context, term string) []inventory.Listing {
	if strings.TrimSpace(term) == "" {
		return nil
	}
	return s.query(ctx, Criteria{Term: term, Fuzzy: true})
}

// CombinedSearch ANDs the supplied filters: term over name-or-location (name
// weighted higher), a fixed 3-day expiry window, and a donor restriction.
// Empty criteria match everything.
func (s *Service) CombinedSearch(ctx context.Context, term string, expiringSoon bool, donorID *types.ID) []inventory.Listing {
	c := Criteria{Term: term, DonorID: donorID}
	if expiringSoon {
		c.ExpiringWithin = expiringSoonWindow
		c.Now = time.Now()
	}
	return s.query(ctx, c)
}

func (s *Service) query(ctx context.Context, c Criteria) []inventory.Listing {
	entries, err := s.index.Search(ctx, c)
	if err != nil {
		logrus.WithError(err).Warn("index search degraded to empty result")
		return nil
	}
	if len(entries) == 0 {
		return nil
	}

	ids := make([]types.ID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	listings, err := s.store.GetMany(ctx, ids)
	if err != nil {
		logrus.WithError(err).Warn("search rehydration failed")
		return nil
	}

	// Preserve index ranking; GetMany returns store order.
	byID := make(map[types.ID]inventory.Listing, len(listings))
	for _, l := range listings {
		byID[l.ID] = l
	}
	ordered := make([]inventory.Listing, 0, len(ids))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			ordered = append(ordered, l)
		}
	}
	return ordered
}

func entryFrom(l inventory.Listing) Entry {
	return Entry{
		ID:             l.ID,
		Name:           l.Name,
		PickupLocation: l.PickupLocation,
		Quantity:       l.Quantity,
		ExpiryDate:     l.ExpiryDate,
		DonorID:        l.DonorID,
	}
}
