// README: Search service tests: sync, degradation and rehydration ordering.
package search

import (
	"context"
	"testing"
	"time"

	"foodbridge/internal/modules/inventory"
	"foodbridge/internal/types"
)

type fakeSource struct {
	listings map[types.ID]inventory.Listing
}

func newFakeSource(listings ...inventory.Listing) *fakeSource {
	m := make(map[types.ID]inventory.Listing, len(listings))
	for _, l := range listings {
		m[l.ID] = l
	}
	return &fakeSource{listings: m}
}

func (f *fakeSource) GetMany(ctx context.Context, ids []types.ID) ([]inventory.Listing, error) {
	var out []inventory.Listing
	for _, id := range ids {
		if l, ok := f.listings[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeSource) All(ctx context.Context) ([]inventory.Listing, error) {
	out := make([]inventory.Listing, 0, len(f.listings))
	for _, l := range f.listings {
		out = append(out, l)
	}
	return out, nil
}

// brokenIndex fails every call; the service must degrade, not error.
type brokenIndex struct{}

func (brokenIndex) Sync(ctx context.Context, e Entry) error { return ErrIndexUnavailable }
func (brokenIndex) Remove(ctx context.Context, id types.ID) error { return ErrIndexUnavailable }
func (brokenIndex) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	return nil, ErrIndexUnavailable
}
func (brokenIndex) Search(ctx context.Context, c Criteria) ([]Entry, error) {
	return nil, ErrIndexUnavailable
}

func listing(id types.ID, donorID types.ID, name, location string, expiry time.Time) inventory.Listing {
	return inventory.Listing{
		ID: id, DonorID: donorID, Name: name, PickupLocation: location,
		Quantity: 1, ExpiryDate: expiry,
	}
}

func setupService(t *testing.T, listings ...inventory.Listing) *Service {
	t.Helper()
	svc := NewService(NewMemoryIndex(), newFakeSource(listings...))
	ctx := context.Background()
	for _, l := range listings {
		if err := svc.Sync(ctx, l); err != nil {
			t.Fatalf("sync: %v", err)
		}
	}
	return svc
}

func TestFuzzySearch_RehydratesHits(t *testing.T) {
	future := time.Now().Add(30 * 24 * time.Hour)
	svc := setupService(t,
		listing(1, 7, "Banana", "Market", future),
		listing(2, 7, "Rice", "Market", future),
	)

	got := svc.FuzzySearch(context.Background(), "banena")
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected listing 1, got %+v", got)
	}
}

func TestFuzzySearch_BlankTerm(t *testing.T) {
	svc := setupService(t, listing(1, 7, "Banana", "Market", time.Now()))
	if got := svc.FuzzySearch(context.Background(), "   "); got != nil {
		t.Fatalf("expected nil for blank term, got %+v", got)
	}
}

func TestPrefixSuggest_LimitAndDistinct(t *testing.T) {
	future := time.Now().Add(time.Hour)
	svc := setupService(t,
		listing(1, 7, "Bread", "", future),
		listing(2, 7, "Bread", "", future),
		listing(3, 7, "Brioche", "", future),
		listing(4, 7, "Broccoli", "", future),
		listing(5, 7, "Brown Rice", "", future),
		listing(6, 7, "Brie", "", future),
		listing(7, 7, "Bratwurst", "", future),
	)

	got := svc.PrefixSuggest(context.Background(), "br")
	if len(got) != 5 {
		t.Fatalf("expected suggestions capped at 5, got %v", got)
	}
	seen := make(map[string]bool)
	for _, name := range got {
		if seen[name] {
			t.Fatalf("duplicate suggestion %q in %v", name, got)
		}
		seen[name] = true
	}
}

func TestCombinedSearch_ExpiringSoonAndDonor(t *testing.T) {
	now := time.Now()
	donor := types.ID(7)
	svc := setupService(t,
		listing(1, 7, "Bread", "", now.Add(24*time.Hour)),
		listing(2, 7, "Bread", "", now.Add(10*24*time.Hour)),
		listing(3, 8, "Bread", "", now.Add(24*time.Hour)),
	)

	got := svc.CombinedSearch(context.Background(), "bread", true, &donor)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected only the expiring listing of donor 7, got %+v", got)
	}
}

func TestSearch_DegradesWhenIndexDown(t *testing.T) {
	svc := NewService(brokenIndex{}, newFakeSource())
	ctx := context.Background()

	if got := svc.FuzzySearch(ctx, "bread"); got != nil {
		t.Fatalf("expected empty result on index failure, got %+v", got)
	}
	if got := svc.PrefixSuggest(ctx, "br"); got != nil {
		t.Fatalf("expected empty suggestions on index failure, got %+v", got)
	}
}

func TestRemove_DropsEntry(t *testing.T) {
	future := time.Now().Add(time.Hour)
	svc := setupService(t, listing(1, 7, "Bread", "", future))
	ctx := context.Background()

	if err := svc.Remove(ctx, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := svc.FuzzySearch(ctx, "bread"); len(got) != 0 {
		t.Fatalf("expected no hits after removal, got %+v", got)
	}
}

func TestSyncAll_ReindexesSnapshot(t *testing.T) {
	future := time.Now().Add(time.Hour)
	source := newFakeSource(
		listing(1, 7, "Bread", "", future),
		listing(2, 7, "Milk", "", future),
	)
	svc := NewService(NewMemoryIndex(), source)

	n, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("sync all: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 indexed, got %d", n)
	}
	if got := svc.FuzzySearch(context.Background(), "bread"); len(got) != 1 {
		t.Fatalf("expected reindexed listing searchable, got %+v", got)
	}
}
