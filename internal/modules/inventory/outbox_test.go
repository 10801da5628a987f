// README: Outbox drain unit tests using in-memory intent and index fakes.
package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodbridge/internal/types"
)

type fakeIntentSource struct {
	intents  []SyncIntent
	listings map[types.ID]Listing
	nextErr  error
}

func (f *fakeIntentSource) NextIntents(ctx context.Context, limit int) ([]SyncIntent, error) {
	if f.nextErr != nil {
		return nil, f.nextErr
	}
	n := len(f.intents)
	if n > limit {
		n = limit
	}
	// Return a snapshot like the DB-backed store does; DeleteIntent mutates
	// f.intents while the worker iterates.
	out := make([]SyncIntent, n)
	copy(out, f.intents[:n])
	return out, nil
}

func (f *fakeIntentSource) DeleteIntent(ctx context.Context, id int64) error {
	for i, in := range f.intents {
		if in.ID == id {
			f.intents = append(f.intents[:i], f.intents[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeIntentSource) Get(ctx context.Context, id types.ID) (*Listing, error) {
	if l, ok := f.listings[id]; ok {
		return &l, nil
	}
	return nil, ErrNotFound
}

type fakeSyncer struct {
	synced  []types.ID
	removed []types.ID
	syncErr error
}

func (f *fakeSyncer) Sync(ctx context.Context, l Listing) error {
	if f.syncErr != nil {
		return f.syncErr
	}
	f.synced = append(f.synced, l.ID)
	return nil
}

func (f *fakeSyncer) Remove(ctx context.Context, id types.ID) error {
	f.removed = append(f.removed, id)
	return nil
}

func intent(id int64, listingID types.ID, op string) SyncIntent {
	return SyncIntent{ID: id, ListingID: listingID, Op: op, CreatedAt: time.Now()}
}

func TestDrain_AppliesIntentsInOrder(t *testing.T) {
	source := &fakeIntentSource{
		intents: []SyncIntent{
			intent(1, 10, opUpsert),
			intent(2, 20, opUpsert),
			intent(3, 10, opDelete),
		},
		listings: map[types.ID]Listing{
			10: {ID: 10, Name: "Bread"},
			20: {ID: 20, Name: "Milk"},
		},
	}
	syncer := &fakeSyncer{}
	worker := NewSyncWorker(source, syncer, time.Second)

	applied, err := worker.Drain(context.Background())
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if applied != 3 {
		t.Fatalf("expected 3 applied, got %d", applied)
	}
	if len(source.intents) != 0 {
		t.Fatalf("expected outbox empty, %d left", len(source.intents))
	}
	if len(syncer.synced) != 2 || syncer.synced[0] != 10 || syncer.synced[1] != 20 {
		t.Fatalf("unexpected sync order: %v", syncer.synced)
	}
	if len(syncer.removed) != 1 || syncer.removed[0] != 10 {
		t.Fatalf("expected delete applied last: %v", syncer.removed)
	}
}

func TestDrain_UpsertForDeletedListingRemoves(t *testing.T) {
	source := &fakeIntentSource{
		intents:  []SyncIntent{intent(1, 10, opUpsert)},
		listings: map[types.ID]Listing{},
	}
	syncer := &fakeSyncer{}
	worker := NewSyncWorker(source, syncer, time.Second)

	applied, err := worker.Drain(context.Background())
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 applied, got %d", applied)
	}
	if len(syncer.removed) != 1 || syncer.removed[0] != 10 {
		t.Fatalf("expected stale upsert converted to removal, got %v", syncer.removed)
	}
}

func TestDrain_FailedIntentStaysQueued(t *testing.T) {
	source := &fakeIntentSource{
		intents: []SyncIntent{
			intent(1, 10, opUpsert),
			intent(2, 20, opUpsert),
		},
		listings: map[types.ID]Listing{
			10: {ID: 10},
			20: {ID: 20},
		},
	}
	syncer := &fakeSyncer{syncErr: errors.New("redis down")}
	worker := NewSyncWorker(source, syncer, time.Second)

	applied, err := worker.Drain(context.Background())
	if err == nil {
		t.Fatalf("expected drain to report the failure")
	}
	if applied != 0 {
		t.Fatalf("expected nothing applied, got %d", applied)
	}
	if len(source.intents) != 2 {
		t.Fatalf("failed intents must stay queued, %d left", len(source.intents))
	}
}
