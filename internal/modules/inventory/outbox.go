// README: Search index sync outbox; mutations append intents, a worker drains them.
package inventory

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"foodbridge/internal/types"
)

const (
	opUpsert = "upsert"
	opDelete = "delete"
)

// SyncIntent is one pending index mutation. Intents are appended in the same
// transaction as the authoritative write and deleted once the index accepted
// the change, so the index converges without blocking any write.
type SyncIntent struct {
	ID        int64
	ListingID types.ID
	Op        string
	CreatedAt time.Time
}

func appendIntent(ctx context.Context, tx pgx.Tx, listingID types.ID, op string) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO listing_sync_outbox (listing_id, op) VALUES ($1, $2)`,
		int64(listingID), op)
	return err
}

func (s *Store) NextIntents(ctx context.Context, limit int) ([]SyncIntent, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, listing_id, op, created_at
        FROM listing_sync_outbox
        ORDER BY id
        LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intents []SyncIntent
	for rows.Next() {
		var in SyncIntent
		if err := rows.Scan(&in.ID, &in.ListingID, &in.Op, &in.CreatedAt); err != nil {
			return nil, err
		}
		intents = append(intents, in)
	}
	return intents, rows.Err()
}

func (s *Store) DeleteIntent(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM listing_sync_outbox WHERE id = $1`, id)
	return err
}

// Syncer is the slice of the search adapter the outbox worker needs.
type Syncer interface {
	Sync(ctx context.Context, l Listing) error
	Remove(ctx context.Context, id types.ID) error
}

// IntentSource is the slice of the store the worker needs; split out so the
// drain logic is testable without a database.
type IntentSource interface {
	NextIntents(ctx context.Context, limit int) ([]SyncIntent, error)
	DeleteIntent(ctx context.Context, id int64) error
	Get(ctx context.Context, id types.ID) (*Listing, error)
}

// SyncWorker drains the outbox into the search index on a fixed tick.
// Failed intents stay queued for the next tick; Sync is an idempotent upsert
// so redelivery is harmless.
type SyncWorker struct {
	source   IntentSource
	syncer   Syncer
	interval time.Duration
}

func NewSyncWorker(source IntentSource, syncer Syncer, interval time.Duration) *SyncWorker {
	return &SyncWorker{source: source, syncer: syncer, interval: interval}
}

func (w *SyncWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil {
				logrus.WithError(err).Warn("index sync drain failed")
			}
		}
	}
}

// Drain applies queued intents in order and returns how many were applied.
// The first failing intent stops the pass so ordering per listing holds.
func (w *SyncWorker) Drain(ctx context.Context) (int, error) {
	intents, err := w.source.NextIntents(ctx, 100)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, in := range intents {
		if err := w.apply(ctx, in); err != nil {
			return applied, err
		}
		if err := w.source.DeleteIntent(ctx, in.ID); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

func (w *SyncWorker) apply(ctx context.Context, in SyncIntent) error {
	switch in.Op {
	case opDelete:
		return w.syncer.Remove(ctx, in.ListingID)
	default:
		l, err := w.source.Get(ctx, in.ListingID)
		if err == ErrNotFound {
			// Deleted between the intent and the drain; drop the index entry.
			return w.syncer.Remove(ctx, in.ListingID)
		}
		if err != nil {
			return err
		}
		return w.syncer.Sync(ctx, *l)
	}
}
