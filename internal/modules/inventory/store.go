// README: Listing store backed by PostgreSQL; quantity math is guarded in SQL.
package inventory

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"foodbridge/internal/geo"
	"foodbridge/internal/types"
)

const listingColumns = `
        id, donor_id, name, quantity, expiry_date, pickup_location,
        COALESCE(pickup_latitude, 0), COALESCE(pickup_longitude, 0),
        matched, created_at, updated_at`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Create inserts the listing and records an index sync intent in the same
// transaction, so the outbox never misses a write.
func (s *Store) Create(ctx context.Context, l *Listing) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
        INSERT INTO food_items (
            donor_id, name, quantity, expiry_date, pickup_location,
            pickup_latitude, pickup_longitude, matched
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`,
		int64(l.DonorID), l.Name, l.Quantity, l.ExpiryDate, l.PickupLocation,
		l.Pickup.Lat, l.Pickup.Lng, l.Matched,
	)
	if err := row.Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return err
	}
	if err := appendIntent(ctx, tx, l.ID, opUpsert); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Listing, error) {
	row := s.db.QueryRow(ctx, `SELECT`+listingColumns+` FROM food_items WHERE id = $1`, int64(id))
	l, err := scanListing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// GetMany rehydrates listings by id for search results. Missing ids are
// silently dropped; the index may be ahead of a deletion.
func (s *Store) GetMany(ctx context.Context, ids []types.ID) ([]Listing, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]int64, len(ids))
	for i, id := range ids {
		raw[i] = int64(id)
	}
	rows, err := s.db.Query(ctx, `SELECT`+listingColumns+` FROM food_items WHERE id = ANY($1)`, raw)
	if err != nil {
		return nil, err
	}
	return collectListings(rows)
}

// All returns a snapshot of every listing, used for full re-index.
func (s *Store) All(ctx context.Context) ([]Listing, error) {
	rows, err := s.db.Query(ctx, `SELECT`+listingColumns+` FROM food_items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectListings(rows)
}

func (s *Store) ListAvailable(ctx context.Context) ([]Listing, error) {
	rows, err := s.db.Query(ctx, `SELECT`+listingColumns+` FROM food_items WHERE quantity > 0 ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectListings(rows)
}

func (s *Store) FindByDonor(ctx context.Context, donorID types.ID) ([]Listing, error) {
	rows, err := s.db.Query(ctx, `
        SELECT`+listingColumns+` FROM food_items
        WHERE donor_id = $1 AND quantity > 0
        ORDER BY created_at DESC`, int64(donorID))
	if err != nil {
		return nil, err
	}
	return collectListings(rows)
}

// ListNearby returns available listings within radiusKm of the point.
// A bounding box narrows the scan in SQL, haversine refines it here.
func (s *Store) ListNearby(ctx context.Context, p types.Point, radiusKm float64) ([]Listing, error) {
	latDelta := radiusKm / 111.0
	lngDelta := radiusKm / (111.0 * math.Cos(p.Lat*math.Pi/180.0))
	rows, err := s.db.Query(ctx, `
        SELECT`+listingColumns+` FROM food_items
        WHERE quantity > 0
          AND pickup_latitude BETWEEN $1 AND $2
          AND pickup_longitude BETWEEN $3 AND $4`,
		p.Lat-latDelta, p.Lat+latDelta, p.Lng-lngDelta, p.Lng+lngDelta)
	if err != nil {
		return nil, err
	}
	candidates, err := collectListings(rows)
	if err != nil {
		return nil, err
	}
	var nearby []Listing
	for _, l := range candidates {
		if geo.DistanceKm(p.Lat, p.Lng, l.Pickup.Lat, l.Pickup.Lng) <= radiusKm {
			nearby = append(nearby, l)
		}
	}
	return nearby, nil
}

// AdjustQuantity applies delta atomically. The update only lands when the
// resulting quantity stays non-negative; the returned count is 0 when the
// listing is missing or the decrement would overdraw it.
func (s *Store) AdjustQuantity(ctx context.Context, id types.ID, delta int) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        UPDATE food_items
        SET quantity = quantity + $2, updated_at = NOW()
        WHERE id = $1 AND quantity + $2 >= 0`,
		int64(id), delta)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 1 {
		if err := appendIntent(ctx, tx, id, opUpsert); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteIfZeroQuantity removes the listing only when its quantity is exactly
// zero. Cleanup after a completed delivery; not required for correctness.
func (s *Store) DeleteIfZeroQuantity(ctx context.Context, id types.ID) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM food_items WHERE id = $1 AND quantity = 0`, int64(id))
	if err != nil {
		return false, err
	}
	deleted := tag.RowsAffected() == 1
	if deleted {
		if err := appendIntent(ctx, tx, id, opDelete); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return deleted, nil
}

func (s *Store) DeleteByID(ctx context.Context, id types.ID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM food_items WHERE id = $1`, int64(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		if err := appendIntent(ctx, tx, id, opDelete); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) FindExpiredBefore(ctx context.Context, cutoff time.Time) ([]Listing, error) {
	rows, err := s.db.Query(ctx, `SELECT`+listingColumns+` FROM food_items WHERE expiry_date < $1`, cutoff)
	if err != nil {
		return nil, err
	}
	return collectListings(rows)
}

func scanListing(row pgx.Row) (*Listing, error) {
	var l Listing
	err := row.Scan(
		&l.ID, &l.DonorID, &l.Name, &l.Quantity, &l.ExpiryDate, &l.PickupLocation,
		&l.Pickup.Lat, &l.Pickup.Lng, &l.Matched, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func collectListings(rows pgx.Rows) ([]Listing, error) {
	defer rows.Close()
	var listings []Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}
