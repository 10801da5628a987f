// README: Pickup line-item store backed by PostgreSQL.
package delivery

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"foodbridge/internal/types"
)

const lineItemColumns = `
        id, delivery_number, receiver_id, donor_id, food_item_id,
        pickup_date, pickup_time::text, quantity, status, created_at, updated_at`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, li *LineItem) error {
	row := s.db.QueryRow(ctx, `
        INSERT INTO pickup_requests (
            delivery_number, receiver_id, donor_id, food_item_id,
            pickup_date, pickup_time, quantity, status
        ) VALUES ($1, $2, $3, $4, $5, $6::time, $7, $8)
        RETURNING id, created_at, updated_at`,
		li.DeliveryNumber, int64(li.ReceiverID), int64(li.DonorID), int64(li.ListingID),
		li.PickupDate, li.PickupTime, li.Quantity, string(li.Status),
	)
	return row.Scan(&li.ID, &li.CreatedAt, &li.UpdatedAt)
}

func (s *Store) Delete(ctx context.Context, id types.ID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM pickup_requests WHERE id = $1`, int64(id))
	return err
}

func (s *Store) FindByDeliveryNumber(ctx context.Context, deliveryNumber string) ([]LineItem, error) {
	rows, err := s.db.Query(ctx, `
        SELECT`+lineItemColumns+` FROM pickup_requests
        WHERE delivery_number = $1`, deliveryNumber)
	if err != nil {
		return nil, err
	}
	return collectLineItems(rows)
}

func (s *Store) FindByDonor(ctx context.Context, donorID types.ID) ([]LineItem, error) {
	rows, err := s.db.Query(ctx, `
        SELECT`+lineItemColumns+` FROM pickup_requests
        WHERE donor_id = $1`, int64(donorID))
	if err != nil {
		return nil, err
	}
	return collectLineItems(rows)
}

func (s *Store) FindByReceiver(ctx context.Context, receiverID types.ID) ([]LineItem, error) {
	rows, err := s.db.Query(ctx, `
        SELECT`+lineItemColumns+` FROM pickup_requests
        WHERE receiver_id = $1`, int64(receiverID))
	if err != nil {
		return nil, err
	}
	return collectLineItems(rows)
}

func (s *Store) DeliveryNumberExists(ctx context.Context, deliveryNumber string) (bool, error) {
	row := s.db.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM pickup_requests WHERE delivery_number = $1)`,
		deliveryNumber)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// HasPendingForListing reports whether any PENDING line-item still references
// the listing. The expiry sweeper uses this to avoid orphaning reservations.
func (s *Store) HasPendingForListing(ctx context.Context, listingID types.ID) (bool, error) {
	row := s.db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM pickup_requests
            WHERE food_item_id = $1 AND status = $2
        )`, int64(listingID), string(StatusPending))
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func collectLineItems(rows pgx.Rows) ([]LineItem, error) {
	defer rows.Close()
	var items []LineItem
	for rows.Next() {
		var li LineItem
		err := rows.Scan(
			&li.ID, &li.DeliveryNumber, &li.ReceiverID, &li.DonorID, &li.ListingID,
			&li.PickupDate, &li.PickupTime, &li.Quantity, &li.Status, &li.CreatedAt, &li.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	return items, rows.Err()
}
