// README: Delivery lifecycle engine; reservation, compensation and queries.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"foodbridge/internal/modules/inventory"
	"foodbridge/internal/types"
)

// LineItemStore is the persistence slice the engine needs for line-items.
type LineItemStore interface {
	Create(ctx context.Context, li *LineItem) error
	Delete(ctx context.Context, id types.ID) error
	FindByDeliveryNumber(ctx context.Context, deliveryNumber string) ([]LineItem, error)
	FindByDonor(ctx context.Context, donorID types.ID) ([]LineItem, error)
	FindByReceiver(ctx context.Context, receiverID types.ID) ([]LineItem, error)
	DeliveryNumberExists(ctx context.Context, deliveryNumber string) (bool, error)
}

// ListingInventory is the authoritative quantity boundary. AdjustQuantity is
// atomic and conditionally bounded: the store itself rejects a decrement that
// would go negative, reporting 0 affected rows.
type ListingInventory interface {
	Get(ctx context.Context, id types.ID) (*inventory.Listing, error)
	AdjustQuantity(ctx context.Context, id types.ID, delta int) (int64, error)
	DeleteIfZeroQuantity(ctx context.Context, id types.ID) (bool, error)
}

type Service struct {
	items    LineItemStore
	listings ListingInventory

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService wires the engine. rng seeds delivery number generation; pass nil
// for a time-seeded source.
func NewService(items LineItemStore, listings ListingInventory, rng *rand.Rand) *Service {
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>17))
	}
	return &Service{items: items, listings: listings, rng: rng}
}

type ReserveItem struct {
	ListingID types.ID
	Quantity  int
}

type ReserveCommand struct {
	DonorID    types.ID
	ReceiverID types.ID
	PickupDate string // 2006-01-02
	PickupTime string // 15:04 or 15:04:05
	Items      []ReserveItem
}

// ItemFailure reports why one line-item could not be processed.
type ItemFailure struct {
	ListingID types.ID
	Quantity  int
	Err       error
}

type ReserveResult struct {
	DeliveryNumber string
	Created        []LineItem
	Failed         []ItemFailure
}

// Reserve decrements each listing and creates a PENDING line-item per
// successful decrement, all under one delivery number. Line-items fail
// independently; an earlier success is not rolled back when a later item
// fails (the result reports both sides).
func (s *Service) Reserve(ctx context.Context, cmd ReserveCommand) (*ReserveResult, error) {
	if cmd.DonorID == 0 || cmd.ReceiverID == 0 || len(cmd.Items) == 0 {
		return nil, ErrBadRequest
	}
	pickupDate, err := time.Parse("2006-01-02", cmd.PickupDate)
	if err != nil {
		return nil, ErrBadRequest
	}
	pickupTime, err := parsePickupTime(cmd.PickupTime)
	if err != nil {
		return nil, ErrBadRequest
	}

	deliveryNumber, err := s.uniqueDeliveryNumber(ctx)
	if err != nil {
		return nil, err
	}

	result := &ReserveResult{DeliveryNumber: deliveryNumber}
	for _, item := range cmd.Items {
		if item.Quantity <= 0 {
			result.Failed = append(result.Failed, ItemFailure{ListingID: item.ListingID, Quantity: item.Quantity, Err: ErrBadRequest})
			continue
		}
		if err := s.reserveOne(ctx, cmd, item, pickupDate, pickupTime, result); err != nil {
			result.Failed = append(result.Failed, ItemFailure{ListingID: item.ListingID, Quantity: item.Quantity, Err: err})
		}
	}
	return result, nil
}

func (s *Service) reserveOne(ctx context.Context, cmd ReserveCommand, item ReserveItem, pickupDate time.Time, pickupTime string, result *ReserveResult) error {
	affected, err := s.listings.AdjustQuantity(ctx, item.ListingID, -item.Quantity)
	if err != nil {
		return err
	}
	if affected == 0 {
		// The guarded update refuses both a missing listing and an
		// overdraw; tell them apart for the caller.
		if _, getErr := s.listings.Get(ctx, item.ListingID); getErr == inventory.ErrNotFound {
			return ErrListingNotFound
		}
		return ErrInsufficientQuantity
	}

	li := LineItem{
		DeliveryNumber: result.DeliveryNumber,
		ReceiverID:     cmd.ReceiverID,
		DonorID:        cmd.DonorID,
		ListingID:      item.ListingID,
		PickupDate:     pickupDate,
		PickupTime:     pickupTime,
		Quantity:       item.Quantity,
		Status:         StatusPending,
	}
	if err := s.items.Create(ctx, &li); err != nil {
		// The decrement already committed; hand the quantity back rather
		// than leaking it.
		if _, compErr := s.listings.AdjustQuantity(ctx, item.ListingID, item.Quantity); compErr != nil {
			logrus.WithError(compErr).WithField("listing_id", item.ListingID).
				Error("failed to compensate reservation after line-item write failure")
		}
		return err
	}
	result.Created = append(result.Created, li)
	return nil
}

// uniqueDeliveryNumber regenerates on collision. The suffix space is 999999
// per day, so more than a couple of attempts means something is very wrong.
func (s *Service) uniqueDeliveryNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		s.rngMu.Lock()
		candidate := GenerateDeliveryNumber(s.rng, time.Now())
		s.rngMu.Unlock()

		exists, err := s.items.DeliveryNumberExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrDeliveryNumberExhausted
}

type ResolveResult struct {
	DeliveryNumber string
	Resolved       int
	Failures       []ItemFailure
}

// ResolveDelivery applies the terminal transition to every line-item sharing
// the delivery number. CANCELLED hands the reserved quantity back; any other
// target is treated as completion and only cleans up drained listings. Every
// line-item is attempted even when an earlier one fails; partial application
// is allowed but fully reported.
//
// Resolving an unknown (or already resolved) delivery number returns
// ErrDeliveryNotFound; callers treat that as already-resolved.
func (s *Service) ResolveDelivery(ctx context.Context, deliveryNumber string, target Status) (*ResolveResult, error) {
	items, err := s.items.FindByDeliveryNumber(ctx, deliveryNumber)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrDeliveryNotFound
	}

	result := &ResolveResult{DeliveryNumber: deliveryNumber}
	for _, li := range items {
		if target == StatusCancelled {
			s.cancelOne(ctx, li, result)
		} else {
			s.completeOne(ctx, li, result)
		}
	}
	return result, nil
}

func (s *Service) cancelOne(ctx context.Context, li LineItem, result *ResolveResult) {
	affected, err := s.listings.AdjustQuantity(ctx, li.ListingID, li.Quantity)
	if err != nil {
		result.Failures = append(result.Failures, ItemFailure{ListingID: li.ListingID, Quantity: li.Quantity, Err: err})
		return
	}
	if affected == 0 {
		// Listing deleted underneath the reservation (e.g. expiry sweep in
		// an older version). The quantity cannot be returned; report it and
		// still clear the line-item.
		result.Failures = append(result.Failures, ItemFailure{
			ListingID: li.ListingID, Quantity: li.Quantity,
			Err: fmt.Errorf("restore quantity: %w", ErrListingNotFound),
		})
	}
	if err := s.items.Delete(ctx, li.ID); err != nil {
		result.Failures = append(result.Failures, ItemFailure{ListingID: li.ListingID, Quantity: li.Quantity, Err: err})
		return
	}
	result.Resolved++
}

func (s *Service) completeOne(ctx context.Context, li LineItem, result *ResolveResult) {
	if err := s.items.Delete(ctx, li.ID); err != nil {
		result.Failures = append(result.Failures, ItemFailure{ListingID: li.ListingID, Quantity: li.Quantity, Err: err})
		return
	}
	result.Resolved++
	// Opportunistic cleanup, not required for correctness.
	if _, err := s.listings.DeleteIfZeroQuantity(ctx, li.ListingID); err != nil {
		result.Failures = append(result.Failures, ItemFailure{ListingID: li.ListingID, Quantity: li.Quantity, Err: err})
	}
}

// Err flattens a result's per-item failures into one error, nil when clean.
func (r *ResolveResult) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = fmt.Errorf("listing %d: %w", f.ListingID, f.Err)
	}
	return errors.Join(errs...)
}

func (s *Service) ByDeliveryNumber(ctx context.Context, deliveryNumber string) ([]LineItem, error) {
	return s.items.FindByDeliveryNumber(ctx, deliveryNumber)
}

func (s *Service) ByDonor(ctx context.Context, donorID types.ID) ([]LineItem, error) {
	return s.items.FindByDonor(ctx, donorID)
}

func (s *Service) ByReceiver(ctx context.Context, receiverID types.ID) ([]LineItem, error) {
	return s.items.FindByReceiver(ctx, receiverID)
}

func parsePickupTime(v string) (string, error) {
	if t, err := time.Parse("15:04:05", v); err == nil {
		return t.Format("15:04:05"), nil
	}
	t, err := time.Parse("15:04", v)
	if err != nil {
		return "", err
	}
	return t.Format("15:04:05"), nil
}
