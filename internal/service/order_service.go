package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/noodlz/noodlz/internal/metrics"
	"github.com/noodlz/noodlz/internal/models"
	"github.com/noodlz/noodlz/internal/storage"
)

// OrderService applies order forms: for each submitted item it reconciles the
// user's order rows on the trip to the requested quantity.
type OrderService struct {
	store    storage.Store
	maxCount int
}

// NewOrderService creates an OrderService. maxCount bounds the per-item
// quantity of a single form.
func NewOrderService(store storage.Store, maxCount int) *OrderService {
	return &OrderService{store: store, maxCount: maxCount}
}

// Submit reconciles the user's orders on the trip to the requested per-item
// quantities. Items absent from counts are left untouched. The whole form is
// validated up front and applied in one transaction: any rejected quantity
// means no state change at all.
//
// Reconciling is idempotent for a fixed quantity. Excess rows are deleted
// (rows of one (trip, item, user) key are fungible); missing rows are
// inserted with settled defaulting to true for free items and for the trip
// owner's own orders.
func (s *OrderService) Submit(ctx context.Context, user *models.User, tripID int64, counts map[int64]int) error {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return err
	}
	if trip.Closed {
		return ErrTripClosed
	}

	targets := make([]storage.ItemCount, 0, len(counts))
	for itemID, count := range counts {
		if count < 0 {
			return fmt.Errorf("item %d: %w", itemID, ErrNegativeCount)
		}
		if count > s.maxCount {
			return fmt.Errorf("item %d: %w (max %d)", itemID, ErrTooManyItems, s.maxCount)
		}

		item, err := s.store.GetItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("item %d: %w", itemID, err)
		}
		if !item.Orderable() {
			return fmt.Errorf("item %d: %w", itemID, ErrHistoricalItem)
		}

		targets = append(targets, storage.ItemCount{
			Item:    item,
			Count:   count,
			Settled: item.Price <= 0 || trip.OwnedBy(user.ID),
		})
	}

	if err := s.store.ReconcileOrders(ctx, trip.ID, user.ID, targets); err != nil {
		return err
	}

	metrics.IncOrdersReconciled()
	slog.Info("order form applied",
		"trip_id", trip.ID, "user", user.Name, "items", len(targets))
	return nil
}

// List returns every order in the database. Used by the admin CLI.
func (s *OrderService) List(ctx context.Context) ([]models.OrderDetail, error) {
	return s.store.ListOrders(ctx)
}
