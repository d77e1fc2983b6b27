package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/noodlz/noodlz/internal/billing"
	"github.com/noodlz/noodlz/internal/metrics"
	"github.com/noodlz/noodlz/internal/models"
	"github.com/noodlz/noodlz/internal/storage"
)

// SettleService answers "who do I owe" and "who owes me" and applies settled
// flag updates.
type SettleService struct {
	store storage.Store
}

// NewSettleService creates a SettleService with the given storage backend.
func NewSettleService(store storage.Store) *SettleService {
	return &SettleService{store: store}
}

// Ledger is the settlement view of one user: both directions, grouped by
// counterparty. Filtered reports whether any filter restricted the result;
// the presentation layer uses it to show that the view is partial.
type Ledger struct {
	Outgoing []billing.CounterpartySummary
	Incoming []billing.CounterpartySummary
	Filtered bool
}

// Query runs both settlement directions for the user under the same filter.
// An order is outgoing when the user placed it on someone else's trip and
// incoming when someone else placed it on the user's trip; a trip has exactly
// one owner, so the two sets never overlap.
func (s *SettleService) Query(ctx context.Context, user *models.User, filter *storage.SettleFilter) (*Ledger, error) {
	outgoing, err := s.store.QuerySettlement(ctx, user.ID, storage.Outgoing, filter)
	if err != nil {
		return nil, err
	}
	incoming, err := s.store.QuerySettlement(ctx, user.ID, storage.Incoming, filter)
	if err != nil {
		return nil, err
	}

	return &Ledger{
		Outgoing: billing.SummarizeByCounterparty(outgoing, user.ID),
		Incoming: billing.SummarizeByCounterparty(incoming, user.ID),
		Filtered: filter != nil && !filter.Empty(),
	}, nil
}

// Change is one submitted settle checkbox: the state the form displayed and
// the state the user left it in.
type Change struct {
	OrderID int64
	Old     bool
	New     bool
}

// Update applies settled changes. Only rows whose new state differs from the
// displayed old state are touched, so two people settling different orders of
// the same trip don't clobber each other. Every submitted order is
// re-checked server-side: the caller must own the order's trip, since the
// trip owner is the creditor the flag answers to. One bad ID rejects the
// whole update.
func (s *SettleService) Update(ctx context.Context, user *models.User, changes []Change) error {
	dirty := make(map[int64]bool)
	ids := make([]int64, 0, len(changes))
	for _, ch := range changes {
		ids = append(ids, ch.OrderID)
		if ch.Old != ch.New {
			dirty[ch.OrderID] = ch.New
		}
	}
	if len(dirty) == 0 {
		return nil
	}

	orders, err := s.store.GetOrdersByIDs(ctx, ids)
	if err != nil {
		return err
	}
	known := make(map[int64]*models.OrderDetail, len(orders))
	for i := range orders {
		known[orders[i].ID] = &orders[i]
	}

	for id := range dirty {
		order, ok := known[id]
		if !ok {
			return fmt.Errorf("order %d: %w", id, storage.ErrNotFound)
		}
		if order.TripOwnerID != user.ID {
			return fmt.Errorf("order %d: %w", id, ErrNotOwner)
		}
	}

	if err := s.store.SetOrdersSettled(ctx, dirty); err != nil {
		return err
	}

	metrics.AddSettleUpdates(len(dirty))
	slog.Info("settled flags updated", "user", user.Name, "count", len(dirty))
	return nil
}
