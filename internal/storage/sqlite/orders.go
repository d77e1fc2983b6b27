package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/noodlz/noodlz/internal/models"
	"github.com/noodlz/noodlz/internal/storage"
)

// orderDetailQuery joins orders with their item, trip, destination and the
// involved user names. Every order listing uses this shape.
const orderDetailQuery = `
SELECT o.id, o.settled, o.item_id, o.trip_id, o.user_id,
       i.name, i.tag, i.price_cents,
       t.date, t.closed, t.user_id, owner.name,
       d.name, orderer.name
FROM orders o
JOIN items i ON i.id = o.item_id
JOIN trips t ON t.id = o.trip_id
JOIN destinations d ON d.id = t.destination_id
JOIN users owner ON owner.id = t.user_id
JOIN users orderer ON orderer.id = o.user_id
`

// CreateOrder inserts a single order row and fills in the assigned ID.
func (s *SQLiteStore) CreateOrder(ctx context.Context, order *models.Order) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO orders (settled, item_id, trip_id, user_id) VALUES (?, ?, ?, ?)",
		order.Settled, order.ItemID, order.TripID, order.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	order.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read order id: %w", err)
	}
	return nil
}

// ReconcileOrders brings the order row counts for the given user on the given
// trip to the requested targets, all in one transaction. Excess rows are
// deleted newest-first (rows are fungible), missing rows are inserted with
// the per-target default settled state.
func (s *SQLiteStore) ReconcileOrders(ctx context.Context, tripID, userID int64, counts []storage.ItemCount) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, target := range counts {
		var existing int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM orders WHERE trip_id = ? AND item_id = ? AND user_id = ?",
			tripID, target.Item.ID, userID,
		).Scan(&existing)
		if err != nil {
			return fmt.Errorf("failed to count orders: %w", err)
		}

		switch {
		case existing > target.Count:
			_, err = tx.ExecContext(ctx,
				`DELETE FROM orders WHERE id IN (
					SELECT id FROM orders
					WHERE trip_id = ? AND item_id = ? AND user_id = ?
					ORDER BY id DESC LIMIT ?
				)`,
				tripID, target.Item.ID, userID, existing-target.Count,
			)
			if err != nil {
				return fmt.Errorf("failed to delete excess orders: %w", err)
			}
		case existing < target.Count:
			for n := existing; n < target.Count; n++ {
				_, err = tx.ExecContext(ctx,
					"INSERT INTO orders (settled, item_id, trip_id, user_id) VALUES (?, ?, ?, ?)",
					target.Settled, target.Item.ID, tripID, userID,
				)
				if err != nil {
					return fmt.Errorf("failed to insert order: %w", err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListOrdersForTrip returns all orders of one trip in ID order.
func (s *SQLiteStore) ListOrdersForTrip(ctx context.Context, tripID int64) ([]models.OrderDetail, error) {
	return s.queryOrderDetails(ctx,
		orderDetailQuery+"WHERE o.trip_id = ? ORDER BY o.id", tripID)
}

// ListOrders returns every order in the database in ID order.
func (s *SQLiteStore) ListOrders(ctx context.Context) ([]models.OrderDetail, error) {
	return s.queryOrderDetails(ctx, orderDetailQuery+"ORDER BY o.id")
}

// GetOrdersByIDs returns the orders with the given IDs in ID order. Missing
// IDs are silently omitted; the caller compares lengths if it cares.
func (s *SQLiteStore) GetOrdersByIDs(ctx context.Context, ids []int64) ([]models.OrderDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := orderDetailQuery +
		"WHERE o.id IN (" + placeholders(len(ids)) + ") ORDER BY o.id"
	return s.queryOrderDetails(ctx, query, int64Args(ids)...)
}

// ListOpenOrdersForItem returns orders referencing the item whose trip is
// still open. These block item removal and repricing.
func (s *SQLiteStore) ListOpenOrdersForItem(ctx context.Context, itemID int64) ([]models.OrderDetail, error) {
	return s.queryOrderDetails(ctx,
		orderDetailQuery+"WHERE o.item_id = ? AND t.closed = 0 ORDER BY o.id", itemID)
}

// QuerySettlement returns the user's outgoing or incoming orders restricted
// by the filter, in ID order.
//
// Outgoing: the user ordered on someone else's trip (money the user owes).
// Incoming: someone else ordered on the user's trip (money owed to the user).
func (s *SQLiteStore) QuerySettlement(ctx context.Context, userID int64, dir storage.SettleDirection, filter *storage.SettleFilter) ([]models.OrderDetail, error) {
	var (
		conds []string
		args  []any
	)
	switch dir {
	case storage.Outgoing:
		conds = append(conds, "o.user_id = ?", "t.user_id <> ?")
	case storage.Incoming:
		conds = append(conds, "o.user_id <> ?", "t.user_id = ?")
	default:
		return nil, fmt.Errorf("unknown settle direction %d", dir)
	}
	args = append(args, userID, userID)

	if filter != nil {
		if len(filter.TripIDs) > 0 {
			conds = append(conds, "t.id IN ("+placeholders(len(filter.TripIDs))+")")
			args = append(args, int64Args(filter.TripIDs)...)
		}
		for _, d := range filter.After {
			conds = append(conds, "t.date > ?")
			args = append(args, d.Format(models.DateFormat))
		}
		for _, d := range filter.Since {
			conds = append(conds, "t.date >= ?")
			args = append(args, d.Format(models.DateFormat))
		}
		for _, d := range filter.Before {
			conds = append(conds, "t.date < ?")
			args = append(args, d.Format(models.DateFormat))
		}
		for _, d := range filter.Until {
			conds = append(conds, "t.date <= ?")
			args = append(args, d.Format(models.DateFormat))
		}
		if len(filter.With) > 0 {
			// The counterparty is the trip owner for outgoing orders
			// and the orderer for incoming ones.
			col := "t.user_id"
			if dir == storage.Incoming {
				col = "o.user_id"
			}
			conds = append(conds, col+" IN ("+placeholders(len(filter.With))+")")
			args = append(args, int64Args(filter.With)...)
		}
		if filter.Settled != nil {
			conds = append(conds, "o.settled = ?")
			args = append(args, *filter.Settled)
		}
	}

	query := orderDetailQuery +
		"WHERE " + strings.Join(conds, " AND ") + " ORDER BY o.id"
	return s.queryOrderDetails(ctx, query, args...)
}

// SetOrdersSettled applies the given settled states in one transaction.
func (s *SQLiteStore) SetOrdersSettled(ctx context.Context, settled map[int64]bool) error {
	if len(settled) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for id, state := range settled {
		res, err := tx.ExecContext(ctx,
			"UPDATE orders SET settled = ? WHERE id = ?", state, id)
		if err != nil {
			return fmt.Errorf("failed to update order %d: %w", id, err)
		}
		if err := requireRow(res); err != nil {
			return fmt.Errorf("order %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) queryOrderDetails(ctx context.Context, query string, args ...any) ([]models.OrderDetail, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var details []models.OrderDetail
	for rows.Next() {
		var (
			d        models.OrderDetail
			dateText string
		)
		err := rows.Scan(
			&d.ID, &d.Settled, &d.ItemID, &d.TripID, &d.UserID,
			&d.ItemName, &d.ItemTag, &d.ItemPrice,
			&dateText, &d.TripClosed, &d.TripOwnerID, &d.TripOwner,
			&d.DestinationName, &d.UserName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		d.TripDate, err = models.ParseDate(dateText)
		if err != nil {
			return nil, fmt.Errorf("invalid trip date %q: %w", dateText, err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return details, nil
}
