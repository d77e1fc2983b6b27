package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/noodlz/noodlz/internal/models"
	"github.com/noodlz/noodlz/internal/storage"
)

const itemColumns = "id, name, tag, price_cents, historical, destination_id"

// CreateItem inserts a new item and fills in the assigned ID.
func (s *SQLiteStore) CreateItem(ctx context.Context, item *models.Item) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO items (name, tag, price_cents, historical, destination_id) VALUES (?, ?, ?, ?, ?)",
		item.Name, item.Tag, int64(item.Price), item.Historical, item.DestinationID,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	item.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read item id: %w", err)
	}
	return nil
}

// GetItem retrieves an item by ID.
func (s *SQLiteStore) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	item := &models.Item{}
	err := s.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE id = ?", id).
		Scan(&item.ID, &item.Name, &item.Tag, &item.Price, &item.Historical, &item.DestinationID)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// ListItems returns every item, historical ones included, in ID order.
func (s *SQLiteStore) ListItems(ctx context.Context) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM items ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var it models.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Tag, &it.Price, &it.Historical, &it.DestinationID); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

// ListOrderableItems returns the non-historical items of one destination in
// ID order.
func (s *SQLiteStore) ListOrderableItems(ctx context.Context, destinationID int64) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE destination_id = ? AND historical = 0 ORDER BY id",
		destinationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var it models.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Tag, &it.Price, &it.Historical, &it.DestinationID); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

// UpdateItemNameTag renames/retags an item in place. Price and destination
// have no update path: repricing clones instead.
func (s *SQLiteStore) UpdateItemNameTag(ctx context.Context, id int64, name, tag string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE items SET name = ?, tag = ? WHERE id = ?", name, tag, id)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return requireRow(res)
}

// SetItemHistorical flips the historical flag.
func (s *SQLiteStore) SetItemHistorical(ctx context.Context, id int64, historical bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE items SET historical = ? WHERE id = ?", historical, id)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return requireRow(res)
}

// RepriceItem marks the old item historical and inserts a clone with the new
// price, atomically. Past orders keep referencing the old row.
func (s *SQLiteStore) RepriceItem(ctx context.Context, item *models.Item, newPrice models.Cents) (*models.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE items SET historical = 1 WHERE id = ?", item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to retire item: %w", err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}

	clone := &models.Item{
		Name:          item.Name,
		Tag:           item.Tag,
		Price:         newPrice,
		DestinationID: item.DestinationID,
	}
	res, err = tx.ExecContext(ctx,
		"INSERT INTO items (name, tag, price_cents, historical, destination_id) VALUES (?, ?, ?, ?, ?)",
		clone.Name, clone.Tag, int64(clone.Price), clone.Historical, clone.DestinationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert repriced item: %w", err)
	}
	clone.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read item id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return clone, nil
}

// requireRow converts a zero-rows-affected update into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
