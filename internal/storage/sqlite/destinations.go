package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/noodlz/noodlz/internal/models"
	"github.com/noodlz/noodlz/internal/storage"
)

// CreateDestination inserts a new destination and fills in the assigned ID.
func (s *SQLiteStore) CreateDestination(ctx context.Context, dest *models.Destination) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO destinations (name) VALUES (?)", dest.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("destination %q: %w", dest.Name, storage.ErrDuplicateName)
		}
		return fmt.Errorf("failed to create destination: %w", err)
	}

	dest.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read destination id: %w", err)
	}
	return nil
}

// GetDestination retrieves a destination by ID.
func (s *SQLiteStore) GetDestination(ctx context.Context, id int64) (*models.Destination, error) {
	dest := &models.Destination{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name FROM destinations WHERE id = ?", id).
		Scan(&dest.ID, &dest.Name)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get destination: %w", err)
	}
	return dest, nil
}

// ListDestinations returns all destinations in ID order.
func (s *SQLiteStore) ListDestinations(ctx context.Context) ([]models.Destination, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name FROM destinations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list destinations: %w", err)
	}
	defer rows.Close()

	var dests []models.Destination
	for rows.Next() {
		var d models.Destination
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("failed to scan destination: %w", err)
		}
		dests = append(dests, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate destinations: %w", err)
	}
	return dests, nil
}
