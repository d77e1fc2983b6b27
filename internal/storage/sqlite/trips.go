package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/noodlz/noodlz/internal/models"
	"github.com/noodlz/noodlz/internal/storage"
)

// CreateTrip inserts a new trip and fills in the assigned ID.
// Returns storage.ErrDuplicateTrip when the (user, date, destination)
// triple already exists.
func (s *SQLiteStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO trips (date, closed, destination_id, user_id) VALUES (?, ?, ?, ?)",
		trip.Date.Format(models.DateFormat), trip.Closed, trip.DestinationID, trip.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateTrip
		}
		return fmt.Errorf("failed to create trip: %w", err)
	}

	trip.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read trip id: %w", err)
	}
	return nil
}

const tripQuery = `
SELECT t.id, t.date, t.closed, t.destination_id, t.user_id,
       d.name, u.name
FROM trips t
JOIN destinations d ON d.id = t.destination_id
JOIN users u ON u.id = t.user_id
`

// GetTrip retrieves a trip by ID with its destination and owner joined.
func (s *SQLiteStore) GetTrip(ctx context.Context, id int64) (*models.Trip, error) {
	trip, err := scanTrip(s.db.QueryRowContext(ctx, tripQuery+"WHERE t.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

// ListTripsByDate returns all trips on the given calendar date in ID order.
func (s *SQLiteStore) ListTripsByDate(ctx context.Context, date time.Time) ([]models.Trip, error) {
	rows, err := s.db.QueryContext(ctx,
		tripQuery+"WHERE t.date = ? ORDER BY t.id",
		date.Format(models.DateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, *trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}
	return trips, nil
}

// CloseTrip marks a trip closed. Closing an already-closed trip is a no-op.
func (s *SQLiteStore) CloseTrip(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE trips SET closed = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to close trip: %w", err)
	}
	return requireRow(res)
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*models.Trip, error) {
	var (
		trip     models.Trip
		dateText string
		destName string
		userName string
	)
	if err := row.Scan(&trip.ID, &dateText, &trip.Closed,
		&trip.DestinationID, &trip.UserID, &destName, &userName); err != nil {
		return nil, err
	}
	date, err := models.ParseDate(dateText)
	if err != nil {
		return nil, fmt.Errorf("invalid trip date %q: %w", dateText, err)
	}
	trip.Date = date
	trip.Destination = &models.Destination{ID: trip.DestinationID, Name: destName}
	trip.User = &models.User{ID: trip.UserID, Name: userName}
	return &trip, nil
}
