package sqlite

import (
	"database/sql"
	"fmt"
)

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Trip dates are stored as ISO "YYYY-MM-DD" text, prices as integer cents.
// items.name is deliberately not unique: repriced clones share the name of
// the row they replace.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    pass_hash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS destinations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    tag TEXT NOT NULL DEFAULT '',
    price_cents INTEGER NOT NULL,
    historical INTEGER NOT NULL DEFAULT 0,
    destination_id INTEGER NOT NULL,
    FOREIGN KEY (destination_id) REFERENCES destinations(id)
);

CREATE TABLE IF NOT EXISTS trips (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    date TEXT NOT NULL,
    closed INTEGER NOT NULL DEFAULT 0,
    destination_id INTEGER NOT NULL,
    user_id INTEGER NOT NULL,
    FOREIGN KEY (destination_id) REFERENCES destinations(id),
    FOREIGN KEY (user_id) REFERENCES users(id),
    UNIQUE (user_id, date, destination_id)
);

CREATE TABLE IF NOT EXISTS orders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    settled INTEGER NOT NULL DEFAULT 0,
    item_id INTEGER NOT NULL,
    trip_id INTEGER NOT NULL,
    user_id INTEGER NOT NULL,
    FOREIGN KEY (item_id) REFERENCES items(id),
    FOREIGN KEY (trip_id) REFERENCES trips(id),
    FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_items_destination_id ON items(destination_id);
CREATE INDEX IF NOT EXISTS idx_trips_date ON trips(date);
CREATE INDEX IF NOT EXISTS idx_orders_trip_id ON orders(trip_id);
CREATE INDEX IF NOT EXISTS idx_orders_item_id ON orders(item_id);
CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// dropAll removes every table. Used by "noodlzctl createdb" to rebuild the
// schema from scratch.
const dropAll = `
DROP TABLE IF EXISTS orders;
DROP TABLE IF EXISTS trips;
DROP TABLE IF EXISTS items;
DROP TABLE IF EXISTS destinations;
DROP TABLE IF EXISTS users;
`

// Reset drops all tables and recreates the schema.
func (s *SQLiteStore) Reset() error {
	if _, err := s.db.Exec(dropAll); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	return runMigrations(s.db)
}
