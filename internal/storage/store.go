// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/noodlz/noodlz/internal/models"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateTrip is returned when a (user, date, destination)
	// trip already exists.
	ErrDuplicateTrip = errors.New("trip already exists")

	// ErrDuplicateName is returned when a unique name column collides
	// (users, destinations).
	ErrDuplicateName = errors.New("name already exists")
)

// ItemCount is one reconciliation target: bring the number of order rows for
// (trip, item, orderer) to Count. Settled is the default for newly created
// rows; it never flips existing rows.
type ItemCount struct {
	Item    *models.Item
	Count   int
	Settled bool
}

// SettleDirection selects which half of a user's settlement ledger to query.
type SettleDirection int

const (
	// Outgoing selects orders the user placed on someone else's trip
	// (money the user owes).
	Outgoing SettleDirection = iota
	// Incoming selects orders others placed on the user's trips (money
	// owed to the user).
	Incoming
)

// SettleFilter restricts a settlement query. All supplied restrictions apply
// conjunctively; zero-valued fields are ignored.
type SettleFilter struct {
	// TripIDs restricts to an explicit set of trips.
	TripIDs []int64

	// After/Since/Before/Until restrict by trip date (strict/inclusive
	// bounds). Each may hold several values; all apply.
	After  []time.Time
	Since  []time.Time
	Before []time.Time
	Until  []time.Time

	// With restricts by counterparty user ID: the trip owner for
	// outgoing queries, the orderer for incoming ones.
	With []int64

	// Settled restricts by settled state when non-nil.
	Settled *bool
}

// Empty reports whether no restriction is set.
func (f *SettleFilter) Empty() bool {
	return len(f.TripIDs) == 0 &&
		len(f.After) == 0 && len(f.Since) == 0 &&
		len(f.Before) == 0 && len(f.Until) == 0 &&
		len(f.With) == 0 && f.Settled == nil
}

// Store defines the interface for noodlz storage operations.
// This abstraction allows swapping storage backends without changing the
// service layer.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByName(ctx context.Context, name string) (*models.User, error)

	// Destinations
	CreateDestination(ctx context.Context, dest *models.Destination) error
	GetDestination(ctx context.Context, id int64) (*models.Destination, error)
	ListDestinations(ctx context.Context) ([]models.Destination, error)

	// Items
	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	ListItems(ctx context.Context) ([]models.Item, error)
	// ListOrderableItems returns the non-historical items of one
	// destination in ID order: the menu the order form shows.
	ListOrderableItems(ctx context.Context, destinationID int64) ([]models.Item, error)
	// UpdateItemNameTag renames/retags an item in place. Price and
	// destination are deliberately not updatable.
	UpdateItemNameTag(ctx context.Context, id int64, name, tag string) error
	// SetItemHistorical flips the historical flag.
	SetItemHistorical(ctx context.Context, id int64, historical bool) error
	// RepriceItem atomically marks the old item historical and inserts a
	// clone carrying the new price, returning the clone.
	RepriceItem(ctx context.Context, item *models.Item, newPrice models.Cents) (*models.Item, error)
	// ListOpenOrdersForItem returns orders referencing the item whose
	// trip is still open. A non-empty result blocks removal/repricing.
	ListOpenOrdersForItem(ctx context.Context, itemID int64) ([]models.OrderDetail, error)

	// Trips
	// CreateTrip returns ErrDuplicateTrip when the (user, date,
	// destination) triple already exists.
	CreateTrip(ctx context.Context, trip *models.Trip) error
	GetTrip(ctx context.Context, id int64) (*models.Trip, error)
	ListTripsByDate(ctx context.Context, date time.Time) ([]models.Trip, error)
	CloseTrip(ctx context.Context, id int64) error

	// Orders
	// CreateOrder inserts a single order row as-is. Normal order flow
	// goes through ReconcileOrders; this exists for the legacy importer
	// and seeding.
	CreateOrder(ctx context.Context, order *models.Order) error
	// ReconcileOrders brings the order row counts for the given user on
	// the given trip to the requested targets, all in one transaction.
	ReconcileOrders(ctx context.Context, tripID, userID int64, counts []ItemCount) error
	ListOrdersForTrip(ctx context.Context, tripID int64) ([]models.OrderDetail, error)
	ListOrders(ctx context.Context) ([]models.OrderDetail, error)
	GetOrdersByIDs(ctx context.Context, ids []int64) ([]models.OrderDetail, error)
	// QuerySettlement returns the user's outgoing or incoming orders,
	// restricted by the filter, in ID order.
	QuerySettlement(ctx context.Context, userID int64, dir SettleDirection, filter *SettleFilter) ([]models.OrderDetail, error)
	// SetOrdersSettled applies the given settled states in one
	// transaction.
	SetOrdersSettled(ctx context.Context, settled map[int64]bool) error

	// Close releases any resources held by the store.
	Close() error
}
