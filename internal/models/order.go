package models

import "time"

// Order is one unit of one item ordered by one user on one trip. A requested
// quantity of n is represented by n rows.
type Order struct {
	// ID is the numeric primary key.
	ID int64

	// Settled reports whether this unit's cost has been paid back to the
	// trip owner. Defaults true at creation for free items and for the
	// trip owner's own orders.
	Settled bool

	// ItemID is the ordered item version.
	ItemID int64

	// TripID is the trip the order belongs to.
	TripID int64

	// UserID is the orderer.
	UserID int64
}

// OrderDetail is the read model for order listings: an order joined with its
// item, trip and the involved user names.
type OrderDetail struct {
	Order

	ItemName  string
	ItemTag   string
	ItemPrice Cents

	TripDate    time.Time
	TripClosed  bool
	TripOwnerID int64
	TripOwner   string

	DestinationName string

	// UserName is the orderer's name.
	UserName string
}

// Counterparty returns the ID and name of the other party of the order from
// the perspective of the given user: the trip owner for the orderer's view,
// the orderer for the trip owner's view.
func (d *OrderDetail) Counterparty(userID int64) (int64, string) {
	if d.UserID == userID {
		return d.TripOwnerID, d.TripOwner
	}
	return d.UserID, d.UserName
}
