// Package service implements the domain rules on top of the storage layer:
// trip registration, order quantity reconciliation, the item lifecycle and
// settlement queries. Handlers translate the errors defined here into HTTP
// statuses.
package service

import (
	"errors"
	"fmt"

	"github.com/noodlz/noodlz/internal/models"
)

var (
	// ErrTripClosed rejects order changes against a closed trip.
	ErrTripClosed = errors.New("this trip is already closed")

	// ErrNegativeCount rejects a negative order quantity.
	ErrNegativeCount = errors.New("you can't order a negative number of items")

	// ErrTooManyItems rejects a quantity above the configured maximum.
	ErrTooManyItems = errors.New("you can't order that many items")

	// ErrHistoricalItem rejects orders of retired item versions.
	ErrHistoricalItem = errors.New("this item is no longer available")

	// ErrNotOwner rejects operations reserved for the trip owner.
	ErrNotOwner = errors.New("not your trip")
)

// ItemInUseError blocks removing or repricing an item that open trips still
// have orders against. It carries the conflicting orders so the operator can
// see who would be affected.
type ItemInUseError struct {
	ItemID    int64
	Conflicts []models.OrderDetail
}

func (e *ItemInUseError) Error() string {
	return fmt.Sprintf("item %d has %d orders on open trips", e.ItemID, len(e.Conflicts))
}
