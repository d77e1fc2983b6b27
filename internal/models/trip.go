package models

import "time"

// DateFormat is the ISO calendar date layout used for trip dates, URLs and
// storage.
const DateFormat = "2006-01-02"

// ParseDate parses an ISO calendar date ("2006-01-02") in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

// Trip is one user's dated visit to a destination, which others' orders
// attach to. (user, date, destination) is unique.
type Trip struct {
	// ID is the numeric primary key.
	ID int64

	// Date is the calendar date of the trip (time part zero, UTC).
	Date time.Time

	// Closed trips accept no new or changed orders.
	Closed bool

	// DestinationID is where the trip goes.
	DestinationID int64

	// UserID is the trip owner: the user who registered the trip and
	// presumably pays up front.
	UserID int64

	// Destination and User are populated by reads that join them.
	Destination *Destination
	User        *User
}

// OwnedBy reports whether the given user is the trip owner.
func (t *Trip) OwnedBy(userID int64) bool {
	return t.UserID == userID
}
