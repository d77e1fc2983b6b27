package models

// Destination is a place trips go to. Each destination owns a menu of items.
type Destination struct {
	// ID is the numeric primary key.
	ID int64

	// Name is the unique display name.
	Name string
}
