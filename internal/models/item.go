package models

// Item is one orderable menu entry of a destination.
//
// Price and destination are immutable once any order references the item.
// "Removing" an item sets Historical; "repricing" marks the old row
// historical and inserts a clone with the new price. Name and tag may be
// edited in place.
type Item struct {
	// ID is the numeric primary key.
	ID int64

	// Name is the display name. Not unique: repriced clones and menus of
	// different destinations may share names.
	Name string

	// Tag is an optional short code shown in compact listings ("CC",
	// "ST"). Empty means no tag.
	Tag string

	// Price is the fixed price of one unit.
	Price Cents

	// Historical marks an item version that can no longer be ordered but
	// is retained so past orders keep their original price.
	Historical bool

	// DestinationID is the owning destination.
	DestinationID int64
}

// Orderable reports whether new orders may reference this item.
func (i *Item) Orderable() bool {
	return !i.Historical
}
