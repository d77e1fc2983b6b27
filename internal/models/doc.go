// Package models defines the core domain models for noodlz.
//
// # Models
//
//   - User: a registered account; owns trips and orders
//   - Destination: a place a trip can go to; owns a menu of items
//   - Item: one orderable menu entry with a fixed price
//   - Trip: one user's dated visit to a destination
//   - Order: one unit of one item, ordered by one user on one trip
//
// Quantity is represented by row count: three orders of the same item by the
// same user on the same trip are three Order rows. Each row carries its own
// settled flag, so individual units can be paid off separately.
//
// Items are versioned entities: once any order references an item, its price
// and destination never change. A reprice marks the old row historical and
// inserts a fresh row, so past orders keep their original price.
//
// # Design principles
//
//  1. Plain structs, no storage tags: the sqlite layer owns column mapping
//  2. Relationships via ID fields; enriched read models (OrderDetail) carry
//     the joined columns views actually need
//  3. Money is integer cents end to end, formatted only at the edge
package models
