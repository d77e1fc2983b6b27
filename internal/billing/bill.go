// Package billing contains the pure aggregation logic behind the trip bill
// and settlement views. It operates on order listings produced by the storage
// layer and performs no I/O of its own.
package billing

import (
	"sort"

	"github.com/noodlz/noodlz/internal/models"
)

// ItemGroup is one line of an itemized trip bill: one item version together
// with everyone who ordered it. A user appears once per ordered unit.
type ItemGroup struct {
	ItemID   int64
	Name     string
	Tag      string
	Price    models.Cents
	Users    []string
	Subtotal models.Cents
}

// GroupTripOrders folds a trip's orders into per-item groups in item ID
// order, mirroring how the bill is read out at the counter.
func GroupTripOrders(orders []models.OrderDetail) []ItemGroup {
	byItem := make(map[int64]*ItemGroup)
	for _, o := range orders {
		g, ok := byItem[o.ItemID]
		if !ok {
			g = &ItemGroup{
				ItemID: o.ItemID,
				Name:   o.ItemName,
				Tag:    o.ItemTag,
				Price:  o.ItemPrice,
			}
			byItem[o.ItemID] = g
		}
		g.Users = append(g.Users, o.UserName)
		g.Subtotal += o.ItemPrice
	}

	groups := make([]ItemGroup, 0, len(byItem))
	for _, g := range byItem {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ItemID < groups[j].ItemID })
	return groups
}

// Total sums the subtotals of all groups.
func Total(groups []ItemGroup) models.Cents {
	var total models.Cents
	for _, g := range groups {
		total += g.Subtotal
	}
	return total
}

// UserItemCount returns how many units of the item the user has ordered on
// this trip. The order form uses it to prefill quantities.
func UserItemCount(orders []models.OrderDetail, userID, itemID int64) int {
	count := 0
	for _, o := range orders {
		if o.UserID == userID && o.ItemID == itemID {
			count++
		}
	}
	return count
}
