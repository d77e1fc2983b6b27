package billing

import "github.com/noodlz/noodlz/internal/models"

// CounterpartySummary aggregates one side of a settlement ledger against a
// single counterparty: the trip owner the user owes, or the orderer who owes
// the user.
type CounterpartySummary struct {
	UserID   int64
	UserName string
	Orders   []models.OrderDetail
	Total    models.Cents
	// Unsettled is the part of Total not yet paid back.
	Unsettled models.Cents
}

// SummarizeByCounterparty groups settlement query results by counterparty
// from the given user's perspective, preserving order within each group.
// Groups appear in order of first appearance, which follows the underlying
// ID order of the query.
func SummarizeByCounterparty(orders []models.OrderDetail, userID int64) []CounterpartySummary {
	index := make(map[int64]int)
	var summaries []CounterpartySummary
	for _, o := range orders {
		cpID, cpName := o.Counterparty(userID)
		i, ok := index[cpID]
		if !ok {
			i = len(summaries)
			index[cpID] = i
			summaries = append(summaries, CounterpartySummary{UserID: cpID, UserName: cpName})
		}
		s := &summaries[i]
		s.Orders = append(s.Orders, o)
		s.Total += o.ItemPrice
		if !o.Settled {
			s.Unsettled += o.ItemPrice
		}
	}
	return summaries
}

// Unsettled sums the unpaid amounts across all summaries.
func Unsettled(summaries []CounterpartySummary) models.Cents {
	var total models.Cents
	for _, s := range summaries {
		total += s.Unsettled
	}
	return total
}
