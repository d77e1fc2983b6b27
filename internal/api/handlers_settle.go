package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noodlz/noodlz/internal/middleware"
	"github.com/noodlz/noodlz/internal/models"
	"github.com/noodlz/noodlz/internal/service"
	"github.com/noodlz/noodlz/internal/storage"
	"github.com/noodlz/noodlz/internal/version"
)

// orderFieldPrefix marks settle form checkboxes; oldFieldPrefix the hidden
// fields recording the state each checkbox was rendered with.
const (
	orderFieldPrefix = "order-"
	oldFieldPrefix   = "old-"
)

// tripShowSettle renders the per-trip settle page. Owner only.
func (s *Server) tripShowSettle(c *gin.Context) {
	tripID, ok := s.paramID(c)
	if !ok {
		return
	}

	user := middleware.CurrentUser(c)
	bill, err := s.trips.GetBill(c.Request.Context(), user, tripID)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.HTML(http.StatusOK, "trip_settle.html", gin.H{
		"User":    user,
		"Trip":    bill.Trip,
		"Orders":  bill.Orders,
		"Total":   bill.Total,
		"Version": version.Version,
	})
}

// tripUpdateSettle applies the settle checkboxes of one trip. Owner only.
func (s *Server) tripUpdateSettle(c *gin.Context) {
	tripID, ok := s.paramID(c)
	if !ok {
		return
	}

	user := middleware.CurrentUser(c)
	bill, err := s.trips.GetBill(c.Request.Context(), user, tripID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		s.htmlError(c, http.StatusBadRequest, "Malformed form.")
		return
	}

	// Unchecked checkboxes are absent from the form; the trip's own order
	// list defines which boxes were on the page.
	changes := make([]service.Change, 0, len(bill.Orders))
	for _, order := range bill.Orders {
		id := strconv.FormatInt(order.ID, 10)
		old := order.Settled
		if v, ok := c.GetPostForm(oldFieldPrefix + id); ok {
			old = v == "on"
		}
		changes = append(changes, service.Change{
			OrderID: order.ID,
			Old:     old,
			New:     c.PostForm(orderFieldPrefix+id) == "on",
		})
	}

	if err := s.settle.Update(c.Request.Context(), user, changes); err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/trip/"+strconv.FormatInt(tripID, 10)+"/settle")
}

// settleShow renders the cross-trip settlement ledger: who the user owes and
// who owes the user, grouped by counterparty, optionally filtered.
func (s *Server) settleShow(c *gin.Context) {
	filter, ok := s.queryFilter(c)
	if !ok {
		return
	}

	user := middleware.CurrentUser(c)
	ledger, err := s.settle.Query(c.Request.Context(), user, filter)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.HTML(http.StatusOK, "settle.html", gin.H{
		"User":     user,
		"Outgoing": ledger.Outgoing,
		"Incoming": ledger.Incoming,
		"Filtered": ledger.Filtered,
		"Version":  version.Version,
	})
}

// settleUpdate applies settle checkboxes submitted from the ledger. The
// hidden old-<id> fields define which orders were on the page and what state
// they showed; only flipped boxes change anything.
func (s *Server) settleUpdate(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		s.htmlError(c, http.StatusBadRequest, "Malformed form.")
		return
	}

	var changes []service.Change
	for field, values := range c.Request.PostForm {
		if !strings.HasPrefix(field, oldFieldPrefix) || len(values) == 0 {
			continue
		}
		orderID, err := strconv.ParseInt(strings.TrimPrefix(field, oldFieldPrefix), 10, 64)
		if err != nil {
			s.htmlError(c, http.StatusBadRequest, "Malformed order field.")
			return
		}
		changes = append(changes, service.Change{
			OrderID: orderID,
			Old:     values[0] == "on",
			New:     c.PostForm(orderFieldPrefix+strconv.FormatInt(orderID, 10)) == "on",
		})
	}

	user := middleware.CurrentUser(c)
	if err := s.settle.Update(c.Request.Context(), user, changes); err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/settle")
}

// queryFilter parses the settle query parameters. Every parameter may be
// repeated; all restrictions combine conjunctively.
func (s *Server) queryFilter(c *gin.Context) (*storage.SettleFilter, bool) {
	filter := &storage.SettleFilter{}

	ids, ok := s.queryIDs(c, "trip")
	if !ok {
		return nil, false
	}
	filter.TripIDs = ids

	if filter.With, ok = s.queryIDs(c, "with"); !ok {
		return nil, false
	}

	for param, dst := range map[string]*[]time.Time{
		"after":  &filter.After,
		"since":  &filter.Since,
		"before": &filter.Before,
		"until":  &filter.Until,
	} {
		for _, v := range c.QueryArray(param) {
			d, err := models.ParseDate(v)
			if err != nil {
				s.htmlError(c, http.StatusBadRequest, "Invalid "+param+" date.")
				return nil, false
			}
			*dst = append(*dst, d)
		}
	}

	if v, exists := c.GetQuery("settled"); exists {
		settled, err := strconv.ParseBool(v)
		if err != nil {
			s.htmlError(c, http.StatusBadRequest, "Invalid settled value.")
			return nil, false
		}
		filter.Settled = &settled
	}

	return filter, true
}

func (s *Server) queryIDs(c *gin.Context, param string) ([]int64, bool) {
	var ids []int64
	for _, v := range c.QueryArray(param) {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.htmlError(c, http.StatusBadRequest, "Invalid "+param+" id.")
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}
