package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noodlz/noodlz/internal/middleware"
	"github.com/noodlz/noodlz/internal/version"
)

// itemFieldPrefix marks the order form fields carrying per-item quantities.
const itemFieldPrefix = "item-"

// tripSubmitOrder applies an order form: every "item-<id>" field is
// reconciled to its submitted quantity, fields left out stay untouched.
func (s *Server) tripSubmitOrder(c *gin.Context) {
	tripID, ok := s.paramID(c)
	if !ok {
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		s.htmlError(c, http.StatusBadRequest, "Malformed form.")
		return
	}

	counts := make(map[int64]int)
	for field, values := range c.Request.PostForm {
		if !strings.HasPrefix(field, itemFieldPrefix) || len(values) == 0 {
			continue
		}
		itemID, err := strconv.ParseInt(strings.TrimPrefix(field, itemFieldPrefix), 10, 64)
		if err != nil {
			s.htmlError(c, http.StatusBadRequest, "Malformed item field.")
			return
		}
		count, err := strconv.Atoi(values[0])
		if err != nil {
			s.htmlError(c, http.StatusBadRequest, "That's not a quantity.")
			return
		}
		counts[itemID] = count
	}

	user := middleware.CurrentUser(c)
	trip, err := s.trips.Get(c.Request.Context(), tripID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.orders.Submit(c.Request.Context(), user, trip.ID, counts); err != nil {
		s.fail(c, err)
		return
	}

	s.redirectToDate(c, trip.Date, "Order accepted!", "success")
}

// tripClose closes a trip to further orders. Owner only.
func (s *Server) tripClose(c *gin.Context) {
	tripID, ok := s.paramID(c)
	if !ok {
		return
	}

	user := middleware.CurrentUser(c)
	if err := s.trips.Close(c.Request.Context(), user, tripID); err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/trip/"+strconv.FormatInt(tripID, 10))
}

// tripShowOrders renders the itemized bill of a trip. Owner only. The
// ?users query toggles disclosure of who ordered what.
func (s *Server) tripShowOrders(c *gin.Context) {
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

	_, showUsers := c.GetQuery("users")
	c.HTML(http.StatusOK, "orders.html", gin.H{
		"User":      user,
		"Trip":      bill.Trip,
		"Groups":    bill.Groups,
		"Total":     bill.Total,
		"ShowUsers": showUsers,
		"Version":   version.Version,
	})
}

func (s *Server) paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.htmlError(c, http.StatusBadRequest, "That's not a trip.")
		return 0, false
	}
	return id, true
}
