package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noodlz/noodlz/internal/middleware"
	"github.com/noodlz/noodlz/internal/models"
	"github.com/noodlz/noodlz/internal/storage"
	"github.com/noodlz/noodlz/internal/version"
)

// dateShow lists the trips of one calendar date. Trips only happen on
// Mondays; other days get their own page saying so.
func (s *Server) dateShow(c *gin.Context) {
	date, ok := s.paramDate(c)
	if !ok {
		return
	}
	if date.Weekday() != time.Monday {
		c.HTML(http.StatusOK, "notmonday.html", gin.H{
			"Date":    date.Format(models.DateFormat),
			"Version": version.Version,
		})
		return
	}

	user := middleware.CurrentUser(c)
	day, err := s.trips.GetDay(c.Request.Context(), user, date)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "date.html", gin.H{
		"User":         user,
		"Date":         date.Format(models.DateFormat),
		"Trips":        day.Trips,
		"Destinations": day.Destinations,
		"Msg":          c.Query("msg"),
		"MsgSeverity":  c.Query("msg_severity"),
		"Version":      version.Version,
	})
}

// dateSubmitTrip registers a trip for the current user. A duplicate
// (user, date, destination) is not fatal: the user is sent back to the date
// page with an inline message.
func (s *Server) dateSubmitTrip(c *gin.Context) {
	date, ok := s.paramDate(c)
	if !ok {
		return
	}

	destinationID, err := strconv.ParseInt(c.PostForm("destination"), 10, 64)
	if err != nil {
		s.htmlError(c, http.StatusBadRequest, "Invalid destination.")
		return
	}

	user := middleware.CurrentUser(c)
	_, err = s.trips.Create(c.Request.Context(), user, date, destinationID)
	if errors.Is(err, storage.ErrDuplicateTrip) {
		s.redirectToDate(c, date, "You've already added a trip to that destination!", "error")
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	s.redirectToDate(c, date, "", "")
}

func (s *Server) paramDate(c *gin.Context) (time.Time, bool) {
	date, err := models.ParseDate(c.Param("date"))
	if err != nil {
		s.htmlError(c, http.StatusBadRequest, "That's not a date.")
		return time.Time{}, false
	}
	return date, true
}

func (s *Server) redirectToDate(c *gin.Context, date time.Time, msg, severity string) {
	target := "/" + date.Format(models.DateFormat) + "/"
	if msg != "" {
		q := url.Values{}
		q.Set("msg", msg)
		q.Set("msg_severity", severity)
		target += "?" + q.Encode()
	}
	c.Redirect(http.StatusFound, target)
}
