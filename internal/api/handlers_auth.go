package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noodlz/noodlz/internal/auth"
	"github.com/noodlz/noodlz/internal/models"
	"github.com/noodlz/noodlz/internal/version"
)

// todayPath is where requests land when no better target is known.
func todayPath() string {
	return "/" + time.Now().Format(models.DateFormat) + "/"
}

// index redirects to the current date's view.
func (s *Server) index(c *gin.Context) {
	c.Redirect(http.StatusFound, todayPath())
}

// terms renders the static terms page.
func (s *Server) terms(c *gin.Context) {
	c.HTML(http.StatusOK, "terms.html", gin.H{"Version": version.Version})
}

// login establishes a session from the login form. The username must match
// the configured pattern before the database is consulted at all.
func (s *Server) login(c *gin.Context) {
	name := c.PostForm("user")
	if !s.cfg.UserPattern.MatchString(name) {
		s.htmlError(c, http.StatusBadRequest, "Invalid username.")
		return
	}

	user, err := s.authn.Authenticate(c.Request.Context(), name, c.PostForm("pass"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.htmlError(c, http.StatusForbidden, "Invalid username or password.")
			return
		}
		s.fail(c, err)
		return
	}

	token, err := s.sessions.Issue(user)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.SetCookie(auth.SessionCookie, token,
		int(s.sessions.TTL().Seconds()), "/", "", s.cfg.IsProd, true)

	c.Redirect(http.StatusFound, safeRedirect(c.Query("redirect"), todayPath()))
}

// logout clears the session cookie.
func (s *Server) logout(c *gin.Context) {
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", s.cfg.IsProd, true)
	c.Redirect(http.StatusFound, safeRedirect(c.Query("redirect"), todayPath()))
}
