// Package middleware provides the gin middleware shared by all routes.
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noodlz/noodlz/internal/auth"
	"github.com/noodlz/noodlz/internal/models"
	"github.com/noodlz/noodlz/internal/storage"
	"github.com/noodlz/noodlz/internal/version"
)

// userKey is the gin context key holding the authenticated *models.User.
const userKey = "noodlz.user"

// CurrentUser returns the authenticated user set by RequireUser.
// Returns nil on routes that do not run RequireUser.
func CurrentUser(c *gin.Context) *models.User {
	user, _ := c.Get(userKey)
	u, _ := user.(*models.User)
	return u
}

// RequireUser validates the session cookie and loads the account into the
// request context. Requests without a valid session get the login page in
// place, preserving the requested URL as the post-login redirect target.
// A session referencing a deleted account is an integrity error.
func RequireUser(sessions *auth.SessionManager, users auth.UserStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(auth.SessionCookie)
		if err != nil || token == "" {
			renderLogin(c)
			return
		}

		userID, err := sessions.Validate(token)
		if err != nil {
			renderLogin(c)
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.HTML(http.StatusInternalServerError, "error.html", gin.H{
					"Status":  http.StatusInternalServerError,
					"Message": "Your account doesn't exist anymore.",
					"Version": version.Version,
				})
			} else {
				c.HTML(http.StatusInternalServerError, "error.html", gin.H{
					"Status":  http.StatusInternalServerError,
					"Message": "Something went wrong.",
					"Version": version.Version,
				})
			}
			c.Abort()
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func renderLogin(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"Redirect": fullPath(c),
		"Version":  version.Version,
	})
	c.Abort()
}

// fullPath reconstructs the requested path including the query string so the
// login form can send the user back where they were headed.
func fullPath(c *gin.Context) string {
	fp := c.Request.URL.Path
	if q := c.Request.URL.RawQuery; q != "" {
		fp += "?" + q
	}
	return fp
}
