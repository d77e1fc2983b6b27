// Package api wires the HTTP surface of noodlz: gin routes, form handling
// and the server-rendered HTML views.
package api

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noodlz/noodlz/internal/auth"
	"github.com/noodlz/noodlz/internal/config"
	"github.com/noodlz/noodlz/internal/metrics"
	"github.com/noodlz/noodlz/internal/middleware"
	"github.com/noodlz/noodlz/internal/service"
	"github.com/noodlz/noodlz/internal/storage"
	"github.com/noodlz/noodlz/internal/version"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server holds the handler dependencies.
type Server struct {
	cfg      *config.Config
	store    storage.Store
	sessions *auth.SessionManager
	authn    *auth.PasswordAuthenticator
	trips    *service.TripService
	orders   *service.OrderService
	settle   *service.SettleService
}

// New creates a Server on top of the given store and configuration.
func New(cfg *config.Config, store storage.Store) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		sessions: auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL),
		authn:    auth.NewPasswordAuthenticator(store),
		trips:    service.NewTripService(store),
		orders:   service.NewOrderService(store, cfg.MaxOrderCount),
		settle:   service.NewSettleService(store),
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	if s.cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Register()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logging())
	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	r.GET("/", s.index)
	r.GET("/favicon.ico", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/terms/", s.terms)
	r.POST("/login/", s.login)
	r.GET("/logout/", s.logout)
	r.POST("/logout/", s.logout)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := r.Group("", middleware.RequireUser(s.sessions, s.store))
	authed.GET("/:date/", s.dateShow)
	authed.POST("/:date/", s.dateSubmitTrip)
	authed.POST("/trip/:id/order", s.tripSubmitOrder)
	authed.POST("/trip/:id/close", s.tripClose)
	authed.GET("/trip/:id", s.tripShowOrders)
	authed.GET("/trip/:id/settle", s.tripShowSettle)
	authed.POST("/trip/:id/settle", s.tripUpdateSettle)
	authed.GET("/settle", s.settleShow)
	authed.POST("/settle", s.settleUpdate)

	return r
}

// htmlError renders the error page with the given status and message.
func (s *Server) htmlError(c *gin.Context, status int, msg string) {
	c.HTML(status, "error.html", gin.H{
		"Status":  status,
		"Message": msg,
		"Version": version.Version,
	})
	c.Abort()
}

// fail maps domain errors onto the HTTP error taxonomy: validation 400,
// authorization 403, unknown resource 404, anything else 500.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTripClosed),
		errors.Is(err, service.ErrNegativeCount),
		errors.Is(err, service.ErrTooManyItems),
		errors.Is(err, service.ErrHistoricalItem):
		s.htmlError(c, http.StatusBadRequest, userMessage(err))
	case errors.Is(err, service.ErrNotOwner):
		s.htmlError(c, http.StatusForbidden, userMessage(err))
	case errors.Is(err, storage.ErrNotFound):
		s.htmlError(c, http.StatusNotFound, "No such thing.")
	default:
		s.htmlError(c, http.StatusInternalServerError, "Something went wrong.")
	}
}

// userMessage picks the end-user wording for the known rejections.
func userMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrTripClosed):
		return "This trip is already closed."
	case errors.Is(err, service.ErrNegativeCount):
		return "You can't order a negative number of items. What does that even mean?"
	case errors.Is(err, service.ErrTooManyItems):
		return "You can't order that many items. You can thank the person that ordered 65535 drinks once."
	case errors.Is(err, service.ErrHistoricalItem):
		return "That item is no longer available."
	case errors.Is(err, service.ErrNotOwner):
		return "That's not your trip."
	default:
		return "Something went wrong."
	}
}

// safeRedirect keeps post-login redirects on-site: relative paths only.
func safeRedirect(target, fallback string) string {
	if len(target) > 0 && target[0] == '/' && (len(target) == 1 || target[1] != '/') {
		return target
	}
	return fallback
}
