package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noodlz/noodlz/internal/auth"
	"github.com/noodlz/noodlz/internal/config"
	"github.com/noodlz/noodlz/internal/models"
	"github.com/noodlz/noodlz/internal/storage/sqlite"
)

type testServer struct {
	router *gin.Engine
	store  *sqlite.SQLiteStore

	alice, bob *models.User
	cakehole   *models.Destination
	cheesecake *models.Item
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tempDir, err := os.MkdirTemp("", "noodlz-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
		UserPattern:   regexp.MustCompile(config.DefaultUserPattern),
		MaxOrderCount: config.DefaultMaxOrderCount,
	}

	ts := &testServer{
		router: New(cfg, store).Router(),
		store:  store,
	}

	ctx := context.Background()
	hash, err := auth.HashPassword("password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	ts.alice = &models.User{Name: "Alice", PassHash: hash}
	ts.bob = &models.User{Name: "Bob", PassHash: hash}
	for _, u := range []*models.User{ts.alice, ts.bob} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	ts.cakehole = &models.Destination{Name: "Cakehole"}
	if err := store.CreateDestination(ctx, ts.cakehole); err != nil {
		t.Fatalf("CreateDestination failed: %v", err)
	}
	ts.cheesecake = &models.Item{Name: "Cheesecake", Tag: "CC", Price: 250, DestinationID: ts.cakehole.ID}
	if err := store.CreateItem(ctx, ts.cheesecake); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	return ts
}

// login posts the login form and returns the session cookie.
func (ts *testServer) login(t *testing.T, name, password string) *http.Cookie {
	t.Helper()
	w := ts.postForm(t, "/login/", url.Values{
		"user": {name},
		"pass": {password},
	})
	if w.Code != http.StatusFound {
		t.Fatalf("login = %d, want 302", w.Code)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatal("login response carries no session cookie")
	return nil
}

func (ts *testServer) get(t *testing.T, cookie *http.Cookie, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) postFormAs(t *testing.T, cookie *http.Cookie, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	t.Run("Valid credentials set a session cookie", func(t *testing.T) {
		cookie := ts.login(t, "Alice", "password")
		if cookie.Value == "" {
			t.Error("empty session cookie")
		}
	})

	t.Run("Wrong password", func(t *testing.T) {
		w := ts.postForm(t, "/login/", url.Values{
			"user": {"Alice"},
			"pass": {"nope"},
		})
		if w.Code != http.StatusForbidden {
			t.Errorf("login = %d, want 403", w.Code)
		}
	})

	t.Run("Username failing the pattern never reaches the database", func(t *testing.T) {
		w := ts.postForm(t, "/login/", url.Values{
			"user": {"not a valid name!"},
			"pass": {"password"},
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("login = %d, want 400", w.Code)
		}
	})

	t.Run("Redirect target must stay on-site", func(t *testing.T) {
		w := ts.postForm(t, "/login/?redirect=https://evil.example/", url.Values{
			"user": {"Alice"},
			"pass": {"password"},
		})
		if w.Code != http.StatusFound {
			t.Fatalf("login = %d, want 302", w.Code)
		}
		loc := w.Header().Get("Location")
		if strings.Contains(loc, "evil.example") {
			t.Errorf("redirect leaves the site: %q", loc)
		}
	})

	t.Run("Unauthenticated page view renders the login form", func(t *testing.T) {
		w := ts.get(t, nil, "/1970-01-05/")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		body := w.Body.String()
		if !strings.Contains(body, "/login/?redirect=") {
			t.Errorf("login form does not preserve the redirect target:\n%s", body)
		}
	})
}

func TestDatePage(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t, "Alice", "password")

	t.Run("Non-Monday", func(t *testing.T) {
		w := ts.get(t, cookie, "/1970-01-06/")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Monday") {
			t.Error("expected the not-a-Monday page")
		}
	})

	t.Run("Garbage date", func(t *testing.T) {
		w := ts.get(t, cookie, "/yesterday/")
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("Registering a trip twice shows an inline message", func(t *testing.T) {
		form := url.Values{"destination": {strconv.FormatInt(ts.cakehole.ID, 10)}}
		w := ts.postFormAs(t, cookie, "/1970-01-05/", form)
		if w.Code != http.StatusFound {
			t.Fatalf("first registration = %d, want 302", w.Code)
		}

		w = ts.postFormAs(t, cookie, "/1970-01-05/", form)
		if w.Code != http.StatusFound {
			t.Fatalf("second registration = %d, want 302", w.Code)
		}
		loc := w.Header().Get("Location")
		if !strings.Contains(loc, "msg=") || !strings.Contains(loc, "msg_severity=error") {
			t.Errorf("duplicate redirect lacks the inline message: %q", loc)
		}
	})

	t.Run("The trip shows up on the date page", func(t *testing.T) {
		w := ts.get(t, cookie, "/1970-01-05/")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		body := w.Body.String()
		if !strings.Contains(body, "Cakehole") {
			t.Error("trip destination missing from the date page")
		}
		if !strings.Contains(body, "item-"+strconv.FormatInt(ts.cheesecake.ID, 10)) {
			t.Error("order form missing the item quantity field")
		}
	})
}

func TestOrderFlow(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.login(t, "Alice", "password")
	bob := ts.login(t, "Bob", "password")

	// Alice registers the trip.
	w := ts.postFormAs(t, alice, "/1970-01-05/", url.Values{
		"destination": {strconv.FormatInt(ts.cakehole.ID, 10)},
	})
	if w.Code != http.StatusFound {
		t.Fatalf("trip registration = %d, want 302", w.Code)
	}
	trips, err := ts.store.ListTripsByDate(context.Background(),
		time.Date(1970, 1, 5, 0, 0, 0, 0, time.UTC))
	if err != nil || len(trips) != 1 {
		t.Fatalf("trips = %v, %v; want one trip", trips, err)
	}
	tripPath := "/trip/" + strconv.FormatInt(trips[0].ID, 10)
	itemField := "item-" + strconv.FormatInt(ts.cheesecake.ID, 10)

	t.Run("Bob orders two cheesecakes", func(t *testing.T) {
		w := ts.postFormAs(t, bob, tripPath+"/order", url.Values{itemField: {"2"}})
		if w.Code != http.StatusFound {
			t.Fatalf("order = %d, want 302: %s", w.Code, w.Body.String())
		}
		orders, err := ts.store.ListOrdersForTrip(context.Background(), trips[0].ID)
		if err != nil {
			t.Fatalf("ListOrdersForTrip failed: %v", err)
		}
		if len(orders) != 2 {
			t.Errorf("orders = %d, want 2", len(orders))
		}
	})

	t.Run("Quantity above the maximum is rejected", func(t *testing.T) {
		w := ts.postFormAs(t, bob, tripPath+"/order", url.Values{itemField: {"17"}})
		if w.Code != http.StatusBadRequest {
			t.Errorf("order = %d, want 400", w.Code)
		}
	})

	t.Run("Negative quantity is rejected", func(t *testing.T) {
		w := ts.postFormAs(t, bob, tripPath+"/order", url.Values{itemField: {"-1"}})
		if w.Code != http.StatusBadRequest {
			t.Errorf("order = %d, want 400", w.Code)
		}
	})

	t.Run("Only the owner sees the bill", func(t *testing.T) {
		if w := ts.get(t, bob, tripPath); w.Code != http.StatusForbidden {
			t.Errorf("bill as Bob = %d, want 403", w.Code)
		}
		w := ts.get(t, alice, tripPath)
		if w.Code != http.StatusOK {
			t.Fatalf("bill as Alice = %d, want 200", w.Code)
		}
		if !strings.Contains(w.Body.String(), "5.00") {
			t.Error("bill total missing")
		}
	})

	t.Run("Close rejects further orders", func(t *testing.T) {
		if w := ts.postFormAs(t, bob, tripPath+"/close", nil); w.Code != http.StatusForbidden {
			t.Errorf("close as Bob = %d, want 403", w.Code)
		}
		if w := ts.postFormAs(t, alice, tripPath+"/close", nil); w.Code != http.StatusFound {
			t.Errorf("close as Alice = %d, want 302", w.Code)
		}
		if w := ts.postFormAs(t, bob, tripPath+"/order", url.Values{itemField: {"1"}}); w.Code != http.StatusBadRequest {
			t.Errorf("order after close = %d, want 400", w.Code)
		}
	})

	t.Run("Settlement shows what Bob owes", func(t *testing.T) {
		w := ts.get(t, bob, "/settle")
		if w.Code != http.StatusOK {
			t.Fatalf("settle = %d, want 200", w.Code)
		}
		body := w.Body.String()
		if !strings.Contains(body, "Alice") || !strings.Contains(body, "5.00") {
			t.Errorf("settle page missing the debt to Alice:\n%s", body)
		}
	})

	t.Run("Alice settles one order", func(t *testing.T) {
		orders, err := ts.store.ListOrdersForTrip(context.Background(), trips[0].ID)
		if err != nil || len(orders) != 2 {
			t.Fatalf("orders = %v, %v; want 2", orders, err)
		}
		id := strconv.FormatInt(orders[0].ID, 10)

		w := ts.postFormAs(t, alice, "/settle", url.Values{
			"old-" + id:   {"false"},
			"order-" + id: {"on"},
		})
		if w.Code != http.StatusFound {
			t.Fatalf("settle update = %d, want 302: %s", w.Code, w.Body.String())
		}

		got, err := ts.store.GetOrdersByIDs(context.Background(), []int64{orders[0].ID})
		if err != nil || len(got) != 1 {
			t.Fatalf("GetOrdersByIDs = %v, %v", got, err)
		}
		if !got[0].Settled {
			t.Error("order not settled after update")
		}
	})

	t.Run("Bob may not settle Alice's incoming orders", func(t *testing.T) {
		orders, err := ts.store.ListOrdersForTrip(context.Background(), trips[0].ID)
		if err != nil || len(orders) != 2 {
			t.Fatalf("orders = %v, %v; want 2", orders, err)
		}
		id := strconv.FormatInt(orders[1].ID, 10)

		w := ts.postFormAs(t, bob, "/settle", url.Values{
			"old-" + id:   {"false"},
			"order-" + id: {"on"},
		})
		if w.Code != http.StatusForbidden {
			t.Errorf("settle update as debtor = %d, want 403", w.Code)
		}
	})
}

func TestSettleFilters(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.login(t, "Alice", "password")
	bob := ts.login(t, "Bob", "password")

	w := ts.postFormAs(t, alice, "/1970-01-05/", url.Values{
		"destination": {strconv.FormatInt(ts.cakehole.ID, 10)},
	})
	if w.Code != http.StatusFound {
		t.Fatalf("trip registration = %d, want 302", w.Code)
	}
	trips, err := ts.store.ListTripsByDate(context.Background(),
		time.Date(1970, 1, 5, 0, 0, 0, 0, time.UTC))
	if err != nil || len(trips) != 1 {
		t.Fatalf("trips = %v, %v; want one trip", trips, err)
	}
	itemField := "item-" + strconv.FormatInt(ts.cheesecake.ID, 10)
	w = ts.postFormAs(t, bob, "/trip/"+strconv.FormatInt(trips[0].ID, 10)+"/order",
		url.Values{itemField: {"1"}})
	if w.Code != http.StatusFound {
		t.Fatalf("order = %d, want 302", w.Code)
	}

	t.Run("Date filter excludes the trip", func(t *testing.T) {
		w := ts.get(t, bob, "/settle?after=1970-01-05")
		if w.Code != http.StatusOK {
			t.Fatalf("settle = %d, want 200", w.Code)
		}
		if strings.Contains(w.Body.String(), "2.50") {
			t.Error("filtered view still shows the excluded order")
		}
	})

	t.Run("Date filter includes the trip", func(t *testing.T) {
		w := ts.get(t, bob, "/settle?since=1970-01-05")
		if w.Code != http.StatusOK {
			t.Fatalf("settle = %d, want 200", w.Code)
		}
		if !strings.Contains(w.Body.String(), "2.50") {
			t.Error("order missing from the included window")
		}
	})

	t.Run("Malformed filter", func(t *testing.T) {
		w := ts.get(t, bob, "/settle?after=tomorrow")
		if w.Code != http.StatusBadRequest {
			t.Errorf("settle = %d, want 400", w.Code)
		}
	})
}
