package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/noodlz/noodlz/internal/models"
	"github.com/noodlz/noodlz/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "noodlz-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustUser(t *testing.T, store *SQLiteStore, name string) *models.User {
	t.Helper()
	user := &models.User{Name: name, PassHash: "x"}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", name, err)
	}
	return user
}

func mustDestination(t *testing.T, store *SQLiteStore, name string) *models.Destination {
	t.Helper()
	dest := &models.Destination{Name: name}
	if err := store.CreateDestination(context.Background(), dest); err != nil {
		t.Fatalf("CreateDestination(%s) failed: %v", name, err)
	}
	return dest
}

func mustItem(t *testing.T, store *SQLiteStore, destID int64, name string, price models.Cents) *models.Item {
	t.Helper()
	item := &models.Item{Name: name, Price: price, DestinationID: destID}
	if err := store.CreateItem(context.Background(), item); err != nil {
		t.Fatalf("CreateItem(%s) failed: %v", name, err)
	}
	return item
}

func mustTrip(t *testing.T, store *SQLiteStore, date time.Time, destID, userID int64) *models.Trip {
	t.Helper()
	trip := &models.Trip{Date: date, DestinationID: destID, UserID: userID}
	if err := store.CreateTrip(context.Background(), trip); err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	return trip
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateUser assigns ID and round-trips", func(t *testing.T) {
		alice := mustUser(t, store, "Alice")
		if alice.ID == 0 {
			t.Error("Expected user ID to be assigned")
		}

		got, err := store.GetUserByName(ctx, "Alice")
		if err != nil {
			t.Fatalf("GetUserByName failed: %v", err)
		}
		if got.ID != alice.ID || got.PassHash != "x" {
			t.Errorf("GetUserByName = %+v, want id=%d hash=x", got, alice.ID)
		}
	})

	t.Run("CreateUser rejects duplicate names", func(t *testing.T) {
		err := store.CreateUser(ctx, &models.User{Name: "Alice", PassHash: "y"})
		if !errors.Is(err, storage.ErrDuplicateName) {
			t.Errorf("CreateUser duplicate = %v, want ErrDuplicateName", err)
		}
	})

	t.Run("GetUserByID unknown returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetUserByID(ctx, 9999)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetUserByID(9999) = %v, want ErrNotFound", err)
		}
	})

	t.Run("Destinations round-trip and reject duplicates", func(t *testing.T) {
		dest := mustDestination(t, store, "Cakehole")

		all, err := store.ListDestinations(ctx)
		if err != nil {
			t.Fatalf("ListDestinations failed: %v", err)
		}
		if len(all) != 1 || all[0].ID != dest.ID {
			t.Errorf("ListDestinations = %+v, want single %d", all, dest.ID)
		}

		err = store.CreateDestination(ctx, &models.Destination{Name: "Cakehole"})
		if !errors.Is(err, storage.ErrDuplicateName) {
			t.Errorf("duplicate destination = %v, want ErrDuplicateName", err)
		}
	})
}

func TestSQLiteStoreItems(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dest := mustDestination(t, store, "Jen and Berries")
	cookieDough := mustItem(t, store, dest.ID, "Cookie Dough", 120)

	t.Run("UpdateItemNameTag edits in place", func(t *testing.T) {
		if err := store.UpdateItemNameTag(ctx, cookieDough.ID, "Cookie Dough", "CD"); err != nil {
			t.Fatalf("UpdateItemNameTag failed: %v", err)
		}
		got, err := store.GetItem(ctx, cookieDough.ID)
		if err != nil {
			t.Fatalf("GetItem failed: %v", err)
		}
		if got.Tag != "CD" {
			t.Errorf("tag = %q, want CD", got.Tag)
		}
	})

	t.Run("SetItemHistorical hides the item from menus", func(t *testing.T) {
		if err := store.SetItemHistorical(ctx, cookieDough.ID, true); err != nil {
			t.Fatalf("SetItemHistorical failed: %v", err)
		}
		orderable, err := store.ListOrderableItems(ctx, dest.ID)
		if err != nil {
			t.Fatalf("ListOrderableItems failed: %v", err)
		}
		if len(orderable) != 0 {
			t.Errorf("orderable items = %+v, want none", orderable)
		}
		if err := store.SetItemHistorical(ctx, cookieDough.ID, false); err != nil {
			t.Fatalf("SetItemHistorical failed: %v", err)
		}
	})

	t.Run("RepriceItem retires the old row and clones it", func(t *testing.T) {
		clone, err := store.RepriceItem(ctx, cookieDough, 150)
		if err != nil {
			t.Fatalf("RepriceItem failed: %v", err)
		}
		if clone.ID == cookieDough.ID {
			t.Error("Expected the clone to get a fresh ID")
		}
		if clone.Price != 150 || clone.Name != "Cookie Dough" || clone.Tag != "CD" {
			t.Errorf("clone = %+v, want Cookie Dough/CD at 150", clone)
		}

		old, err := store.GetItem(ctx, cookieDough.ID)
		if err != nil {
			t.Fatalf("GetItem failed: %v", err)
		}
		if !old.Historical || old.Price != 120 {
			t.Errorf("old item = %+v, want historical at original price", old)
		}

		orderable, err := store.ListOrderableItems(ctx, dest.ID)
		if err != nil {
			t.Fatalf("ListOrderableItems failed: %v", err)
		}
		if len(orderable) != 1 || orderable[0].ID != clone.ID {
			t.Errorf("orderable items = %+v, want only the clone", orderable)
		}
	})
}

func TestSQLiteStoreTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustUser(t, store, "Alice")
	bob := mustUser(t, store, "Bob")
	dest := mustDestination(t, store, "Cakehole")
	monday := time.Date(1970, 1, 5, 0, 0, 0, 0, time.UTC)

	trip := mustTrip(t, store, monday, dest.ID, alice.ID)

	t.Run("GetTrip joins destination and owner", func(t *testing.T) {
		got, err := store.GetTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("GetTrip failed: %v", err)
		}
		if got.Destination.Name != "Cakehole" || got.User.Name != "Alice" {
			t.Errorf("trip = %+v, want Cakehole/Alice", got)
		}
		if !got.Date.Equal(monday) {
			t.Errorf("date = %v, want %v", got.Date, monday)
		}
	})

	t.Run("CreateTrip rejects same user, date and destination", func(t *testing.T) {
		err := store.CreateTrip(ctx, &models.Trip{Date: monday, DestinationID: dest.ID, UserID: alice.ID})
		if !errors.Is(err, storage.ErrDuplicateTrip) {
			t.Errorf("duplicate trip = %v, want ErrDuplicateTrip", err)
		}
	})

	t.Run("Another user may register the same trip", func(t *testing.T) {
		other := &models.Trip{Date: monday, DestinationID: dest.ID, UserID: bob.ID}
		if err := store.CreateTrip(ctx, other); err != nil {
			t.Fatalf("CreateTrip failed: %v", err)
		}

		trips, err := store.ListTripsByDate(ctx, monday)
		if err != nil {
			t.Fatalf("ListTripsByDate failed: %v", err)
		}
		if len(trips) != 2 {
			t.Errorf("trips on %v = %d, want 2", monday, len(trips))
		}
	})

	t.Run("CloseTrip flips the flag", func(t *testing.T) {
		if err := store.CloseTrip(ctx, trip.ID); err != nil {
			t.Fatalf("CloseTrip failed: %v", err)
		}
		got, err := store.GetTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("GetTrip failed: %v", err)
		}
		if !got.Closed {
			t.Error("Expected trip to be closed")
		}
	})
}

func TestReconcileOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustUser(t, store, "Alice")
	bob := mustUser(t, store, "Bob")
	dest := mustDestination(t, store, "Cakehole")
	cheesecake := mustItem(t, store, dest.ID, "Cheesecake", 250)
	pie := mustItem(t, store, dest.ID, "Pie", 314)
	monday := time.Date(1970, 1, 5, 0, 0, 0, 0, time.UTC)
	trip := mustTrip(t, store, monday, dest.ID, alice.ID)

	countFor := func(t *testing.T, userID, itemID int64) int {
		t.Helper()
		orders, err := store.ListOrdersForTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("ListOrdersForTrip failed: %v", err)
		}
		n := 0
		for _, o := range orders {
			if o.UserID == userID && o.ItemID == itemID {
				n++
			}
		}
		return n
	}

	t.Run("Grows to the requested count", func(t *testing.T) {
		err := store.ReconcileOrders(ctx, trip.ID, bob.ID, []storage.ItemCount{
			{Item: cheesecake, Count: 3},
			{Item: pie, Count: 1},
		})
		if err != nil {
			t.Fatalf("ReconcileOrders failed: %v", err)
		}
		if got := countFor(t, bob.ID, cheesecake.ID); got != 3 {
			t.Errorf("cheesecake rows = %d, want 3", got)
		}
		if got := countFor(t, bob.ID, pie.ID); got != 1 {
			t.Errorf("pie rows = %d, want 1", got)
		}
	})

	t.Run("Shrinks by deleting excess rows", func(t *testing.T) {
		err := store.ReconcileOrders(ctx, trip.ID, bob.ID, []storage.ItemCount{
			{Item: cheesecake, Count: 1},
		})
		if err != nil {
			t.Fatalf("ReconcileOrders failed: %v", err)
		}
		if got := countFor(t, bob.ID, cheesecake.ID); got != 1 {
			t.Errorf("cheesecake rows = %d, want 1", got)
		}
		// Untouched targets stay as they are.
		if got := countFor(t, bob.ID, pie.ID); got != 1 {
			t.Errorf("pie rows = %d, want 1", got)
		}
	})

	t.Run("Matching count is a no-op", func(t *testing.T) {
		orders, err := store.ListOrdersForTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("ListOrdersForTrip failed: %v", err)
		}
		before := make([]int64, 0, len(orders))
		for _, o := range orders {
			before = append(before, o.ID)
		}

		err = store.ReconcileOrders(ctx, trip.ID, bob.ID, []storage.ItemCount{
			{Item: cheesecake, Count: 1},
			{Item: pie, Count: 1},
		})
		if err != nil {
			t.Fatalf("ReconcileOrders failed: %v", err)
		}

		orders, err = store.ListOrdersForTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("ListOrdersForTrip failed: %v", err)
		}
		after := make([]int64, 0, len(orders))
		for _, o := range orders {
			after = append(after, o.ID)
		}
		if len(before) != len(after) {
			t.Fatalf("order count changed: %d -> %d", len(before), len(after))
		}
		for i := range before {
			if before[i] != after[i] {
				t.Errorf("order row %d replaced: %d -> %d", i, before[i], after[i])
			}
		}
	})

	t.Run("Zero removes all rows for the item", func(t *testing.T) {
		err := store.ReconcileOrders(ctx, trip.ID, bob.ID, []storage.ItemCount{
			{Item: pie, Count: 0},
		})
		if err != nil {
			t.Fatalf("ReconcileOrders failed: %v", err)
		}
		if got := countFor(t, bob.ID, pie.ID); got != 0 {
			t.Errorf("pie rows = %d, want 0", got)
		}
	})

	t.Run("Settled default applies to new rows only", func(t *testing.T) {
		err := store.ReconcileOrders(ctx, trip.ID, bob.ID, []storage.ItemCount{
			{Item: pie, Count: 2, Settled: true},
		})
		if err != nil {
			t.Fatalf("ReconcileOrders failed: %v", err)
		}

		// Growing from 2 to 3 with a different default must not flip
		// the two existing rows.
		if err := store.SetOrdersSettled(ctx, settledMap(t, store, trip.ID, bob.ID, pie.ID, false)); err != nil {
			t.Fatalf("SetOrdersSettled failed: %v", err)
		}
		err = store.ReconcileOrders(ctx, trip.ID, bob.ID, []storage.ItemCount{
			{Item: pie, Count: 3, Settled: true},
		})
		if err != nil {
			t.Fatalf("ReconcileOrders failed: %v", err)
		}

		orders, err := store.ListOrdersForTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("ListOrdersForTrip failed: %v", err)
		}
		settled, unsettled := 0, 0
		for _, o := range orders {
			if o.UserID != bob.ID || o.ItemID != pie.ID {
				continue
			}
			if o.Settled {
				settled++
			} else {
				unsettled++
			}
		}
		if unsettled != 2 || settled != 1 {
			t.Errorf("pie rows settled/unsettled = %d/%d, want 1/2", settled, unsettled)
		}
	})
}

// settledMap builds a SetOrdersSettled argument flipping every row of
// (trip, user, item) to the given state.
func settledMap(t *testing.T, store *SQLiteStore, tripID, userID, itemID int64, settled bool) map[int64]bool {
	t.Helper()
	orders, err := store.ListOrdersForTrip(context.Background(), tripID)
	if err != nil {
		t.Fatalf("ListOrdersForTrip failed: %v", err)
	}
	m := make(map[int64]bool)
	for _, o := range orders {
		if o.UserID == userID && o.ItemID == itemID {
			m[o.ID] = settled
		}
	}
	return m
}
