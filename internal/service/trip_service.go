package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/noodlz/noodlz/internal/billing"
	"github.com/noodlz/noodlz/internal/metrics"
	"github.com/noodlz/noodlz/internal/models"
	"github.com/noodlz/noodlz/internal/storage"
)

// TripService handles trip registration, the day view and the itemized bill.
type TripService struct {
	store storage.Store
}

// NewTripService creates a TripService with the given storage backend.
func NewTripService(store storage.Store) *TripService {
	return &TripService{store: store}
}

// MenuLine is one orderable item of a trip's destination together with the
// viewing user's current quantity, prefilled into the order form.
type MenuLine struct {
	Item  models.Item
	Count int
}

// TripView is one trip of the day page plus its order form contents.
type TripView struct {
	Trip models.Trip
	Menu []MenuLine
}

// Day is everything the date page shows: the trips of the day with their
// order forms, and the destinations offered for registering a new trip.
type Day struct {
	Date         time.Time
	Trips        []TripView
	Destinations []models.Destination
}

// GetDay loads the day view for a date from the given user's perspective:
// each open trip carries its destination's menu with the user's current
// quantities filled in.
func (s *TripService) GetDay(ctx context.Context, user *models.User, date time.Time) (*Day, error) {
	trips, err := s.store.ListTripsByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	views := make([]TripView, 0, len(trips))
	for _, trip := range trips {
		view := TripView{Trip: trip}
		if !trip.Closed {
			items, err := s.store.ListOrderableItems(ctx, trip.DestinationID)
			if err != nil {
				return nil, err
			}
			orders, err := s.store.ListOrdersForTrip(ctx, trip.ID)
			if err != nil {
				return nil, err
			}
			for _, item := range items {
				view.Menu = append(view.Menu, MenuLine{
					Item:  item,
					Count: billing.UserItemCount(orders, user.ID, item.ID),
				})
			}
		}
		views = append(views, view)
	}

	destinations, err := s.store.ListDestinations(ctx)
	if err != nil {
		return nil, err
	}
	return &Day{Date: date, Trips: views, Destinations: destinations}, nil
}

// Create registers a trip for the user to the destination on the date.
// Returns storage.ErrDuplicateTrip if the user already registered that trip.
func (s *TripService) Create(ctx context.Context, user *models.User, date time.Time, destinationID int64) (*models.Trip, error) {
	if _, err := s.store.GetDestination(ctx, destinationID); err != nil {
		return nil, err
	}

	trip := &models.Trip{
		Date:          date,
		DestinationID: destinationID,
		UserID:        user.ID,
	}
	if err := s.store.CreateTrip(ctx, trip); err != nil {
		return nil, err
	}

	metrics.IncTripsCreated()
	slog.Info("trip created",
		"trip_id", trip.ID, "user", user.Name,
		"date", date.Format(models.DateFormat), "destination_id", destinationID)
	return trip, nil
}

// Get loads a trip by ID.
func (s *TripService) Get(ctx context.Context, tripID int64) (*models.Trip, error) {
	return s.store.GetTrip(ctx, tripID)
}

// Close marks the trip closed. Only the owner may close it; closed trips
// accept no further order changes.
func (s *TripService) Close(ctx context.Context, user *models.User, tripID int64) error {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return err
	}
	if !trip.OwnedBy(user.ID) {
		return ErrNotOwner
	}
	if err := s.store.CloseTrip(ctx, trip.ID); err != nil {
		return err
	}
	slog.Info("trip closed", "trip_id", trip.ID, "user", user.Name)
	return nil
}

// Bill is the itemized view of a trip: per-item groups and the grand total.
type Bill struct {
	Trip   *models.Trip
	Orders []models.OrderDetail
	Groups []billing.ItemGroup
	Total  models.Cents
}

// GetBill loads the itemized bill of a trip. Only the owner may read it.
func (s *TripService) GetBill(ctx context.Context, user *models.User, tripID int64) (*Bill, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.OwnedBy(user.ID) {
		return nil, ErrNotOwner
	}

	orders, err := s.store.ListOrdersForTrip(ctx, trip.ID)
	if err != nil {
		return nil, err
	}

	groups := billing.GroupTripOrders(orders)
	return &Bill{
		Trip:   trip,
		Orders: orders,
		Groups: groups,
		Total:  billing.Total(groups),
	}, nil
}
