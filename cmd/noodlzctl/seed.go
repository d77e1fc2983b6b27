package main

import (
	"context"
	"fmt"
	"time"

	"github.com/noodlz/noodlz/internal/auth"
	"github.com/noodlz/noodlz/internal/models"
	"github.com/noodlz/noodlz/internal/storage"
)

// seedTestData populates a fresh database with a small demo dataset: four
// users (password "password"), two destinations with menus and a few weeks
// of trip history.
func seedTestData(ctx context.Context, store storage.Store) error {
	hash, err := auth.HashPassword("password")
	if err != nil {
		return err
	}

	user := func(name string) (*models.User, error) {
		u := &models.User{Name: name, PassHash: hash}
		if err := store.CreateUser(ctx, u); err != nil {
			return nil, fmt.Errorf("failed to seed user %s: %w", name, err)
		}
		return u, nil
	}
	alice, err := user("Alice")
	if err != nil {
		return err
	}
	bob, err := user("Bob")
	if err != nil {
		return err
	}
	carol, err := user("Carol")
	if err != nil {
		return err
	}
	dave, err := user("Dave")
	if err != nil {
		return err
	}

	jenAndBerries := &models.Destination{Name: "Jen and Berries"}
	if err := store.CreateDestination(ctx, jenAndBerries); err != nil {
		return err
	}
	cakehole := &models.Destination{Name: "Cakehole"}
	if err := store.CreateDestination(ctx, cakehole); err != nil {
		return err
	}

	item := func(dest *models.Destination, name, tag string, price models.Cents) (*models.Item, error) {
		it := &models.Item{Name: name, Tag: tag, Price: price, DestinationID: dest.ID}
		if err := store.CreateItem(ctx, it); err != nil {
			return nil, fmt.Errorf("failed to seed item %s: %w", name, err)
		}
		return it, nil
	}
	cookieDough, err := item(jenAndBerries, "Cookie Dough", "CD", 120)
	if err != nil {
		return err
	}
	stracciatella, err := item(jenAndBerries, "Stracciatella", "S", 100)
	if err != nil {
		return err
	}
	cheesecake, err := item(cakehole, "Cheesecake", "CC", 250)
	if err != nil {
		return err
	}
	pie, err := item(cakehole, "Pie", "PI", 314)
	if err != nil {
		return err
	}
	sacher, err := item(cakehole, "Sachertorte", "ST", 400)
	if err != nil {
		return err
	}

	trip := func(date time.Time, dest *models.Destination, owner *models.User, closed bool) (*models.Trip, error) {
		t := &models.Trip{Date: date, DestinationID: dest.ID, UserID: owner.ID, Closed: closed}
		if err := store.CreateTrip(ctx, t); err != nil {
			return nil, fmt.Errorf("failed to seed trip to %s: %w", dest.Name, err)
		}
		return t, nil
	}
	date1 := time.Date(1970, 1, 5, 0, 0, 0, 0, time.UTC)
	date2 := time.Date(1970, 1, 12, 0, 0, 0, 0, time.UTC)
	date3 := time.Date(1970, 1, 19, 0, 0, 0, 0, time.UTC)

	trip1, err := trip(date1, jenAndBerries, alice, true)
	if err != nil {
		return err
	}
	trip2, err := trip(date1, cakehole, bob, true)
	if err != nil {
		return err
	}
	trip3, err := trip(date2, jenAndBerries, alice, true)
	if err != nil {
		return err
	}
	trip4, err := trip(date3, jenAndBerries, carol, true)
	if err != nil {
		return err
	}
	trip5, err := trip(date3, cakehole, bob, false)
	if err != nil {
		return err
	}

	orders := []models.Order{
		{ItemID: cookieDough.ID, TripID: trip1.ID, UserID: alice.ID, Settled: true},
		{ItemID: cookieDough.ID, TripID: trip1.ID, UserID: bob.ID, Settled: true},
		{ItemID: stracciatella.ID, TripID: trip1.ID, UserID: carol.ID, Settled: true},

		{ItemID: cheesecake.ID, TripID: trip2.ID, UserID: bob.ID, Settled: false},
		{ItemID: sacher.ID, TripID: trip2.ID, UserID: dave.ID, Settled: true},

		{ItemID: cookieDough.ID, TripID: trip3.ID, UserID: alice.ID, Settled: true},
		{ItemID: cookieDough.ID, TripID: trip3.ID, UserID: bob.ID, Settled: false},
		{ItemID: stracciatella.ID, TripID: trip3.ID, UserID: bob.ID, Settled: false},
		{ItemID: stracciatella.ID, TripID: trip3.ID, UserID: carol.ID, Settled: true},
		{ItemID: stracciatella.ID, TripID: trip3.ID, UserID: dave.ID, Settled: true},

		{ItemID: stracciatella.ID, TripID: trip4.ID, UserID: carol.ID, Settled: false},
		{ItemID: cookieDough.ID, TripID: trip4.ID, UserID: alice.ID, Settled: true},
		{ItemID: stracciatella.ID, TripID: trip4.ID, UserID: alice.ID, Settled: false},
		{ItemID: cookieDough.ID, TripID: trip4.ID, UserID: dave.ID, Settled: false},

		{ItemID: pie.ID, TripID: trip5.ID, UserID: carol.ID, Settled: false},
		{ItemID: sacher.ID, TripID: trip5.ID, UserID: dave.ID, Settled: false},
	}
	for i := range orders {
		if err := store.CreateOrder(ctx, &orders[i]); err != nil {
			return err
		}
	}
	return nil
}
