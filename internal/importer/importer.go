// Package importer loads the legacy per-date JSON order files into the
// relational schema.
//
// The old format is a destinations.json mapping destination keys to their
// menus, plus one JSON array file per trip date named <date>.json. Users are
// created on first sight with generated passwords, which are reported so the
// operator can hand them out.
//
// Caution: in the old format a price change silently rewrote all past
// orders, settled or not. The import takes prices as they stand.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/noodlz/noodlz/internal/auth"
	"github.com/noodlz/noodlz/internal/models"
	"github.com/noodlz/noodlz/internal/storage"
)

// legacyDestination is one entry of destinations.json.
type legacyDestination struct {
	Title   string                `json:"title"`
	Options map[string]legacyItem `json:"options"`
}

// legacyItem is one menu entry. Options are flavour variants folded into the
// item name, separated by semicolons, as the old format did.
type legacyItem struct {
	Title   string      `json:"title"`
	ID      string      `json:"id"`
	Price   json.Number `json:"price"`
	Options []string    `json:"options"`
}

// legacyTrip is one entry of a per-date trip file.
type legacyTrip struct {
	Destination string        `json:"destination"`
	User        string        `json:"user"`
	Closed      bool          `json:"closed"`
	Orders      []legacyOrder `json:"orders"`
}

type legacyOrder struct {
	User  string `json:"user"`
	Order string `json:"order"`
	Paid  bool   `json:"paid"`
}

// Importer transfers legacy JSON data into a store. Generated credentials
// are written to Out.
type Importer struct {
	Store storage.Store
	Out   io.Writer
}

// Run imports destinations.json and any number of per-date trip files.
func (im *Importer) Run(ctx context.Context, destinationsPath string, tripPaths []string) error {
	menus, err := im.importDestinations(ctx, destinationsPath)
	if err != nil {
		return err
	}

	for _, path := range tripPaths {
		if err := im.importTripFile(ctx, menus, path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// menu maps a destination's legacy item keys to their imported rows.
type menu struct {
	destination *models.Destination
	items       map[string]*models.Item
}

func (im *Importer) importDestinations(ctx context.Context, path string) (map[string]*menu, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read destinations file: %w", err)
	}
	var legacy map[string]legacyDestination
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, fmt.Errorf("failed to parse destinations file: %w", err)
	}

	menus := make(map[string]*menu, len(legacy))
	for key, ld := range legacy {
		name := ld.Title
		if name == "" {
			name = key
		}
		dest := &models.Destination{Name: name}
		if err := im.Store.CreateDestination(ctx, dest); err != nil {
			return nil, err
		}
		m := &menu{destination: dest, items: make(map[string]*models.Item)}
		menus[key] = m

		for itemKey, li := range ld.Options {
			title := li.Title
			if title == "" {
				title = itemKey
			}
			for _, option := range li.Options {
				title += ";" + option
			}
			price, err := models.ParseCents(li.Price.String())
			if err != nil {
				return nil, fmt.Errorf("item %q: %w", itemKey, err)
			}
			item := &models.Item{
				Name:          title,
				Tag:           li.ID,
				Price:         price,
				DestinationID: dest.ID,
			}
			if err := im.Store.CreateItem(ctx, item); err != nil {
				return nil, err
			}
			m.items[itemKey] = item
		}
	}
	return menus, nil
}

func (im *Importer) importTripFile(ctx context.Context, menus map[string]*menu, path string) error {
	base := filepath.Base(path)
	date, err := models.ParseDate(strings.TrimSuffix(base, filepath.Ext(base)))
	if err != nil {
		return fmt.Errorf("trip file name must be <date>.json: %w", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read trip file: %w", err)
	}
	var legacy []legacyTrip
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return fmt.Errorf("failed to parse trip file: %w", err)
	}

	for _, lt := range legacy {
		m, ok := menus[lt.Destination]
		if !ok {
			return fmt.Errorf("unknown destination %q", lt.Destination)
		}
		owner, err := im.getOrCreateUser(ctx, lt.User)
		if err != nil {
			return err
		}

		trip := &models.Trip{
			Date:          date,
			Closed:        lt.Closed,
			DestinationID: m.destination.ID,
			UserID:        owner.ID,
		}
		if err := im.Store.CreateTrip(ctx, trip); err != nil {
			return err
		}

		for _, lo := range lt.Orders {
			item, ok := m.items[lo.Order]
			if !ok {
				return fmt.Errorf("unknown item %q at %q", lo.Order, lt.Destination)
			}
			orderer, err := im.getOrCreateUser(ctx, lo.User)
			if err != nil {
				return err
			}
			order := &models.Order{
				Settled: lo.Paid,
				ItemID:  item.ID,
				TripID:  trip.ID,
				UserID:  orderer.ID,
			}
			if err := im.Store.CreateOrder(ctx, order); err != nil {
				return err
			}
		}
	}
	return nil
}

func (im *Importer) getOrCreateUser(ctx context.Context, name string) (*models.User, error) {
	user, err := im.Store.GetUserByName(ctx, name)
	if err == nil {
		return user, nil
	}

	password := uuid.NewString()
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user = &models.User{Name: name, PassHash: hash}
	if err := im.Store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	fmt.Fprintf(im.Out, "Generated user=%s pass=%s\n", name, password)
	return user, nil
}
