package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/noodlz/noodlz/internal/models"
	"github.com/noodlz/noodlz/internal/storage"
)

// ItemService implements the item lifecycle: add, in-place rename/retag,
// retire, and reprice-by-clone. Prices and destinations of referenced items
// never change; that is what keeps past bills accurate.
type ItemService struct {
	store storage.Store
}

// NewItemService creates an ItemService with the given storage backend.
func NewItemService(store storage.Store) *ItemService {
	return &ItemService{store: store}
}

// Add creates a new orderable item on the destination's menu.
func (s *ItemService) Add(ctx context.Context, destinationID int64, name string, price models.Cents, tag string) (*models.Item, error) {
	if _, err := s.store.GetDestination(ctx, destinationID); err != nil {
		return nil, fmt.Errorf("destination %d: %w", destinationID, err)
	}

	item := &models.Item{
		Name:          name,
		Tag:           tag,
		Price:         price,
		DestinationID: destinationID,
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	slog.Info("item added", "item_id", item.ID, "name", name, "price", price)
	return item, nil
}

// List returns all items, historical ones included.
func (s *ItemService) List(ctx context.Context) ([]models.Item, error) {
	return s.store.ListItems(ctx)
}

// Modify renames/retags an item in place. Passing an empty name keeps the
// current one; removeTag clears the tag and wins over tag.
func (s *ItemService) Modify(ctx context.Context, itemID int64, name, tag string, removeTag bool) (*models.Item, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if name != "" {
		item.Name = name
	}
	if removeTag {
		item.Tag = ""
	} else if tag != "" {
		item.Tag = tag
	}

	if err := s.store.UpdateItemNameTag(ctx, item.ID, item.Name, item.Tag); err != nil {
		return nil, err
	}
	slog.Info("item modified", "item_id", item.ID, "name", item.Name, "tag", item.Tag)
	return item, nil
}

// Remove retires an item so no future order can reference it. Orders on open
// trips block removal: their owners must still be able to cancel or change
// them, and cancelling an order of a vanished item would be unaccountable.
// Orders on closed trips are immutable record and never block.
func (s *ItemService) Remove(ctx context.Context, itemID int64) error {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return err
	}

	if err := s.checkNotInUse(ctx, item.ID); err != nil {
		return err
	}

	if err := s.store.SetItemHistorical(ctx, item.ID, true); err != nil {
		return err
	}
	slog.Info("item retired", "item_id", item.ID, "name", item.Name)
	return nil
}

// Reprice retires the item and creates a fresh version carrying the new
// price. The same open-order guard as Remove applies. Past orders keep
// pointing at the old version and therefore at the old price.
func (s *ItemService) Reprice(ctx context.Context, itemID int64, newPrice models.Cents) (*models.Item, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.checkNotInUse(ctx, item.ID); err != nil {
		return nil, err
	}

	clone, err := s.store.RepriceItem(ctx, item, newPrice)
	if err != nil {
		return nil, err
	}
	slog.Info("item repriced",
		"old_item_id", item.ID, "new_item_id", clone.ID,
		"old_price", item.Price, "new_price", clone.Price)
	return clone, nil
}

func (s *ItemService) checkNotInUse(ctx context.Context, itemID int64) error {
	conflicts, err := s.store.ListOpenOrdersForItem(ctx, itemID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &ItemInUseError{ItemID: itemID, Conflicts: conflicts}
	}
	return nil
}
