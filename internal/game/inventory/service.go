// Package inventory mutates a character's carried items: adding, removing,
// and querying stacks against the world's item templates, enforcing a flat
// slot cap and the equipped-item removal guard (spec §4.4).
package inventory

import (
	"github.com/emberreach/mud/internal/game/character"
	"github.com/emberreach/mud/internal/game/content"
	"github.com/emberreach/mud/internal/game/gameerr"
)

// Service mutates a character's Inventory against a fixed catalogue of item
// templates. It holds no state of its own; every operation reads and writes
// directly on the *character.Character passed in, so callers own
// persistence (via character.Store.Save) and concurrency (the single game
// thread, per spec §5).
type Service struct {
	items    *content.Store
	capacity int
}

// NewService creates an inventory Service backed by items and bounded by
// capacity distinct inventory entries per character.
func NewService(items *content.Store, capacity int) *Service {
	return &Service{items: items, capacity: capacity}
}

// AddItem increases itemID's stack by quantity, merging into an existing
// entry when present. A new entry is only created when the character is
// below capacity; existing entries never push the character over it.
//
// Precondition: quantity > 0.
// Postcondition: on success Character.Inventory reflects the addition; on
// PreconditionFailed error, Inventory is unchanged.
func (s *Service) AddItem(c *character.Character, itemID string, quantity int) error {
	if quantity <= 0 {
		return gameerr.New(gameerr.Internal, "quantity must be > 0")
	}
	if _, ok := s.items.GetItem(itemID); !ok {
		return gameerr.Newf(gameerr.TargetNotFound, "unknown item %q", itemID)
	}

	for i := range c.Inventory {
		if c.Inventory[i].ItemID == itemID {
			c.Inventory[i].Quantity += quantity
			return nil
		}
	}

	if len(c.Inventory) >= s.capacity {
		return gameerr.Newf(gameerr.PreconditionFailed, "inventory is full (%d/%d)", len(c.Inventory), s.capacity)
	}
	c.Inventory = append(c.Inventory, character.ItemStack{ItemID: itemID, Quantity: quantity})
	return nil
}

// RemoveItem decreases itemID's stack by quantity, deleting the entry once
// it reaches zero. Fails if the character does not carry enough, or if
// itemID is currently equipped (it must be unequipped first).
//
// Precondition: quantity > 0.
// Postcondition: on success the stack is decremented or removed; on error,
// Inventory is unchanged.
func (s *Service) RemoveItem(c *character.Character, itemID string, quantity int) error {
	if quantity <= 0 {
		return gameerr.New(gameerr.Internal, "quantity must be > 0")
	}
	if c.IsItemEquipped(itemID) {
		return gameerr.Newf(gameerr.PreconditionFailed, "%q is equipped; unequip it first", itemID)
	}

	for i := range c.Inventory {
		if c.Inventory[i].ItemID != itemID {
			continue
		}
		if c.Inventory[i].Quantity < quantity {
			return gameerr.Newf(gameerr.PreconditionFailed, "only have %d of %q, need %d",
				c.Inventory[i].Quantity, itemID, quantity)
		}
		c.Inventory[i].Quantity -= quantity
		if c.Inventory[i].Quantity == 0 {
			c.Inventory = append(c.Inventory[:i], c.Inventory[i+1:]...)
		}
		return nil
	}
	return gameerr.Newf(gameerr.PreconditionFailed, "do not have any %q", itemID)
}

// HasItem reports whether c carries at least quantity units of itemID.
func (s *Service) HasItem(c *character.Character, itemID string, quantity int) bool {
	return c.InventoryQuantity(itemID) >= quantity
}

// Capacity returns the configured maximum number of distinct inventory
// entries.
func (s *Service) Capacity() int {
	return s.capacity
}
