// Package equipment manages what a character has equipped: a fixed set of
// slots (spec §4.5), each holding at most one item drawn from the
// character's own inventory, and the derived combat stats those items
// contribute on top of base stats.
package equipment

import (
	"github.com/emberreach/mud/internal/game/character"
	"github.com/emberreach/mud/internal/game/content"
	"github.com/emberreach/mud/internal/game/gameerr"
)

// Service equips and unequips items against a fixed catalogue of item
// templates. Like inventory.Service it holds no state of its own; it reads
// and writes directly on the *character.Character passed in.
type Service struct {
	items *content.Store
}

// NewService creates an equipment Service backed by items.
func NewService(items *content.Store) *Service {
	return &Service{items: items}
}

var validSlot = func() map[string]bool {
	m := make(map[string]bool, len(content.ValidSlots))
	for _, s := range content.ValidSlots {
		m[s] = true
	}
	return m
}()

// Equip moves itemID from the character's inventory into its slot. Fails
// if itemID is not carried, is not equippable, doesn't belong in slot, or
// slot is already occupied: equip never implicitly swaps or unequips.
//
// Precondition: none.
// Postcondition: on success, itemID occupies c.Equipment[slot] and one
// inventory unit of itemID has been removed.
func (s *Service) Equip(c *character.Character, itemID string) error {
	tmpl, ok := s.items.GetItem(itemID)
	if !ok {
		return gameerr.Newf(gameerr.TargetNotFound, "unknown item %q", itemID)
	}
	if tmpl.Slot == "" || !validSlot[tmpl.Slot] {
		return gameerr.Newf(gameerr.PreconditionFailed, "%q cannot be equipped", itemID)
	}
	if c.InventoryQuantity(itemID) < 1 {
		return gameerr.Newf(gameerr.PreconditionFailed, "do not have %q", itemID)
	}
	if c.Equipment == nil {
		c.Equipment = make(map[string]string)
	}
	if existing, occupied := c.Equipment[tmpl.Slot]; occupied {
		return gameerr.Newf(gameerr.PreconditionFailed, "%s is occupied by %q", tmpl.Slot, existing)
	}

	for i := range c.Inventory {
		if c.Inventory[i].ItemID != itemID {
			continue
		}
		c.Inventory[i].Quantity--
		if c.Inventory[i].Quantity == 0 {
			c.Inventory = append(c.Inventory[:i], c.Inventory[i+1:]...)
		}
		break
	}
	c.Equipment[tmpl.Slot] = itemID
	return nil
}

// Unequip removes whatever occupies slot and returns it to the character's
// inventory as a carried item.
//
// Precondition: none.
// Postcondition: on success, slot is empty and the item is back in
// c.Inventory.
func (s *Service) Unequip(c *character.Character, slot string) error {
	if c.Equipment == nil {
		return gameerr.Newf(gameerr.PreconditionFailed, "%s is empty", slot)
	}
	itemID, occupied := c.Equipment[slot]
	if !occupied {
		return gameerr.Newf(gameerr.PreconditionFailed, "%s is empty", slot)
	}
	delete(c.Equipment, slot)

	for i := range c.Inventory {
		if c.Inventory[i].ItemID == itemID {
			c.Inventory[i].Quantity++
			return nil
		}
	}
	c.Inventory = append(c.Inventory, character.ItemStack{ItemID: itemID, Quantity: 1})
	return nil
}

// TotalStats returns the character's base stats plus the StatDeltas of
// every currently equipped item.
func (s *Service) TotalStats(c *character.Character) character.Stats {
	total := c.BaseStats
	for _, itemID := range c.Equipment {
		tmpl, ok := s.items.GetItem(itemID)
		if !ok {
			continue
		}
		total.Damage += tmpl.Stats.Damage
		total.Defense += tmpl.Stats.Defense
		total.Speed += tmpl.Stats.Speed
		total.Health += tmpl.Stats.Health
	}
	return total
}

// EquippedItemIDs returns a snapshot of every item currently equipped.
func (s *Service) EquippedItemIDs(c *character.Character) []string {
	out := make([]string, 0, len(c.Equipment))
	for _, itemID := range c.Equipment {
		out = append(out, itemID)
	}
	return out
}
