package command

import (
	"fmt"
	"strings"

	"github.com/emberreach/mud/internal/game/content"
	"github.com/emberreach/mud/internal/game/event"
	"github.com/emberreach/mud/internal/game/gameerr"
	"github.com/emberreach/mud/internal/game/session"
)

func (r *Router) handleInventory(sess *session.Session) []event.Event {
	c := sess.Character
	if len(c.Inventory) == 0 {
		return []event.Event{event.Character(c.Name, event.CategoryNormal, "You are carrying nothing.")}
	}
	lines := make([]string, 0, len(c.Inventory))
	for _, stack := range c.Inventory {
		name := stack.ItemID
		if tmpl, ok := r.content.GetItem(stack.ItemID); ok {
			name = tmpl.Name
		}
		lines = append(lines, fmt.Sprintf("%s x%d", name, stack.Quantity))
	}
	msg := fmt.Sprintf("Carrying (%d/%d): %s", len(c.Inventory), r.items.Capacity(), strings.Join(lines, ", "))
	return []event.Event{event.Character(c.Name, event.CategoryNormal, msg)}
}

// roomItemCandidates lists the fuzzy-matchable ground items in roomID.
func (r *Router) roomItemCandidates(roomID string) []Candidate {
	room, ok := r.world.GetRoom(roomID)
	if !ok {
		return nil
	}
	out := make([]Candidate, 0, len(room.Items))
	for id := range room.Items {
		if tmpl, ok := r.content.GetItem(id); ok {
			out = append(out, Candidate{Name: tmpl.Name, Data: id})
		}
	}
	return out
}

// inventoryCandidates lists the fuzzy-matchable carried items for c.
func (r *Router) inventoryCandidates(c *session.Session) []Candidate {
	out := make([]Candidate, 0, len(c.Character.Inventory))
	for _, stack := range c.Character.Inventory {
		if tmpl, ok := r.content.GetItem(stack.ItemID); ok {
			out = append(out, Candidate{Name: tmpl.Name, Data: stack.ItemID})
		}
	}
	return out
}

func (r *Router) handleTake(sess *session.Session, rawTarget string) []event.Event {
	c := sess.Character
	target := strings.TrimSpace(rawTarget)
	if target == "" {
		return r.usage(sess, "take <item>")
	}

	best, score, ok := FindBest(target, r.roomItemCandidates(c.CurrentRoom))
	if !ok {
		return []event.Event{r.errEvent(sess, gameerr.Newf(gameerr.TargetNotFound, "you don't see %q here", target))}
	}
	itemID := best.Data.(string)

	if err := r.world.RemoveItem(c.CurrentRoom, itemID, 1); err != nil {
		return []event.Event{r.errEvent(sess, gameerr.Wrap(gameerr.PreconditionFailed, "taking item", err))}
	}
	if err := r.items.AddItem(c, itemID, 1); err != nil {
		_ = r.world.AddItem(c.CurrentRoom, itemID, 1)
		return []event.Event{r.errEvent(sess, err)}
	}

	name := best.Name
	msg := fmt.Sprintf("You take the %s.", name)
	events := []event.Event{event.Character(c.Name, event.CategorySuccess, echo(msg, score, name))}
	events = append(events, event.RoomExcept(c.CurrentRoom, c.Name, event.CategoryNormal, fmt.Sprintf("%s picks up the %s.", c.Name, name)))
	events = append(events, r.save(sess)...)
	return events
}

func (r *Router) handleDrop(sess *session.Session, rawTarget string) []event.Event {
	c := sess.Character
	target := strings.TrimSpace(rawTarget)
	if target == "" {
		return r.usage(sess, "drop <item>")
	}

	best, score, ok := FindBest(target, r.inventoryCandidates(sess))
	if !ok {
		return []event.Event{r.errEvent(sess, gameerr.Newf(gameerr.TargetNotFound, "you aren't carrying %q", target))}
	}
	itemID := best.Data.(string)

	if err := r.items.RemoveItem(c, itemID, 1); err != nil {
		return []event.Event{r.errEvent(sess, err)}
	}
	_ = r.world.AddItem(c.CurrentRoom, itemID, 1)

	name := best.Name
	events := []event.Event{event.Character(c.Name, event.CategorySuccess, echo(fmt.Sprintf("You drop the %s.", name), score, name))}
	events = append(events, event.RoomExcept(c.CurrentRoom, c.Name, event.CategoryNormal, fmt.Sprintf("%s drops the %s.", c.Name, name)))
	events = append(events, r.save(sess)...)
	return events
}

func (r *Router) handleUse(sess *session.Session, rawTarget string) []event.Event {
	c := sess.Character
	target := strings.TrimSpace(rawTarget)
	if target == "" {
		return r.usage(sess, "use <item>")
	}

	best, score, ok := FindBest(target, r.inventoryCandidates(sess))
	if !ok {
		return []event.Event{r.errEvent(sess, gameerr.Newf(gameerr.TargetNotFound, "you aren't carrying %q", target))}
	}
	itemID := best.Data.(string)
	tmpl, ok := r.content.GetItem(itemID)
	if !ok || tmpl.Kind != content.KindConsumable {
		return []event.Event{r.errEvent(sess, gameerr.Newf(gameerr.PreconditionFailed, "%s can't be used", best.Name))}
	}

	if err := r.items.RemoveItem(c, itemID, 1); err != nil {
		return []event.Event{r.errEvent(sess, err)}
	}
	if tmpl.Consumable.Heal > 0 {
		c.Health += tmpl.Consumable.Heal
		if c.Health > c.MaxHealth {
			c.Health = c.MaxHealth
		}
	}
	if tmpl.Consumable.Mana > 0 && c.MaxMana > 0 {
		c.Mana += tmpl.Consumable.Mana
		if c.Mana > c.MaxMana {
			c.Mana = c.MaxMana
		}
	}

	events := []event.Event{event.Character(c.Name, event.CategorySuccess, echo(fmt.Sprintf("You use the %s.", tmpl.Name), score, tmpl.Name))}
	events = append(events, r.save(sess)...)
	return events
}

func (r *Router) handleEquip(sess *session.Session, rawTarget string) []event.Event {
	c := sess.Character
	target := strings.TrimSpace(rawTarget)
	if target == "" {
		return r.usage(sess, "equip <item>")
	}

	best, score, ok := FindBest(target, r.inventoryCandidates(sess))
	if !ok {
		return []event.Event{r.errEvent(sess, gameerr.Newf(gameerr.TargetNotFound, "you aren't carrying %q", target))}
	}
	itemID := best.Data.(string)

	if err := r.equip.Equip(c, itemID); err != nil {
		return []event.Event{r.errEvent(sess, err)}
	}
	events := []event.Event{event.Character(c.Name, event.CategorySuccess, echo(fmt.Sprintf("You equip the %s.", best.Name), score, best.Name))}
	events = append(events, r.save(sess)...)
	return events
}

func (r *Router) handleUnequip(sess *session.Session, rawTarget string) []event.Event {
	c := sess.Character
	target := strings.TrimSpace(rawTarget)
	if target == "" {
		return r.usage(sess, "unequip <item>")
	}

	candidates := make([]Candidate, 0, len(c.Equipment))
	for slot, itemID := range c.Equipment {
		name := itemID
		if tmpl, ok := r.content.GetItem(itemID); ok {
			name = tmpl.Name
		}
		candidates = append(candidates, Candidate{Name: name, Data: slot})
	}
	best, score, ok := FindBest(target, candidates)
	if !ok {
		return []event.Event{r.errEvent(sess, gameerr.Newf(gameerr.TargetNotFound, "you don't have %q equipped", target))}
	}
	slot := best.Data.(string)

	if err := r.equip.Unequip(c, slot); err != nil {
		return []event.Event{r.errEvent(sess, err)}
	}
	events := []event.Event{event.Character(c.Name, event.CategorySuccess, echo(fmt.Sprintf("You unequip the %s.", best.Name), score, best.Name))}
	events = append(events, r.save(sess)...)
	return events
}

func (r *Router) handleEquipment(sess *session.Session) []event.Event {
	c := sess.Character
	if len(c.Equipment) == 0 {
		return []event.Event{event.Character(c.Name, event.CategoryNormal, "You have nothing equipped.")}
	}
	lines := make([]string, 0, len(c.Equipment))
	for slot, itemID := range c.Equipment {
		name := itemID
		if tmpl, ok := r.content.GetItem(itemID); ok {
			name = tmpl.Name
		}
		lines = append(lines, fmt.Sprintf("%s: %s", slot, name))
	}
	return []event.Event{event.Character(c.Name, event.CategoryNormal, strings.Join(sortedStrings(lines), "\n"))}
}

// echo prepends the canonical name in parentheses for a non-exact fuzzy
// match, per spec §4.8.
func echo(message string, score int, canonical string) string {
	if score >= 100 {
		return message
	}
	return fmt.Sprintf("(%s) %s", canonical, message)
}
