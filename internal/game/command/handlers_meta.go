package command

import (
	"fmt"
	"strings"

	"github.com/emberreach/mud/internal/game/character"
	"github.com/emberreach/mud/internal/game/event"
	"github.com/emberreach/mud/internal/game/gameerr"
	"github.com/emberreach/mud/internal/game/session"
)

func (r *Router) handleHelp(sess *session.Session) []event.Event {
	cats := r.registry.CommandsByCategory()
	order := []string{
		CategoryMovement, CategoryObservation, CategoryInventory, CategoryEquipment,
		CategorySocial, CategoryNPC, CategoryQuest, CategoryCombat, CategoryMeta,
	}
	var b strings.Builder
	for _, cat := range order {
		cmds, ok := cats[cat]
		if !ok || len(cmds) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("%s:\n", cat))
		for _, cmd := range cmds {
			b.WriteString(fmt.Sprintf("  %-10s %s\n", cmd.Name, cmd.Help))
		}
	}
	return []event.Event{event.Character(sess.CharacterName, event.CategoryNormal, strings.TrimRight(b.String(), "\n"))}
}

func (r *Router) handleStats(sess *session.Session) []event.Event {
	c := sess.Character
	total := r.equip.TotalStats(c)
	msg := fmt.Sprintf("Level %d (%d XP)\nHealth: %d/%d\nDamage: %d  Defense: %d  Speed: %d\nGold: %d",
		c.Level, c.Experience, c.Health, c.MaxHealth, total.Damage, total.Defense, total.Speed, c.Gold)
	return []event.Event{event.Character(c.Name, event.CategoryNormal, msg)}
}

func (r *Router) handleSave(sess *session.Session) []event.Event {
	events := r.save(sess)
	if len(events) == 0 {
		events = append(events, event.Character(sess.CharacterName, event.CategorySuccess, "Saved."))
	}
	return events
}

func (r *Router) handleQuit(sess *session.Session) []event.Event {
	events := r.save(sess)
	events = append(events, event.Character(sess.CharacterName, event.CategorySystem, "Goodbye."))
	return events
}

func (r *Router) handlePassword(sess *session.Session, rawArgs string) []event.Event {
	fields := strings.Fields(rawArgs)
	if len(fields) != 2 {
		return r.usage(sess, "password <current> <new>")
	}
	current, next := fields[0], fields[1]
	c := sess.Character
	if !character.VerifyPassword(c.Credentials, current) {
		return []event.Event{r.errEvent(sess, gameerr.New(gameerr.AuthFailed, "current password is incorrect"))}
	}
	if err := r.chars.SetPassword(c, next); err != nil {
		return []event.Event{r.errEvent(sess, err)}
	}
	events := []event.Event{event.Character(c.Name, event.CategorySuccess, "Password changed.")}
	events = append(events, r.save(sess)...)
	return events
}
