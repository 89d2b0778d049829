package command

import (
	"fmt"
	"strings"

	"github.com/emberreach/mud/internal/game/event"
	"github.com/emberreach/mud/internal/game/gameerr"
	"github.com/emberreach/mud/internal/game/session"
)

func (r *Router) enemyCandidates(roomID string) []Candidate {
	out := make([]Candidate, 0)
	for _, enemy := range r.world.EnemiesInRoom(roomID) {
		if !enemy.IsAlive() {
			continue
		}
		if tmpl, ok := r.content.GetEnemy(enemy.TemplateID); ok {
			out = append(out, Candidate{Name: tmpl.Name, Data: enemy.TemplateID})
		}
	}
	return out
}

func (r *Router) handleAttack(sess *session.Session, rawTarget string) []event.Event {
	c := sess.Character
	target := strings.TrimSpace(rawTarget)
	if target == "" {
		return r.usage(sess, "attack <enemy>")
	}

	best, _, ok := FindBest(target, r.enemyCandidates(c.CurrentRoom))
	if !ok {
		return []event.Event{r.errEvent(sess, gameerr.Newf(gameerr.TargetNotFound, "you don't see %q here", target))}
	}
	templateID := best.Data.(string)

	notes, err := r.combat.Engage(c.Name, c.CurrentRoom, templateID)
	if err != nil {
		return []event.Event{r.errEvent(sess, err)}
	}
	events := event.FromCombatAll(notes)
	events = append(events, r.save(sess)...)
	return events
}

func (r *Router) handleFlee(sess *session.Session) []event.Event {
	c := sess.Character
	notes, err := r.combat.Flee(c.Name)
	if err != nil {
		return []event.Event{r.errEvent(sess, err)}
	}
	events := event.FromCombatAll(notes)
	events = append(events, r.lookEvents(sess)...)
	events = append(events, r.save(sess)...)
	return events
}

func (r *Router) handleHealth(sess *session.Session) []event.Event {
	c := sess.Character
	msg := fmt.Sprintf("Health: %d/%d", c.Health, c.MaxHealth)
	if c.MaxMana > 0 {
		msg += fmt.Sprintf("  Mana: %d/%d", c.Mana, c.MaxMana)
	}
	return []event.Event{event.Character(c.Name, event.CategoryNormal, msg)}
}
