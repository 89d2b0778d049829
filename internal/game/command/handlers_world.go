package command

import (
	"fmt"
	"strings"

	"github.com/emberreach/mud/internal/game/event"
	"github.com/emberreach/mud/internal/game/gameerr"
	"github.com/emberreach/mud/internal/game/session"
	"github.com/emberreach/mud/internal/game/world"
)

func (r *Router) handleMove(sess *session.Session, dirWord string) []event.Event {
	c := sess.Character
	dir, ok := world.ParseDirection(dirWord)
	if !ok {
		return []event.Event{event.Character(c.Name, event.CategoryWarning, fmt.Sprintf("%q is not a direction.", dirWord))}
	}

	if c.InCombat {
		return []event.Event{event.Character(c.Name, event.CategoryWarning, "You can't leave while in combat.")}
	}

	destRoomID, err := r.world.Navigate(c.CurrentRoom, dir)
	if err != nil {
		return []event.Event{event.Character(c.Name, event.CategoryWarning, "You can't go that way.")}
	}

	var events []event.Event
	fromRoom := c.CurrentRoom
	events = append(events, event.RoomExcept(fromRoom, c.Name, event.CategoryNormal, fmt.Sprintf("%s leaves %s.", c.Name, dir)))

	r.world.LeaveRoom(fromRoom, c.Name)
	_ = r.world.EnterRoom(destRoomID, c.Name)
	c.CurrentRoom = destRoomID
	if parts := strings.SplitN(destRoomID, ".", 2); len(parts) == 2 {
		c.CurrentArea = parts[0]
	}

	events = append(events, event.RoomExcept(destRoomID, c.Name, event.CategoryNormal, fmt.Sprintf("%s arrives.", c.Name)))
	events = append(events, r.lookEvents(sess)...)
	events = append(events, r.save(sess)...)
	return events
}

func (r *Router) handleLook(sess *session.Session, target string) []event.Event {
	if strings.TrimSpace(target) == "" {
		return r.lookEvents(sess)
	}
	return r.handleExamine(sess, target)
}

// lookEvents builds the auto-look description shown on room entry and on
// a bare "look".
func (r *Router) lookEvents(sess *session.Session) []event.Event {
	c := sess.Character
	room, ok := r.world.GetRoom(c.CurrentRoom)
	if !ok {
		return []event.Event{event.Character(c.Name, event.CategoryError, "An error occurred.")}
	}

	var b strings.Builder
	b.WriteString(room.Template.Name)
	b.WriteString("\n")
	b.WriteString(room.Template.Description)

	exits := make([]string, 0, len(room.Template.Exits))
	for dir := range room.Template.Exits {
		exits = append(exits, dir)
	}
	b.WriteString(fmt.Sprintf("\nExits: %s", joinOrNone(sortedStrings(exits))))

	npcNames := make([]string, 0, len(room.NPCs))
	for _, id := range room.NPCs {
		if tmpl, ok := r.content.GetNPC(id); ok {
			npcNames = append(npcNames, tmpl.Name)
		}
	}
	if len(npcNames) > 0 {
		b.WriteString(fmt.Sprintf("\nAlso here: %s", strings.Join(npcNames, ", ")))
	}

	enemyNames := make([]string, 0)
	for _, enemy := range r.world.EnemiesInRoom(c.CurrentRoom) {
		if !enemy.IsAlive() {
			continue
		}
		if tmpl, ok := r.content.GetEnemy(enemy.TemplateID); ok {
			enemyNames = append(enemyNames, tmpl.Name)
		}
	}
	if len(enemyNames) > 0 {
		b.WriteString(fmt.Sprintf("\nEnemies: %s", strings.Join(enemyNames, ", ")))
	}

	others := make([]string, 0)
	for _, name := range r.world.CharactersInRoom(c.CurrentRoom) {
		if name != c.Name {
			others = append(others, name)
		}
	}
	if len(others) > 0 {
		b.WriteString(fmt.Sprintf("\nPlayers: %s", strings.Join(sortedStrings(others), ", ")))
	}

	groundItems := make([]string, 0)
	for id, qty := range room.Items {
		if tmpl, ok := r.content.GetItem(id); ok {
			if qty > 1 {
				groundItems = append(groundItems, fmt.Sprintf("%s (%d)", tmpl.Name, qty))
			} else {
				groundItems = append(groundItems, tmpl.Name)
			}
		}
	}
	if len(groundItems) > 0 {
		b.WriteString(fmt.Sprintf("\nOn the ground: %s", strings.Join(sortedStrings(groundItems), ", ")))
	}

	return []event.Event{event.Character(c.Name, event.CategoryNormal, b.String())}
}

func (r *Router) handleExamine(sess *session.Session, rawTarget string) []event.Event {
	c := sess.Character
	target := strings.TrimSpace(rawTarget)
	if target == "" {
		return r.usage(sess, "examine <target>")
	}

	room, ok := r.world.GetRoom(c.CurrentRoom)
	if !ok {
		return []event.Event{event.Character(c.Name, event.CategoryError, "An error occurred.")}
	}

	candidates := make([]Candidate, 0)
	for _, id := range room.NPCs {
		if tmpl, ok := r.content.GetNPC(id); ok {
			candidates = append(candidates, Candidate{Name: tmpl.Name, Data: tmpl.Description})
		}
	}
	for _, enemy := range r.world.EnemiesInRoom(c.CurrentRoom) {
		if tmpl, ok := r.content.GetEnemy(enemy.TemplateID); ok {
			candidates = append(candidates, Candidate{Name: tmpl.Name, Data: fmt.Sprintf("%s (%d/%d HP)", tmpl.Name, enemy.CurrentHealth, enemy.MaxHealth)})
		}
	}
	for id := range room.Items {
		if tmpl, ok := r.content.GetItem(id); ok {
			candidates = append(candidates, Candidate{Name: tmpl.Name, Data: tmpl.Description})
		}
	}
	for _, stack := range c.Inventory {
		if tmpl, ok := r.content.GetItem(stack.ItemID); ok {
			candidates = append(candidates, Candidate{Name: tmpl.Name, Data: tmpl.Description})
		}
	}

	best, score, ok := FindBest(target, candidates)
	if !ok {
		return []event.Event{r.errEvent(sess, gameerr.Newf(gameerr.TargetNotFound, "you don't see %q here", target))}
	}
	msg := best.Data.(string)
	if score < 100 {
		msg = fmt.Sprintf("(%s) %s", best.Name, msg)
	}
	return []event.Event{event.Character(c.Name, event.CategoryNormal, msg)}
}
