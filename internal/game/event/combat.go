package event

import "github.com/emberreach/mud/internal/game/combat"

// FromCombat adapts a combat.Notification to an Event, the shape the Bus
// actually fans out. Combat stays free of any dependency on session/world
// wiring; this is the one place their audiences are reconciled.
func FromCombat(n combat.Notification) Event {
	evt := Event{Category: CategoryCombat, Message: n.Message}
	if n.Category != "" {
		evt.Category = Category(n.Category)
	}
	switch n.Audience {
	case combat.AudienceCharacter:
		evt.Audience = AudienceCharacter
		evt.CharacterName = n.CharacterName
	case combat.AudienceRoom:
		evt.Audience = AudienceRoom
		evt.RoomID = n.RoomID
	case combat.AudienceWorld:
		evt.Audience = AudienceWorld
	}
	return evt
}

// FromCombatAll adapts a whole batch, preserving order.
func FromCombatAll(notes []combat.Notification) []Event {
	out := make([]Event, 0, len(notes))
	for _, n := range notes {
		out = append(out, FromCombat(n))
	}
	return out
}
