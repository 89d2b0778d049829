// Package world owns the mutable live state layered over the immutable
// content.Store: which items lie on the ground, which enemy instances are
// alive, and which characters currently occupy each room (spec §4's
// WorldState, replacing the teacher's zone/room template model — templates
// now live in internal/game/content).
package world

import (
	"strings"

	"github.com/google/uuid"

	"github.com/emberreach/mud/internal/game/content"
)

// Direction is a movement verb target, normalized to its long form. The
// spec's closed verb set supports only the four cardinal directions
// (§6), unlike the teacher's ten-direction compass rose.
type Direction string

// Standard movement directions.
const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

var directionAliases = map[string]Direction{
	"n": North, "north": North,
	"s": South, "south": South,
	"e": East, "east": East,
	"w": West, "west": West,
}

// ParseDirection resolves a user-typed direction token (including the
// single-letter abbreviations) to its canonical form.
func ParseDirection(token string) (Direction, bool) {
	d, ok := directionAliases[strings.ToLower(token)]
	return d, ok
}

// EnemyInstance is a live, mutable enemy derived from an EnemyTemplate. One
// instance exists per room per template while alive (spec §3).
type EnemyInstance struct {
	ID            string
	TemplateID    string
	RoomID        string
	CurrentHealth int
	MaxHealth     int
	// Threat maps character name to cumulative damage dealt to this enemy.
	Threat map[string]int
	// Fighters lists characters currently engaged with this instance, in
	// join order.
	Fighters []string
}

// IsAlive reports whether this instance still has positive health.
func (e *EnemyInstance) IsAlive() bool {
	return e.CurrentHealth > 0
}

// AddThreat increments the threat entry for attacker by amount.
func (e *EnemyInstance) AddThreat(attacker string, amount int) {
	if e.Threat == nil {
		e.Threat = make(map[string]int)
	}
	e.Threat[attacker] += amount
}

// ClearThreatFor removes every threat entry attributed to name and drops
// them from the fighters list.
func (e *EnemyInstance) ClearThreatFor(name string) {
	delete(e.Threat, name)
	for i, f := range e.Fighters {
		if f == name {
			e.Fighters = append(e.Fighters[:i], e.Fighters[i+1:]...)
			break
		}
	}
}

// NewEnemyInstance mints a fresh, full-health instance of the given
// template with an empty threat table (spec's "created on first attack or
// room load" rule).
func NewEnemyInstance(roomID string, tmpl *content.EnemyTemplate) *EnemyInstance {
	return &EnemyInstance{
		ID:            uuid.NewString(),
		TemplateID:    tmpl.ID,
		RoomID:        roomID,
		CurrentHealth: tmpl.MaxHealth,
		MaxHealth:     tmpl.MaxHealth,
		Threat:        make(map[string]int),
	}
}

// Room is the live state for a single room: the items on the ground, the
// enemy instances currently alive in it, the NPCs present, and the
// characters currently standing in it.
type Room struct {
	Template *content.RoomTemplate

	// Items maps item id to the ground quantity.
	Items map[string]int
	// Enemies maps instance id to the live enemy instance.
	Enemies map[string]*EnemyInstance
	// NPCs lists the NPC template ids present (static list from the room
	// template; NPCs do not move in this design).
	NPCs []string
	// Characters is the set of character names currently in this room.
	Characters map[string]bool
}

func newRoom(tmpl *content.RoomTemplate) *Room {
	r := &Room{
		Template:   tmpl,
		Items:      make(map[string]int),
		Enemies:    make(map[string]*EnemyInstance),
		NPCs:       append([]string(nil), tmpl.NPCs...),
		Characters: make(map[string]bool),
	}
	for _, id := range tmpl.Items {
		r.Items[id]++
	}
	return r
}

// EnemiesOfTemplate returns the live instances of the given template id
// currently alive in this room.
func (r *Room) EnemiesOfTemplate(templateID string) []*EnemyInstance {
	var out []*EnemyInstance
	for _, e := range r.Enemies {
		if e.TemplateID == templateID {
			out = append(out, e)
		}
	}
	return out
}

// ExitRoomIDs returns the destination room id for every exit, keyed by
// direction string (matching the room template's exits map verbatim).
func (r *Room) ExitRoomIDs() map[string]string {
	return r.Template.Exits
}
