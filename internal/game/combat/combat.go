// Package combat drives shared, tick-based enemy encounters: one session
// per (room, enemy template) group, threat-weighted targeting, and
// defeat/death/flee resolution (spec §4.7). This replaces the teacher's
// PF2E initiative-and-action-point model, which has no equivalent in a
// tick-driven, multi-participant fight.
package combat

import (
	"time"

	"github.com/emberreach/mud/internal/game/world"
)

// Audience is who a Notification is addressed to, mirroring the outbound
// categories of spec §6.
type Audience int

// Notification audiences.
const (
	AudienceCharacter Audience = iota
	AudienceRoom
	AudienceWorld
)

// Notification is a narrative line the engine produces as a side effect of
// a tick or player action. The caller (command handling, TickDriver) is
// responsible for routing it to the right sessions via the event bus.
type Notification struct {
	Audience      Audience
	RoomID        string // set when Audience == AudienceRoom
	CharacterName string // set when Audience == AudienceCharacter
	Category      string // normal, combat, loot, system, warning, ...
	Message       string
}

// Session is one live encounter: a group of characters fighting a group of
// enemy instances sharing the same template, in the same room. At most one
// Session exists per (room, enemy template) pair.
type Session struct {
	RoomID     string
	TemplateID string
	Enemies    []*world.EnemyInstance
	Players    []string
	Round      int
}

// pendingRespawn is a defeated enemy template awaiting its respawn tick.
type pendingRespawn struct {
	RoomID     string
	TemplateID string
	DueAt      time.Time
}

func sessionKey(roomID, templateID string) string {
	return roomID + "|" + templateID
}

func containsName(names []string, target string) bool {
	for _, n := range names {
		if n == target {
			return true
		}
	}
	return false
}
