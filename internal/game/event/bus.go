package event

import (
	"github.com/emberreach/mud/internal/game/session"
	"github.com/emberreach/mud/internal/game/world"
)

// Bus fans Events out to the outbox of every session that should receive
// them. It holds no queue of its own: Publish is called synchronously on
// the game thread, which is what gives same-character events their
// delivery-order guarantee (spec §5).
type Bus struct {
	sessions *session.Registry
	world    *world.State
}

// NewBus creates a Bus backed by sessions and world.
func NewBus(sessions *session.Registry, w *world.State) *Bus {
	return &Bus{sessions: sessions, world: w}
}

// Publish delivers evt to every session its audience reaches. Sessions
// without a live outbox (not yet bound to a character, or already closed)
// are silently skipped; a wedged client's full outbox is not the game
// thread's problem (session.Outbox.Push already degrades gracefully).
func (b *Bus) Publish(evt Event) {
	switch evt.Audience {
	case AudienceCharacter:
		b.deliverTo(evt.CharacterName, evt)
	case AudienceRoom:
		for _, name := range b.world.CharactersInRoom(evt.RoomID) {
			if name == evt.ExcludeCharacter {
				continue
			}
			b.deliverTo(name, evt)
		}
	case AudienceWorld:
		for _, sess := range b.sessions.PlayingSessions() {
			_ = sess.Outbox.Push(evt)
		}
	}
}

// PublishAll delivers every event in evts, in order.
func (b *Bus) PublishAll(evts []Event) {
	for _, evt := range evts {
		b.Publish(evt)
	}
}

func (b *Bus) deliverTo(characterName string, evt Event) {
	sess, ok := b.sessions.ByCharacter(characterName)
	if !ok || sess.State != session.Playing {
		return
	}
	_ = sess.Outbox.Push(evt)
}
