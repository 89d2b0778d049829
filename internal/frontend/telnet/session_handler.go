package telnet

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/emberreach/mud/internal/game/character"
	"github.com/emberreach/mud/internal/game/combat"
	"github.com/emberreach/mud/internal/game/command"
	"github.com/emberreach/mud/internal/game/event"
	"github.com/emberreach/mud/internal/game/quest"
	"github.com/emberreach/mud/internal/game/session"
	"github.com/emberreach/mud/internal/game/world"
)

// GameHandler implements SessionHandler against the live game core: it
// owns the login/character-creation exchange, then hands every input line
// to the command Router and every resulting event to the event Bus (spec
// §4.3 "Session lifecycle", §6 "Wire transport").
type GameHandler struct {
	chars    *character.Store
	sessions *session.Registry
	world    *world.State
	router   *command.Router
	combat   *combat.Engine
	quests   *quest.Service
	bus      *event.Bus
	logger   *zap.Logger

	startArea, startRoom string
	startMaxHealth       int

	counter atomic.Uint64
}

// NewGameHandler wires a GameHandler against the live services. quests is
// used only to reconcile quest-objective state when a character saves on
// disconnect. startArea and startRoom place a brand-new character;
// startMaxHealth seeds their health pool.
func NewGameHandler(
	chars *character.Store,
	sessions *session.Registry,
	w *world.State,
	router *command.Router,
	combatEngine *combat.Engine,
	quests *quest.Service,
	bus *event.Bus,
	logger *zap.Logger,
	startArea, startRoom string,
	startMaxHealth int,
) *GameHandler {
	return &GameHandler{
		chars: chars, sessions: sessions, world: w, router: router, combat: combatEngine, quests: quests,
		bus: bus, logger: logger, startArea: startArea, startRoom: startRoom, startMaxHealth: startMaxHealth,
	}
}

// HandleSession runs the login exchange and then the command loop for one
// connection, until the client disconnects or quits.
func (h *GameHandler) HandleSession(ctx context.Context, conn *Conn) error {
	handle := h.newHandle(conn)
	sess := h.sessions.Open(handle)

	c, err := h.authenticate(conn, sess)
	if err != nil {
		h.sessions.Close(handle)
		return err
	}

	pumpDone := make(chan struct{})
	go func() {
		h.pump(conn, sess)
		close(pumpDone)
	}()

	_ = h.world.EnterRoom(c.CurrentRoom, c.Name)
	h.bus.PublishAll(h.router.Dispatch(handle, "look"))

	for {
		line, err := conn.ReadLine()
		if err != nil {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		events := h.router.Dispatch(handle, line)
		h.bus.PublishAll(events)
		if word := strings.ToLower(strings.Fields(line)[0]); word == "quit" || word == "logout" || word == "exit" {
			break
		}
	}

	h.disconnect(sess)
	h.sessions.Close(handle)
	<-pumpDone
	return nil
}

func (h *GameHandler) newHandle(conn *Conn) string {
	n := h.counter.Add(1)
	return fmt.Sprintf("%s#%d", conn.RemoteAddr().String(), n)
}

// authenticate runs the login/create exchange over conn and binds the
// resulting character to sess, superseding any prior session for the same
// name (spec §4.3's single-login rule).
func (h *GameHandler) authenticate(conn *Conn, sess *session.Session) (*character.Character, error) {
	_ = conn.WriteLine("Welcome. What is your character's name?")
	name, err := conn.ReadLine()
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	exists, err := h.chars.Exists(name)
	if err != nil {
		_ = conn.WriteLine("That name is not valid.")
		return nil, err
	}

	var c *character.Character
	if exists {
		_ = conn.WriteLine("Password:")
		password, err := conn.ReadPassword()
		if err != nil {
			return nil, err
		}
		loaded, err := h.chars.Load(name)
		if err != nil {
			_ = conn.WriteLine("No such character.")
			return nil, err
		}
		if !character.VerifyPassword(loaded.Credentials, password) {
			_ = conn.WriteLine("Incorrect password.")
			return nil, fmt.Errorf("incorrect password for %q", name)
		}
		c = loaded
	} else {
		_ = conn.WriteLine(fmt.Sprintf("%q does not exist yet. Choose a password to create it:", name))
		password, err := conn.ReadPassword()
		if err != nil {
			return nil, err
		}
		created, err := h.chars.CreateWithPassword(name, password, h.startArea, h.startRoom, h.startMaxHealth)
		if err != nil {
			_ = conn.WriteLine(err.Error())
			return nil, err
		}
		c = created
	}

	superseded, err := h.sessions.Authenticate(sess.Handle, c.Name)
	if err != nil {
		return nil, err
	}
	if superseded != nil {
		_ = superseded.Outbox.Push(event.Character(superseded.CharacterName, event.CategorySystem, "Logged in elsewhere."))
		h.sessions.Close(superseded.Handle)
	}
	sess.Character = c

	_ = conn.WriteLine(fmt.Sprintf("Welcome, %s.", c.Name))
	return c, nil
}

// disconnect removes a departing character from combat and the world, and
// persists its final state (spec §5's disconnect cancellation rule).
func (h *GameHandler) disconnect(sess *session.Session) {
	c := sess.Character
	if c == nil {
		return
	}
	if c.InCombat {
		h.bus.PublishAll(event.FromCombatAll(h.combat.Leave(c.Name, "disconnect")))
	}
	h.world.LeaveRoom(c.CurrentRoom, c.Name)
	_ = h.chars.Save(c, h.quests.Reconcile)
}

// pump drains sess's outbox to conn until the outbox is closed.
func (h *GameHandler) pump(conn *Conn, sess *session.Session) {
	for raw := range sess.Outbox.Events() {
		evt, ok := raw.(event.Event)
		if !ok {
			continue
		}
		if err := conn.WriteLine(formatEvent(evt)); err != nil {
			return
		}
	}
}

// formatEvent renders an event.Event as the single line of text the
// telnet transport sends to the client.
func formatEvent(evt event.Event) string {
	switch evt.Category {
	case event.CategoryWarning:
		return "! " + evt.Message
	case event.CategoryError:
		return "!! " + evt.Message
	case event.CategoryCombat:
		return "* " + evt.Message
	case event.CategoryLoot:
		return "+ " + evt.Message
	default:
		return evt.Message
	}
}
