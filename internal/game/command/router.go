package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emberreach/mud/internal/game/character"
	"github.com/emberreach/mud/internal/game/combat"
	"github.com/emberreach/mud/internal/game/content"
	"github.com/emberreach/mud/internal/game/equipment"
	"github.com/emberreach/mud/internal/game/event"
	"github.com/emberreach/mud/internal/game/gameerr"
	"github.com/emberreach/mud/internal/game/inventory"
	"github.com/emberreach/mud/internal/game/quest"
	"github.com/emberreach/mud/internal/game/session"
	"github.com/emberreach/mud/internal/game/world"
)

// contextEntry is one ephemeral per-session state entry: arbitrary data
// plus the verbs that do NOT clear it when executed (spec §4.8
// "Context-sensitive state").
type contextEntry struct {
	data       interface{}
	exceptions map[string]bool
}

// offeredQuest is one line of a numbered quest offer shown by talk/ask, so
// a later "accept 2" can resolve the number.
type offeredQuest struct {
	QuestID  string
	NPCID    string
	GiverIDs []string // NPCs present at the time of the offer, for re-validation
}

// numberedQuest is one line of the numbered list shown by "quest", so a
// later "abandon 1" can resolve the number.
type numberedQuest struct {
	QuestID string
}

// Router parses and dispatches player input against the live game state.
// It holds no durable state of its own beyond the per-session ephemeral
// context map; every other mutation happens through the services it was
// built with (spec §4.8).
type Router struct {
	registry *Registry
	content  *content.Store
	world    *world.State
	sessions *session.Registry
	chars    *character.Store
	items    *inventory.Service
	equip    *equipment.Service
	quests   *quest.Service
	combat   *combat.Engine

	ctx map[string]map[string]contextEntry // session handle -> key -> entry
}

// NewRouter wires a Router against the live game services.
func NewRouter(
	registry *Registry,
	store *content.Store,
	w *world.State,
	sessions *session.Registry,
	chars *character.Store,
	items *inventory.Service,
	equip *equipment.Service,
	quests *quest.Service,
	combatEngine *combat.Engine,
) *Router {
	return &Router{
		registry: registry,
		content:  store,
		world:    w,
		sessions: sessions,
		chars:    chars,
		items:    items,
		equip:    equip,
		quests:   quests,
		combat:   combatEngine,
		ctx:      make(map[string]map[string]contextEntry),
	}
}

// Dispatch parses line from the session at handle and executes the
// resulting verb, returning every event it produced. An empty line
// produces no events; an unrecognized verb produces a warning (spec
// §4.8 "Failure semantics").
func (r *Router) Dispatch(handle, line string) []event.Event {
	sess, ok := r.sessions.ByHandle(handle)
	if !ok || sess.Character == nil {
		return nil
	}

	parsed := Parse(line)
	if parsed.Command == "" {
		return nil
	}

	cmd, ok := r.registry.Resolve(parsed.Command)
	if !ok {
		r.clearContextExcept(handle, parsed.Command)
		return []event.Event{event.Character(sess.CharacterName, event.CategoryWarning,
			fmt.Sprintf("Unknown command: %q", parsed.Command))}
	}
	r.clearContextExcept(handle, cmd.Name)

	return r.handle(sess, cmd, parsed)
}

func (r *Router) handle(sess *session.Session, cmd *Command, parsed ParseResult) []event.Event {
	switch cmd.Handler {
	case HandlerMove:
		return r.handleMove(sess, cmd.Name)
	case HandlerGo:
		if len(parsed.Args) == 0 {
			return r.usage(sess, "go <direction>")
		}
		return r.handleMove(sess, parsed.Args[0])
	case HandlerLook:
		return r.handleLook(sess, parsed.RawArgs)
	case HandlerExamine:
		return r.handleExamine(sess, parsed.RawArgs)
	case HandlerInventory:
		return r.handleInventory(sess)
	case HandlerTake:
		return r.handleTake(sess, parsed.RawArgs)
	case HandlerDrop:
		return r.handleDrop(sess, parsed.RawArgs)
	case HandlerUse:
		return r.handleUse(sess, parsed.RawArgs)
	case HandlerEquip:
		return r.handleEquip(sess, parsed.RawArgs)
	case HandlerUnequip:
		return r.handleUnequip(sess, parsed.RawArgs)
	case HandlerEquipment:
		return r.handleEquipment(sess)
	case HandlerSay:
		return r.handleSay(sess, parsed.RawArgs)
	case HandlerTell:
		return r.handleTell(sess, parsed.Args, parsed.RawArgs)
	case HandlerReply:
		return r.handleReply(sess, parsed.RawArgs)
	case HandlerEmote:
		return r.handleEmote(sess, parsed.RawArgs)
	case HandlerWho:
		return r.handleWho(sess)
	case HandlerFriends:
		return r.handleFriends(sess, parsed.Args)
	case HandlerTalk:
		return r.handleTalk(sess, parsed.RawArgs)
	case HandlerAsk:
		return r.handleAsk(sess, parsed.Args, parsed.RawArgs)
	case HandlerQuest:
		return r.handleQuest(sess, parsed.Args)
	case HandlerAccept:
		return r.handleAccept(sess, parsed.RawArgs)
	case HandlerAbandon:
		return r.handleAbandon(sess, parsed.RawArgs)
	case HandlerTurnIn:
		return r.handleTurnIn(sess, parsed.Args)
	case HandlerAttack:
		return r.handleAttack(sess, parsed.RawArgs)
	case HandlerFlee:
		return r.handleFlee(sess)
	case HandlerBind:
		return r.handleBind(sess)
	case HandlerHelp:
		return r.handleHelp(sess)
	case HandlerStats:
		return r.handleStats(sess)
	case HandlerHealth:
		return r.handleHealth(sess)
	case HandlerSave:
		return r.handleSave(sess)
	case HandlerQuit:
		return r.handleQuit(sess)
	case HandlerPassword:
		return r.handlePassword(sess, parsed.RawArgs)
	default:
		return []event.Event{event.Character(sess.CharacterName, event.CategoryError, "An error occurred.")}
	}
}

// setContext installs or replaces an ephemeral context entry for handle.
func (r *Router) setContext(handle, key string, data interface{}, exceptions ...string) {
	if r.ctx[handle] == nil {
		r.ctx[handle] = make(map[string]contextEntry)
	}
	exc := make(map[string]bool, len(exceptions))
	for _, e := range exceptions {
		exc[e] = true
	}
	r.ctx[handle][key] = contextEntry{data: data, exceptions: exc}
}

// context returns the live data for key, if any.
func (r *Router) context(handle, key string) (interface{}, bool) {
	entry, ok := r.ctx[handle][key]
	if !ok {
		return nil, false
	}
	return entry.data, true
}

// clearContextExcept drops every context entry whose exception list does
// not include verb, per spec §4.8.
func (r *Router) clearContextExcept(handle, verb string) {
	keys := r.ctx[handle]
	for key, entry := range keys {
		if !entry.exceptions[verb] {
			delete(keys, key)
		}
	}
}

func (r *Router) usage(sess *session.Session, text string) []event.Event {
	return []event.Event{event.Character(sess.CharacterName, event.CategoryWarning, "Usage: "+text)}
}

// errEvent converts err into an outbound event (spec §4.8 "Failure
// semantics"): user-visible kinds become a warning with their message,
// everything else becomes the opaque error "An error occurred." for the
// player. The router does not log the underlying error.
func (r *Router) errEvent(sess *session.Session, err error) event.Event {
	kind := gameerr.KindOf(err)
	if kind.UserVisible() {
		msg := err.Error()
		if ge, ok := err.(*gameerr.Error); ok {
			msg = ge.Message
		}
		return event.Character(sess.CharacterName, event.CategoryWarning, msg)
	}
	return event.Character(sess.CharacterName, event.CategoryError, "An error occurred.")
}

// save persists sess.Character, running quest-progress reconciliation,
// and returns an error event on failure (spec §4.2's state-changing-save
// contract).
func (r *Router) save(sess *session.Session) []event.Event {
	if err := r.chars.Save(sess.Character, r.quests.Reconcile); err != nil {
		return []event.Event{r.errEvent(sess, err)}
	}
	return nil
}

func (r *Router) npcsInRoom(roomID string) []string {
	room, ok := r.world.GetRoom(roomID)
	if !ok {
		return nil
	}
	return room.NPCs
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
