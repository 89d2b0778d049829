package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emberreach/mud/internal/game/event"
	"github.com/emberreach/mud/internal/game/gameerr"
	"github.com/emberreach/mud/internal/game/session"
)

func (r *Router) handleSay(sess *session.Session, rawArgs string) []event.Event {
	c := sess.Character
	msg := strings.TrimSpace(rawArgs)
	if msg == "" {
		return r.usage(sess, "say <message>")
	}
	events := []event.Event{event.Character(c.Name, event.CategoryChat, fmt.Sprintf("You say, \"%s\"", msg))}
	events = append(events, event.RoomExcept(c.CurrentRoom, c.Name, event.CategoryChat, fmt.Sprintf("%s says, \"%s\"", c.Name, msg)))
	return events
}

func (r *Router) handleEmote(sess *session.Session, rawArgs string) []event.Event {
	c := sess.Character
	action := strings.TrimSpace(rawArgs)
	if action == "" {
		return r.usage(sess, "emote <action>")
	}
	line := fmt.Sprintf("%s %s", c.Name, action)
	events := []event.Event{event.Character(c.Name, event.CategoryChat, line)}
	events = append(events, event.RoomExcept(c.CurrentRoom, c.Name, event.CategoryChat, line))
	return events
}

func (r *Router) handleTell(sess *session.Session, args []string, rawArgs string) []event.Event {
	if len(args) < 2 {
		return r.usage(sess, "tell <player> <message>")
	}
	target := args[0]
	msg := strings.TrimSpace(strings.TrimPrefix(rawArgs, args[0]))
	if msg == "" {
		return r.usage(sess, "tell <player> <message>")
	}
	return r.whisper(sess, target, msg)
}

func (r *Router) handleReply(sess *session.Session, rawArgs string) []event.Event {
	msg := strings.TrimSpace(rawArgs)
	if msg == "" {
		return r.usage(sess, "reply <message>")
	}
	target := sess.LastWhisperFrom
	if target == "" {
		return []event.Event{r.errEvent(sess, gameerr.New(gameerr.PreconditionFailed, "no one has whispered to you yet"))}
	}
	return r.whisper(sess, target, msg)
}

func (r *Router) whisper(sess *session.Session, targetName, msg string) []event.Event {
	c := sess.Character
	targetSess, ok := r.sessions.ByCharacter(targetName)
	if !ok || targetSess.State != session.Playing {
		return []event.Event{r.errEvent(sess, gameerr.Newf(gameerr.TargetNotFound, "%q is not online", targetName))}
	}
	targetSess.LastWhisperFrom = c.Name
	events := []event.Event{event.Character(c.Name, event.CategoryWhisper, fmt.Sprintf("You whisper to %s, \"%s\"", targetSess.CharacterName, msg))}
	events = append(events, event.Character(targetSess.CharacterName, event.CategoryWhisper, fmt.Sprintf("%s whispers, \"%s\"", c.Name, msg)))
	return events
}

func (r *Router) handleWho(sess *session.Session) []event.Event {
	names := make([]string, 0)
	for _, s := range r.sessions.PlayingSessions() {
		names = append(names, s.CharacterName)
	}
	sort.Strings(names)
	msg := fmt.Sprintf("Online (%d): %s", len(names), joinOrNone(names))
	return []event.Event{event.Character(sess.CharacterName, event.CategoryNormal, msg)}
}

func (r *Router) handleFriends(sess *session.Session, args []string) []event.Event {
	c := sess.Character
	if len(args) == 0 {
		if len(c.Friends) == 0 {
			return []event.Event{event.Character(c.Name, event.CategoryNormal, "You have no friends listed.")}
		}
		lines := make([]string, 0, len(c.Friends))
		for _, name := range sortedStrings(c.Friends) {
			if note := c.FriendNotes[name]; note != "" {
				lines = append(lines, fmt.Sprintf("%s (%s)", name, note))
			} else {
				lines = append(lines, name)
			}
		}
		return []event.Event{event.Character(c.Name, event.CategoryNormal, strings.Join(lines, ", "))}
	}

	sub := strings.ToLower(args[0])
	switch sub {
	case "add":
		if len(args) < 2 {
			return r.usage(sess, "friends add <name>")
		}
		name := args[1]
		if !containsFold(c.Friends, name) {
			c.Friends = append(c.Friends, name)
		}
		if len(args) > 2 {
			if c.FriendNotes == nil {
				c.FriendNotes = make(map[string]string)
			}
			c.FriendNotes[name] = strings.Join(args[2:], " ")
		}
		events := []event.Event{event.Character(c.Name, event.CategorySuccess, fmt.Sprintf("Added %s to your friends.", name))}
		events = append(events, r.save(sess)...)
		return events
	case "remove":
		if len(args) < 2 {
			return r.usage(sess, "friends remove <name>")
		}
		name := args[1]
		c.Friends = removeFold(c.Friends, name)
		delete(c.FriendNotes, name)
		events := []event.Event{event.Character(c.Name, event.CategorySuccess, fmt.Sprintf("Removed %s from your friends.", name))}
		events = append(events, r.save(sess)...)
		return events
	case "note":
		if len(args) < 3 {
			return r.usage(sess, "friends note <name> <note>")
		}
		name := args[1]
		if c.FriendNotes == nil {
			c.FriendNotes = make(map[string]string)
		}
		c.FriendNotes[name] = strings.Join(args[2:], " ")
		events := []event.Event{event.Character(c.Name, event.CategorySuccess, fmt.Sprintf("Noted %s.", name))}
		events = append(events, r.save(sess)...)
		return events
	default:
		return r.usage(sess, "friends [add|remove|note] <name>")
	}
}

func containsFold(list []string, target string) bool {
	for _, s := range list {
		if strings.EqualFold(s, target) {
			return true
		}
	}
	return false
}

func removeFold(list []string, target string) []string {
	out := list[:0]
	for _, s := range list {
		if !strings.EqualFold(s, target) {
			out = append(out, s)
		}
	}
	return out
}
