package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emberreach/mud/internal/game/character"
	"github.com/emberreach/mud/internal/game/content"
	"github.com/emberreach/mud/internal/game/event"
	"github.com/emberreach/mud/internal/game/gameerr"
	"github.com/emberreach/mud/internal/game/session"
)

// offerableQuests returns the quests whose giver is npcID that c is
// currently eligible to accept, in content order. Quests for which npcID is
// only the turn-in NPC are not included.
func (r *Router) offerableQuests(c *session.Session, npcID string) []*content.QuestTemplate {
	npc, ok := r.content.GetNPC(npcID)
	if !ok {
		return nil
	}
	out := make([]*content.QuestTemplate, 0, len(npc.QuestIDs))
	for _, qid := range npc.QuestIDs {
		q, ok := r.content.GetQuest(qid)
		if !ok {
			continue
		}
		if q.GiverNPCID != npcID {
			continue
		}
		if r.quests.CanAccept(c.Character, q) {
			out = append(out, q)
		}
	}
	return out
}

func (r *Router) npcCandidates(roomID string) []Candidate {
	out := make([]Candidate, 0)
	for _, id := range r.npcsInRoom(roomID) {
		if tmpl, ok := r.content.GetNPC(id); ok {
			out = append(out, Candidate{Name: tmpl.Name, Data: id})
		}
	}
	return out
}

func (r *Router) handleTalk(sess *session.Session, rawTarget string) []event.Event {
	c := sess.Character
	target := strings.TrimSpace(rawTarget)
	if target == "" {
		return r.usage(sess, "talk <npc>")
	}

	best, score, ok := FindBest(target, r.npcCandidates(c.CurrentRoom))
	if !ok {
		return []event.Event{r.errEvent(sess, gameerr.Newf(gameerr.TargetNotFound, "there's no one here called %q", target))}
	}
	npcID := best.Data.(string)
	npc, _ := r.content.GetNPC(npcID)

	msg := npc.Dialogue.Greeting
	if score < 100 {
		msg = fmt.Sprintf("(%s) %s", npc.Name, msg)
	}
	events := []event.Event{event.Character(c.Name, event.CategoryNormal, msg)}
	events = append(events, r.presentQuestOffers(sess, npcID, npc.Name)...)
	return events
}

func (r *Router) handleAsk(sess *session.Session, args []string, rawArgs string) []event.Event {
	c := sess.Character
	if len(args) == 0 {
		return r.usage(sess, "ask <npc> about <topic>")
	}
	best, score, ok := FindBest(args[0], r.npcCandidates(c.CurrentRoom))
	if !ok {
		return []event.Event{r.errEvent(sess, gameerr.Newf(gameerr.TargetNotFound, "there's no one here called %q", args[0]))}
	}
	npcID := best.Data.(string)
	npc, _ := r.content.GetNPC(npcID)

	topic := strings.TrimSpace(strings.TrimPrefix(rawArgs, args[0]))
	topic = strings.TrimPrefix(topic, "about ")
	topic = strings.TrimSpace(topic)

	if topic == "" || strings.EqualFold(topic, "quest") || strings.EqualFold(topic, "quests") {
		events := []event.Event{event.Character(c.Name, event.CategoryNormal, fmt.Sprintf("(%s) %s", npc.Name, npc.Dialogue.Greeting))}
		events = append(events, r.presentQuestOffers(sess, npcID, npc.Name)...)
		return events
	}

	for key, resp := range npc.Dialogue.Responses {
		if strings.EqualFold(key, topic) {
			msg := resp
			if score < 100 {
				msg = fmt.Sprintf("(%s) %s", npc.Name, msg)
			}
			return []event.Event{event.Character(c.Name, event.CategoryNormal, msg)}
		}
	}
	return []event.Event{event.Character(c.Name, event.CategoryNormal, fmt.Sprintf("%s has nothing to say about that.", npc.Name))}
}

// presentQuestOffers lists npcID's currently acceptable quests as a
// numbered offer, and records them in the session's ephemeral context so
// a following "accept <number>" or "accept <name>" can resolve them (spec
// §4.8 "Context-sensitive state").
func (r *Router) presentQuestOffers(sess *session.Session, npcID, npcName string) []event.Event {
	quests := r.offerableQuests(sess, npcID)
	if len(quests) == 0 {
		return nil
	}
	lines := make([]string, 0, len(quests))
	for i, q := range quests {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, q.Name))
		r.setContext(sess.Handle, fmt.Sprintf("offer:%d", i+1), offeredQuest{QuestID: q.ID, NPCID: npcID}, "accept", "ask")
		r.setContext(sess.Handle, "offer:"+strings.ToLower(q.Name), offeredQuest{QuestID: q.ID, NPCID: npcID}, "accept", "ask")
	}
	msg := fmt.Sprintf("%s offers:\n%s", npcName, strings.Join(lines, "\n"))
	return []event.Event{event.Character(sess.CharacterName, event.CategoryQuest, msg)}
}

func (r *Router) resolveOfferedQuest(sess *session.Session, name string) (offeredQuest, bool) {
	if data, ok := r.context(sess.Handle, "offer:"+name); ok {
		if oq, ok := data.(offeredQuest); ok {
			return oq, true
		}
	}
	if data, ok := r.context(sess.Handle, "offer:"+strings.ToLower(name)); ok {
		if oq, ok := data.(offeredQuest); ok {
			return oq, true
		}
	}
	return offeredQuest{}, false
}

func (r *Router) handleAccept(sess *session.Session, rawArgs string) []event.Event {
	c := sess.Character
	name := strings.TrimSpace(rawArgs)
	if name == "" {
		return r.usage(sess, "accept <quest>")
	}
	oq, ok := r.resolveOfferedQuest(sess, name)
	if !ok {
		return []event.Event{r.errEvent(sess, gameerr.Newf(gameerr.TargetNotFound, "no quest offer matches %q", name))}
	}
	if err := r.quests.Accept(c, oq.QuestID, r.npcsInRoom(c.CurrentRoom)); err != nil {
		return []event.Event{r.errEvent(sess, err)}
	}
	q, _ := r.content.GetQuest(oq.QuestID)
	events := []event.Event{event.Character(c.Name, event.CategorySuccess, fmt.Sprintf("Accepted quest: %s", q.Name))}
	events = append(events, r.save(sess)...)
	return events
}

func (r *Router) activeQuestCandidates(c *session.Session) []Candidate {
	out := make([]Candidate, 0, len(c.Character.ActiveQuests))
	for i, aq := range c.Character.ActiveQuests {
		if q, ok := r.content.GetQuest(aq.QuestID); ok {
			out = append(out, Candidate{Name: q.Name, Data: aq.QuestID})
			r.setContext(c.Handle, fmt.Sprintf("active:%d", i+1), aq.QuestID, "abandon", "quest", "turn")
		}
	}
	return out
}

func (r *Router) resolveActiveQuest(sess *session.Session, name string) (string, bool) {
	if n, err := strconv.Atoi(strings.TrimSpace(name)); err == nil {
		if data, ok := r.context(sess.Handle, fmt.Sprintf("active:%d", n)); ok {
			if questID, ok := data.(string); ok {
				return questID, true
			}
		}
	}
	candidates := r.activeQuestCandidates(sess)
	best, _, ok := FindBest(name, candidates)
	if !ok {
		return "", false
	}
	return best.Data.(string), true
}

func (r *Router) handleAbandon(sess *session.Session, rawArgs string) []event.Event {
	c := sess.Character
	name := strings.TrimSpace(rawArgs)
	if name == "" {
		return r.usage(sess, "abandon <quest>")
	}
	questID, ok := r.resolveActiveQuest(sess, name)
	if !ok {
		return []event.Event{r.errEvent(sess, gameerr.Newf(gameerr.TargetNotFound, "you aren't on a quest matching %q", name))}
	}
	if err := r.quests.Abandon(c, questID); err != nil {
		return []event.Event{r.errEvent(sess, err)}
	}
	q, _ := r.content.GetQuest(questID)
	events := []event.Event{event.Character(c.Name, event.CategorySuccess, fmt.Sprintf("Abandoned quest: %s", q.Name))}
	events = append(events, r.save(sess)...)
	return events
}

func (r *Router) handleQuest(sess *session.Session, args []string) []event.Event {
	if len(args) == 0 {
		return r.listActiveQuests(sess)
	}
	switch strings.ToLower(args[0]) {
	case "info":
		if len(args) < 2 {
			return r.usage(sess, "quest info <name>")
		}
		return r.questInfo(sess, strings.Join(args[1:], " "))
	case "complete":
		if len(args) < 2 {
			return r.usage(sess, "quest complete <name>")
		}
		return r.turnIn(sess, strings.Join(args[1:], " "))
	default:
		return r.questInfo(sess, strings.Join(args, " "))
	}
}

func (r *Router) listActiveQuests(sess *session.Session) []event.Event {
	c := sess.Character
	if len(c.ActiveQuests) == 0 {
		return []event.Event{event.Character(c.Name, event.CategoryNormal, "You have no active quests.")}
	}
	lines := make([]string, 0, len(c.ActiveQuests))
	for i, aq := range c.ActiveQuests {
		q, ok := r.content.GetQuest(aq.QuestID)
		if !ok {
			continue
		}
		status := "in progress"
		if aq.Status == character.QuestTurnInEligible {
			status = "ready to turn in"
		}
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, q.Name, status))
		r.setContext(sess.Handle, fmt.Sprintf("active:%d", i+1), aq.QuestID, "abandon", "quest", "turn")
	}
	return []event.Event{event.Character(c.Name, event.CategoryQuest, strings.Join(lines, "\n"))}
}

func (r *Router) questInfo(sess *session.Session, name string) []event.Event {
	questID, ok := r.resolveActiveQuest(sess, name)
	if !ok {
		return []event.Event{r.errEvent(sess, gameerr.Newf(gameerr.TargetNotFound, "you aren't on a quest matching %q", name))}
	}
	q, _ := r.content.GetQuest(questID)
	return []event.Event{event.Character(sess.CharacterName, event.CategoryNormal, fmt.Sprintf("%s\n%s", q.Name, q.Description))}
}

func (r *Router) handleTurnIn(sess *session.Session, args []string) []event.Event {
	if len(args) > 0 && strings.EqualFold(args[0], "in") {
		args = args[1:]
	}
	name := strings.Join(args, " ")
	if strings.TrimSpace(name) == "" {
		return r.usage(sess, "turn in <quest>")
	}
	return r.turnIn(sess, name)
}

func (r *Router) turnIn(sess *session.Session, name string) []event.Event {
	c := sess.Character
	questID, ok := r.resolveActiveQuest(sess, name)
	if !ok {
		return []event.Event{r.errEvent(sess, gameerr.Newf(gameerr.TargetNotFound, "you aren't on a quest matching %q", name))}
	}
	if err := r.quests.TurnIn(c, questID, r.npcsInRoom(c.CurrentRoom)); err != nil {
		return []event.Event{r.errEvent(sess, err)}
	}
	q, _ := r.content.GetQuest(questID)
	events := []event.Event{event.Character(c.Name, event.CategorySuccess, fmt.Sprintf("Turned in quest: %s", q.Name))}
	events = append(events, r.save(sess)...)
	return events
}

func (r *Router) handleBind(sess *session.Session) []event.Event {
	c := sess.Character
	bound := false
	for _, id := range r.npcsInRoom(c.CurrentRoom) {
		if npc, ok := r.content.GetNPC(id); ok && npc.HomestoneBinder {
			bound = true
			break
		}
	}
	if !bound {
		return []event.Event{r.errEvent(sess, gameerr.New(gameerr.PreconditionFailed, "there's no one here to bind your homestone"))}
	}
	area, room := c.CurrentArea, c.CurrentRoom
	c.Homestone = &character.Homestone{Area: area, Room: room}
	events := []event.Event{event.Character(c.Name, event.CategorySuccess, "Your homestone is bound here.")}
	events = append(events, r.save(sess)...)
	return events
}
