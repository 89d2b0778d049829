// Package quest manages a character's quest lifecycle against the
// immutable quest templates: acceptance, abandonment, objective progress,
// and turn-in (spec §4.6).
package quest

import (
	"github.com/emberreach/mud/internal/game/character"
	"github.com/emberreach/mud/internal/game/content"
	"github.com/emberreach/mud/internal/game/gameerr"
	"github.com/emberreach/mud/internal/game/inventory"
)

// LevelTable converts accumulated experience into a level and the
// character's derived max health at that level. The turn-in/complete
// contract names a "level-up per rules" without specifying a progression
// table, so this is this server's own choice: every 100 experience is a
// level, and each level adds 10 to max health. See DESIGN.md.
type LevelTable struct {
	ExperiencePerLevel int
	HealthPerLevel     int
}

// DefaultLevelTable is used when no LevelTable is configured.
func DefaultLevelTable() LevelTable {
	return LevelTable{ExperiencePerLevel: 100, HealthPerLevel: 10}
}

// LevelForExperience returns the level implied by total experience, with
// level 1 as the floor.
func (lt LevelTable) LevelForExperience(experience int) int {
	if lt.ExperiencePerLevel <= 0 {
		return 1
	}
	return 1 + experience/lt.ExperiencePerLevel
}

// Service mutates a character's quest state against a fixed catalogue of
// quest, NPC, and item templates. Like inventory.Service and
// equipment.Service it holds no per-character state; callers own
// persistence and concurrency (spec §5).
type Service struct {
	content *content.Store
	items   *inventory.Service
	levels  LevelTable
}

// NewService creates a quest Service backed by store and items, using lt
// to translate experience gains into level-ups.
func NewService(store *content.Store, items *inventory.Service, lt LevelTable) *Service {
	return &Service{content: store, items: items, levels: lt}
}

// Accept adds questID to c's active quests.
//
// Precondition: c.CurrentRoom holds the quest's giver NPC (checked via
// npcsInRoom, the ids of NPCs currently present).
// Postcondition: on success, an ActiveQuest entry is appended with every
// objective's progress at zero, and any starter items are granted.
func (s *Service) Accept(c *character.Character, questID string, npcsInRoom []string) error {
	q, ok := s.content.GetQuest(questID)
	if !ok {
		return gameerr.Newf(gameerr.TargetNotFound, "unknown quest %q", questID)
	}
	if !containsID(npcsInRoom, q.GiverNPCID) {
		return gameerr.New(gameerr.PreconditionFailed, "the quest giver is not here")
	}
	if c.Level < q.Level {
		return gameerr.Newf(gameerr.PreconditionFailed, "requires level %d", q.Level)
	}
	for _, req := range q.Prerequisites.RequiredQuestIDs {
		if !c.HasCompletedQuest(req) {
			return gameerr.Newf(gameerr.PreconditionFailed, "requires completing %q first", req)
		}
	}
	for _, req := range q.Prerequisites.RequiredItemIDs {
		if c.InventoryQuantity(req) < 1 {
			return gameerr.Newf(gameerr.PreconditionFailed, "requires carrying %q", req)
		}
	}
	if c.HasActiveQuest(questID) {
		return gameerr.New(gameerr.PreconditionFailed, "already on that quest")
	}
	if !q.Repeatable && c.HasCompletedQuest(questID) {
		return gameerr.New(gameerr.PreconditionFailed, "already completed that quest")
	}

	// Validate every starter-item grant before mutating anything: an
	// unknown item or a full inventory must fail without the quest having
	// been added to ActiveQuests (spec §4.8 Property 1).
	type grant struct {
		itemID   string
		quantity int
	}
	var grants []grant
	have := make(map[string]bool, len(c.Inventory))
	for _, stack := range c.Inventory {
		have[stack.ItemID] = true
	}
	newEntries := 0
	for _, obj := range q.Objectives {
		if obj.Type != content.ObjectiveCollect || !obj.GivenByQuestGiver {
			continue
		}
		if _, ok := s.content.GetItem(obj.Target); !ok {
			return gameerr.Newf(gameerr.TargetNotFound, "unknown item %q", obj.Target)
		}
		grants = append(grants, grant{obj.Target, obj.Quantity})
		if !have[obj.Target] {
			have[obj.Target] = true
			newEntries++
		}
	}
	if len(c.Inventory)+newEntries > s.items.Capacity() {
		return gameerr.Newf(gameerr.PreconditionFailed, "inventory is full (%d/%d)", len(c.Inventory), s.items.Capacity())
	}

	progress := make([]character.ObjectiveProgress, len(q.Objectives))
	c.ActiveQuests = append(c.ActiveQuests, character.ActiveQuest{
		QuestID:            questID,
		Status:             character.QuestInProgress,
		ObjectivesProgress: progress,
	})

	// Every grant was validated above, so these cannot fail.
	for _, g := range grants {
		_ = s.items.AddItem(c, g.itemID, g.quantity)
	}

	s.reconcileCollectObjectives(c)
	return nil
}

// CanAccept reports whether c currently satisfies every precondition to
// accept q, without mutating anything. Used to decide which quests an NPC
// offers (spec §4.8 "ask"/"talk" quest offers).
func (s *Service) CanAccept(c *character.Character, q *content.QuestTemplate) bool {
	if c.Level < q.Level {
		return false
	}
	for _, req := range q.Prerequisites.RequiredQuestIDs {
		if !c.HasCompletedQuest(req) {
			return false
		}
	}
	for _, req := range q.Prerequisites.RequiredItemIDs {
		if c.InventoryQuantity(req) < 1 {
			return false
		}
	}
	if c.HasActiveQuest(q.ID) {
		return false
	}
	if !q.Repeatable && c.HasCompletedQuest(q.ID) {
		return false
	}
	return true
}

// Abandon removes questID from c's active quests. For each collect
// objective flagged as a starter grant, up to its quantity is removed from
// inventory (whichever is less). Abandoning a non-repeatable quest does
// not record it as completed.
func (s *Service) Abandon(c *character.Character, questID string) error {
	idx := c.ActiveQuestIndex(questID)
	if idx < 0 {
		return gameerr.Newf(gameerr.PreconditionFailed, "not on quest %q", questID)
	}
	q, ok := s.content.GetQuest(questID)
	if !ok {
		return gameerr.Newf(gameerr.TargetNotFound, "unknown quest %q", questID)
	}

	for _, obj := range q.Objectives {
		if obj.Type != content.ObjectiveCollect || !obj.GivenByQuestGiver {
			continue
		}
		have := c.InventoryQuantity(obj.Target)
		take := obj.Quantity
		if have < take {
			take = have
		}
		if take > 0 {
			_ = s.items.RemoveItem(c, obj.Target, take)
		}
	}

	c.ActiveQuests = append(c.ActiveQuests[:idx], c.ActiveQuests[idx+1:]...)
	return nil
}

// ProgressUpdate advances every active quest's matching objectives by
// amount, capped at the objective's target quantity. No auto-completion:
// reaching quantity only makes the quest eligible for turn-in.
func (s *Service) ProgressUpdate(c *character.Character, objectiveType, targetID string, amount int) {
	for qi := range c.ActiveQuests {
		aq := &c.ActiveQuests[qi]
		q, ok := s.content.GetQuest(aq.QuestID)
		if !ok {
			continue
		}
		allSatisfied := true
		for oi, obj := range q.Objectives {
			if oi >= len(aq.ObjectivesProgress) {
				break
			}
			if obj.Type == objectiveType && obj.Target == targetID {
				next := aq.ObjectivesProgress[oi].Current + amount
				if next > obj.Quantity {
					next = obj.Quantity
				}
				aq.ObjectivesProgress[oi].Current = next
			}
			if aq.ObjectivesProgress[oi].Current < obj.Quantity {
				allSatisfied = false
			}
		}
		if allSatisfied {
			aq.Status = character.QuestTurnInEligible
		}
	}
	s.reconcileCollectObjectives(c)
}

// Reconcile synchronizes every active quest's collect objectives against
// c's live inventory. It is the hook character.Store.Save calls on every
// save (spec §4.2's save-time reconciliation).
func (s *Service) Reconcile(c *character.Character) {
	s.reconcileCollectObjectives(c)
}

// reconcileCollectObjectives synchronizes every active quest's collect
// objectives against the character's live inventory, per the save-time
// reconciliation the accept/progress/turn-in paths all require.
func (s *Service) reconcileCollectObjectives(c *character.Character) {
	for qi := range c.ActiveQuests {
		aq := &c.ActiveQuests[qi]
		q, ok := s.content.GetQuest(aq.QuestID)
		if !ok {
			continue
		}
		allSatisfied := len(q.Objectives) > 0
		for oi, obj := range q.Objectives {
			if oi >= len(aq.ObjectivesProgress) {
				break
			}
			if obj.Type == content.ObjectiveCollect {
				have := c.InventoryQuantity(obj.Target)
				if have > obj.Quantity {
					have = obj.Quantity
				}
				aq.ObjectivesProgress[oi].Current = have
			}
			if aq.ObjectivesProgress[oi].Current < obj.Quantity {
				allSatisfied = false
			}
		}
		if allSatisfied {
			aq.Status = character.QuestTurnInEligible
		}
	}
}

// TurnIn completes questID: removes collect-objective items, grants
// rewards, and moves the quest from active to completed.
//
// Precondition: character is co-located with the quest's turn-in NPC (or
// giver, if no turn-in NPC is set); every objective is satisfied.
func (s *Service) TurnIn(c *character.Character, questID string, npcsInRoom []string) error {
	idx := c.ActiveQuestIndex(questID)
	if idx < 0 {
		return gameerr.Newf(gameerr.PreconditionFailed, "not on quest %q", questID)
	}
	q, ok := s.content.GetQuest(questID)
	if !ok {
		return gameerr.Newf(gameerr.TargetNotFound, "unknown quest %q", questID)
	}
	if !containsID(npcsInRoom, q.EffectiveTurnInNPCID()) {
		return gameerr.New(gameerr.PreconditionFailed, "the quest turn-in contact is not here")
	}

	aq := c.ActiveQuests[idx]
	for oi, obj := range q.Objectives {
		if oi >= len(aq.ObjectivesProgress) {
			return gameerr.New(gameerr.PreconditionFailed, "objectives are not complete")
		}
		if aq.ObjectivesProgress[oi].Current < obj.Quantity {
			return gameerr.New(gameerr.PreconditionFailed, "objectives are not complete")
		}
	}

	// Stage every removal and grant's precondition up front: a failure
	// partway through must never leave collect items consumed, rewards
	// partially granted, or the quest stuck in ActiveQuests (spec §4.8
	// Property 1).
	type removal struct {
		itemID string
		take   int
	}
	var removals []removal
	remaining := make(map[string]int, len(c.Inventory))
	for _, stack := range c.Inventory {
		remaining[stack.ItemID] = stack.Quantity
	}
	for _, obj := range q.Objectives {
		if obj.Type != content.ObjectiveCollect {
			continue
		}
		have := remaining[obj.Target]
		take := obj.Quantity
		if have < take {
			take = have
		}
		if take == 0 {
			continue
		}
		if c.IsItemEquipped(obj.Target) {
			return gameerr.Newf(gameerr.PreconditionFailed, "%q is equipped; unequip it first", obj.Target)
		}
		removals = append(removals, removal{obj.Target, take})
		remaining[obj.Target] -= take
	}

	stillCarried := make(map[string]bool, len(remaining))
	for itemID, qty := range remaining {
		if qty > 0 {
			stillCarried[itemID] = true
		}
	}
	slots := len(stillCarried)
	newEntries := 0
	for _, itemID := range q.Rewards.ItemIDs {
		if _, ok := s.content.GetItem(itemID); !ok {
			return gameerr.Newf(gameerr.TargetNotFound, "unknown item %q", itemID)
		}
		if stillCarried[itemID] {
			continue
		}
		stillCarried[itemID] = true
		newEntries++
	}
	if slots+newEntries > s.items.Capacity() {
		return gameerr.Newf(gameerr.PreconditionFailed, "inventory is full (%d/%d)", slots, s.items.Capacity())
	}

	// Every removal and grant was validated above, so these cannot fail.
	for _, rem := range removals {
		_ = s.items.RemoveItem(c, rem.itemID, rem.take)
	}
	for _, itemID := range q.Rewards.ItemIDs {
		_ = s.items.AddItem(c, itemID, 1)
	}
	c.Gold += q.Rewards.Gold
	s.GrantExperience(c, q.Rewards.Experience)

	c.ActiveQuests = append(c.ActiveQuests[:idx], c.ActiveQuests[idx+1:]...)
	if !c.HasCompletedQuest(questID) {
		c.CompletedQuests = append(c.CompletedQuests, questID)
	}
	return nil
}

// GrantExperience adds amount to c.Experience and applies any resulting
// level-ups, raising MaxHealth (and current Health by the same delta) for
// each level gained. Shared by quest turn-in rewards and combat's enemy
// defeat rewards.
func (s *Service) GrantExperience(c *character.Character, amount int) {
	if amount <= 0 {
		return
	}
	before := s.levels.LevelForExperience(c.Experience)
	c.Experience += amount
	after := s.levels.LevelForExperience(c.Experience)
	if after > before {
		gained := after - before
		c.Level = after
		delta := gained * s.levels.HealthPerLevel
		c.MaxHealth += delta
		c.Health += delta
	}
}

func containsID(ids []string, target string) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
