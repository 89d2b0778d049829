package content

import "fmt"

// Store is the read-only, immutable template index built by Load. All
// lookup methods are safe for concurrent use by many goroutines since
// nothing in a Store is ever mutated after construction (spec §4.1).
type Store struct {
	items   map[string]*Item
	enemies map[string]*EnemyTemplate
	npcs    map[string]*NPCTemplate
	quests  map[string]*QuestTemplate
	areas   map[string]*Area
	rooms   map[string]*RoomTemplate
}

// GetItem returns the item template with the given id.
func (s *Store) GetItem(id string) (*Item, bool) {
	i, ok := s.items[id]
	return i, ok
}

// GetEnemy returns the enemy template with the given id.
func (s *Store) GetEnemy(id string) (*EnemyTemplate, bool) {
	e, ok := s.enemies[id]
	return e, ok
}

// GetNPC returns the NPC template with the given id.
func (s *Store) GetNPC(id string) (*NPCTemplate, bool) {
	n, ok := s.npcs[id]
	return n, ok
}

// GetQuest returns the quest template with the given id.
func (s *Store) GetQuest(id string) (*QuestTemplate, bool) {
	q, ok := s.quests[id]
	return q, ok
}

// GetRoom returns the room template with the given id (form "area.room").
func (s *Store) GetRoom(id string) (*RoomTemplate, bool) {
	r, ok := s.rooms[id]
	return r, ok
}

// GetArea returns the area with the given id.
func (s *Store) GetArea(id string) (*Area, bool) {
	a, ok := s.areas[id]
	return a, ok
}

// AreaIDs returns every loaded area id, for callers that need to walk all
// areas (e.g. world.NewState seeding live rooms).
func (s *Store) AreaIDs() []string {
	out := make([]string, 0, len(s.areas))
	for id := range s.areas {
		out = append(out, id)
	}
	return out
}

// RoomsInArea returns every room belonging to the given area id.
func (s *Store) RoomsInArea(areaID string) []*RoomTemplate {
	area, ok := s.areas[areaID]
	if !ok {
		return nil
	}
	out := make([]*RoomTemplate, 0, len(area.Rooms))
	for _, r := range area.Rooms {
		out = append(out, r)
	}
	return out
}

// AllQuests returns every loaded quest template.
func (s *Store) AllQuests() []*QuestTemplate {
	out := make([]*QuestTemplate, 0, len(s.quests))
	for _, q := range s.quests {
		out = append(out, q)
	}
	return out
}

// Counts reports how many templates of each kind were loaded, logged at
// startup the way the teacher logs world-load stats.
type Counts struct {
	Items   int
	Enemies int
	NPCs    int
	Quests  int
	Areas   int
	Rooms   int
}

// Counts returns the size of every loaded template collection.
func (s *Store) Counts() Counts {
	return Counts{
		Items:   len(s.items),
		Enemies: len(s.enemies),
		NPCs:    len(s.npcs),
		Quests:  len(s.quests),
		Areas:   len(s.areas),
		Rooms:   len(s.rooms),
	}
}

// validate cross-checks every reference between templates and reports
// every problem found, not just the first (spec §4.1).
func (s *Store) validate() error {
	le := &LoadError{}

	for id, room := range s.rooms {
		for _, itemID := range room.Items {
			if _, ok := s.items[itemID]; !ok {
				le.add("room %s references unknown item %q", id, itemID)
			}
		}
		for _, npcID := range room.NPCs {
			if _, ok := s.npcs[npcID]; !ok {
				le.add("room %s references unknown npc %q", id, npcID)
			}
		}
		for _, enemyID := range room.Enemies {
			if _, ok := s.enemies[enemyID]; !ok {
				le.add("room %s references unknown enemy %q", id, enemyID)
			}
		}
		for dir, destID := range room.Exits {
			if _, ok := s.rooms[destID]; !ok {
				le.add("room %s exit %q references unknown room %q", id, dir, destID)
			}
		}
	}

	for id, enemy := range s.enemies {
		for _, loot := range enemy.Loot {
			if _, ok := s.items[loot.ItemID]; !ok {
				le.add("enemy %s loot table references unknown item %q", id, loot.ItemID)
			}
			if loot.Chance < 0 || loot.Chance > 1 {
				le.add("enemy %s loot entry for %q has chance %v outside [0,1]", id, loot.ItemID, loot.Chance)
			}
		}
	}

	for id, npc := range s.npcs {
		for _, questID := range npc.QuestIDs {
			if _, ok := s.quests[questID]; !ok {
				le.add("npc %s references unknown quest %q", id, questID)
			}
		}
	}

	for id, quest := range s.quests {
		if quest.GiverNPCID != "" {
			if _, ok := s.npcs[quest.GiverNPCID]; !ok {
				le.add("quest %s references unknown giver npc %q", id, quest.GiverNPCID)
			}
		}
		if _, ok := s.npcs[quest.EffectiveTurnInNPCID()]; quest.EffectiveTurnInNPCID() != "" && !ok {
			le.add("quest %s references unknown turn-in npc %q", id, quest.EffectiveTurnInNPCID())
		}
		for _, reqID := range quest.Prerequisites.RequiredQuestIDs {
			if _, ok := s.quests[reqID]; !ok {
				le.add("quest %s prerequisite references unknown quest %q", id, reqID)
			}
		}
		for _, reqID := range quest.Prerequisites.RequiredItemIDs {
			if _, ok := s.items[reqID]; !ok {
				le.add("quest %s prerequisite references unknown item %q", id, reqID)
			}
		}
		for _, itemID := range quest.Rewards.ItemIDs {
			if _, ok := s.items[itemID]; !ok {
				le.add("quest %s reward references unknown item %q", id, itemID)
			}
		}
		for i, obj := range quest.Objectives {
			switch obj.Type {
			case ObjectiveKill:
				if _, ok := s.enemies[obj.Target]; !ok {
					le.add("quest %s objective %d (kill) references unknown enemy %q", id, i, obj.Target)
				}
			case ObjectiveCollect, ObjectiveDeliver:
				if _, ok := s.items[obj.Target]; !ok {
					le.add("quest %s objective %d (%s) references unknown item %q", id, i, obj.Type, obj.Target)
				}
			case ObjectiveVisit:
				if _, ok := s.rooms[obj.Target]; !ok {
					le.add("quest %s objective %d (visit) references unknown room %q", id, i, obj.Target)
				}
			}
		}
	}

	for id, item := range s.items {
		if item.Kind == "" {
			le.add("item %s has no kind", id)
		}
		if item.Kind == KindArmor || item.Kind == KindShield || item.Kind == KindAccessory {
			if !validSlot(item.Slot) {
				le.add("item %s has invalid equipment slot %q", id, item.Slot)
			}
		}
	}

	if len(s.rooms) == 0 {
		le.add("no rooms loaded from any area")
	}

	return le.errOrNil()
}

func validSlot(slot string) bool {
	for _, s := range ValidSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// MustLoad is a convenience wrapper for callers (such as main) that treat
// a content load failure as fatal.
func MustLoad(itemsDir, npcsDir, questsDir, enemiesDir, areasDir string) *Store {
	s, err := Load(itemsDir, npcsDir, questsDir, enemiesDir, areasDir)
	if err != nil {
		panic(fmt.Sprintf("content: %v", err))
	}
	return s
}
