package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load walks the four flat content directories plus the area tree and
// builds a fully cross-referenced Store, or a *LoadError naming every
// broken reference (spec §4.1).
//
// Precondition: all five directories must exist and be readable.
// Postcondition: on success, every itemId/questId/npcId/enemyId/exit
// roomId referenced by a loaded template resolves to a loaded template.
func Load(itemsDir, npcsDir, questsDir, enemiesDir, areasDir string) (*Store, error) {
	items, err := loadItems(itemsDir)
	if err != nil {
		return nil, err
	}
	enemies, err := loadEnemies(enemiesDir)
	if err != nil {
		return nil, err
	}
	npcs, err := loadNPCs(npcsDir)
	if err != nil {
		return nil, err
	}
	quests, err := loadQuests(questsDir)
	if err != nil {
		return nil, err
	}
	areas, rooms, err := loadAreas(areasDir)
	if err != nil {
		return nil, err
	}

	s := &Store{
		items:   items,
		enemies: enemies,
		npcs:    npcs,
		quests:  quests,
		areas:   areas,
		rooms:   rooms,
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// idFromFilename returns a file's base name with its extension stripped,
// used as the template ID for items, enemies, NPCs, and quests.
func idFromFilename(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext)
}

func isYAML(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

func loadItems(dir string) (map[string]*Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading items directory %s: %w", dir, err)
	}
	out := make(map[string]*Item, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading item file %s: %w", e.Name(), err)
		}
		var item Item
		if err := yaml.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("parsing item file %s: %w", e.Name(), err)
		}
		id := idFromFilename(e.Name())
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("duplicate item id %q", id)
		}
		item.ID = id
		out[id] = &item
	}
	return out, nil
}

func loadEnemies(dir string) (map[string]*EnemyTemplate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading enemies directory %s: %w", dir, err)
	}
	out := make(map[string]*EnemyTemplate, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading enemy file %s: %w", e.Name(), err)
		}
		var tmpl EnemyTemplate
		if err := yaml.Unmarshal(data, &tmpl); err != nil {
			return nil, fmt.Errorf("parsing enemy file %s: %w", e.Name(), err)
		}
		for _, atk := range tmpl.Attacks {
			if atk.Damage.Min > atk.Damage.Max {
				return nil, fmt.Errorf("enemy %s: attack %q has malformed damage range [%d,%d]",
					e.Name(), atk.Name, atk.Damage.Min, atk.Damage.Max)
			}
			if atk.Accuracy < 0 || atk.Accuracy > 100 {
				return nil, fmt.Errorf("enemy %s: attack %q has accuracy %d out of [0,100]",
					e.Name(), atk.Name, atk.Accuracy)
			}
		}
		id := idFromFilename(e.Name())
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("duplicate enemy id %q", id)
		}
		tmpl.ID = id
		out[id] = &tmpl
	}
	return out, nil
}

func loadNPCs(dir string) (map[string]*NPCTemplate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npcs directory %s: %w", dir, err)
	}
	out := make(map[string]*NPCTemplate, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading npc file %s: %w", e.Name(), err)
		}
		var tmpl NPCTemplate
		if err := yaml.Unmarshal(data, &tmpl); err != nil {
			return nil, fmt.Errorf("parsing npc file %s: %w", e.Name(), err)
		}
		id := idFromFilename(e.Name())
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("duplicate npc id %q", id)
		}
		tmpl.ID = id
		out[id] = &tmpl
	}
	return out, nil
}

var validObjectiveTypes = map[string]bool{
	ObjectiveKill: true, ObjectiveCollect: true, ObjectiveVisit: true, ObjectiveDeliver: true,
}

func loadQuests(dir string) (map[string]*QuestTemplate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading quests directory %s: %w", dir, err)
	}
	out := make(map[string]*QuestTemplate, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading quest file %s: %w", e.Name(), err)
		}
		var tmpl QuestTemplate
		if err := yaml.Unmarshal(data, &tmpl); err != nil {
			return nil, fmt.Errorf("parsing quest file %s: %w", e.Name(), err)
		}
		for _, obj := range tmpl.Objectives {
			if !validObjectiveTypes[obj.Type] {
				return nil, fmt.Errorf("quest %s: objective has unknown type %q", e.Name(), obj.Type)
			}
		}
		id := idFromFilename(e.Name())
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("duplicate quest id %q", id)
		}
		tmpl.ID = id
		out[id] = &tmpl
	}
	return out, nil
}

// yamlArea is the top-level shape of one room file within an area directory.
// gridSize is only meaningful on the first file encountered for an area
// (first file wins, per spec §6).
type yamlArea struct {
	GridSize *GridCoord `yaml:"grid_size"`
}

func loadAreas(dir string) (map[string]*Area, map[string]*RoomTemplate, error) {
	areaDirs, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading areas directory %s: %w", dir, err)
	}

	areas := make(map[string]*Area)
	rooms := make(map[string]*RoomTemplate)

	for _, ad := range areaDirs {
		if !ad.IsDir() {
			continue
		}
		areaID := ad.Name()
		areaPath := filepath.Join(dir, areaID)
		roomFiles, err := os.ReadDir(areaPath)
		if err != nil {
			return nil, nil, fmt.Errorf("reading area directory %s: %w", areaPath, err)
		}

		area := &Area{ID: areaID, Rooms: make(map[string]*RoomTemplate)}

		for _, rf := range roomFiles {
			if rf.IsDir() || !isYAML(rf.Name()) {
				continue
			}
			data, err := os.ReadFile(filepath.Join(areaPath, rf.Name()))
			if err != nil {
				return nil, nil, fmt.Errorf("reading room file %s: %w", rf.Name(), err)
			}

			var ya yamlArea
			if err := yaml.Unmarshal(data, &ya); err != nil {
				return nil, nil, fmt.Errorf("parsing room file %s: %w", rf.Name(), err)
			}
			if area.GridSize == nil && ya.GridSize != nil {
				area.GridSize = ya.GridSize
			}

			var room RoomTemplate
			if err := yaml.Unmarshal(data, &room); err != nil {
				return nil, nil, fmt.Errorf("parsing room file %s: %w", rf.Name(), err)
			}
			roomBase := idFromFilename(rf.Name())
			room.ID = areaID + "." + roomBase
			room.AreaID = areaID

			if _, dup := rooms[room.ID]; dup {
				return nil, nil, fmt.Errorf("duplicate room id %q", room.ID)
			}
			rooms[room.ID] = &room
			area.Rooms[room.ID] = &room
		}

		if _, dup := areas[areaID]; dup {
			return nil, nil, fmt.Errorf("duplicate area id %q", areaID)
		}
		areas[areaID] = area
	}

	return areas, rooms, nil
}
