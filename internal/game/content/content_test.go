package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

// layout creates a minimal but fully cross-referenced content tree and
// returns its five directory roots.
func layout(t *testing.T) (items, npcs, quests, enemies, areas string) {
	t.Helper()
	root := t.TempDir()
	items = filepath.Join(root, "items")
	npcs = filepath.Join(root, "npcs")
	quests = filepath.Join(root, "quests")
	enemies = filepath.Join(root, "enemies")
	areas = filepath.Join(root, "areas")

	writeFile(t, items, "rusty_sword.yaml", `
name: Rusty Sword
description: A pitted old blade.
kind: weapon
slot: main_hand
stats:
  damage: 3
value: 10
weight: 2.5
`)
	writeFile(t, enemies, "rat.yaml", `
name: Sewer Rat
max_health: 12
attacks:
  - name: bite
    damage: [1, 3]
    accuracy: 80
defense: 1
base_experience: 5
base_gold: [1, 2]
loot:
  - item_id: rusty_sword
    chance: 0.1
    quantity: 1
`)
	writeFile(t, npcs, "old_man.yaml", `
name: Old Man
description: Leans on a cane.
dialogue:
  greeting: Hello traveler.
quest_ids: [fetch_quest]
`)
	writeFile(t, quests, "fetch_quest.yaml", `
name: Fetch Quest
description: Bring back the sword.
giver_npc_id: old_man
level: 1
objectives:
  - type: collect
    target: rusty_sword
    quantity: 1
rewards:
  experience: 50
  gold: 5
`)
	writeFile(t, filepath.Join(areas, "town"), "square.yaml", `
grid_size: {x: 3, y: 3}
name: Town Square
description: The heart of town.
coord: {x: 1, y: 1}
npcs: [old_man]
exits:
  north: town.alley
`)
	writeFile(t, filepath.Join(areas, "town"), "alley.yaml", `
name: Back Alley
description: A narrow alley.
coord: {x: 1, y: 2}
enemies: [rat]
exits:
  south: town.square
`)
	return
}

func TestLoadValidTree(t *testing.T) {
	items, npcs, quests, enemies, areas := layout(t)
	store, err := Load(items, npcs, quests, enemies, areas)
	require.NoError(t, err)

	counts := store.Counts()
	assert.Equal(t, 1, counts.Items)
	assert.Equal(t, 1, counts.Enemies)
	assert.Equal(t, 1, counts.NPCs)
	assert.Equal(t, 1, counts.Quests)
	assert.Equal(t, 1, counts.Areas)
	assert.Equal(t, 2, counts.Rooms)

	item, ok := store.GetItem("rusty_sword")
	require.True(t, ok)
	assert.Equal(t, "Rusty Sword", item.Name)
	assert.True(t, item.IsStackable())

	room, ok := store.GetRoom("town.square")
	require.True(t, ok)
	assert.Equal(t, "town.alley", room.Exits["north"])

	area, ok := store.GetArea("town")
	require.True(t, ok)
	require.NotNil(t, area.GridSize)
	assert.Equal(t, 3, area.GridSize.X)
}

func TestLoadUnknownExitRoomFails(t *testing.T) {
	items, npcs, quests, enemies, areas := layout(t)
	writeFile(t, filepath.Join(areas, "town"), "square.yaml", `
name: Town Square
description: The heart of town.
exits:
  north: town.nowhere
`)
	_, err := Load(items, npcs, quests, enemies, areas)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown room")
}

func TestLoadUnknownItemReferenceFails(t *testing.T) {
	items, npcs, quests, enemies, areas := layout(t)
	writeFile(t, filepath.Join(areas, "town"), "square.yaml", `
name: Town Square
description: The heart of town.
items: [nonexistent_item]
`)
	_, err := Load(items, npcs, quests, enemies, areas)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown item")
}

func TestLoadMalformedDamageRangeFails(t *testing.T) {
	items, npcs, quests, enemies, areas := layout(t)
	writeFile(t, enemies, "rat.yaml", `
name: Sewer Rat
max_health: 12
attacks:
  - name: bite
    damage: [5, 1]
    accuracy: 80
defense: 1
`)
	_, err := Load(items, npcs, quests, enemies, areas)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed damage range")
}

func TestLoadUnknownObjectiveTypeFails(t *testing.T) {
	items, npcs, quests, enemies, areas := layout(t)
	writeFile(t, quests, "fetch_quest.yaml", `
name: Fetch Quest
description: Bring back the sword.
giver_npc_id: old_man
objectives:
  - type: teleport
    target: rusty_sword
    quantity: 1
`)
	_, err := Load(items, npcs, quests, enemies, areas)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
}

func TestLoadDuplicateItemIDFails(t *testing.T) {
	items, npcs, quests, enemies, areas := layout(t)
	writeFile(t, items, "rusty_sword.yml", `
name: Rusty Sword Clone
description: A second file that collides on id after extension stripping.
kind: weapon
slot: main_hand
`)
	_, err := Load(items, npcs, quests, enemies, areas)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate item id")
}

func TestIntRangeUnmarshalScalarAndPair(t *testing.T) {
	var a, b IntRange
	require.NoError(t, yaml.Unmarshal([]byte("5"), &a))
	assert.Equal(t, IntRange{Min: 5, Max: 5}, a)

	require.NoError(t, yaml.Unmarshal([]byte("[2, 9]"), &b))
	assert.Equal(t, IntRange{Min: 2, Max: 9}, b)
}
