package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberreach/mud/internal/game/content"
)

// newTestStore builds a minimal two-room content.Store on disk: town.square
// (exit north to town.alley, a ground torch) and town.alley (a live rat).
func newTestStore(t *testing.T) *content.Store {
	t.Helper()
	root := t.TempDir()
	items := filepath.Join(root, "items")
	npcs := filepath.Join(root, "npcs")
	quests := filepath.Join(root, "quests")
	enemies := filepath.Join(root, "enemies")
	areas := filepath.Join(root, "areas")

	require.NoError(t, os.MkdirAll(npcs, 0755))
	require.NoError(t, os.MkdirAll(quests, 0755))

	write(t, items, "torch.yaml", "name: Torch\nkind: misc\n")
	write(t, enemies, "rat.yaml", `
name: Sewer Rat
max_health: 12
attacks:
  - name: bite
    damage: [1, 3]
    accuracy: 80
defense: 1
`)
	write(t, filepath.Join(areas, "town"), "square.yaml", `
name: Town Square
description: The heart of town.
items: [torch]
exits:
  north: town.alley
`)
	write(t, filepath.Join(areas, "town"), "alley.yaml", `
name: Back Alley
description: A narrow alley.
enemies: [rat]
exits:
  south: town.square
`)

	store, err := content.Load(items, npcs, quests, enemies, areas)
	require.NoError(t, err)
	return store
}

func write(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

func TestNewStateSeedsRoomsFromEveryArea(t *testing.T) {
	store := newTestStore(t)
	state := NewState(store)
	assert.Equal(t, 2, state.RoomCount())
}

func TestNavigateSucceeds(t *testing.T) {
	store := newTestStore(t)
	state := NewState(store)

	dest, err := state.Navigate("town.square", North)
	require.NoError(t, err)
	assert.Equal(t, "town.alley", dest)
}

func TestNavigateNoExit(t *testing.T) {
	store := newTestStore(t)
	state := NewState(store)

	_, err := state.Navigate("town.square", West)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no exit")
}

func TestNavigateUnknownRoom(t *testing.T) {
	store := newTestStore(t)
	state := NewState(store)

	_, err := state.Navigate("nowhere", North)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestEnterAndLeaveRoom(t *testing.T) {
	store := newTestStore(t)
	state := NewState(store)

	require.NoError(t, state.EnterRoom("town.square", "Alice"))
	assert.Equal(t, []string{"Alice"}, state.CharactersInRoom("town.square"))

	state.LeaveRoom("town.square", "Alice")
	assert.Empty(t, state.CharactersInRoom("town.square"))
}

func TestAddAndRemoveGroundItems(t *testing.T) {
	store := newTestStore(t)
	state := NewState(store)

	require.NoError(t, state.AddItem("town.square", "torch", 2))
	require.NoError(t, state.RemoveItem("town.square", "torch", 1))

	room, ok := state.GetRoom("town.square")
	require.True(t, ok)
	assert.Equal(t, 2, room.Items["torch"])
}

func TestRemoveItemFailsWhenInsufficientOnGround(t *testing.T) {
	store := newTestStore(t)
	state := NewState(store)

	err := state.RemoveItem("town.square", "torch", 5)
	assert.Error(t, err)
}

func TestSpawnAndRemoveEnemy(t *testing.T) {
	store := newTestStore(t)
	state := NewState(store)

	inst, err := state.SpawnEnemy("town.alley", "rat")
	require.NoError(t, err)
	assert.True(t, inst.IsAlive())

	found := state.EnemiesInRoom("town.alley")
	require.Len(t, found, 1)

	state.RemoveEnemy("town.alley", inst.ID)
	assert.Empty(t, state.EnemiesInRoom("town.alley"))
}

func TestSeedInitialEnemiesSpawnsFromRoomTemplate(t *testing.T) {
	store := newTestStore(t)
	state := NewState(store)
	state.SeedInitialEnemies()

	found := state.EnemiesInRoom("town.alley")
	require.Len(t, found, 1)
	assert.Equal(t, "rat", found[0].TemplateID)
}
