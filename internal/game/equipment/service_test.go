package equipment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberreach/mud/internal/game/character"
	"github.com/emberreach/mud/internal/game/content"
)

func testStore(t *testing.T) *content.Store {
	t.Helper()
	dir := t.TempDir()
	items := filepath.Join(dir, "items")
	npcs := filepath.Join(dir, "npcs")
	quests := filepath.Join(dir, "quests")
	enemies := filepath.Join(dir, "enemies")
	areas := filepath.Join(dir, "areas")
	roomDir := filepath.Join(areas, "town")
	for _, d := range []string{items, npcs, quests, enemies, roomDir} {
		require.NoError(t, os.MkdirAll(d, 0755))
	}

	require.NoError(t, os.WriteFile(filepath.Join(items, "rusty_sword.yaml"), []byte(`
name: Rusty Sword
description: Seen better days.
kind: weapon
slot: main_hand
stats:
  damage: 3
value: 5
weight: 3
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(items, "torch.yaml"), []byte(`
name: Torch
description: A sputtering torch.
kind: misc
value: 2
weight: 1
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(roomDir, "square.yaml"), []byte(`
grid_size: {x: 1, y: 1}
name: Town Square
description: The center of town.
coord: {x: 0, y: 0}
`), 0644))

	store, err := content.Load(items, npcs, quests, enemies, areas)
	require.NoError(t, err)
	return store
}

func TestEquipMovesItemFromInventoryToSlot(t *testing.T) {
	svc := NewService(testStore(t))
	c := &character.Character{Inventory: []character.ItemStack{{ItemID: "rusty_sword", Quantity: 1}}}

	require.NoError(t, svc.Equip(c, "rusty_sword"))
	assert.Equal(t, "rusty_sword", c.Equipment["main_hand"])
	assert.Equal(t, 0, c.InventoryQuantity("rusty_sword"))
}

func TestEquipFailsWhenNotCarried(t *testing.T) {
	svc := NewService(testStore(t))
	c := &character.Character{}
	assert.Error(t, svc.Equip(c, "rusty_sword"))
}

func TestEquipFailsWhenNotEquippable(t *testing.T) {
	svc := NewService(testStore(t))
	c := &character.Character{Inventory: []character.ItemStack{{ItemID: "torch", Quantity: 1}}}
	assert.Error(t, svc.Equip(c, "torch"))
}

func TestEquipFailsWhenSlotOccupiedNoImplicitSwap(t *testing.T) {
	svc := NewService(testStore(t))
	c := &character.Character{
		Inventory: []character.ItemStack{{ItemID: "rusty_sword", Quantity: 2}},
	}
	require.NoError(t, svc.Equip(c, "rusty_sword"))

	err := svc.Equip(c, "rusty_sword")
	require.Error(t, err)
	assert.Equal(t, 1, c.InventoryQuantity("rusty_sword"))
}

func TestUnequipReturnsItemToInventory(t *testing.T) {
	svc := NewService(testStore(t))
	c := &character.Character{Inventory: []character.ItemStack{{ItemID: "rusty_sword", Quantity: 1}}}
	require.NoError(t, svc.Equip(c, "rusty_sword"))

	require.NoError(t, svc.Unequip(c, "main_hand"))
	assert.Equal(t, 1, c.InventoryQuantity("rusty_sword"))
	_, occupied := c.Equipment["main_hand"]
	assert.False(t, occupied)
}

func TestUnequipFailsWhenEmpty(t *testing.T) {
	svc := NewService(testStore(t))
	c := &character.Character{}
	assert.Error(t, svc.Unequip(c, "main_hand"))
}

func TestTotalStatsAddsEquippedDeltas(t *testing.T) {
	svc := NewService(testStore(t))
	c := &character.Character{
		BaseStats: character.Stats{Damage: 1},
		Inventory: []character.ItemStack{{ItemID: "rusty_sword", Quantity: 1}},
	}
	require.NoError(t, svc.Equip(c, "rusty_sword"))

	total := svc.TotalStats(c)
	assert.Equal(t, 4, total.Damage)
}
