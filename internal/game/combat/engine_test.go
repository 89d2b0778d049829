package combat

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emberreach/mud/internal/game/character"
	"github.com/emberreach/mud/internal/game/content"
	"github.com/emberreach/mud/internal/game/equipment"
	"github.com/emberreach/mud/internal/game/inventory"
	"github.com/emberreach/mud/internal/game/quest"
	"github.com/emberreach/mud/internal/game/world"
)

// fakeSource is a deterministic dice.Source: it always returns the next
// value from a fixed queue, wrapping around, reduced modulo n so it's
// always in range.
type fakeSource struct {
	values []int
	idx    int
}

func (f *fakeSource) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v := f.values[f.idx%len(f.values)]
	f.idx++
	return v % n
}

func testWorld(t *testing.T) *content.Store {
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

	require.NoError(t, os.WriteFile(filepath.Join(items, "bone.yaml"), []byte(`
name: Bone
description: A gnarled bone.
kind: misc
value: 1
weight: 0.1
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(enemies, "goblin.yaml"), []byte(`
name: Goblin
max_health: 10
attacks:
  - name: claw
    damage: 2
    accuracy: 100
base_experience: 10
base_gold: 5
loot:
  - item_id: bone
    chance: 1
    quantity: 1
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(roomDir, "square.yaml"), []byte(`
grid_size: {x: 2, y: 1}
name: Town Square
description: The center of town.
exits: {north: town.north}
coord: {x: 0, y: 0}
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(roomDir, "north.yaml"), []byte(`
grid_size: {x: 2, y: 1}
name: North Road
description: A quiet road.
exits: {south: town.square}
coord: {x: 0, y: 1}
`), 0644))

	store, err := content.Load(items, npcs, quests, enemies, areas)
	require.NoError(t, err)
	return store
}

type testFixture struct {
	store *content.Store
	w     *world.State
	items *inventory.Service
	equip *equipment.Service
	quest *quest.Service
	chars map[string]*character.Character
}

func (f *testFixture) lookup(name string) (*character.Character, bool) {
	c, ok := f.chars[name]
	return c, ok
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	store := testWorld(t)
	w := world.NewState(store)
	items := inventory.NewService(store, 10)
	equip := equipment.NewService(store)
	qs := quest.NewService(store, items, quest.DefaultLevelTable())
	return &testFixture{store: store, w: w, items: items, equip: equip, quest: qs, chars: make(map[string]*character.Character)}
}

func (f *testFixture) addCharacter(name, roomID string) *character.Character {
	c := &character.Character{
		Name:        name,
		CurrentRoom: roomID,
		Health:      30,
		MaxHealth:   30,
		BaseStats:   character.Stats{Damage: 5, Defense: 0},
	}
	f.chars[name] = c
	_ = f.w.EnterRoom(roomID, name)
	return c
}

func newEngine(f *testFixture, rng *fakeSource, cfg Config) *Engine {
	return NewEngine(f.store, f.w, f.equip, f.items, nil, f.quest, f.lookup, cfg, rng, zap.NewNop())
}

func defaultCfg() Config {
	return Config{
		DamageVariance:       0,
		FleeSuccessChance:    1,
		EnemyRespawnInterval: time.Minute,
		DefaultRespawnArea:   "town",
		DefaultRespawnRoom:   "town.square",
	}
}

func TestEngageCreatesNewSession(t *testing.T) {
	f := newFixture(t)
	f.addCharacter("Arin", "town.square")
	e := newEngine(f, &fakeSource{values: []int{0}}, defaultCfg())

	notes, err := e.Engage("Arin", "town.square", "goblin")
	require.NoError(t, err)
	assert.NotEmpty(t, notes)

	sess, ok := e.SessionFor("Arin")
	require.True(t, ok)
	assert.Equal(t, "town.square", sess.RoomID)
	assert.Equal(t, "goblin", sess.TemplateID)
	assert.Len(t, sess.Enemies, 1)
	assert.True(t, f.chars["Arin"].InCombat)
}

func TestEngageJoinsExistingSession(t *testing.T) {
	f := newFixture(t)
	f.addCharacter("Arin", "town.square")
	f.addCharacter("Beth", "town.square")
	e := newEngine(f, &fakeSource{values: []int{0}}, defaultCfg())

	_, err := e.Engage("Arin", "town.square", "goblin")
	require.NoError(t, err)
	_, err = e.Engage("Beth", "town.square", "goblin")
	require.NoError(t, err)

	sess, ok := e.SessionFor("Beth")
	require.True(t, ok)
	assert.Len(t, sess.Enemies, 1, "joining should not spawn a second enemy instance")
	assert.ElementsMatch(t, []string{"Arin", "Beth"}, sess.Players)
}

func TestTickAppliesPlayerDamageAndEnemyCounterattack(t *testing.T) {
	f := newFixture(t)
	c := f.addCharacter("Arin", "town.square")
	e := newEngine(f, &fakeSource{values: []int{0}}, defaultCfg())

	_, err := e.Engage("Arin", "town.square", "goblin")
	require.NoError(t, err)
	sess, _ := e.SessionFor("Arin")
	startHealth := sess.Enemies[0].CurrentHealth

	notes := e.Tick()
	require.NotEmpty(t, notes)

	sess, ok := e.SessionFor("Arin")
	require.True(t, ok, "session should still be active after one tick")
	assert.Less(t, sess.Enemies[0].CurrentHealth, startHealth, "player's strike should have landed")
	assert.Less(t, c.Health, 30, "the goblin's counterattack should have landed (accuracy 100, fake roll 0)")
}

func TestTickDefeatsEnemyGrantsRewardsAndSchedulesRespawn(t *testing.T) {
	f := newFixture(t)
	c := f.addCharacter("Arin", "town.square")
	c.BaseStats.Damage = 100 // one hit kill
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := newEngine(f, &fakeSource{values: []int{0}}, defaultCfg())
	e.WithClock(func() time.Time { return now })

	_, err := e.Engage("Arin", "town.square", "goblin")
	require.NoError(t, err)

	notes := e.Tick()
	require.NotEmpty(t, notes)

	assert.Equal(t, 10, c.Experience)
	assert.Equal(t, 5, c.Gold)
	assert.Equal(t, 1, c.InventoryQuantity("bone"))

	_, stillFighting := e.SessionFor("Arin")
	assert.False(t, stillFighting, "defeating the only enemy should end the session")

	room, _ := f.w.GetRoom("town.square")
	assert.Empty(t, room.EnemiesOfTemplate("goblin"), "defeated instance should be removed from the room")

	now = now.Add(2 * time.Minute)
	e.Tick()
	assert.NotEmpty(t, room.EnemiesOfTemplate("goblin"), "respawn should have spawned a fresh instance once due")
}

func TestFleeSuccessEndsCombatAndMovesCharacter(t *testing.T) {
	f := newFixture(t)
	c := f.addCharacter("Arin", "town.square")
	cfg := defaultCfg()
	cfg.FleeSuccessChance = 1
	e := newEngine(f, &fakeSource{values: []int{0}}, cfg)

	_, err := e.Engage("Arin", "town.square", "goblin")
	require.NoError(t, err)

	notes, err := e.Flee("Arin")
	require.NoError(t, err)
	assert.NotEmpty(t, notes)
	assert.False(t, c.InCombat)
	assert.Equal(t, "town.north", c.CurrentRoom)

	_, stillFighting := e.SessionFor("Arin")
	assert.False(t, stillFighting)
}

func TestFleeFailureAppliesFreeStrikeAndKeepsCharacterInCombat(t *testing.T) {
	f := newFixture(t)
	c := f.addCharacter("Arin", "town.square")
	cfg := defaultCfg()
	cfg.FleeSuccessChance = 0
	e := newEngine(f, &fakeSource{values: []int{0}}, cfg)

	_, err := e.Engage("Arin", "town.square", "goblin")
	require.NoError(t, err)

	notes, err := e.Flee("Arin")
	require.NoError(t, err)
	assert.NotEmpty(t, notes)
	assert.Less(t, c.Health, 30, "a failed flee should take a free strike")

	_, stillFighting := e.SessionFor("Arin")
	assert.True(t, stillFighting, "a failed flee does not remove the character from combat")
}

func TestLeaveRemovesCharacterAndEndsEmptySession(t *testing.T) {
	f := newFixture(t)
	f.addCharacter("Arin", "town.square")
	e := newEngine(f, &fakeSource{values: []int{0}}, defaultCfg())

	_, err := e.Engage("Arin", "town.square", "goblin")
	require.NoError(t, err)

	notes := e.Leave("Arin", "disconnected")
	assert.NotEmpty(t, notes)
	assert.False(t, f.chars["Arin"].InCombat)

	_, stillFighting := e.SessionFor("Arin")
	assert.False(t, stillFighting)
}

func TestKillCharacterRespawnsAtHomestoneAndRestoresHealth(t *testing.T) {
	f := newFixture(t)
	c := f.addCharacter("Arin", "town.square")
	c.Health = 1
	c.Homestone = &character.Homestone{Area: "town", Room: "town.north"}
	e := newEngine(f, &fakeSource{values: []int{0}}, defaultCfg())

	_, err := e.Engage("Arin", "town.square", "goblin")
	require.NoError(t, err)

	e.Tick()

	assert.Equal(t, c.MaxHealth, c.Health)
	assert.Equal(t, "town.north", c.CurrentRoom)
	assert.False(t, c.InCombat)
	_, stillFighting := e.SessionFor("Arin")
	assert.False(t, stillFighting)
}
