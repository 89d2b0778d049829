package tick

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/emberreach/mud/internal/game/character"
	"github.com/emberreach/mud/internal/game/combat"
	"github.com/emberreach/mud/internal/game/content"
	"github.com/emberreach/mud/internal/game/equipment"
	"github.com/emberreach/mud/internal/game/event"
	"github.com/emberreach/mud/internal/game/inventory"
	"github.com/emberreach/mud/internal/game/quest"
	"github.com/emberreach/mud/internal/game/session"
	"github.com/emberreach/mud/internal/game/world"
)

type zeroSource struct{}

func (zeroSource) Intn(n int) int { return 0 }

func newTestDriver(t *testing.T, cfg Config) (*Driver, *session.Registry, *session.Session) {
	t.Helper()
	store := &content.Store{}
	w := world.NewState(store)
	items := inventory.NewService(store, 20)
	equip := equipment.NewService(store)
	quests := quest.NewService(store, items, quest.DefaultLevelTable())

	sessions := session.NewRegistry()
	sess := sessions.Open("conn-1")
	if _, err := sessions.Authenticate("conn-1", "Hero"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	sess.Character = &character.Character{
		Name: "Hero", Health: 50, MaxHealth: 100, CurrentRoom: "town.square", CurrentArea: "town",
	}

	lookup := func(name string) (*character.Character, bool) {
		if name == "Hero" {
			return sess.Character, true
		}
		return nil, false
	}
	engine := combat.NewEngine(store, w, equip, items, nil, quests, lookup, combat.Config{
		DamageVariance: 0, FleeSuccessChance: 1, EnemyRespawnInterval: time.Minute,
		DefaultRespawnArea: "town", DefaultRespawnRoom: "town.square",
	}, zeroSource{}, zap.NewNop())

	bus := event.NewBus(sessions, w)
	return NewDriver(engine, sessions, bus, cfg, nil), sessions, sess
}

func TestRegenRestoresHealthBelowMax(t *testing.T) {
	d, _, sess := newTestDriver(t, Config{Interval: time.Second, RegenRatePerTick: 0.1})
	d.tick()
	if sess.Character.Health <= 50 {
		t.Fatalf("expected health to increase above 50, got %d", sess.Character.Health)
	}
}

func TestRegenCapsAtMaxHealthAndEmitsRefreshedEvent(t *testing.T) {
	d, _, sess := newTestDriver(t, Config{Interval: time.Second, RegenRatePerTick: 1})
	events := d.regen()
	if sess.Character.Health != sess.Character.MaxHealth {
		t.Fatalf("expected health capped at max, got %d/%d", sess.Character.Health, sess.Character.MaxHealth)
	}
	found := false
	for _, e := range events {
		if e.CharacterName == "Hero" && e.Message == "You feel fully refreshed." {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a fully-refreshed event")
	}
}

func TestRegenSkipsCharactersInCombatOrAtFullHealth(t *testing.T) {
	d, _, sess := newTestDriver(t, Config{Interval: time.Second, RegenRatePerTick: 0.5})
	sess.Character.InCombat = true
	events := d.regen()
	if sess.Character.Health != 50 {
		t.Fatalf("expected no regen while in combat, got %d", sess.Character.Health)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestDriverRunFiresOnInterval(t *testing.T) {
	d, _, sess := newTestDriver(t, Config{Interval: 10 * time.Millisecond, RegenRatePerTick: 0.1})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	d.Run(ctx)
	if sess.Character.Health <= 50 {
		t.Fatalf("expected at least one regen tick to have fired, health=%d", sess.Character.Health)
	}
}
