package telnet_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emberreach/mud/internal/config"
	"github.com/emberreach/mud/internal/frontend/telnet"
	"github.com/emberreach/mud/internal/game/character"
	"github.com/emberreach/mud/internal/game/combat"
	"github.com/emberreach/mud/internal/game/command"
	"github.com/emberreach/mud/internal/game/content"
	"github.com/emberreach/mud/internal/game/dice"
	"github.com/emberreach/mud/internal/game/equipment"
	"github.com/emberreach/mud/internal/game/event"
	"github.com/emberreach/mud/internal/game/inventory"
	"github.com/emberreach/mud/internal/game/quest"
	"github.com/emberreach/mud/internal/game/session"
	"github.com/emberreach/mud/internal/game/world"
	"github.com/emberreach/mud/internal/testutil"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

// newTestWorld builds a one-room content tree and the live services a
// GameHandler needs, returning them ready to hand to NewGameHandler.
func newTestWorld(t *testing.T) (*character.Store, *session.Registry, *world.State, *command.Router, *combat.Engine, *quest.Service, *event.Bus) {
	t.Helper()
	root := t.TempDir()
	items, npcs, quests, enemies := filepath.Join(root, "items"), filepath.Join(root, "npcs"), filepath.Join(root, "quests"), filepath.Join(root, "enemies")
	areas := filepath.Join(root, "areas")
	require.NoError(t, os.MkdirAll(items, 0755))
	require.NoError(t, os.MkdirAll(npcs, 0755))
	require.NoError(t, os.MkdirAll(quests, 0755))
	require.NoError(t, os.MkdirAll(enemies, 0755))
	writeFile(t, filepath.Join(areas, "town"), "square.yaml", `
name: Town Square
description: The heart of town.
coord: {x: 0, y: 0}
`)

	store, err := content.Load(items, npcs, quests, enemies, areas)
	require.NoError(t, err)

	w := world.NewState(store)
	charDir := filepath.Join(root, "characters")
	chars, err := character.NewStore(charDir, character.NamePolicy{MinLength: 3, MaxLength: 12}, 3)
	require.NoError(t, err)

	invService := inventory.NewService(store, 20)
	equipService := equipment.NewService(store)
	questService := quest.NewService(store, invService, quest.DefaultLevelTable())
	sessions := session.NewRegistry()

	lookup := func(name string) (*character.Character, bool) {
		sess, ok := sessions.ByCharacter(name)
		if !ok || sess.Character == nil {
			return nil, false
		}
		return sess.Character, true
	}
	combatEngine := combat.NewEngine(store, w, equipService, invService, chars, questService, lookup, combat.Config{
		DamageVariance: 0, FleeSuccessChance: 1, EnemyRespawnInterval: time.Minute,
		DefaultRespawnArea: "town", DefaultRespawnRoom: "town.square",
	}, dice.NewCryptoSource(), zap.NewNop())

	registry := command.DefaultRegistry()
	router := command.NewRouter(registry, store, w, sessions, chars, invService, equipService, questService, combatEngine)
	bus := event.NewBus(sessions, w)

	return chars, sessions, w, router, combatEngine, questService, bus
}

func startTestServer(t *testing.T) string {
	t.Helper()
	chars, sessions, w, router, combatEngine, questService, bus := newTestWorld(t)
	logger := zap.NewNop()
	handler := telnet.NewGameHandler(chars, sessions, w, router, combatEngine, questService, bus, logger,
		"town", "town.square", 100)

	acceptor := telnet.NewAcceptor(config.TelnetConfig{Host: "127.0.0.1", Port: 0, ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second}, handler, logger)

	ready := make(chan struct{})
	go func() {
		for !acceptor.IsRunning() {
			time.Sleep(time.Millisecond)
		}
		close(ready)
	}()
	go func() { _ = acceptor.ListenAndServe() }()
	<-ready
	t.Cleanup(acceptor.Stop)
	return acceptor.Addr()
}

func TestNewCharacterLoginAndLook(t *testing.T) {
	addr := startTestServer(t)
	client := testutil.NewTelnetClient(t, addr)

	client.ReadUntil("name?", 2*time.Second)
	client.Send("Hero")
	client.ReadUntil("Choose a password", 2*time.Second)
	client.Send("secretpw")
	out := client.ReadUntil("Town Square", 5*time.Second)
	require.Contains(t, out, "Welcome, Hero.")
}

func TestReturningCharacterMustAuthenticate(t *testing.T) {
	addr := startTestServer(t)

	first := testutil.NewTelnetClient(t, addr)
	first.ReadUntil("name?", 2*time.Second)
	first.Send("Hero")
	first.ReadUntil("Choose a password", 2*time.Second)
	first.Send("secretpw")
	first.ReadUntil("Town Square", 5*time.Second)
	first.Send("quit")

	second := testutil.NewTelnetClient(t, addr)
	second.ReadUntil("name?", 2*time.Second)
	second.Send("Hero")
	second.ReadUntil("Password:", 2*time.Second)
	second.Send("wrongpw")
	out := second.ReadUntil("Incorrect password.", 2*time.Second)
	require.Contains(t, out, "Incorrect password.")
}
