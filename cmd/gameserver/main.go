// Package main provides the game server binary: it loads content and
// configuration, wires the game core's services together, and serves
// players over Telnet.
package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

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
	"github.com/emberreach/mud/internal/game/tick"
	"github.com/emberreach/mud/internal/game/world"
	"github.com/emberreach/mud/internal/observability"
	"github.com/emberreach/mud/internal/server"
)

// defaultStartHealth seeds a brand-new character's health pool; the
// config schema has no dedicated field for it, so it is fixed here.
const defaultStartHealth = 100

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	contentStart := time.Now()
	store, err := content.Load(cfg.Content.ItemsDir, cfg.Content.NPCsDir, cfg.Content.QuestsDir, cfg.Content.EnemiesDir, cfg.Content.AreasDir)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Any("counts", store.Counts()),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	worldState := world.NewState(store)

	namePolicy := character.NamePolicy{MinLength: cfg.Gameplay.NameMinLength, MaxLength: cfg.Gameplay.NameMaxLength}
	chars, err := character.NewStore(cfg.Storage.CharacterDir, namePolicy, cfg.Gameplay.MinPasswordLength)
	if err != nil {
		logger.Fatal("creating character store", zap.Error(err))
	}

	items := inventory.NewService(store, cfg.Gameplay.InventoryCapacity)
	equip := equipment.NewService(store)
	quests := quest.NewService(store, items, quest.DefaultLevelTable())

	sessions := session.NewRegistry()
	lookup := func(name string) (*character.Character, bool) {
		sess, ok := sessions.ByCharacter(name)
		if !ok || sess.Character == nil {
			return nil, false
		}
		return sess.Character, true
	}

	combatEngine := combat.NewEngine(store, worldState, equip, items, chars, quests, lookup, combat.Config{
		DamageVariance:       cfg.Gameplay.DamageVariance,
		FleeSuccessChance:    cfg.Gameplay.FleeSuccessChance,
		EnemyRespawnInterval: cfg.Gameplay.EnemyRespawnInterval,
		DefaultRespawnArea:   areaOf(cfg.Gameplay.DefaultRespawnRoom),
		DefaultRespawnRoom:   cfg.Gameplay.DefaultRespawnRoom,
	}, dice.NewCryptoSource(), logger)

	registry := command.DefaultRegistry()
	router := command.NewRouter(registry, store, worldState, sessions, chars, items, equip, quests, combatEngine)
	bus := event.NewBus(sessions, worldState)

	tickDriver := tick.NewDriver(combatEngine, sessions, bus, tick.Config{
		Interval:         cfg.Gameplay.TickInterval,
		RegenRatePerTick: cfg.Gameplay.RegenRatePerTick,
	}, nil)

	handler := telnet.NewGameHandler(chars, sessions, worldState, router, combatEngine, quests, bus, logger,
		areaOf(cfg.Gameplay.DefaultRespawnRoom), cfg.Gameplay.DefaultRespawnRoom, defaultStartHealth)

	acceptor := telnet.NewAcceptor(cfg.Telnet, handler, logger)

	lifecycle := server.NewLifecycle(logger)

	tickCtx, cancelTick := context.WithCancel(ctx)
	lifecycle.Add("tick-driver", &server.FuncService{
		StartFn: func() error {
			tickDriver.Run(tickCtx)
			return nil
		},
		StopFn: cancelTick,
	})

	lifecycle.Add("telnet", &server.FuncService{
		StartFn: func() error {
			return acceptor.ListenAndServe()
		},
		StopFn: acceptor.Stop,
	})

	logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("telnet_addr", cfg.Telnet.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// areaOf returns the area id portion of a dotted room id ("town.square"
// -> "town"), or the whole string if it carries no area separator.
func areaOf(roomID string) string {
	if i := strings.IndexByte(roomID, '.'); i >= 0 {
		return roomID[:i]
	}
	return roomID
}
