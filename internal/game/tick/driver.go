// Package tick drives the periodic game-state advancement described in
// spec §4.9: combat session progression, character health regeneration,
// and enemy respawns. Grounded in the teacher's
// internal/gameserver.ZoneTickManager: a single ticker firing registered
// work on a fixed interval, cancelable via context.
package tick

import (
	"context"
	"math"
	"time"

	"github.com/emberreach/mud/internal/game/combat"
	"github.com/emberreach/mud/internal/game/event"
	"github.com/emberreach/mud/internal/game/session"
)

// Config controls the driver's cadence and regeneration rate.
type Config struct {
	Interval         time.Duration
	RegenRatePerTick float64 // fraction of maxHealth restored per tick, e.g. 0.02
}

// Driver advances combat.Engine and regenerates playing characters once
// per Interval. Each tick's work, including publishing its events on the
// bus, is handed to dispatch, which the caller is responsible for running
// on the single game thread (spec §5);
// Driver itself only decides *when* to fire, never runs game-state
// mutation concurrently with itself.
type Driver struct {
	engine   *combat.Engine
	sessions *session.Registry
	bus      *event.Bus
	cfg      Config
	dispatch func(fn func())
}

// NewDriver creates a Driver. dispatch, if non-nil, is invoked with the
// tick's work instead of running it inline; pass nil to run the tick
// directly on the driver's own goroutine (only safe if nothing else ever
// touches game state concurrently).
func NewDriver(engine *combat.Engine, sessions *session.Registry, bus *event.Bus, cfg Config, dispatch func(fn func())) *Driver {
	if cfg.Interval <= 0 {
		panic("tick.NewDriver: Interval must be > 0")
	}
	return &Driver{engine: engine, sessions: sessions, bus: bus, cfg: cfg, dispatch: dispatch}
}

// Run blocks, firing a tick every cfg.Interval until ctx is canceled.
func (d *Driver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.fire()
		}
	}
}

func (d *Driver) fire() {
	if d.dispatch != nil {
		d.dispatch(d.tick)
		return
	}
	d.tick()
}

// tick performs one tick's worth of mutation: combat progression first,
// then regeneration, matching the order spec §4.9 lists them in.
func (d *Driver) tick() {
	notes := d.engine.Tick()
	d.bus.PublishAll(event.FromCombatAll(notes))
	d.bus.PublishAll(d.regen())
}

// regen restores health to every playing, non-combat character below max
// health, per spec §4.9's ceiling-rounded regen formula.
func (d *Driver) regen() []event.Event {
	var events []event.Event
	for _, sess := range d.sessions.PlayingSessions() {
		c := sess.Character
		if c == nil || c.InCombat || c.Health >= c.MaxHealth {
			continue
		}
		gain := int(math.Ceil(float64(c.MaxHealth) * d.cfg.RegenRatePerTick))
		if gain < 1 {
			gain = 1
		}
		before := c.Health
		c.Health += gain
		if c.Health > c.MaxHealth {
			c.Health = c.MaxHealth
		}
		if before < c.MaxHealth && c.Health == c.MaxHealth {
			events = append(events, event.Character(c.Name, event.CategorySuccess, "You feel fully refreshed."))
		}
	}
	return events
}
