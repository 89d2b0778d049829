package combat

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/emberreach/mud/internal/game/character"
	"github.com/emberreach/mud/internal/game/content"
	"github.com/emberreach/mud/internal/game/dice"
	"github.com/emberreach/mud/internal/game/equipment"
	"github.com/emberreach/mud/internal/game/gameerr"
	"github.com/emberreach/mud/internal/game/inventory"
	"github.com/emberreach/mud/internal/game/quest"
	"github.com/emberreach/mud/internal/game/world"
)

// Config holds the tunables spec §6 lists under "Configuration" that are
// specific to combat.
type Config struct {
	DamageVariance       float64 // fraction, e.g. 0.2 for ±20%
	FleeSuccessChance    float64 // 0..1
	EnemyRespawnInterval time.Duration
	DefaultRespawnArea   string
	DefaultRespawnRoom   string
}

// CharacterLookup resolves the live, mutable character record a playing
// session has bound, by canonical name. Combat never loads characters
// itself; it only mutates whatever the single game thread already holds
// (spec §5).
type CharacterLookup func(characterName string) (*character.Character, bool)

// Engine owns every active combat Session, keyed by (room, enemy
// template). The map-of-sessions container and its locking style are
// grounded on the teacher's Engine; everything inside a Session is a
// ground-up tick model.
type Engine struct {
	mu       sync.Mutex
	sessions map[string]*Session
	respawns []pendingRespawn

	content *content.Store
	world   *world.State
	equip   *equipment.Service
	items   *inventory.Service
	chars   *character.Store
	quests  *quest.Service
	lookup  CharacterLookup

	cfg    Config
	rng    dice.Source
	roller *dice.Roller
	clock  func() time.Time
}

// NewEngine wires an Engine against the live world and character
// subsystems. The clock defaults to time.Now (tests may override it via
// WithClock). Enemy damage rolls are logged at debug level through a
// dice.Roller built on top of rng.
func NewEngine(
	store *content.Store,
	w *world.State,
	equip *equipment.Service,
	items *inventory.Service,
	chars *character.Store,
	quests *quest.Service,
	lookup CharacterLookup,
	cfg Config,
	rng dice.Source,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		sessions: make(map[string]*Session),
		content:  store,
		world:    w,
		equip:    equip,
		items:    items,
		chars:    chars,
		quests:   quests,
		lookup:   lookup,
		cfg:      cfg,
		rng:      rng,
		roller:   dice.NewLoggedRoller(rng, logger),
		clock:    time.Now,
	}
}

// WithClock overrides the engine's time source, for deterministic respawn
// scheduling in tests.
func (e *Engine) WithClock(clock func() time.Time) {
	e.clock = clock
}

// Engage starts or joins a fight against the named enemy template in
// roomID (spec §4.7 "Starting a fight").
//
// Precondition: enemyTemplateID names a known enemy template.
// Postcondition: the character's session membership and inCombat state
// reflect the fight; on success, a live enemy instance exists and is
// referenced by the session.
func (e *Engine) Engage(characterName, roomID, enemyTemplateID string) ([]Notification, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tmpl, ok := e.content.GetEnemy(enemyTemplateID)
	if !ok {
		return nil, gameerr.Newf(gameerr.TargetNotFound, "unknown enemy %q", enemyTemplateID)
	}

	key := sessionKey(roomID, enemyTemplateID)
	if sess, exists := e.sessions[key]; exists {
		var notes []Notification
		if !containsName(sess.Players, characterName) {
			sess.Players = append(sess.Players, characterName)
			if c, ok := e.lookup(characterName); ok {
				c.InCombat = true
			}
			notes = append(notes, Notification{
				Audience: AudienceRoom, RoomID: roomID, Category: "combat",
				Message: fmt.Sprintf("%s joins the fight against the %s!", characterName, tmpl.Name),
			})
		}
		return notes, nil
	}

	room, ok := e.world.GetRoom(roomID)
	if !ok {
		return nil, gameerr.Newf(gameerr.TargetNotFound, "room %q not found", roomID)
	}
	var enemy *world.EnemyInstance
	if live := room.EnemiesOfTemplate(enemyTemplateID); len(live) > 0 {
		enemy = live[0]
	} else {
		inst, err := e.world.SpawnEnemy(roomID, enemyTemplateID)
		if err != nil {
			return nil, gameerr.Wrap(gameerr.Internal, "spawning enemy for engagement", err)
		}
		enemy = inst
	}

	e.sessions[key] = &Session{
		RoomID:     roomID,
		TemplateID: enemyTemplateID,
		Enemies:    []*world.EnemyInstance{enemy},
		Players:    []string{characterName},
	}
	if c, ok := e.lookup(characterName); ok {
		c.InCombat = true
	}
	return []Notification{{
		Audience: AudienceCharacter, CharacterName: characterName, Category: "combat",
		Message: fmt.Sprintf("You attack the %s!", tmpl.Name),
	}}, nil
}

// SessionFor returns the combat session characterName currently belongs
// to, if any.
func (e *Engine) SessionFor(characterName string) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, _ := e.sessionForLocked(characterName)
	return sess, sess != nil
}

func (e *Engine) sessionForLocked(characterName string) (*Session, string) {
	for key, sess := range e.sessions {
		if containsName(sess.Players, characterName) {
			return sess, key
		}
	}
	return nil, ""
}

// Leave removes characterName from whatever session they're in, erasing
// their threat and checking whether the session ends as a result (spec §5
// cancellation: disconnect, death elsewhere, or a room change).
func (e *Engine) Leave(characterName, reason string) []Notification {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, key := e.sessionForLocked(characterName)
	if sess == nil {
		return nil
	}
	e.removeFromSession(sess, characterName)
	if c, ok := e.lookup(characterName); ok {
		c.InCombat = false
	}
	notes := []Notification{{
		Audience: AudienceRoom, RoomID: sess.RoomID, Category: "combat",
		Message: fmt.Sprintf("%s leaves the fight (%s).", characterName, reason),
	}}
	notes = append(notes, e.checkSessionEnd(key, sess)...)
	return notes
}

// Flee attempts to remove characterName from combat and relocate them to
// a random exit of the current room. On failure, an enemy in the session
// gets a free strike against them before the next tick's P2 (spec §4.7
// "Flee").
func (e *Engine) Flee(characterName string) ([]Notification, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, key := e.sessionForLocked(characterName)
	if sess == nil {
		return nil, gameerr.New(gameerr.PreconditionFailed, "not in combat")
	}
	c, ok := e.lookup(characterName)
	if !ok {
		return nil, gameerr.Newf(gameerr.Internal, "no live character for %q", characterName)
	}

	if !e.rollChance(e.cfg.FleeSuccessChance) {
		return e.enemyStrikeOn(sess, characterName), nil
	}

	e.removeFromSession(sess, characterName)
	c.InCombat = false

	dest := sess.RoomID
	if room, ok := e.world.GetRoom(sess.RoomID); ok {
		exits := room.ExitRoomIDs()
		if len(exits) > 0 {
			dirs := make([]string, 0, len(exits))
			for d := range exits {
				dirs = append(dirs, d)
			}
			dest = exits[dirs[e.rng.Intn(len(dirs))]]
		}
	}
	notes := []Notification{{
		Audience: AudienceCharacter, CharacterName: characterName, Category: "combat",
		Message: "You flee from combat!",
	}}
	if dest != sess.RoomID {
		e.world.LeaveRoom(sess.RoomID, characterName)
		e.world.EnterRoom(dest, characterName)
		c.CurrentRoom = dest
	}
	notes = append(notes, e.checkSessionEnd(key, sess)...)
	return notes, nil
}

// Tick advances every active session by one round and processes any due
// enemy respawns (spec §4.7 "Tick semantics", §4.9).
func (e *Engine) Tick() []Notification {
	e.mu.Lock()
	defer e.mu.Unlock()

	var notes []Notification
	for key, sess := range e.sessions {
		notes = append(notes, e.tickSession(key, sess)...)
	}
	notes = append(notes, e.processRespawns()...)
	return notes
}

func (e *Engine) tickSession(key string, sess *Session) []Notification {
	var notes []Notification

	players := append([]string(nil), sess.Players...)
	for _, name := range players {
		c, ok := e.lookup(name)
		if !ok {
			continue
		}
		live := aliveEnemies(sess)
		if len(live) == 0 {
			break
		}
		target := live[e.rng.Intn(len(live))]
		dmg := e.variedRound(e.equip.TotalStats(c).Damage)
		target.CurrentHealth -= dmg
		target.AddThreat(name, dmg)

		tmplName := target.TemplateID
		if tmpl, ok := e.content.GetEnemy(target.TemplateID); ok {
			tmplName = tmpl.Name
		}
		notes = append(notes, Notification{
			Audience: AudienceRoom, RoomID: sess.RoomID, Category: "combat",
			Message: fmt.Sprintf("%s hits the %s for %d damage.", name, tmplName, dmg),
		})
		if !target.IsAlive() {
			notes = append(notes, e.defeatEnemy(sess, target)...)
		}
	}

	for _, enemy := range append([]*world.EnemyInstance(nil), sess.Enemies...) {
		if !enemy.IsAlive() {
			continue
		}
		targetName := e.selectThreatTarget(sess, enemy)
		if targetName == "" {
			continue
		}
		notes = append(notes, e.enemyAttack(sess, enemy, targetName)...)
	}

	if ended := e.checkSessionEnd(key, sess); ended != nil {
		notes = append(notes, ended...)
	} else {
		sess.Round++
	}
	return notes
}

// enemyStrikeOn resolves a free strike from a random living enemy in sess
// against characterName, used on a failed flee attempt.
func (e *Engine) enemyStrikeOn(sess *Session, characterName string) []Notification {
	live := aliveEnemies(sess)
	if len(live) == 0 {
		return nil
	}
	enemy := live[e.rng.Intn(len(live))]
	return e.enemyAttack(sess, enemy, characterName)
}

func (e *Engine) enemyAttack(sess *Session, enemy *world.EnemyInstance, targetName string) []Notification {
	tmpl, ok := e.content.GetEnemy(enemy.TemplateID)
	if !ok || len(tmpl.Attacks) == 0 {
		return nil
	}
	c, ok := e.lookup(targetName)
	if !ok {
		return nil
	}
	attack := tmpl.Attacks[e.rng.Intn(len(tmpl.Attacks))]

	if e.rng.Intn(100) >= attack.EffectiveAccuracy() {
		return []Notification{{
			Audience: AudienceRoom, RoomID: sess.RoomID, Category: "combat",
			Message: fmt.Sprintf("The %s's %s misses %s.", tmpl.Name, attack.Name, targetName),
		}}
	}

	result, _ := e.roller.Roll(damageExpression(attack.Name, attack.Damage))
	dmg := e.variedRound(result.Total()) - e.equip.TotalStats(c).Defense
	if dmg < 1 {
		dmg = 1
	}
	c.Health -= dmg

	notes := []Notification{{
		Audience: AudienceRoom, RoomID: sess.RoomID, Category: "combat",
		Message: fmt.Sprintf("The %s's %s hits %s for %d damage.", tmpl.Name, attack.Name, targetName, dmg),
	}}
	if c.Health <= 0 {
		notes = append(notes, e.killCharacter(sess, c)...)
	}
	return notes
}

// killCharacter applies spec §4.7 "Death": full health/mana restore,
// teleport to homestone (or the configured default), removal from the
// session, and a save.
func (e *Engine) killCharacter(sess *Session, c *character.Character) []Notification {
	e.removeFromSession(sess, c.Name)
	c.InCombat = false
	c.Health = c.MaxHealth
	if c.MaxMana > 0 {
		c.Mana = c.MaxMana
	}

	destArea, destRoom := e.cfg.DefaultRespawnArea, e.cfg.DefaultRespawnRoom
	if c.Homestone != nil {
		destArea, destRoom = c.Homestone.Area, c.Homestone.Room
	}
	e.world.LeaveRoom(sess.RoomID, c.Name)
	if destRoom != "" {
		e.world.EnterRoom(destRoom, c.Name)
		c.CurrentArea, c.CurrentRoom = destArea, destRoom
	}
	if e.chars != nil {
		_ = e.chars.Save(c, nil)
	}

	return []Notification{
		{Audience: AudienceCharacter, CharacterName: c.Name, Category: "combat",
			Message: "You have died and awaken at your bound location."},
		{Audience: AudienceRoom, RoomID: sess.RoomID, Category: "combat",
			Message: fmt.Sprintf("%s has fallen.", c.Name)},
	}
}

// defeatEnemy applies spec §4.7 "Rewards": removes the instance, grants
// experience/gold/loot to participants, and schedules a respawn.
func (e *Engine) defeatEnemy(sess *Session, enemy *world.EnemyInstance) []Notification {
	for i, en := range sess.Enemies {
		if en.ID == enemy.ID {
			sess.Enemies = append(sess.Enemies[:i], sess.Enemies[i+1:]...)
			break
		}
	}
	e.world.RemoveEnemy(sess.RoomID, enemy.ID)

	tmpl, ok := e.content.GetEnemy(enemy.TemplateID)
	if !ok {
		return nil
	}
	notes := []Notification{{
		Audience: AudienceRoom, RoomID: sess.RoomID, Category: "combat",
		Message: fmt.Sprintf("The %s has been defeated!", tmpl.Name),
	}}

	e.respawns = append(e.respawns, pendingRespawn{
		RoomID: sess.RoomID, TemplateID: enemy.TemplateID,
		DueAt: e.clock().Add(e.cfg.EnemyRespawnInterval),
	})

	participants := append([]string(nil), sess.Players...)
	for _, p := range participants {
		c, ok := e.lookup(p)
		if !ok {
			continue
		}
		xp := e.pickRange(tmpl.BaseExperience)
		gold := e.pickRange(tmpl.BaseGold)
		if e.quests != nil {
			e.quests.GrantExperience(c, xp)
			e.quests.ProgressUpdate(c, content.ObjectiveKill, enemy.TemplateID, 1)
		} else {
			c.Experience += xp
		}
		c.Gold += gold
		notes = append(notes, Notification{
			Audience: AudienceCharacter, CharacterName: p, Category: "loot",
			Message: fmt.Sprintf("You gain %d experience and %d gold.", xp, gold),
		})
	}

	for _, loot := range tmpl.Loot {
		if len(participants) == 0 || !e.rollChance(loot.Chance) {
			continue
		}
		winner := participants[e.rng.Intn(len(participants))]
		c, ok := e.lookup(winner)
		if !ok || e.items == nil {
			continue
		}
		qty := e.pickRange(loot.Quantity)
		if err := e.items.AddItem(c, loot.ItemID, qty); err == nil {
			notes = append(notes, Notification{
				Audience: AudienceCharacter, CharacterName: winner, Category: "loot",
				Message: fmt.Sprintf("You receive %d x %s.", qty, loot.ItemID),
			})
		}
	}

	if e.chars != nil {
		for _, p := range participants {
			if c, ok := e.lookup(p); ok {
				_ = e.chars.Save(c, nil)
			}
		}
	}
	return notes
}

// checkSessionEnd ends and removes sess once either side is empty,
// re-enabling regen for every remaining participant.
func (e *Engine) checkSessionEnd(key string, sess *Session) []Notification {
	if len(sess.Players) > 0 && len(sess.Enemies) > 0 {
		return nil
	}
	for _, p := range sess.Players {
		if c, ok := e.lookup(p); ok {
			c.InCombat = false
		}
	}
	delete(e.sessions, key)
	return []Notification{{
		Audience: AudienceRoom, RoomID: sess.RoomID, Category: "system",
		Message: "The fight is over.",
	}}
}

// processRespawns re-adds a fresh instance for every due pending respawn.
// If the template has since been removed, the respawn silently drops
// (spec §4.7 "Session end").
func (e *Engine) processRespawns() []Notification {
	if len(e.respawns) == 0 {
		return nil
	}
	now := e.clock()
	var notes []Notification
	var remaining []pendingRespawn
	for _, r := range e.respawns {
		if now.Before(r.DueAt) {
			remaining = append(remaining, r)
			continue
		}
		if _, ok := e.content.GetEnemy(r.TemplateID); !ok {
			continue
		}
		if _, err := e.world.SpawnEnemy(r.RoomID, r.TemplateID); err == nil {
			notes = append(notes, Notification{
				Audience: AudienceRoom, RoomID: r.RoomID, Category: "system",
				Message: "A foe has returned.",
			})
		}
	}
	e.respawns = remaining
	return notes
}

func (e *Engine) removeFromSession(sess *Session, name string) {
	for i, p := range sess.Players {
		if p == name {
			sess.Players = append(sess.Players[:i], sess.Players[i+1:]...)
			break
		}
	}
	for _, enemy := range sess.Enemies {
		enemy.ClearThreatFor(name)
	}
}

// selectThreatTarget picks a character weighted by their accumulated
// threat against enemy, falling back to uniform choice when nobody has
// any threat yet.
func (e *Engine) selectThreatTarget(sess *Session, enemy *world.EnemyInstance) string {
	if len(sess.Players) == 0 {
		return ""
	}
	total := 0
	for _, p := range sess.Players {
		total += enemy.Threat[p]
	}
	if total <= 0 {
		return sess.Players[e.rng.Intn(len(sess.Players))]
	}
	roll := e.rng.Intn(total)
	cum := 0
	for _, p := range sess.Players {
		cum += enemy.Threat[p]
		if roll < cum {
			return p
		}
	}
	return sess.Players[len(sess.Players)-1]
}

// variedRound applies a uniform ±variance multiplier to base and rounds to
// the nearest int, flooring at 1.
func (e *Engine) variedRound(base int) int {
	variance := e.cfg.DamageVariance
	if variance <= 0 {
		if base < 1 {
			return 1
		}
		return base
	}
	const precision = 10000
	r := float64(e.rng.Intn(precision)) / float64(precision)
	multiplier := 1 + variance*(2*r-1)
	result := int(math.Round(float64(base) * multiplier))
	if result < 1 {
		result = 1
	}
	return result
}

func (e *Engine) pickRange(r content.IntRange) int {
	if r.Min >= r.Max {
		return r.Min
	}
	return r.Min + e.rng.Intn(r.Max-r.Min+1)
}

// damageExpression turns an attack's inclusive [Min,Max] damage range into
// a single-die dice.Expression (1 die of Max-Min+1 sides, shifted up by
// Min-1), so enemy damage rolls go through the same logged roller as any
// other dice notation.
func damageExpression(attackName string, r content.IntRange) dice.Expression {
	sides := r.Max - r.Min + 1
	if sides < 1 {
		sides = 1
	}
	return dice.Expression{
		Raw:      fmt.Sprintf("%s damage [%d,%d]", attackName, r.Min, r.Max),
		Count:    1,
		Sides:    sides,
		Modifier: r.Min - 1,
	}
}

func (e *Engine) rollChance(chance float64) bool {
	if chance <= 0 {
		return false
	}
	if chance >= 1 {
		return true
	}
	const precision = 10000
	return e.rng.Intn(precision) < int(chance*precision)
}

func aliveEnemies(sess *Session) []*world.EnemyInstance {
	var out []*world.EnemyInstance
	for _, e := range sess.Enemies {
		if e.IsAlive() {
			out = append(out, e)
		}
	}
	return out
}
