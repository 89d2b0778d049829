package world

import (
	"fmt"
	"sync"

	"github.com/emberreach/mud/internal/game/content"
)

// State is the mutable live world, one Room per loaded room template. It is
// built once from a content.Store at startup and then mutated by command
// handlers and the CombatEngine for the life of the process. Every public
// method is safe for concurrent use, though the single-game-thread
// invariant of spec §5 means only one goroutine calls into it at a time in
// practice.
type State struct {
	mu    sync.RWMutex
	store *content.Store
	rooms map[string]*Room
}

// NewState seeds one live Room per room template in store, across every
// loaded area.
//
// Precondition: store must be a successfully loaded, validated content.Store.
func NewState(store *content.Store) *State {
	s := &State{
		store: store,
		rooms: make(map[string]*Room),
	}
	for _, areaID := range store.AreaIDs() {
		for _, tmpl := range store.RoomsInArea(areaID) {
			s.rooms[tmpl.ID] = newRoom(tmpl)
		}
	}
	return s
}

// GetRoom returns the live room with the given id.
func (s *State) GetRoom(id string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Navigate resolves movement from a room in a direction, returning the
// destination room id. Unlike the teacher's Manager, exits carry no lock
// flag in this design — locked doors are not part of the spec's scope.
func (s *State) Navigate(fromRoomID string, dir Direction) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, ok := s.rooms[fromRoomID]
	if !ok {
		return "", fmt.Errorf("room %q not found", fromRoomID)
	}
	target, ok := from.Template.Exits[string(dir)]
	if !ok {
		return "", fmt.Errorf("no exit %q from %q", dir, fromRoomID)
	}
	if _, ok := s.rooms[target]; !ok {
		return "", fmt.Errorf("exit %q from %q targets unknown room %q", dir, fromRoomID, target)
	}
	return target, nil
}

// RoomCount returns the number of live rooms.
func (s *State) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// EnterRoom adds a character to a room's live occupant set.
func (s *State) EnterRoom(roomID, characterName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return fmt.Errorf("room %q not found", roomID)
	}
	r.Characters[characterName] = true
	return nil
}

// LeaveRoom removes a character from a room's live occupant set.
func (s *State) LeaveRoom(roomID, characterName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[roomID]; ok {
		delete(r.Characters, characterName)
	}
}

// CharactersInRoom lists the names of characters currently in a room.
func (s *State) CharactersInRoom(roomID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(r.Characters))
	for name := range r.Characters {
		out = append(out, name)
	}
	return out
}

// AddItem places qty of itemID on the ground in roomID.
func (s *State) AddItem(roomID, itemID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return fmt.Errorf("room %q not found", roomID)
	}
	r.Items[itemID] += qty
	return nil
}

// RemoveItem takes qty of itemID off the ground in roomID. Fails if fewer
// than qty are present.
func (s *State) RemoveItem(roomID, itemID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return fmt.Errorf("room %q not found", roomID)
	}
	have := r.Items[itemID]
	if have < qty {
		return fmt.Errorf("only %d of %q on the ground in %q", have, itemID, roomID)
	}
	have -= qty
	if have == 0 {
		delete(r.Items, itemID)
	} else {
		r.Items[itemID] = have
	}
	return nil
}

// SpawnEnemy mints and registers a fresh enemy instance of templateID in
// roomID, used both for room-load seeding and respawn.
func (s *State) SpawnEnemy(roomID, templateID string) (*EnemyInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("room %q not found", roomID)
	}
	tmpl, ok := s.store.GetEnemy(templateID)
	if !ok {
		return nil, fmt.Errorf("enemy template %q not found", templateID)
	}
	inst := NewEnemyInstance(roomID, tmpl)
	r.Enemies[inst.ID] = inst
	return inst, nil
}

// RemoveEnemy deletes a defeated enemy instance from its room.
func (s *State) RemoveEnemy(roomID, instanceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[roomID]; ok {
		delete(r.Enemies, instanceID)
	}
}

// EnemiesInRoom returns every live enemy instance in roomID.
func (s *State) EnemiesInRoom(roomID string) []*EnemyInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]*EnemyInstance, 0, len(r.Enemies))
	for _, e := range r.Enemies {
		out = append(out, e)
	}
	return out
}

// SeedInitialEnemies spawns one live instance for every enemy id listed on
// each room's template, the "created on room load" half of spec §3's enemy
// instance lifecycle.
func (s *State) SeedInitialEnemies() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for roomID, r := range s.rooms {
		for _, templateID := range r.Template.Enemies {
			tmpl, ok := s.store.GetEnemy(templateID)
			if !ok {
				continue
			}
			inst := NewEnemyInstance(roomID, tmpl)
			r.Enemies[inst.ID] = inst
		}
	}
}

// Store returns the underlying immutable template store, for components
// that need template lookups alongside live-state lookups.
func (s *State) Store() *content.Store {
	return s.store
}
