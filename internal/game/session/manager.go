package session

import (
	"fmt"
	"sync"

	"github.com/emberreach/mud/internal/game/character"
)

// State is a session's position in the connection lifecycle (spec §4.3).
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Playing
	Disconnecting
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Playing:
		return "playing"
	case Disconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// Session is one live connection, possibly bound to a character.
type Session struct {
	Handle        string
	CharacterName string // canonical name once authenticated; empty before
	State         State
	LastWhisperFrom string
	Outbox        *Outbox

	// Character is the live, mutable record the game thread operates on
	// directly while this session is playing. It is loaded once at
	// authentication and saved back through CharacterStore; nil before a
	// character is bound.
	Character *character.Character
}

// Registry tracks live sessions by connection handle and by character
// name, and enforces the single-session-per-character rule (spec §4.3).
type Registry struct {
	mu           sync.Mutex
	byHandle     map[string]*Session
	byCharacter  map[string]*Session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byHandle:    make(map[string]*Session),
		byCharacter: make(map[string]*Session),
	}
}

// Open registers a brand-new, unauthenticated session for a connection handle.
func (r *Registry) Open(handle string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess := &Session{
		Handle: handle,
		State:  Unauthenticated,
		Outbox: NewOutbox(handle, 64),
	}
	r.byHandle[handle] = sess
	return sess
}

// Authenticate transitions a session to playing for the given canonical
// character name, applying the single-login supersede rule: any existing
// playing session for the same name is marked Disconnecting and its old
// handle's mapping by character is replaced. The caller is responsible for
// tearing down the superseded session's transport connection and must
// check the returned superseded session for nil.
func (r *Registry) Authenticate(handle, characterName string) (superseded *Session, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.byHandle[handle]
	if !ok {
		return nil, fmt.Errorf("no session for handle %q", handle)
	}

	if existing, ok := r.byCharacter[characterName]; ok && existing.Handle != handle {
		existing.State = Disconnecting
		superseded = existing
	}

	sess.CharacterName = characterName
	sess.State = Playing
	r.byCharacter[characterName] = sess
	return superseded, nil
}

// Close removes a session from both indexes and closes its outbox.
func (r *Registry) Close(handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.byHandle[handle]
	if !ok {
		return
	}
	delete(r.byHandle, handle)
	if sess.CharacterName != "" {
		if current, ok := r.byCharacter[sess.CharacterName]; ok && current.Handle == handle {
			delete(r.byCharacter, sess.CharacterName)
		}
	}
	_ = sess.Outbox.Close()
}

// ByHandle returns the session for a connection handle.
func (r *Registry) ByHandle(handle string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.byHandle[handle]
	return sess, ok
}

// ByCharacter returns the currently-playing session for a character name,
// if any.
func (r *Registry) ByCharacter(characterName string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.byCharacter[characterName]
	return sess, ok
}

// IsPlaying reports whether characterName currently has a playing session.
func (r *Registry) IsPlaying(characterName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.byCharacter[characterName]
	return ok && sess.State == Playing
}

// PlayingSessions returns every session currently in the Playing state.
func (r *Registry) PlayingSessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.byCharacter))
	for _, sess := range r.byCharacter {
		if sess.State == Playing {
			out = append(out, sess)
		}
	}
	return out
}

// Count returns the number of sessions indexed by connection handle.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byHandle)
}
