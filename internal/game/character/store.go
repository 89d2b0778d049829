package character

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/emberreach/mud/internal/game/gameerr"
)

const (
	pbkdf2Iterations = 10000
	pbkdf2KeyLength  = 64
	saltLength       = 16
)

// NamePolicy bounds and canonicalizes character names (spec §4.2).
type NamePolicy struct {
	MinLength int
	MaxLength int
}

// Canonicalize trims input, validates it is MinLength-MaxLength ASCII
// letters, and returns it initial-upper, remainder-lower ("bob" -> "Bob").
func (p NamePolicy) Canonicalize(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if len(trimmed) < p.MinLength || len(trimmed) > p.MaxLength {
		return "", gameerr.Newf(gameerr.InvalidCommand, "name must be %d-%d letters", p.MinLength, p.MaxLength)
	}
	for _, r := range trimmed {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return "", gameerr.New(gameerr.InvalidCommand, "name must contain only ASCII letters")
		}
	}
	lower := strings.ToLower(trimmed)
	return strings.ToUpper(lower[:1]) + lower[1:], nil
}

// Store persists one character record per file, keyed by canonical name.
// It owns the name policy, password hashing, and JSON round-tripping with
// forward-compatible unknown field preservation.
type Store struct {
	dir          string
	policy       NamePolicy
	minPasswordN int
}

// NewStore creates a Store rooted at dir. The directory is created if it
// does not already exist.
func NewStore(dir string, policy NamePolicy, minPasswordLength int) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating character directory: %w", err)
	}
	return &Store{dir: dir, policy: policy, minPasswordN: minPasswordLength}, nil
}

func (s *Store) path(canonicalName string) string {
	return filepath.Join(s.dir, canonicalName+".json")
}

// Exists reports whether a character with this name (any case) is on disk.
func (s *Store) Exists(name string) (bool, error) {
	canonical, err := s.policy.Canonicalize(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(s.path(canonical))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// wireRecord mirrors Character's known JSON fields plus Credentials, used
// to separate known fields from arbitrary extra ones on disk.
type wireRecord = Character

// Load reads and parses a character record by name.
//
// Postcondition: returns *gameerr.Error with Kind StorageCorrupt on
// failure, both for a missing file (ItemNotFound in spec terms) and for a
// parse failure (CorruptRecord).
func (s *Store) Load(name string) (*Character, error) {
	canonical, err := s.policy.Canonicalize(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(canonical))
	if os.IsNotExist(err) {
		return nil, gameerr.Newf(gameerr.StorageCorrupt, "character %q not found", canonical)
	}
	if err != nil {
		return nil, gameerr.Wrap(gameerr.StorageCorrupt, "reading character file", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, gameerr.Wrap(gameerr.StorageCorrupt, "corrupt character record", err)
	}

	var c wireRecord
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, gameerr.Wrap(gameerr.StorageCorrupt, "corrupt character record", err)
	}

	known := knownFieldNames()
	extra := make(map[string]interface{})
	for key, val := range raw {
		if known[key] {
			continue
		}
		var v interface{}
		if err := json.Unmarshal(val, &v); err == nil {
			extra[key] = v
		}
	}
	c.Extra = extra
	return &c, nil
}

// Save writes the full character record as a single file rewrite,
// preserving any unknown fields recorded in c.Extra, and runs quest
// inventory reconciliation via reconcile (nil-safe: caller passes the
// QuestService's reconciliation hook, or nil to skip).
func (s *Store) Save(c *Character, reconcile func(*Character)) error {
	if reconcile != nil {
		reconcile(c)
	}
	c.LastSaved = time.Now()

	known, err := json.Marshal(c)
	if err != nil {
		return gameerr.Wrap(gameerr.StorageCorrupt, "marshalling character", err)
	}
	var merged map[string]interface{}
	if err := json.Unmarshal(known, &merged); err != nil {
		return gameerr.Wrap(gameerr.StorageCorrupt, "marshalling character", err)
	}
	for k, v := range c.Extra {
		if _, isKnown := merged[k]; !isKnown {
			merged[k] = v
		}
	}

	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return gameerr.Wrap(gameerr.StorageCorrupt, "marshalling character", err)
	}

	tmp := s.path(c.Name) + ".tmp"
	if err := os.WriteFile(tmp, out, 0644); err != nil {
		return gameerr.Wrap(gameerr.StorageCorrupt, "writing character file", err)
	}
	if err := os.Rename(tmp, s.path(c.Name)); err != nil {
		return gameerr.Wrap(gameerr.StorageCorrupt, "committing character file", err)
	}
	return nil
}

// CreateWithPassword builds and persists a brand-new character record.
//
// Precondition: the character must not already exist; password must be at
// least the configured minimum length.
func (s *Store) CreateWithPassword(name, password, startArea, startRoom string, maxHealth int) (*Character, error) {
	canonical, err := s.policy.Canonicalize(name)
	if err != nil {
		return nil, err
	}
	if exists, err := s.Exists(canonical); err != nil {
		return nil, err
	} else if exists {
		return nil, gameerr.Newf(gameerr.AuthFailed, "character %q already exists", canonical)
	}
	if len(password) < s.minPasswordN {
		return nil, gameerr.Newf(gameerr.AuthFailed, "password must be at least %d characters", s.minPasswordN)
	}

	creds, err := hashPassword(password)
	if err != nil {
		return nil, gameerr.Wrap(gameerr.Internal, "hashing password", err)
	}

	c := &Character{
		Name:        canonical,
		Credentials: creds,
		Level:       1,
		Health:      maxHealth,
		MaxHealth:   maxHealth,
		CurrentArea: startArea,
		CurrentRoom: startRoom,
		Equipment:   make(map[string]string),
		FriendNotes: make(map[string]string),
		CreatedAt:   time.Now(),
	}
	if err := s.Save(c, nil); err != nil {
		return nil, err
	}
	return c, nil
}

// SetPassword replaces c's stored credentials with a hash of newPassword.
//
// Precondition: newPassword must be at least the configured minimum
// length. The caller is responsible for persisting c afterward.
func (s *Store) SetPassword(c *Character, newPassword string) error {
	if len(newPassword) < s.minPasswordN {
		return gameerr.Newf(gameerr.AuthFailed, "password must be at least %d characters", s.minPasswordN)
	}
	creds, err := hashPassword(newPassword)
	if err != nil {
		return gameerr.Wrap(gameerr.Internal, "hashing password", err)
	}
	c.Credentials = creds
	return nil
}

// VerifyPassword checks a plaintext password against a character's stored
// credentials using a constant-time comparison.
func VerifyPassword(creds Credentials, password string) bool {
	derived := pbkdf2.Key([]byte(password), creds.Salt, pbkdf2Iterations, pbkdf2KeyLength, sha256.New)
	return subtle.ConstantTimeCompare(derived, creds.Hash) == 1
}

func hashPassword(password string) (Credentials, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return Credentials{}, err
	}
	hash := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLength, sha256.New)
	return Credentials{Salt: salt, Hash: hash}, nil
}

func knownFieldNames() map[string]bool {
	return map[string]bool{
		"name": true, "credentials": true, "level": true, "experience": true,
		"health": true, "maxHealth": true, "mana": true, "maxMana": true,
		"gold": true, "currentArea": true, "currentRoom": true, "position": true,
		"inventory": true, "equipment": true, "baseStats": true,
		"activeQuests": true, "completedQuests": true,
		"takenOneTimeItems": true, "defeatedOneTimeEnemies": true,
		"friends": true, "friendNotes": true, "homestone": true,
		"inCombat": true, "createdAt": true, "lastSaved": true,
	}
}
