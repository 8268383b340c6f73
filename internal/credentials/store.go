package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"nowauth/pkg/logging"
)

const (
	// DefaultConfigDir is the store directory relative to the user's home
	// when XDG_CONFIG_HOME is not set.
	DefaultConfigDir = ".config/nowauth"

	// FileName is the name of the credentials file inside the config dir.
	FileName = "auth.json"
)

// ErrStorage wraps every failure to persist the credentials file.
var ErrStorage = errors.New("credential storage failed")

// Store is a JSON file mapping provider id to credential record.
//
// SECURITY: the file holds client secrets and tokens.
//   - The file is chmod'ed to 0600 after every write
//   - The directory is created with 0700
//   - Only provider ids and record types are logged
//
// Every write re-reads the file and merges a single key, so records written
// by other processes since the last read are kept. There is no cross-process
// lock: two processes writing at the same moment race and the later write
// wins.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore returns a store backed by path. The file is created lazily on the
// first write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns $XDG_CONFIG_HOME/nowauth/auth.json, falling back to
// ~/.config/nowauth/auth.json.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nowauth", FileName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, DefaultConfigDir, FileName), nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the record stored under id. Unreadable files and records
// that fail to decode are reported as absent.
func (s *Store) Get(id string) (Credential, bool) {
	s.mu.Lock()
	raw := s.readLocked()
	s.mu.Unlock()

	data, ok := raw[id]
	if !ok {
		return nil, false
	}

	c, err := Decode(data)
	if err != nil {
		logging.Warn("Store", "Ignoring unreadable credential %q: %v", id, err)
		return nil, false
	}
	return c, true
}

// All returns every decodable record keyed by provider id.
func (s *Store) All() map[string]Credential {
	s.mu.Lock()
	raw := s.readLocked()
	s.mu.Unlock()

	out := make(map[string]Credential, len(raw))
	for id, data := range raw {
		c, err := Decode(data)
		if err != nil {
			logging.Warn("Store", "Ignoring unreadable credential %q: %v", id, err)
			continue
		}
		out[id] = c
	}
	return out
}

// IDs returns the stored provider ids in sorted order.
func (s *Store) IDs() []string {
	all := s.All()
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Set stores c under id, replacing any previous record for that id and
// leaving every other record untouched.
func (s *Store) Set(id string, c Credential) error {
	if id == "" {
		return fmt.Errorf("%w: provider id is empty", ErrStorage)
	}

	data, err := Encode(c)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw := s.readLocked()
	raw[id] = data

	if err := s.writeLocked(raw); err != nil {
		logging.Audit("credential_store_failed",
			"provider", id,
			"type", string(c.Type()),
			"error", err.Error(),
		)
		return err
	}

	logging.Audit("credential_stored",
		"provider", id,
		"type", string(c.Type()),
	)
	return nil
}

// Remove deletes the record for id. Removing an absent id is a no-op and
// does not touch the file.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := s.readLocked()
	if _, ok := raw[id]; !ok {
		return nil
	}
	delete(raw, id)

	if err := s.writeLocked(raw); err != nil {
		logging.Audit("credential_delete_failed",
			"provider", id,
			"error", err.Error(),
		)
		return err
	}

	logging.Audit("credential_deleted", "provider", id)
	return nil
}

// readLocked loads the raw records. A missing or corrupt file reads as an
// empty store.
func (s *Store) readLocked() map[string]json.RawMessage {
	raw := make(map[string]json.RawMessage)

	// #nosec G304 -- path is set by the caller's configuration
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Warn("Store", "Treating unreadable credentials file %s as empty: %v", s.path, err)
		}
		return raw
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		logging.Warn("Store", "Treating corrupt credentials file %s as empty: %v", s.path, err)
		return make(map[string]json.RawMessage)
	}
	if raw == nil {
		raw = make(map[string]json.RawMessage)
	}
	return raw
}

func (s *Store) writeLocked(raw map[string]json.RawMessage) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("%w: failed to create directory: %w", ErrStorage, err)
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal credentials: %w", ErrStorage, err)
	}

	// Rename over the store; a failed write leaves the old file intact.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %w", ErrStorage, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to restrict permissions on %s: %w", ErrStorage, tmpPath, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to write %s: %w", ErrStorage, tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to sync %s: %w", ErrStorage, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close %s: %w", ErrStorage, tmpPath, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("%w: failed to replace %s: %w", ErrStorage, s.path, err)
	}

	return nil
}
