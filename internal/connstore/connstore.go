package connstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var (
	// ErrConnectionNotFound indicates the named connection doesn't exist
	ErrConnectionNotFound = errors.New("connection not found")
	// ErrConnectionExists indicates the name is already taken
	ErrConnectionExists = errors.New("connection already exists")
)

// Store manages the collection of named warehouse connections, persisted as
// a single YAML file in the state directory. The file carries credentials,
// so it and its parent directory are created owner-only.
type Store struct {
	filePath string
	data     *storeData
	mu       sync.RWMutex
}

// New creates a Store backed by filePath, loading existing content if any.
func New(filePath string) (*Store, error) {
	s := &Store{
		filePath: filePath,
		data: &storeData{
			Connections: make(map[string]*Connection),
		},
	}
	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load connection store: %w", err)
	}
	return s, nil
}

// Load reads the store from disk.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = &storeData{Connections: make(map[string]*Connection)}
			return nil
		}
		return err
	}

	var sd storeData
	if err := yaml.Unmarshal(data, &sd); err != nil {
		return fmt.Errorf("failed to unmarshal connection store: %w", err)
	}
	if sd.Connections == nil {
		sd.Connections = make(map[string]*Connection)
	}
	s.data = &sd
	return nil
}

// saveNoLock persists the store without locking (caller must hold lock)
func (s *Store) saveNoLock() error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("failed to marshal connection store: %w", err)
	}

	// Write to temp file for atomic replacement
	f, err := os.CreateTemp(dir, ".connections-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if err := f.Chmod(0o600); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to restrict permissions: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write connection store: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to fsync connection store: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close connection store: %w", err)
	}

	if err := os.Rename(tmp, s.filePath); err != nil {
		return fmt.Errorf("failed to replace connection store: %w", err)
	}
	return nil
}

// AddAndSave atomically registers a connection and persists.
// On save failure, the in-memory change is rolled back.
func (s *Store) AddAndSave(conn *Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.data.Connections {
		if c.Name == conn.Name {
			return fmt.Errorf("%w: %s", ErrConnectionExists, conn.Name)
		}
	}

	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = time.Now().UTC()
	}

	s.data.Connections[conn.ID] = conn
	if err := s.saveNoLock(); err != nil {
		delete(s.data.Connections, conn.ID)
		return fmt.Errorf("persist failed: %w", err)
	}
	return nil
}

// RemoveAndSave atomically removes the named connection and persists.
// On save failure, the removal is rolled back.
func (s *Store) RemoveAndSave(name string) (*Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *Connection
	for _, c := range s.data.Connections {
		if c.Name == name {
			found = c
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrConnectionNotFound, name)
	}

	delete(s.data.Connections, found.ID)
	if err := s.saveNoLock(); err != nil {
		s.data.Connections[found.ID] = found
		return nil, fmt.Errorf("persist failed: %w", err)
	}
	return found, nil
}

// Get returns the connection with the given name.
func (s *Store) Get(name string) (*Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.data.Connections {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrConnectionNotFound, name)
}

// List returns all connections sorted by name then ID.
func (s *Store) List() []*Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conns := make([]*Connection, 0, len(s.data.Connections))
	for _, c := range s.data.Connections {
		conns = append(conns, c)
	}
	sort.Slice(conns, func(i, j int) bool {
		if conns[i].Name == conns[j].Name {
			return conns[i].ID < conns[j].ID
		}
		return conns[i].Name < conns[j].Name
	})
	return conns
}
