package license

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// ReplayStore records credentials that already validated successfully.
// Implementations must be safe for concurrent use.
type ReplayStore interface {
	Seen(credential string) bool
	Add(credential string) error
}

// MemoryStore is a process-local replay set, suitable for tests and
// single-shot CLI invocations where durability comes from elsewhere.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryStore returns an empty in-memory replay set.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

func (s *MemoryStore) Seen(credential string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[credential]
	return ok
}

func (s *MemoryStore) Add(credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[credential] = struct{}{}
	return nil
}

// FileStore persists the replay set as a JSON array of credential strings.
// The file is read once at open and rewritten on every Add; the set stays
// small because credentials expire within minutes.
type FileStore struct {
	path string

	mu   sync.Mutex
	seen map[string]struct{}
}

// OpenFileStore loads (or initializes) the replay set at path.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, seen: make(map[string]struct{})}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("license: read replay store: %w", err)
	}
	var creds []string
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("license: parse replay store: %w", err)
	}
	for _, c := range creds {
		s.seen[c] = struct{}{}
	}
	return s, nil
}

func (s *FileStore) Seen(credential string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[credential]
	return ok
}

func (s *FileStore) Add(credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[credential] = struct{}{}
	creds := make([]string, 0, len(s.seen))
	for c := range s.seen {
		creds = append(creds, c)
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("license: encode replay store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		delete(s.seen, credential)
		return fmt.Errorf("license: write replay store: %w", err)
	}
	return nil
}
