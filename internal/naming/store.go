package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/unitmap/internal/atomicfile"
)

// Label is the unit name and variant attached to one asset path.
type Label struct {
	Unit    string `yaml:"unit" json:"unit"`
	Variant string `yaml:"variant,omitempty" json:"variant,omitempty"`
}

// Store holds unit-name assignments.
type Store interface {
	// Replace discards every assignment and stores labels in their place,
	// as one change. On error the previous assignments are kept.
	Replace(labels map[string]Label) error
	// All returns every assignment keyed by path.
	All() (map[string]Label, error)
}

// MemoryStore keeps assignments in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	labels map[string]Label
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{labels: make(map[string]Label)}
}

func (s *MemoryStore) Replace(labels map[string]Label) error {
	next := make(map[string]Label, len(labels))
	for k, v := range labels {
		next[k] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels = next
	return nil
}

func (s *MemoryStore) All() (map[string]Label, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Label, len(s.labels))
	for k, v := range s.labels {
		out[k] = v
	}
	return out, nil
}

// FileStore persists assignments as a YAML map in a single file.
// Replace rewrites the file atomically.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path. A missing file is empty.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Replace(labels map[string]Label) error {
	data, err := yaml.Marshal(labels)
	if err != nil {
		return fmt.Errorf("write labels: marshal: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := atomicfile.WriteFile(s.path, data); err != nil {
		return fmt.Errorf("write labels: %w", err)
	}
	return nil
}

func (s *FileStore) All() (map[string]Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) read() (map[string]Label, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]Label{}, nil
		}
		return nil, fmt.Errorf("read labels: %w", err)
	}
	labels := map[string]Label{}
	if err := yaml.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("read labels: unmarshal: %w", err)
	}
	return labels, nil
}

// Sorted returns the paths of labels in lexical order.
func Sorted(labels map[string]Label) []string {
	out := make([]string, 0, len(labels))
	for p := range labels {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
