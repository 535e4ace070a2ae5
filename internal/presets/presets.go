// Package presets stores reusable prompt/context snippets grouped into
// fixed buckets: "ocr", "prompt" and "chat".
package presets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Preset is one named snippet.
type Preset struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

var validTypes = map[string]bool{"ocr": true, "prompt": true, "chat": true}

// Store persists presets to a single JSON file.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a preset store persisting to presets.json under dataDir.
func NewStore(dataDir string) *Store {
	return &Store{path: filepath.Join(dataDir, "presets.json")}
}

func (s *Store) load() (map[string][]Preset, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string][]Preset{"ocr": {}, "prompt": {}, "chat": {}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	var buckets map[string][]Preset
	if err := json.Unmarshal(data, &buckets); err != nil {
		return nil, fmt.Errorf("unmarshal presets: %w", err)
	}
	for t := range validTypes {
		if buckets[t] == nil {
			buckets[t] = []Preset{}
		}
	}
	return buckets, nil
}

func (s *Store) save(buckets map[string][]Preset) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	data, err := json.MarshalIndent(buckets, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal presets: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

// List returns the presets of one bucket.
func (s *Store) List(presetType string) ([]Preset, error) {
	if !validTypes[presetType] {
		return nil, fmt.Errorf("invalid preset type %q", presetType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	buckets, err := s.load()
	if err != nil {
		return nil, err
	}
	return buckets[presetType], nil
}

// Create appends a preset to a bucket.
func (s *Store) Create(presetType, name, content string) error {
	if !validTypes[presetType] {
		return fmt.Errorf("invalid preset type %q", presetType)
	}
	if name == "" {
		return fmt.Errorf("preset name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	buckets, err := s.load()
	if err != nil {
		return err
	}
	buckets[presetType] = append(buckets[presetType], Preset{Name: name, Content: content})
	return s.save(buckets)
}

// Delete removes every preset with the given name from a bucket.
func (s *Store) Delete(presetType, name string) error {
	if !validTypes[presetType] {
		return fmt.Errorf("invalid preset type %q", presetType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	buckets, err := s.load()
	if err != nil {
		return err
	}
	kept := buckets[presetType][:0]
	for _, p := range buckets[presetType] {
		if p.Name != name {
			kept = append(kept, p)
		}
	}
	buckets[presetType] = kept
	return s.save(buckets)
}
