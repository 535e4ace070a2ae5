package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists evaluations, chats and automation aggregates as JSON
// files under a data directory. Each collection is loaded and rewritten
// whole, matching the small-file scale of the studio's history.
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore creates a history store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) file(name string) string {
	return filepath.Join(s.dir, name)
}

func loadAll[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", filepath.Base(path), err)
	}
	return items, nil
}

func saveAll[T any](path string, items []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// --- evaluations ---

// SaveEvaluation appends one evaluation record.
func (s *Store) SaveEvaluation(rec SavedEvaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.file("evaluations.json")
	items, err := loadAll[SavedEvaluation](path)
	if err != nil {
		return err
	}
	items = append(items, rec)
	return saveAll(path, items)
}

// ListEvaluations returns all saved evaluations.
func (s *Store) ListEvaluations() ([]SavedEvaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loadAll[SavedEvaluation](s.file("evaluations.json"))
}

// GetEvaluation returns one evaluation by id.
func (s *Store) GetEvaluation(id string) (SavedEvaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := loadAll[SavedEvaluation](s.file("evaluations.json"))
	if err != nil {
		return SavedEvaluation{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return SavedEvaluation{}, fmt.Errorf("evaluation %q not found", id)
}

// DeleteEvaluation removes one evaluation by id. An unknown id is an
// error, so a DELETE cannot report success for a record that never was.
func (s *Store) DeleteEvaluation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.file("evaluations.json")
	items, err := loadAll[SavedEvaluation](path)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return fmt.Errorf("evaluation %q not found", id)
	}
	return saveAll(path, kept)
}

// --- chats ---

// SaveChat inserts or replaces a chat record by id. The orchestrator calls
// this after every prompt of a chat run, so the record grows in place.
func (s *Store) SaveChat(rec SavedChat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.file("chats.json")
	items, err := loadAll[SavedChat](path)
	if err != nil {
		return err
	}
	replaced := false
	for i, it := range items {
		if it.ID == rec.ID {
			items[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, rec)
	}
	return saveAll(path, items)
}

// ListChats returns all saved chats.
func (s *Store) ListChats() ([]SavedChat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loadAll[SavedChat](s.file("chats.json"))
}

// GetChat returns one chat by id.
func (s *Store) GetChat(id string) (SavedChat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := loadAll[SavedChat](s.file("chats.json"))
	if err != nil {
		return SavedChat{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return SavedChat{}, fmt.Errorf("chat %q not found", id)
}

// DeleteChat removes one chat by id. An unknown id is an error.
func (s *Store) DeleteChat(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.file("chats.json")
	items, err := loadAll[SavedChat](path)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return fmt.Errorf("chat %q not found", id)
	}
	return saveAll(path, kept)
}

// --- automation aggregates ---

// SaveAutomation appends one automation aggregate record.
func (s *Store) SaveAutomation(rec SavedAutomation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.file("automations.json")
	items, err := loadAll[SavedAutomation](path)
	if err != nil {
		return err
	}
	items = append(items, rec)
	return saveAll(path, items)
}

// ListAutomations returns all saved automation aggregates.
func (s *Store) ListAutomations() ([]SavedAutomation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loadAll[SavedAutomation](s.file("automations.json"))
}
