package store

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
	"github.com/MrSnakeDoc/hrtlog/internal/logger"
)

// LoadResources returns the resources in canonical form. Legacy shapes are
// rewritten on disk the first time they are read; an unreadable file is
// treated as empty and never rewritten by a read.
func (s *Store) LoadResources() ([]domain.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadResources()
}

func (s *Store) loadResources() ([]domain.Resource, error) {
	items, decoded := s.resources.Read()
	s.observer.CollectionLoaded(CollectionResources, len(items))

	// A file that did not decode is left untouched
	if decoded && !s.resources.InSync(items) {
		s.log.Info("Normalizing resources file", logger.Int("resources", len(items)))
		if err := s.saveResources(items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (s *Store) SaveResources(items []domain.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveResources(items)
}

func (s *Store) saveResources(items []domain.Resource) error {
	if err := s.resources.Save(items); err != nil {
		return fmt.Errorf("failed to save %s: %w", CollectionResources, err)
	}
	s.observer.CollectionSaved(CollectionResources, len(items))
	return nil
}

// AddResource appends r after validating it.
func (s *Store) AddResource(r domain.Resource) (domain.Resource, error) {
	r = domain.NewResource(r.Name, r.Link, r.Description, r.Tags)
	if err := r.Validate(); err != nil {
		s.observer.Mutation(OpAddResource, false)
		return domain.Resource{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadResources()
	if err != nil {
		return domain.Resource{}, err
	}
	if err := s.saveResources(append(items, r)); err != nil {
		return domain.Resource{}, err
	}
	s.observer.Mutation(OpAddResource, true)
	return r, nil
}

// RemoveResource deletes the resource at index. An out of range index is a
// not-found result.
func (s *Store) RemoveResource(index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadResources()
	if err != nil {
		return false, err
	}
	if index < 0 || index >= len(items) {
		s.observer.Mutation(OpRemoveResource, false)
		return false, nil
	}

	kept := make([]domain.Resource, 0, len(items)-1)
	kept = append(kept, items[:index]...)
	kept = append(kept, items[index+1:]...)
	if err := s.saveResources(kept); err != nil {
		return false, err
	}
	s.observer.Mutation(OpRemoveResource, true)
	return true, nil
}

// MergeResources adds every seed whose name is not present yet, compared
// case-insensitively, and returns how many were added.
func (s *Store) MergeResources(seeds []domain.Resource) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadResources()
	if err != nil {
		return 0, err
	}

	known := make(map[string]struct{}, len(items))
	for _, r := range items {
		known[strings.ToLower(strings.TrimSpace(r.Name))] = struct{}{}
	}

	added := 0
	for _, seed := range seeds {
		seed = domain.NewResource(seed.Name, seed.Link, seed.Description, seed.Tags)
		if seed.Validate() != nil {
			continue
		}
		key := strings.ToLower(seed.Name)
		if _, ok := known[key]; ok {
			continue
		}
		known[key] = struct{}{}
		items = append(items, seed)
		added++
	}

	if added == 0 {
		return 0, nil
	}
	if err := s.saveResources(items); err != nil {
		return 0, err
	}
	s.observer.Mutation(OpSeedResources, true)
	return added, nil
}
