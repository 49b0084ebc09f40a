package io

import (
	"sort"
	"sync"
)

// SkipList collects the ids of the tiles left out because of their size
type SkipList struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewSkipList() *SkipList {
	return &SkipList{ids: make(map[string]struct{})}
}

func (s *SkipList) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

// IDs returns the skipped ids, sorted
func (s *SkipList) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
