package projects

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memoryStore struct {
	mu       sync.Mutex
	projects map[string]*Project
	saves    int
	listErr  error
}

func newMemoryStore(projects ...*Project) *memoryStore {
	s := &memoryStore{projects: map[string]*Project{}}
	for _, p := range projects {
		s.projects[p.RepositoryID] = p
	}
	return s
}

func (s *memoryStore) Get(_ context.Context, repositoryID string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[repositoryID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memoryStore) List(_ context.Context, _ []Filter) ([]*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]*Project, 0, len(s.projects))
	for _, id := range []string{"42", "43", "44"} {
		if p, ok := s.projects[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memoryStore) ListStale(_ context.Context, cutoff time.Time) ([]*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Project
	for _, p := range s.projects {
		if p.SyncedAt == nil || !p.SyncedAt.After(cutoff) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memoryStore) Save(_ context.Context, projects ...*Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(projects) == 0 {
		return nil
	}
	s.saves++
	for _, p := range projects {
		cp := *p
		s.projects[p.RepositoryID] = &cp
	}
	return nil
}

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int
	calls  []string
}

var errRateLimited = errors.New("github: rate limited")

func (c *fakeCounter) CountContributors(_ context.Context, repositoryID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, repositoryID)
	n, ok := c.counts[repositoryID]
	if !ok {
		return 0, errRateLimited
	}
	return n, nil
}

func (c *fakeCounter) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}
