package projects

import (
	"context"
	"errors"
	"strconv"
	"time"

	"opensesame/internal/apperror"
	"opensesame/internal/logger"
)

// Store is the persistence the service needs. *Repository implements it.
type Store interface {
	Get(ctx context.Context, repositoryID string) (*Project, error)
	List(ctx context.Context, filters []Filter) ([]*Project, error)
	ListStale(ctx context.Context, cutoff time.Time) ([]*Project, error)
	Save(ctx context.Context, projects ...*Project) error
}

// ContributorCounter reports how many contributors a GitHub repository has.
type ContributorCounter interface {
	CountContributors(ctx context.Context, repositoryID string) (int, error)
}

type Service struct {
	store   Store
	counter ContributorCounter
	maxAge  time.Duration
	now     func() time.Time
}

// NewService builds the project service. A nil counter turns GitHub syncing
// off; projects are then served with whatever counts they were saved with.
func NewService(store Store, counter ContributorCounter, maxAge time.Duration) *Service {
	if maxAge <= 0 {
		maxAge = DefaultMaxSyncAge
	}
	return &Service{store: store, counter: counter, maxAge: maxAge, now: time.Now}
}

// Get returns the stored project, or a new unsaved one when the repository
// has none yet. Either way the GitHub fields are brought up to date first.
func (s *Service) Get(ctx context.Context, repositoryID string) (*Project, error) {
	if _, err := strconv.ParseInt(repositoryID, 10, 64); err != nil {
		return nil, apperror.NewValidationError("Invalid project id.", "Unable to load the project.")
	}

	p, err := s.store.Get(ctx, repositoryID)
	if errors.Is(err, ErrNotFound) {
		p = New(repositoryID)
		s.sync(ctx, p)
		return p, nil
	}
	if err != nil {
		return nil, apperror.NewInternalError("project_load_failed", err)
	}

	if s.syncIfStale(ctx, p) {
		s.save(ctx, p)
	}
	return p, nil
}

// List parses raw "field <op> value" filters and returns the matching
// projects. Stale projects are synced and saved on the way out.
func (s *Service) List(ctx context.Context, rawFilters []string) ([]*Project, error) {
	filters, err := ParseFilters(rawFilters)
	if err != nil {
		return nil, err
	}

	projects, err := s.store.List(ctx, filters)
	if err != nil {
		return nil, apperror.NewInternalError("project_query_failed", err)
	}

	var synced []*Project
	for _, p := range projects {
		if s.syncIfStale(ctx, p) {
			synced = append(synced, p)
		}
	}
	s.save(ctx, synced...)

	return projects, nil
}

// RefreshStale syncs and saves every project whose GitHub fields are older
// than the max sync age. It returns how many were refreshed.
func (s *Service) RefreshStale(ctx context.Context) (int, error) {
	if s.counter == nil {
		return 0, nil
	}

	stale, err := s.store.ListStale(ctx, s.now().Add(-s.maxAge))
	if err != nil {
		return 0, err
	}

	refreshed := make([]*Project, 0, len(stale))
	for _, p := range stale {
		if s.sync(ctx, p) {
			refreshed = append(refreshed, p)
		}
	}

	if err := s.store.Save(ctx, refreshed...); err != nil {
		return 0, err
	}
	return len(refreshed), nil
}

// RunRefresher calls RefreshStale every interval until ctx is done.
func (s *Service) RunRefresher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.RefreshStale(ctx)
			if err != nil {
				logger.Error("project refresh failed", map[string]any{
					"error": err.Error(),
				})
				continue
			}
			if n > 0 {
				logger.Info("projects refreshed", map[string]any{
					"count": n,
				})
			}
		}
	}
}

func (s *Service) syncIfStale(ctx context.Context, p *Project) bool {
	if !p.Stale(s.now(), s.maxAge) {
		return false
	}
	return s.sync(ctx, p)
}

// sync refreshes the contributor count. A failed lookup leaves the project
// as it was.
func (s *Service) sync(ctx context.Context, p *Project) bool {
	if s.counter == nil {
		return false
	}

	n, err := s.counter.CountContributors(ctx, p.RepositoryID)
	if err != nil {
		logger.Warn("github project sync failed", map[string]any{
			"repository_id": p.RepositoryID,
			"error":         err.Error(),
		})
		return false
	}

	now := s.now()
	p.NumContributors = &n
	p.SyncedAt = &now
	return true
}

func (s *Service) save(ctx context.Context, projects ...*Project) {
	if err := s.store.Save(ctx, projects...); err != nil {
		logger.Error("saving synced projects failed", map[string]any{
			"count": len(projects),
			"error": err.Error(),
		})
	}
}
