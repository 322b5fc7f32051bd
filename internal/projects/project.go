// Package projects keeps one record per GitHub repository: who mentors it,
// who is interested in it, and contributor counts mirrored from GitHub.
package projects

import (
	"time"
)

// DefaultMaxSyncAge is how long GitHub-derived fields stay fresh.
const DefaultMaxSyncAge = time.Hour

// Project is keyed by the GitHub repository id. The counts of mentors and
// interested users always match their lists; Normalize keeps them in step
// before a save.
type Project struct {
	RepositoryID      string   `json:"repositoryId"`
	MentorIDs         []string `json:"mentorIds"`
	InterestedUserIDs []string `json:"interestedUserIds"`

	NumMentors         int `json:"numMentors"`
	NumInterestedUsers int `json:"numInterestedUsers"`
	// NumContributors is nil until the first sync with GitHub.
	NumContributors *int `json:"numContributors"`

	SyncedAt *time.Time `json:"syncedWithGitHubAt,omitempty"`
}

// New is an unsaved project with empty member lists.
func New(repositoryID string) *Project {
	return &Project{
		RepositoryID:      repositoryID,
		MentorIDs:         []string{},
		InterestedUserIDs: []string{},
	}
}

// Normalize replaces nil lists with empty ones and recomputes the counts.
func (p *Project) Normalize() {
	if p.MentorIDs == nil {
		p.MentorIDs = []string{}
	}
	if p.InterestedUserIDs == nil {
		p.InterestedUserIDs = []string{}
	}
	p.NumMentors = len(p.MentorIDs)
	p.NumInterestedUsers = len(p.InterestedUserIDs)
}

// Stale reports whether the GitHub-derived fields need a refresh: never
// synced, or synced maxAge or longer before now.
func (p *Project) Stale(now time.Time, maxAge time.Duration) bool {
	return p.SyncedAt == nil || now.Sub(*p.SyncedAt) >= maxAge
}
