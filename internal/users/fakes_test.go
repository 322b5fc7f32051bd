package users

import (
	"context"
	"errors"
	"sync"

	"opensesame/internal/auth"
)

type fakeVerifier struct {
	identities map[string]*auth.Identity
	err        error
}

func (v *fakeVerifier) VerifyToken(_ context.Context, token string) (*auth.Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	identity, ok := v.identities[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return identity, nil
}

type fakeResolver struct {
	mu    sync.Mutex
	users map[string]string // provider_user_id -> user id
	err   error
}

func (r *fakeResolver) Resolve(_ context.Context, identity *auth.Identity) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return "", false, r.err
	}
	if id, ok := r.users[identity.ProviderUserID]; ok {
		return id, false, nil
	}
	if r.users == nil {
		r.users = map[string]string{}
	}
	id := "user-" + identity.ProviderUserID
	r.users[identity.ProviderUserID] = id
	return id, true, nil
}

type fakeTags struct {
	mu   sync.Mutex
	tags map[string][]string
	err  error
}

func (f *fakeTags) ReplaceInterestTags(_ context.Context, userID string, tags []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	if f.tags == nil {
		f.tags = map[string][]string{}
	}
	f.tags[userID] = append([]string(nil), tags...)
	return nil
}

func (f *fakeTags) InterestTags(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return f.tags[userID], nil
}

var errDown = errors.New("down")

func octocat() *auth.Identity {
	return &auth.Identity{
		Provider:       "github",
		ProviderUserID: "583231",
		Login:          "octocat",
		Token:          "tok123",
	}
}

var catalog = []string{"go", "rust", "python"}

func newTestService() (*Service, *fakeVerifier, *fakeResolver, *fakeTags) {
	v := &fakeVerifier{identities: map[string]*auth.Identity{"tok123": octocat()}}
	r := &fakeResolver{}
	tags := &fakeTags{}
	return NewService(v, r, tags, catalog), v, r, tags
}
