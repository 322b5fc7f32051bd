package signup

import (
	"context"
	"sync"
)

// fakeProvider links to a fixed user on the first toggle and unlinks on the
// next. toggle, when set, replaces that behaviour.
type fakeProvider struct {
	Broadcaster

	user    *User
	token   string
	toggle  func(ctx context.Context) error
	mu      sync.Mutex
	toggles int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		user:  &User{ID: "583231", Login: "octocat", Email: "octocat@github.com"},
		token: "tok123",
	}
}

func (p *fakeProvider) ToggleSignIn(ctx context.Context) error {
	p.mu.Lock()
	p.toggles++
	p.mu.Unlock()

	if p.toggle != nil {
		return p.toggle(ctx)
	}
	if p.User() == nil {
		p.Set(p.user, p.token)
	} else {
		p.Set(nil, "")
	}
	return nil
}

func (p *fakeProvider) Toggles() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.toggles
}

type fakePoster struct {
	mu     sync.Mutex
	bodies []RequestBody
	err    error
	block  chan struct{}
}

func (p *fakePoster) PostUser(ctx context.Context, body RequestBody) error {
	p.mu.Lock()
	p.bodies = append(p.bodies, body)
	block := p.block
	p.mu.Unlock()

	if block != nil {
		<-block
	}
	return p.err
}

func (p *fakePoster) Calls() []RequestBody {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]RequestBody, len(p.bodies))
	copy(out, p.bodies)
	return out
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Alert(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}

type fakeNavigator struct {
	paths []string
	err   error
}

func (n *fakeNavigator) Navigate(path string) error {
	n.paths = append(n.paths, path)
	return n.err
}
