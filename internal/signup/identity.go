package signup

import (
	"context"
	"sync"
)

// IdentityProvider is the sign-up page's view of an OAuth-style provider.
//
// Subscribe delivers the current user to fn before it returns, then again on
// every change, until the returned func is called.
type IdentityProvider interface {
	User() *User
	Token() string
	// ToggleSignIn links when nothing is linked and unlinks otherwise.
	ToggleSignIn(ctx context.Context) error
	Subscribe(fn func(*User)) (unsubscribe func())
}

// Broadcaster keeps the linked user and token and fans changes out to
// subscribers. Concrete providers embed it and call Set after sign-in or
// sign-out.
type Broadcaster struct {
	mu     sync.Mutex
	user   *User
	token  string
	nextID int
	subs   map[int]func(*User)
}

func (b *Broadcaster) User() *User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneUser(b.user)
}

func (b *Broadcaster) Token() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

// Set records the new state and notifies every subscriber. A nil user clears
// the token as well.
func (b *Broadcaster) Set(user *User, token string) {
	b.mu.Lock()
	if user == nil {
		token = ""
	}
	b.user = cloneUser(user)
	b.token = token
	subs := make([]func(*User), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	current := cloneUser(b.user)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(cloneUser(current))
	}
}

func (b *Broadcaster) Subscribe(fn func(*User)) func() {
	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[int]func(*User))
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	current := cloneUser(b.user)
	b.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
