package resolver

import (
	"context"

	"opensesame/internal/auth"
)

// Resolver determines which internal user an external identity belongs to.
// It is the ONLY place where identity-to-user mapping logic lives.
type Resolver interface {
	// Resolve returns the user owning identity, creating one when none
	// exists. created reports whether a new user was inserted.
	Resolve(
		ctx context.Context,
		identity *auth.Identity,
	) (userID string, created bool, err error)
}
