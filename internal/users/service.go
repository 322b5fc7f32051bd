package users

import (
	"context"
	"errors"
	"strings"

	"opensesame/internal/apperror"
	"opensesame/internal/auth"
	"opensesame/internal/auth/provider"
	"opensesame/internal/auth/resolver"
	"opensesame/internal/logger"
	"opensesame/internal/signup"
)

const (
	msgRelink     = "Please link your GitHub account again."
	msgUnknownTag = "One of the selected interests is not available. Please reload the page."
	msgProvider   = "We could not reach GitHub to confirm your account. Please try again later."
)

// TagStore persists interest tags.
type TagStore interface {
	ReplaceInterestTags(ctx context.Context, userID string, tags []string) error
	InterestTags(ctx context.Context, userID string) ([]string, error)
}

// Result describes a completed sign-up.
type Result struct {
	UserID       string
	Created      bool
	Identity     *auth.Identity
	InterestTags []string
}

// Service creates or updates users from sign-up submissions.
type Service struct {
	verifier provider.TokenVerifier
	resolver resolver.Resolver
	tags     TagStore
	catalog  map[string]struct{}
}

func NewService(verifier provider.TokenVerifier, r resolver.Resolver, tags TagStore, catalog []string) *Service {
	known := make(map[string]struct{}, len(catalog))
	for _, tag := range catalog {
		known[tag] = struct{}{}
	}
	return &Service{verifier: verifier, resolver: r, tags: tags, catalog: known}
}

// SignUp verifies the identity token, resolves the user and replaces their
// interest tags. Errors are *apperror.AppError.
func (s *Service) SignUp(ctx context.Context, body signup.RequestBody) (*Result, error) {
	if strings.TrimSpace(body.IdentityToken) == "" {
		return nil, apperror.NewValidationError("missing_identity_token", signup.MsgLinkFirst)
	}

	tags, err := s.normalizeTags(body.InterestTags)
	if err != nil {
		return nil, err
	}

	identity, err := s.verifier.VerifyToken(ctx, body.IdentityToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return nil, apperror.NewAuthError("invalid_identity_token", msgRelink, err)
		}
		return nil, apperror.NewExternalServiceError("identity_provider_unavailable", msgProvider, err)
	}

	userID, created, err := s.resolver.Resolve(ctx, identity)
	if err != nil {
		return nil, apperror.New(apperror.InternalError, "user_resolve_failed", signup.MsgServerFailure, err)
	}

	if err := s.tags.ReplaceInterestTags(ctx, userID, tags); err != nil {
		return nil, apperror.New(apperror.InternalError, "interest_tags_save_failed", signup.MsgServerFailure, err)
	}

	logger.Info("user signed up", map[string]any{
		"user_id":  userID,
		"provider": identity.Provider,
		"created":  created,
		"tags":     len(tags),
	})

	return &Result{
		UserID:       userID,
		Created:      created,
		Identity:     identity,
		InterestTags: tags,
	}, nil
}

// InterestTags returns the stored tags of a signed-up user.
func (s *Service) InterestTags(ctx context.Context, userID string) ([]string, error) {
	tags, err := s.tags.InterestTags(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternalError("interest_tags_load_failed", err)
	}
	return tags, nil
}

// normalizeTags rejects tags outside the catalog and drops repeats, keeping
// first occurrences in order.
func (s *Service) normalizeTags(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))

	for _, tag := range in {
		if _, ok := s.catalog[tag]; !ok {
			return nil, apperror.NewValidationError("unknown_interest_tag", msgUnknownTag)
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	return out, nil
}
