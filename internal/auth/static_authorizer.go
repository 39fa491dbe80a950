package auth

import (
	"context"
)

const (
	// LocalDevFreeAPIKey resolves to a free-tier actor, for local development only.
	LocalDevFreeAPIKey = "sk_local_mindloom_free_key"
	// LocalDevPremiumAPIKey resolves to a premium-tier actor, for local development only.
	LocalDevPremiumAPIKey = "sk_local_mindloom_premium_key"
)

// StaticAuthorizer resolves a fixed key-to-actor table. It backs local
// development and tests; production uses the RemoteAuthorizer.
type StaticAuthorizer struct {
	actors map[string]ActorInfo
}

// NewStaticAuthorizer creates an authorizer that only recognizes the
// hardcoded local development keys.
func NewStaticAuthorizer() *StaticAuthorizer {
	return &StaticAuthorizer{actors: map[string]ActorInfo{
		LocalDevFreeAPIKey:    {UserID: "mindloom-dev-free", Tier: "free", KeyName: "Local Development Key (free)"},
		LocalDevPremiumAPIKey: {UserID: "mindloom-dev-premium", Tier: "premium", KeyName: "Local Development Key (premium)"},
	}}
}

// NewStaticAuthorizerWithActors creates an authorizer over an explicit table.
// Tests use this to mint per-user keys.
func NewStaticAuthorizerWithActors(actors map[string]ActorInfo) *StaticAuthorizer {
	return &StaticAuthorizer{actors: actors}
}

// Authorize validates the API key against the static table.
func (s *StaticAuthorizer) Authorize(ctx context.Context, apiKey, operation string) (*ActorInfo, error) {
	actor, ok := s.actors[apiKey]
	if !ok {
		return nil, ErrInvalidAPIKey
	}
	out := actor
	return &out, nil
}
