package auth

import (
	"context"
)

// ActorInfo contains information about an authenticated actor
type ActorInfo struct {
	UserID  string `json:"user_id"`  // Stable user identifier
	Tier    string `json:"tier"`     // Entitlement tier: 'free', 'premium'
	KeyName string `json:"key_name"` // Human-readable name
}

// Premium reports whether the actor's tier grants memory-context aggregation.
func (a *ActorInfo) Premium() bool { return a.Tier == "premium" }

// Authorizer validates API keys and resolves the caller in one call
type Authorizer interface {
	// Authorize validates the API key and checks if the actor can perform operation.
	// Returns ActorInfo if authorized, error if authentication or authorization fails.
	Authorize(ctx context.Context, apiKey, operation string) (*ActorInfo, error)
}
