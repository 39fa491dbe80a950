package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// RemoteAuthorizer resolves API keys against the hosted identity provider.
// The provider returns the stable user id and entitlement tier for a credential.
type RemoteAuthorizer struct {
	client *resty.Client
}

type introspectRequest struct {
	APIKey    string `json:"apiKey"`
	Operation string `json:"operation"`
}

type introspectResponse struct {
	UserID  string `json:"userId"`
	Tier    string `json:"tier"`
	KeyName string `json:"keyName"`
	Active  bool   `json:"active"`
}

// NewRemoteAuthorizer creates an authorizer backed by the identity provider at baseURL.
func NewRemoteAuthorizer(baseURL string) *RemoteAuthorizer {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(5 * time.Second)
	return &RemoteAuthorizer{client: c}
}

// Authorize introspects the API key with the identity provider.
func (a *RemoteAuthorizer) Authorize(ctx context.Context, apiKey, operation string) (*ActorInfo, error) {
	var out introspectResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(&introspectRequest{APIKey: apiKey, Operation: operation}).
		SetResult(&out).
		Post("/v1/keys/introspect")
	if err != nil {
		return nil, fmt.Errorf("identity provider unreachable: %w", err)
	}
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return nil, ErrInvalidAPIKey
	}
	if resp.IsError() {
		return nil, fmt.Errorf("identity provider error: http %d", resp.StatusCode())
	}
	if !out.Active {
		return nil, ErrInvalidAPIKey
	}
	if out.UserID == "" {
		return nil, ErrMissingUserID
	}
	tier := out.Tier
	if tier == "" {
		tier = "free"
	}
	return &ActorInfo{UserID: out.UserID, Tier: tier, KeyName: out.KeyName}, nil
}
