package oauth

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgoauth "nowauth/pkg/oauth"
)

// FlowSession is one in-flight authorization attempt. It lives only in
// memory and is discarded when the flow resolves.
type FlowSession struct {
	// ID correlates log lines of one attempt. It is never sent anywhere.
	ID string

	ProviderID  string
	Instance    string
	ClientID    string
	State       string
	PKCE        *pkgoauth.PKCEChallenge
	RedirectURI string
	StartedAt   time.Time

	// ClientSecret prints as [REDACTED].
	ClientSecret RedactedSecret
}

// newFlowSession generates fresh state and PKCE material for a flow.
func newFlowSession(providerID string, creds ClientCredentials, now time.Time) (*FlowSession, error) {
	state, err := pkgoauth.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	pkce, err := pkgoauth.GeneratePKCE()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PKCE challenge: %w", err)
	}

	return &FlowSession{
		ID:           uuid.NewString(),
		ProviderID:   providerID,
		Instance:     creds.Instance,
		ClientID:     creds.ClientID,
		State:        state,
		PKCE:         pkce,
		StartedAt:    now,
		ClientSecret: NewRedactedSecret(creds.ClientSecret),
	}, nil
}

// Credentials returns the client credentials the flow authenticates with.
func (f *FlowSession) Credentials() ClientCredentials {
	return ClientCredentials{
		Instance:     f.Instance,
		ClientID:     f.ClientID,
		ClientSecret: f.ClientSecret.Value(),
	}
}

// AuthorizationURL builds the authorization URL for this flow. RedirectURI
// must be set first.
func (f *FlowSession) AuthorizationURL() string {
	return pkgoauth.BuildAuthorizationURL(f.Instance, f.ClientID, f.RedirectURI, f.State, f.PKCE.CodeChallenge)
}
