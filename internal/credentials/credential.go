package credentials

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type is the discriminator stored in the "type" field of every record.
type Type string

const (
	TypeOAuth       Type = "oauth"
	TypeAPIKey      Type = "api"
	TypeWellKnown   Type = "wellknown"
	TypeDomainOAuth Type = "domain-oauth"
	TypeDomainBasic Type = "domain-basic"
	TypeLicense     Type = "license"
)

// Credential is one stored record. The concrete types below are the only
// implementations.
type Credential interface {
	Type() Type
}

// OAuthToken is a provider token pair with an absolute expiry in epoch ms.
type OAuthToken struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
	Expires int64  `json:"expires"`
}

func (OAuthToken) Type() Type { return TypeOAuth }

// APIKey is a static API key.
type APIKey struct {
	Key string `json:"key"`
}

func (APIKey) Type() Type { return TypeAPIKey }

// WellKnownToken is a token obtained by running a provider's well-known
// command rather than through the OAuth flow.
type WellKnownToken struct {
	Key   string `json:"key"`
	Token string `json:"token"`
}

func (WellKnownToken) Type() Type { return TypeWellKnown }

// DomainOAuth is the record produced by the PKCE login flow. The token fields
// are optional because a record may be seeded before the flow completes.
type DomainOAuth struct {
	Instance     string `json:"instance"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	// ExpiresAt is an absolute epoch timestamp in milliseconds.
	ExpiresAt int64 `json:"expiresAt,omitempty"`
}

func (DomainOAuth) Type() Type { return TypeDomainOAuth }

// Expiry returns ExpiresAt as a time, or the zero time when unset.
func (d DomainOAuth) Expiry() time.Time {
	if d.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(d.ExpiresAt)
}

// IsExpired reports whether the access token expires within margin of now.
// Records without an expiry never expire.
func (d DomainOAuth) IsExpired(now time.Time, margin time.Duration) bool {
	if d.ExpiresAt == 0 {
		return false
	}
	return !now.Add(margin).Before(d.Expiry())
}

// DomainBasic is an instance username/password pair.
type DomainBasic struct {
	Instance string `json:"instance"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (DomainBasic) Type() Type { return TypeDomainBasic }

// License is a license record. Fields other than licenseKey and serverUrl are
// kept in Extra and written back unchanged.
type License struct {
	LicenseKey string
	ServerURL  string
	Extra      map[string]json.RawMessage
}

func (License) Type() Type { return TypeLicense }

func (l License) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(l.Extra)+2)
	for k, v := range l.Extra {
		fields[k] = v
	}

	key, err := json.Marshal(l.LicenseKey)
	if err != nil {
		return nil, err
	}
	fields["licenseKey"] = key

	if l.ServerURL != "" {
		serverURL, err := json.Marshal(l.ServerURL)
		if err != nil {
			return nil, err
		}
		fields["serverUrl"] = serverURL
	}

	return json.Marshal(fields)
}

func (l *License) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*l = License{}
	if raw, ok := fields["licenseKey"]; ok {
		if err := json.Unmarshal(raw, &l.LicenseKey); err != nil {
			return fmt.Errorf("licenseKey: %w", err)
		}
	}
	if raw, ok := fields["serverUrl"]; ok {
		if err := json.Unmarshal(raw, &l.ServerURL); err != nil {
			return fmt.Errorf("serverUrl: %w", err)
		}
	}

	delete(fields, "licenseKey")
	delete(fields, "serverUrl")
	delete(fields, "type")
	if len(fields) > 0 {
		l.Extra = fields
	}
	return nil
}

// Encode serializes a credential with its "type" discriminator.
func Encode(c Credential) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("credential is nil")
	}

	body, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s credential: %w", c.Type(), err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to marshal %s credential: %w", c.Type(), err)
	}

	typ, _ := json.Marshal(c.Type())
	fields["type"] = typ

	return json.Marshal(fields)
}

// Decode parses a stored record, dispatching on its "type" field.
func Decode(data []byte) (Credential, error) {
	var head struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to parse credential: %w", err)
	}

	var (
		c   Credential
		err error
	)
	switch head.Type {
	case TypeOAuth:
		var v OAuthToken
		err = json.Unmarshal(data, &v)
		c = v
	case TypeAPIKey:
		var v APIKey
		err = json.Unmarshal(data, &v)
		c = v
	case TypeWellKnown:
		var v WellKnownToken
		err = json.Unmarshal(data, &v)
		c = v
	case TypeDomainOAuth:
		var v DomainOAuth
		err = json.Unmarshal(data, &v)
		c = v
	case TypeDomainBasic:
		var v DomainBasic
		err = json.Unmarshal(data, &v)
		c = v
	case TypeLicense:
		var v License
		err = json.Unmarshal(data, &v)
		c = v
	default:
		return nil, fmt.Errorf("unknown credential type %q", head.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s credential: %w", head.Type, err)
	}

	return c, nil
}
