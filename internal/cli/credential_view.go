package cli

import (
	"sort"
	"time"

	"nowauth/internal/credentials"
)

// ExpiringWindow is how close to expiry a token is reported as expiring.
const ExpiringWindow = 5 * time.Minute

// CredentialStatus summarizes whether a stored credential is usable.
type CredentialStatus string

const (
	StatusValid    CredentialStatus = "Valid"
	StatusExpiring CredentialStatus = "Expiring"
	StatusExpired  CredentialStatus = "Expired"
	StatusNoToken  CredentialStatus = "No token"
	StatusStored   CredentialStatus = "Stored"
)

// CredentialSummary is the display form of one store record. It never
// carries token or secret values, only masked hints.
type CredentialSummary struct {
	Provider   string           `json:"provider" yaml:"provider"`
	Type       credentials.Type `json:"type" yaml:"type"`
	Instance   string           `json:"instance,omitempty" yaml:"instance,omitempty"`
	Identity   string           `json:"identity,omitempty" yaml:"identity,omitempty"`
	Status     CredentialStatus `json:"status" yaml:"status"`
	ExpiresAt  *time.Time       `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
	Refresh    bool             `json:"refreshable" yaml:"refreshable"`
	SecretHint string           `json:"secret,omitempty" yaml:"secret,omitempty"`
}

// SummarizeCredentials describes every record, sorted by provider id.
func SummarizeCredentials(records map[string]credentials.Credential, now time.Time) []CredentialSummary {
	summaries := make([]CredentialSummary, 0, len(records))
	for id, c := range records {
		summaries = append(summaries, SummarizeCredential(id, c, now))
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Provider < summaries[j].Provider
	})
	return summaries
}

// SummarizeCredential describes one record.
func SummarizeCredential(id string, c credentials.Credential, now time.Time) CredentialSummary {
	summary := CredentialSummary{
		Provider: id,
		Type:     c.Type(),
		Status:   StatusStored,
	}

	switch v := c.(type) {
	case credentials.DomainOAuth:
		summary.Instance = v.Instance
		summary.Identity = v.ClientID
		summary.SecretHint = MaskSecret(v.ClientSecret)
		summary.Refresh = v.RefreshToken != ""
		if v.AccessToken == "" {
			summary.Status = StatusNoToken
		} else {
			summary.Status = tokenStatus(v.Expiry(), now)
		}
		if expiry := v.Expiry(); !expiry.IsZero() {
			summary.ExpiresAt = &expiry
		}
	case credentials.OAuthToken:
		summary.Refresh = v.Refresh != ""
		var expiry time.Time
		if v.Expires != 0 {
			expiry = time.UnixMilli(v.Expires)
			summary.ExpiresAt = &expiry
		}
		if v.Access == "" {
			summary.Status = StatusNoToken
		} else {
			summary.Status = tokenStatus(expiry, now)
		}
	case credentials.APIKey:
		summary.SecretHint = MaskSecret(v.Key)
	case credentials.WellKnownToken:
		summary.Identity = v.Key
		summary.SecretHint = MaskSecret(v.Token)
	case credentials.DomainBasic:
		summary.Instance = v.Instance
		summary.Identity = v.Username
		summary.SecretHint = MaskSecret(v.Password)
	case credentials.License:
		summary.Instance = v.ServerURL
		summary.SecretHint = MaskSecret(v.LicenseKey)
	}

	return summary
}

func tokenStatus(expiry, now time.Time) CredentialStatus {
	switch {
	case expiry.IsZero():
		return StatusValid
	case !now.Before(expiry):
		return StatusExpired
	case expiry.Sub(now) <= ExpiringWindow:
		return StatusExpiring
	default:
		return StatusValid
	}
}

// MaskSecret keeps the last four characters of long values and hides the
// rest.
func MaskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "****"
	default:
		return "****" + s[len(s)-4:]
	}
}
