package model

import "strings"

// DefaultBaseURL is used until the operator saves another API location.
const DefaultBaseURL = "http://localhost:8000"

// Settings is the persisted configuration triple the API façade reads on
// every request.
type Settings struct {
	BaseURL   string `json:"base_url" yaml:"base_url"`
	APIKey    string `json:"-" yaml:"api_key,omitempty"`
	CompanyID string `json:"company_id" yaml:"company_id"`
}

// NormalizeBaseURL adds https:// when no scheme is present and trims a
// trailing slash.
func NormalizeBaseURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return ""
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	return strings.TrimRight(u, "/")
}

// MaskedKey returns the API key with all but the last four characters hidden.
func (s Settings) MaskedKey() string {
	if len(s.APIKey) <= 4 {
		return strings.Repeat("•", len(s.APIKey))
	}
	return strings.Repeat("•", len(s.APIKey)-4) + s.APIKey[len(s.APIKey)-4:]
}
