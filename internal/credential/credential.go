// Package credential resolves a usable API credential for a provider
// from a layered set of sources. Secrets are never logged in full; only
// the masked preview is safe for diagnostics.
package credential

import "strings"

// Source identifies where a credential was resolved from.
type Source string

const (
	SourceExplicit    Source = "explicit"
	SourceEnvironment Source = "environment"
	SourceSecureStore Source = "secure-store"
	SourceFile        Source = "file"
	SourceNone        Source = "none"
)

// Credential is a resolved secret plus its origin.
type Credential struct {
	Value  string
	Source Source
}

// Resolved reports whether the credential carries a usable value.
func (c Credential) Resolved() bool {
	return c.Source != SourceNone && c.Value != ""
}

// Masked returns a redacted preview showing the first 3 and last 2
// characters. Short values are fully redacted.
func (c Credential) Masked() string {
	value := strings.TrimSpace(c.Value)
	if value == "" {
		return ""
	}
	if len(value) <= 7 {
		return strings.Repeat("*", len(value))
	}
	return value[:3] + strings.Repeat("*", len(value)-5) + value[len(value)-2:]
}
