package scorer

import "strings"

// TokenSet holds a named list of lower-case substrings.
type TokenSet struct {
	Name   string
	Tokens []string
}

// MatchAny returns true if the lower-cased text contains any token in the set.
func (ts *TokenSet) MatchAny(lower string) bool {
	for _, tok := range ts.Tokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// --- Suspicious vocabulary ---

var SuspiciousTokens = TokenSet{
	Name:   "suspicious_tokens",
	Tokens: []string{"phishing", "malware", "malicious", "hack"},
}

// --- Trusted domains ---

var TrustedDomains = TokenSet{
	Name:   "trusted_domains",
	Tokens: []string{"example.com", "google.com", "github.com", "wikipedia.org"},
}

// SecureScheme is the only scheme prefix that avoids the insecure-scheme penalty.
// The comparison is case-sensitive.
const SecureScheme = "https://"

// Structural limits. A URL is penalized when it goes strictly above them.
const (
	MaxDots    = 3
	MaxSlashes = 5
	MaxLength  = 100
)
