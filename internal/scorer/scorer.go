package scorer

import (
	"strings"
	"unicode/utf8"
)

// Scorer is the URL risk engine. It extracts structural and lexical signals
// from a URL string and turns them into a Classification. It holds no state
// and is safe for concurrent use.
type Scorer struct{}

// New creates a new Scorer.
func New() *Scorer {
	return &Scorer{}
}

// Signals extracts the rule signals for a URL.
func (s *Scorer) Signals(url string) RiskSignals {
	lower := strings.ToLower(url)
	return RiskSignals{
		SuspiciousToken: SuspiciousTokens.MatchAny(lower),
		TrustedDomain:   TrustedDomains.MatchAny(lower),
		InsecureScheme:  !strings.HasPrefix(url, SecureScheme),
		ManyDots:        strings.Count(url, ".") > MaxDots,
		ManySlashes:     strings.Count(url, "/") > MaxSlashes,
		AtSign:          strings.Contains(url, "@"),
		LongURL:         utf8.RuneCountInString(url) > MaxLength,
	}
}

// RiskScore returns the raw integer score for a URL.
func (s *Scorer) RiskScore(url string) int {
	return ComputeRisk(s.Signals(url))
}

// Score classifies a URL. It never fails, including for the empty string.
func (s *Scorer) Score(url string) Classification {
	signals := s.Signals(url)
	c := Classify(url, ComputeRisk(signals))
	c.Signals = signals.Fired()
	return c
}
