package scorer

// Rule names, as reported in Signals.
const (
	RuleSuspiciousToken = "suspicious_token"
	RuleTrustedDomain   = "trusted_domain"
	RuleInsecureScheme  = "insecure_scheme"
	RuleManyDots        = "many_dots"
	RuleManySlashes     = "many_slashes"
	RuleAtSign          = "at_sign"
	RuleLongURL         = "long_url"
)

// RuleWeights defines how many points each rule adds to the risk score.
var RuleWeights = map[string]int{
	RuleSuspiciousToken: 3,
	RuleTrustedDomain:   -2,
	RuleInsecureScheme:  1,
	RuleManyDots:        1,
	RuleManySlashes:     1,
	RuleAtSign:          2,
	RuleLongURL:         1,
}

// ruleOrder fixes the order rules are reported in. The score does not depend on it.
var ruleOrder = []string{
	RuleSuspiciousToken,
	RuleTrustedDomain,
	RuleInsecureScheme,
	RuleManyDots,
	RuleManySlashes,
	RuleAtSign,
	RuleLongURL,
}

// RiskSignals holds the boolean signals extracted from a URL.
type RiskSignals struct {
	SuspiciousToken bool
	TrustedDomain   bool
	InsecureScheme  bool
	ManyDots        bool
	ManySlashes     bool
	AtSign          bool
	LongURL         bool
}

// Fired returns the names of the rules whose signal is set.
func (s RiskSignals) Fired() []string {
	set := map[string]bool{
		RuleSuspiciousToken: s.SuspiciousToken,
		RuleTrustedDomain:   s.TrustedDomain,
		RuleInsecureScheme:  s.InsecureScheme,
		RuleManyDots:        s.ManyDots,
		RuleManySlashes:     s.ManySlashes,
		RuleAtSign:          s.AtSign,
		RuleLongURL:         s.LongURL,
	}
	fired := make([]string, 0, len(ruleOrder))
	for _, name := range ruleOrder {
		if set[name] {
			fired = append(fired, name)
		}
	}
	return fired
}

// ComputeRisk sums the weights of every fired rule. The result is not clamped.
func ComputeRisk(signals RiskSignals) int {
	score := 0
	for _, name := range signals.Fired() {
		score += RuleWeights[name]
	}
	return score
}
