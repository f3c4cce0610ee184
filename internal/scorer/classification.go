package scorer

import "math"

// RiskLevel is the coarse bucket a risk score falls into.
type RiskLevel string

const (
	RiskLow    RiskLevel = "BAJO"
	RiskMedium RiskLevel = "MEDIO"
	RiskHigh   RiskLevel = "ALTO"
)

// Prediction labels.
const (
	PredictionMalicious  = "MALICIOSA"
	PredictionLegitimate = "LEGÍTIMA"
)

const (
	RecommendationMalicious  = "URL sospechosa detectada - Evite compartir información personal"
	RecommendationLegitimate = "URL verificada como segura - Puede proceder con confianza"
)

// FeaturesCount is reported with every classification.
const FeaturesCount = 8

const (
	baseConfidence = 0.7
	confidenceStep = 0.05
	minConfidence  = 0.6
	maxConfidence  = 0.98

	maliciousThreshold = 1
	highRiskThreshold  = 3
)

// Classification is the outcome of scoring a single URL.
type Classification struct {
	URL                   string    `json:"url"`
	Prediction            string    `json:"prediction"`
	Confidence            float64   `json:"confidence"`
	IsMalicious           bool      `json:"is_malicious"`
	ProbabilityMalicious  float64   `json:"probability_malicious"`
	ProbabilityLegitimate float64   `json:"probability_legitimate"`
	FeaturesCount         int       `json:"features_count"`
	Recommendation        string    `json:"recommendation"`
	RiskLevel             RiskLevel `json:"risk_level"`
	RiskScore             int       `json:"risk_score"`

	// Signals lists the rules that fired. It is not part of the wire format.
	Signals []string `json:"-"`
}

// IsMalicious reports whether a score crosses the malicious threshold.
func IsMalicious(score int) bool {
	return score > maliciousThreshold
}

// Confidence maps a score onto [0.6, 0.98]. Negative scores still clamp to
// the floor rather than growing more confident in legitimacy.
func Confidence(score int) float64 {
	c := baseConfidence + float64(score)*confidenceStep
	return math.Min(maxConfidence, math.Max(minConfidence, c))
}

// LevelFor buckets a score into a RiskLevel.
func LevelFor(score int) RiskLevel {
	switch {
	case score > highRiskThreshold:
		return RiskHigh
	case score > maliciousThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Classify derives the full classification for a URL with the given score.
func Classify(url string, score int) Classification {
	malicious := IsMalicious(score)
	confidence := Confidence(score)

	probMalicious := 1 - confidence
	prediction := PredictionLegitimate
	recommendation := RecommendationLegitimate
	if malicious {
		probMalicious = confidence
		prediction = PredictionMalicious
		recommendation = RecommendationMalicious
	}

	return Classification{
		URL:                   url,
		Prediction:            prediction,
		Confidence:            round3(confidence),
		IsMalicious:           malicious,
		ProbabilityMalicious:  round3(probMalicious),
		ProbabilityLegitimate: round3(1 - probMalicious),
		FeaturesCount:         FeaturesCount,
		Recommendation:        recommendation,
		RiskLevel:             LevelFor(score),
		RiskScore:             score,
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
