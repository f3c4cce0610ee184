package model

import "math"

// Jitter and clamp bounds applied on every retrain.
const (
	JitterAmplitude = 0.02
	MinMetric       = 0.7
	MaxMetric       = 0.99
)

// Metrics is the simulated model-quality quadruple.
type Metrics struct {
	Accuracy  float64 `json:"accuracy" yaml:"accuracy"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1Score   float64 `json:"f1_score" yaml:"f1_score"`
}

// SeriesPoint is one bar of the metrics chart.
type SeriesPoint struct {
	Label      string  `json:"label"`
	Percentage float64 `json:"percentage"`
}

// Series projects the metrics onto percentages in a fixed order.
func (m Metrics) Series() []SeriesPoint {
	return []SeriesPoint{
		{Label: "accuracy", Percentage: m.Accuracy * 100},
		{Label: "precision", Percentage: m.Precision * 100},
		{Label: "recall", Percentage: m.Recall * 100},
		{Label: "f1_score", Percentage: m.F1Score * 100},
	}
}

// valid reports whether every field is a probability. Anything else is treated
// as a corrupt persisted record.
func (m Metrics) valid() bool {
	for _, v := range []float64{m.Accuracy, m.Precision, m.Recall, m.F1Score} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// jitter perturbs each field independently by up to ±JitterAmplitude and
// clamps the result into [MinMetric, MaxMetric].
func (m Metrics) jitter(r Rand) Metrics {
	f := func(v float64) float64 {
		v += (r.Float64()*2 - 1) * JitterAmplitude
		return math.Min(MaxMetric, math.Max(MinMetric, v))
	}
	return Metrics{
		Accuracy:  f(m.Accuracy),
		Precision: f(m.Precision),
		Recall:    f(m.Recall),
		F1Score:   f(m.F1Score),
	}
}
