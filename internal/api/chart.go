package api

import (
	"encoding/json"
	"fmt"

	"github.com/Mirandateresa/malicious-url-detector/internal/model"
)

var chartColors = []string{"#6A0DAD", "#9D4EDD", "#C77DFF", "#4ECDC4"}

// chartLabels maps metric names to the labels shown on the bars.
var chartLabels = map[string]string{
	"accuracy":  "Exactitud",
	"precision": "Precisión",
	"recall":    "Recall",
	"f1_score":  "F1-Score",
}

type barTrace struct {
	Type         string         `json:"type"`
	Name         string         `json:"name"`
	X            []string       `json:"x"`
	Y            []float64      `json:"y"`
	Text         []string       `json:"text"`
	TextPosition string         `json:"textposition"`
	Width        float64        `json:"width"`
	Marker       map[string]any `json:"marker"`
}

type figure struct {
	Data   []barTrace     `json:"data"`
	Layout map[string]any `json:"layout"`
}

// metricsFigure renders the chart series as a bar chart figure document.
func metricsFigure(series []model.SeriesPoint) figure {
	trace := barTrace{
		Type:         "bar",
		Name:         "Métricas",
		TextPosition: "auto",
		Width:        0.6,
		Marker:       map[string]any{"color": chartColors},
	}
	for _, p := range series {
		label, ok := chartLabels[p.Label]
		if !ok {
			label = p.Label
		}
		trace.X = append(trace.X, label)
		trace.Y = append(trace.Y, p.Percentage)
		trace.Text = append(trace.Text, fmt.Sprintf("%.1f%%", p.Percentage))
	}

	return figure{
		Data: []barTrace{trace},
		Layout: map[string]any{
			"title":         map[string]any{"text": "Métricas del Modelo SVM"},
			"yaxis":         map[string]any{"title": map[string]any{"text": "Porcentaje (%)"}, "range": []int{0, 100}, "gridcolor": "rgba(255,255,255,0.1)"},
			"xaxis":         map[string]any{"tickangle": 0, "tickfont": map[string]any{"size": 11}},
			"plot_bgcolor":  "rgba(0,0,0,0)",
			"paper_bgcolor": "rgba(0,0,0,0)",
			"font":          map[string]any{"color": "white", "size": 12},
			"height":        350,
			"showlegend":    false,
			"margin":        map[string]any{"l": 40, "r": 40, "t": 60, "b": 40},
		},
	}
}

// metricsChartJSON returns the figure encoded as a JSON string, which is how
// the chart endpoint embeds it.
func metricsChartJSON(series []model.SeriesPoint) (string, error) {
	data, err := json.Marshal(metricsFigure(series))
	if err != nil {
		return "", fmt.Errorf("encoding chart: %w", err)
	}
	return string(data), nil
}
