package dashboard

import (
	"time"

	"github.com/Mirandateresa/malicious-url-detector/internal/service"
)

// DashboardEvent wraps a service Event with a unique dashboard ID.
type DashboardEvent struct {
	ID string `json:"id"`
	service.Event
}

// WSMessage is the envelope for all WebSocket messages.
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// StatsSnapshot is a point-in-time snapshot of accumulated statistics.
type StatsSnapshot struct {
	TotalPredictions uint64            `json:"total_predictions"`
	MaliciousCount   uint64            `json:"malicious_count"`
	LegitimateCount  uint64            `json:"legitimate_count"`
	TrainCount       uint64            `json:"train_count"`
	UploadCount      uint64            `json:"upload_count"`
	AvgRiskScore     float64           `json:"avg_risk_score"`
	LevelCounts      map[string]uint64 `json:"level_counts"`
	SignalCounts     map[string]uint64 `json:"signal_counts"`
	KernelCounts     map[string]uint64 `json:"kernel_counts"`
	ScoreHistogram   map[int]uint64    `json:"score_histogram"`
	TimeSeries       []TimeSeriesPoint `json:"time_series"`
}

// TimeSeriesPoint is a single point in the 60-minute time series.
type TimeSeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Count     uint64    `json:"count"`
	Malicious uint64    `json:"malicious"`
}

// InitialState is sent to clients on WebSocket connect.
type InitialState struct {
	Events []*DashboardEvent  `json:"events"`
	Stats  *StatsSnapshot     `json:"stats"`
	Model  *service.ModelInfo `json:"model,omitempty"`
}
