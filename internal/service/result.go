package service

import (
	"time"

	"github.com/Mirandateresa/malicious-url-detector/internal/model"
	"github.com/Mirandateresa/malicious-url-detector/internal/scorer"
)

// Static descriptive fields reported by Info.
const (
	ModelType   = "Support Vector Machine"
	NFeatures   = 20
	ServiceName = "SVM Detector"
)

// Event kinds.
const (
	EventPredict = "predict"
	EventTrain   = "train"
	EventUpload  = "upload"
)

// Event represents a single service event for observers.
type Event struct {
	Timestamp      time.Time              `json:"timestamp"`
	Kind           string                 `json:"kind"`
	RequestID      string                 `json:"request_id"`
	Classification *scorer.Classification `json:"classification,omitempty"`
	Kernel         string                 `json:"kernel,omitempty"`
	C              float64                `json:"C,omitempty"`
	Metrics        *model.Metrics         `json:"metrics,omitempty"`
	Applied        bool                   `json:"applied,omitempty"`
	Filename       string                 `json:"filename,omitempty"`
	Size           int64                  `json:"size,omitempty"`
	Error          string                 `json:"error,omitempty"`
}

// TrainResult is the outcome of a training request.
type TrainResult struct {
	RequestID string        `json:"request_id"`
	Kernel    string        `json:"kernel"`
	C         float64       `json:"C"`
	Metrics   model.Metrics `json:"metrics"`
	// Applied is false when the kernel was not recognized and nothing changed.
	Applied bool `json:"applied"`
}

// ModelInfo describes the active model.
type ModelInfo struct {
	IsTrained bool          `json:"is_trained"`
	NFeatures int           `json:"n_features"`
	ModelType string        `json:"model_type"`
	Kernel    string        `json:"kernel"`
	Metrics   model.Metrics `json:"metrics"`
}

// Health is the liveness report.
type Health struct {
	Status      string        `json:"status"`
	Service     string        `json:"service"`
	ModelLoaded bool          `json:"model_loaded"`
	Metrics     model.Metrics `json:"metrics"`
}
