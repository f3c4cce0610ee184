package model

import (
	"context"
	"time"
)

// DefaultC is the regularization parameter assumed until a retrain sets one.
const DefaultC = 1.0

// State is the record handed to the persistence collaborator on every retrain.
type State struct {
	Kernel    Kernel    `json:"kernel"`
	C         float64   `json:"C"`
	Metrics   Metrics   `json:"metrics"`
	Timestamp time.Time `json:"timestamp"`
}

// Persister saves and restores a full State. Save must replace the previous
// record atomically: a later Load sees either the old or the new record.
type Persister interface {
	Save(ctx context.Context, st State) error
	Load(ctx context.Context) (*State, error)
}

// Lifecycle is the manager's position in load → train.
type Lifecycle int

const (
	Uninitialized Lifecycle = iota
	Default
	Loaded
	Trained
)

func (l Lifecycle) String() string {
	switch l {
	case Default:
		return "default"
	case Loaded:
		return "loaded"
	case Trained:
		return "trained"
	default:
		return "uninitialized"
	}
}
