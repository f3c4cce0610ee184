package model

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Manager owns the mutable model state. Retrain is serialized against itself
// and against readers by a single RWMutex.
type Manager struct {
	store  Persister
	rand   Rand
	now    func() time.Time
	logger zerolog.Logger

	mu        sync.RWMutex
	kernel    Kernel
	c         float64
	metrics   Metrics
	trainedAt time.Time
	lifecycle Lifecycle
}

// Option configures a Manager.
type Option func(*Manager)

// WithRand sets the jitter source.
func WithRand(r Rand) Option {
	return func(m *Manager) { m.rand = r }
}

// WithClock sets the clock used for training timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager holding the rbf defaults. Call Load to restore
// persisted state.
func NewManager(store Persister, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		now:     time.Now,
		logger:  zerolog.Nop(),
		kernel:  DefaultKernel,
		c:       DefaultC,
		metrics: Baselines[DefaultKernel],
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rand == nil {
		m.rand = NewRand(0)
	}
	return m
}

// Load restores state from the store. Missing, unreadable or malformed state
// leaves the defaults in place; no error is ever returned to the caller.
func (m *Manager) Load(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lifecycle = Default
	if m.store == nil {
		m.logger.Info().Msg("no state store configured, demo model active")
		return
	}

	st, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("state not restored, demo model active")
		return
	}
	if st == nil || !st.Metrics.valid() {
		m.logger.Warn().Msg("persisted state is malformed, demo model active")
		return
	}

	m.metrics = st.Metrics
	if st.Kernel.IsKnown() {
		m.kernel = st.Kernel
		m.c = st.C
		m.trainedAt = st.Timestamp
	}
	m.lifecycle = Loaded

	m.logger.Info().
		Str("kernel", string(m.kernel)).
		Float64("accuracy", m.metrics.Accuracy).
		Time("trained_at", m.trainedAt).
		Msg("model state loaded")
}

// ErrMalformedState is returned by Reload for a record with invalid metrics.
var ErrMalformedState = errors.New("persisted state is malformed")

// Reload re-reads the store after an outside change. A failed or malformed
// read keeps the current state and returns the error. It reports whether the
// in-memory state changed.
func (m *Manager) Reload(ctx context.Context) (bool, error) {
	if m.store == nil {
		return false, nil
	}

	// The read must happen under the lock; a record read before a concurrent
	// Retrain commits would otherwise overwrite the newer state.
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("reloading model state: %w", err)
	}
	if st == nil || !st.Metrics.valid() {
		return false, ErrMalformedState
	}

	if m.matches(st) {
		return false, nil
	}

	m.metrics = st.Metrics
	if st.Kernel.IsKnown() {
		m.kernel = st.Kernel
		m.c = st.C
		m.trainedAt = st.Timestamp
	}
	m.lifecycle = Loaded

	m.logger.Info().
		Str("kernel", string(m.kernel)).
		Float64("accuracy", m.metrics.Accuracy).
		Msg("model state reloaded")
	return true, nil
}

// matches reports whether adopting st would leave memory unchanged. Records
// with an unknown kernel only contribute their metrics. Callers hold m.mu.
func (m *Manager) matches(st *State) bool {
	if st.Metrics != m.metrics {
		return false
	}
	if !st.Kernel.IsKnown() {
		return true
	}
	return st.Kernel == m.kernel && st.C == m.c && st.Timestamp.Equal(m.trainedAt)
}

// Metrics returns the current metrics snapshot.
func (m *Manager) Metrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metrics
}

// ChartSeries returns the current metrics as percentages.
func (m *Manager) ChartSeries() []SeriesPoint {
	return m.Metrics().Series()
}

// Snapshot returns the full state as last committed.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{
		Kernel:    m.kernel,
		C:         m.c,
		Metrics:   m.metrics,
		Timestamp: m.trainedAt,
	}
}

// Kernel returns the active kernel.
func (m *Manager) Kernel() Kernel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.kernel
}

// Lifecycle returns the current lifecycle state.
func (m *Manager) Lifecycle() Lifecycle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lifecycle
}

// IsTrained reports whether a load or train has happened.
func (m *Manager) IsTrained() bool {
	return m.Lifecycle() != Uninitialized
}

// Retrain regenerates metrics from the kernel's baseline with jitter and
// persists the result. An unknown kernel is a no-op that returns the current
// metrics. If the store rejects the write the in-memory state is unchanged
// and the error is returned.
func (m *Manager) Retrain(ctx context.Context, kernel Kernel, c float64) (Metrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	base, ok := Baselines[kernel]
	if !ok {
		m.logger.Warn().Str("kernel", string(kernel)).Msg("unknown kernel, metrics unchanged")
		return m.metrics, nil
	}

	st := State{
		Kernel:    kernel,
		C:         c,
		Metrics:   base.jitter(m.rand),
		Timestamp: m.now().UTC(),
	}

	if m.store != nil {
		if err := m.store.Save(ctx, st); err != nil {
			return m.metrics, fmt.Errorf("persisting model state: %w", err)
		}
	}

	m.kernel = st.Kernel
	m.c = st.C
	m.metrics = st.Metrics
	m.trainedAt = st.Timestamp
	m.lifecycle = Trained

	m.logger.Info().
		Str("kernel", string(kernel)).
		Float64("C", c).
		Float64("accuracy", st.Metrics.Accuracy).
		Float64("f1_score", st.Metrics.F1Score).
		Msg("model retrained")

	return st.Metrics, nil
}
