package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Mirandateresa/malicious-url-detector/internal/audit"
	"github.com/Mirandateresa/malicious-url-detector/internal/model"
	"github.com/Mirandateresa/malicious-url-detector/internal/scorer"
)

// DefaultBatchLimit bounds concurrent scoring in PredictBatch.
const DefaultBatchLimit = 8

// EventObserver is a callback function that receives service events.
type EventObserver func(event Event)

// Options tune a Service.
type Options struct {
	// TrainDelay simulates the time a real fit would take.
	TrainDelay time.Duration
	// BatchLimit caps concurrent scoring in PredictBatch.
	BatchLimit int
	Logger     zerolog.Logger
}

// Service runs predictions and training runs, records them in the audit log
// and notifies observers.
type Service struct {
	scorer      *scorer.Scorer
	models      *model.Manager
	auditLogger *audit.Logger
	logger      zerolog.Logger
	trainDelay  time.Duration
	batchLimit  int

	observerMu sync.RWMutex
	observers  []EventObserver
}

// New creates a Service around an already loaded model manager.
func New(models *model.Manager, auditLogger *audit.Logger, opts Options) *Service {
	if auditLogger == nil {
		auditLogger = audit.NopLogger()
	}
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = DefaultBatchLimit
	}
	return &Service{
		scorer:      scorer.New(),
		models:      models,
		auditLogger: auditLogger,
		logger:      opts.Logger,
		trainDelay:  opts.TrainDelay,
		batchLimit:  opts.BatchLimit,
	}
}

// Predict classifies a single URL. It never fails.
func (s *Service) Predict(url string) scorer.Classification {
	return s.predict(url)
}

func (s *Service) predict(url string) scorer.Classification {
	reqID := uuid.NewString()
	c := s.scorer.Score(url)

	if err := s.auditLogger.Log(audit.Entry{
		RequestID:   reqID,
		Kind:        audit.KindPredict,
		URL:         url,
		RiskScore:   audit.Ptr(c.RiskScore),
		RiskLevel:   string(c.RiskLevel),
		IsMalicious: audit.Ptr(c.IsMalicious),
		Signals:     c.Signals,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("audit write failed")
	}

	s.notify(Event{
		Timestamp:      time.Now().UTC(),
		Kind:           EventPredict,
		RequestID:      reqID,
		Classification: &c,
	})

	return c
}

// PredictBatch classifies URLs concurrently. Results keep the input order.
// It fails only if ctx is done before every URL was scored.
func (s *Service) PredictBatch(ctx context.Context, urls []string) ([]scorer.Classification, error) {
	results := make([]scorer.Classification, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchLimit)
	for i, u := range urls {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.predict(u)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch prediction: %w", err)
	}
	return results, nil
}

// Train regenerates the model metrics for kernel. Unknown kernels leave the
// metrics untouched and report Applied=false.
func (s *Service) Train(ctx context.Context, kernel string, c float64) (*TrainResult, error) {
	reqID := uuid.NewString()

	if s.trainDelay > 0 {
		timer := time.NewTimer(s.trainDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	k := model.Kernel(kernel)
	applied := k.IsKnown()
	metrics, err := s.models.Retrain(ctx, k, c)

	entry := audit.Entry{
		RequestID: reqID,
		Kind:      audit.KindTrain,
		Kernel:    kernel,
		C:         audit.Ptr(c),
		Applied:   audit.Ptr(applied && err == nil),
		Metrics:   metrics,
	}
	event := Event{
		Timestamp: time.Now().UTC(),
		Kind:      EventTrain,
		RequestID: reqID,
		Kernel:    kernel,
		C:         c,
		Metrics:   &metrics,
		Applied:   applied && err == nil,
	}
	if err != nil {
		entry.Error = err.Error()
		event.Error = err.Error()
	}
	if logErr := s.auditLogger.Log(entry); logErr != nil {
		s.logger.Warn().Err(logErr).Msg("audit write failed")
	}
	s.notify(event)

	if err != nil {
		return nil, err
	}

	return &TrainResult{
		RequestID: reqID,
		Kernel:    kernel,
		C:         c,
		Metrics:   metrics,
		Applied:   applied,
	}, nil
}

// RecordUpload notes a dataset upload in the audit log and notifies observers.
func (s *Service) RecordUpload(filename string, size int64) {
	reqID := uuid.NewString()
	if err := s.auditLogger.Log(audit.Entry{
		RequestID: reqID,
		Kind:      audit.KindUpload,
		Filename:  filename,
		Size:      size,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("audit write failed")
	}
	s.notify(Event{
		Timestamp: time.Now().UTC(),
		Kind:      EventUpload,
		RequestID: reqID,
		Filename:  filename,
		Size:      size,
	})
}

// Metrics returns the current model metrics.
func (s *Service) Metrics() model.Metrics {
	return s.models.Metrics()
}

// ChartSeries returns the metrics chart projection.
func (s *Service) ChartSeries() []model.SeriesPoint {
	return s.models.ChartSeries()
}

// Info describes the active model.
func (s *Service) Info() ModelInfo {
	snap := s.models.Snapshot()
	return ModelInfo{
		IsTrained: s.models.IsTrained(),
		NFeatures: NFeatures,
		ModelType: ModelType,
		Kernel:    string(snap.Kernel),
		Metrics:   snap.Metrics,
	}
}

// Health reports liveness and the current metrics.
func (s *Service) Health() Health {
	return Health{
		Status:      "healthy",
		Service:     ServiceName,
		ModelLoaded: s.models.IsTrained(),
		Metrics:     s.models.Metrics(),
	}
}

// AddObserver registers a callback that will be invoked for every service event.
func (s *Service) AddObserver(fn EventObserver) {
	s.observerMu.Lock()
	defer s.observerMu.Unlock()
	s.observers = append(s.observers, fn)
}

// notify sends an event to all registered observers.
func (s *Service) notify(event Event) {
	s.observerMu.RLock()
	observers := s.observers
	s.observerMu.RUnlock()

	for _, fn := range observers {
		fn(event)
	}
}
