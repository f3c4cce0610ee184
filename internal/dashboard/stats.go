package dashboard

import (
	"maps"
	"sync"
	"time"

	"github.com/Mirandateresa/malicious-url-detector/internal/service"
)

const timeSeriesMinutes = 60

// Stats accumulates real-time statistics from service events.
type Stats struct {
	mu  sync.RWMutex
	now func() time.Time

	totalPredictions uint64
	maliciousCount   uint64
	legitimateCount  uint64
	trainCount       uint64
	uploadCount      uint64
	riskScoreSum     int64

	levelCounts  map[string]uint64
	signalCounts map[string]uint64
	kernelCounts map[string]uint64
	scoreHist    map[int]uint64

	// Per-minute prediction buckets for the last 60 minutes
	timeBuckets [timeSeriesMinutes]timeBucket
}

type timeBucket struct {
	minute    time.Time // truncated to minute
	count     uint64
	malicious uint64
}

// NewStats creates a new stats accumulator.
func NewStats() *Stats {
	return &Stats{
		now:          time.Now,
		levelCounts:  make(map[string]uint64),
		signalCounts: make(map[string]uint64),
		kernelCounts: make(map[string]uint64),
		scoreHist:    make(map[int]uint64),
	}
}

// Record ingests a single service event.
func (s *Stats) Record(event *DashboardEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.Kind {
	case service.EventTrain:
		if event.Applied {
			s.trainCount++
			s.kernelCounts[event.Kernel]++
		}
		return
	case service.EventUpload:
		s.uploadCount++
		return
	case service.EventPredict:
	default:
		return
	}

	c := event.Classification
	if c == nil {
		return
	}

	s.totalPredictions++
	if c.IsMalicious {
		s.maliciousCount++
	} else {
		s.legitimateCount++
	}
	s.riskScoreSum += int64(c.RiskScore)
	s.scoreHist[c.RiskScore]++
	s.levelCounts[string(c.RiskLevel)]++
	for _, sig := range c.Signals {
		s.signalCounts[sig]++
	}

	minute := event.Timestamp.UTC().Truncate(time.Minute)
	idx := minute.Minute() % timeSeriesMinutes
	if !s.timeBuckets[idx].minute.Equal(minute) {
		s.timeBuckets[idx] = timeBucket{minute: minute}
	}
	s.timeBuckets[idx].count++
	if c.IsMalicious {
		s.timeBuckets[idx].malicious++
	}
}

// Snapshot returns a point-in-time copy of the stats.
func (s *Stats) Snapshot() *StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &StatsSnapshot{
		TotalPredictions: s.totalPredictions,
		MaliciousCount:   s.maliciousCount,
		LegitimateCount:  s.legitimateCount,
		TrainCount:       s.trainCount,
		UploadCount:      s.uploadCount,
		LevelCounts:      maps.Clone(s.levelCounts),
		SignalCounts:     maps.Clone(s.signalCounts),
		KernelCounts:     maps.Clone(s.kernelCounts),
		ScoreHistogram:   maps.Clone(s.scoreHist),
		TimeSeries:       make([]TimeSeriesPoint, 0, timeSeriesMinutes),
	}

	if s.totalPredictions > 0 {
		snap.AvgRiskScore = float64(s.riskScoreSum) / float64(s.totalPredictions)
	}

	// Chronological, oldest minute first; empty minutes are zero-filled
	now := s.now().UTC().Truncate(time.Minute)
	cutoff := now.Add(-timeSeriesMinutes * time.Minute)
	for i := 0; i < timeSeriesMinutes; i++ {
		t := cutoff.Add(time.Duration(i+1) * time.Minute)
		b := s.timeBuckets[t.Minute()%timeSeriesMinutes]
		if b.minute.Equal(t) {
			snap.TimeSeries = append(snap.TimeSeries, TimeSeriesPoint{
				Timestamp: b.minute,
				Count:     b.count,
				Malicious: b.malicious,
			})
		} else {
			snap.TimeSeries = append(snap.TimeSeries, TimeSeriesPoint{Timestamp: t})
		}
	}

	return snap
}
