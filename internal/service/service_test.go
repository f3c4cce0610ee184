package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Mirandateresa/malicious-url-detector/internal/audit"
	"github.com/Mirandateresa/malicious-url-detector/internal/model"
	"github.com/Mirandateresa/malicious-url-detector/internal/scorer"
	"github.com/Mirandateresa/malicious-url-detector/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type midRand struct{}

func (midRand) Float64() float64 { return 0.5 }

type failingStore struct{}

func (failingStore) Save(context.Context, model.State) error { return errors.New("disk full") }
func (failingStore) Load(context.Context) (*model.State, error) {
	return nil, store.ErrNotFound
}

func newTestService(t *testing.T, p model.Persister, opts Options) (*Service, *bytes.Buffer) {
	t.Helper()
	mgr := model.NewManager(p, model.WithRand(midRand{}))
	mgr.Load(context.Background())
	var buf bytes.Buffer
	return New(mgr, audit.NewLogger(&buf), opts), &buf
}

func auditEntries(t *testing.T, buf *bytes.Buffer) []audit.Entry {
	t.Helper()
	var out []audit.Entry
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for sc.Scan() {
		var e audit.Entry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		out = append(out, e)
	}
	return out
}

func TestPredict_ClassifiesAndAudits(t *testing.T) {
	svc, buf := newTestService(t, store.NewMemoryStore(), Options{})

	var events []Event
	svc.AddObserver(func(e Event) { events = append(events, e) })

	got := svc.Predict("http://malware-hack.net/a.b.c.d/")
	assert.True(t, got.IsMalicious)
	assert.Equal(t, scorer.RiskHigh, got.RiskLevel)

	entries := auditEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.KindPredict, entries[0].Kind)
	assert.Equal(t, "http://malware-hack.net/a.b.c.d/", entries[0].URL)
	assert.NotEmpty(t, entries[0].RequestID)
	require.NotNil(t, entries[0].RiskScore)
	assert.Equal(t, got.RiskScore, *entries[0].RiskScore)
	assert.Contains(t, entries[0].Signals, scorer.RuleSuspiciousToken)

	require.Len(t, events, 1)
	assert.Equal(t, EventPredict, events[0].Kind)
	assert.Equal(t, entries[0].RequestID, events[0].RequestID)
	require.NotNil(t, events[0].Classification)
	assert.Equal(t, got.URL, events[0].Classification.URL)
}

func TestPredict_SameURLSameResult(t *testing.T) {
	svc, _ := newTestService(t, nil, Options{})
	a := svc.Predict("https://github.com/x")
	b := svc.Predict("https://github.com/x")
	a.Signals, b.Signals = nil, nil
	assert.Equal(t, a, b)
}

func TestPredictBatch_PreservesOrder(t *testing.T) {
	svc, buf := newTestService(t, nil, Options{BatchLimit: 3})

	urls := make([]string, 50)
	for i := range urls {
		if i%2 == 0 {
			urls[i] = fmt.Sprintf("https://google.com/%d", i)
		} else {
			urls[i] = fmt.Sprintf("http://phishing.example.net/%d", i)
		}
	}

	results, err := svc.PredictBatch(context.Background(), urls)
	require.NoError(t, err)
	require.Len(t, results, len(urls))
	for i, r := range results {
		assert.Equal(t, urls[i], r.URL)
		assert.Equal(t, i%2 == 1, r.IsMalicious, "url %d", i)
	}
	assert.Len(t, auditEntries(t, buf), len(urls))
}

func TestPredictBatch_Empty(t *testing.T) {
	svc, _ := newTestService(t, nil, Options{})
	results, err := svc.PredictBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestPredictBatch_CanceledContext(t *testing.T) {
	svc, _ := newTestService(t, nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.PredictBatch(ctx, []string{"https://example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrain_KnownKernel(t *testing.T) {
	mem := store.NewMemoryStore()
	svc, buf := newTestService(t, mem, Options{})

	var events []Event
	svc.AddObserver(func(e Event) { events = append(events, e) })

	res, err := svc.Train(context.Background(), "linear", 2.5)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, "linear", res.Kernel)
	assert.InDelta(t, 2.5, res.C, 1e-9)
	// midRand yields zero jitter
	assert.Equal(t, model.Baselines[model.KernelLinear], res.Metrics)
	assert.Equal(t, res.Metrics, svc.Metrics())
	assert.Equal(t, "linear", svc.Info().Kernel)

	saved, err := mem.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.KernelLinear, saved.Kernel)

	entries := auditEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.KindTrain, entries[0].Kind)
	require.NotNil(t, entries[0].Applied)
	assert.True(t, *entries[0].Applied)

	require.Len(t, events, 1)
	assert.Equal(t, EventTrain, events[0].Kind)
	assert.True(t, events[0].Applied)
}

func TestTrain_UnknownKernelLeavesMetrics(t *testing.T) {
	mem := store.NewMemoryStore()
	svc, _ := newTestService(t, mem, Options{})
	before := svc.Metrics()

	res, err := svc.Train(context.Background(), "quantum", 1.0)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, before, res.Metrics)
	assert.Equal(t, before, svc.Metrics())

	_, err = mem.Load(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTrain_PersistFailure(t *testing.T) {
	svc, buf := newTestService(t, failingStore{}, Options{})
	before := svc.Metrics()

	_, err := svc.Train(context.Background(), "poly", 1.0)
	require.Error(t, err)
	assert.Equal(t, before, svc.Metrics())

	entries := auditEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Error, "disk full")
}

func TestTrain_DelayHonorsContext(t *testing.T) {
	svc, _ := newTestService(t, nil, Options{TrainDelay: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := svc.Train(ctx, "rbf", 1.0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTrain_DelayElapses(t *testing.T) {
	svc, _ := newTestService(t, nil, Options{TrainDelay: 30 * time.Millisecond})
	start := time.Now()
	_, err := svc.Train(context.Background(), "rbf", 1.0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestInfoAndHealth(t *testing.T) {
	svc, _ := newTestService(t, nil, Options{})

	info := svc.Info()
	assert.True(t, info.IsTrained)
	assert.Equal(t, NFeatures, info.NFeatures)
	assert.Equal(t, ModelType, info.ModelType)
	assert.Equal(t, "rbf", info.Kernel)
	assert.Equal(t, model.Baselines[model.KernelRBF], info.Metrics)

	h := svc.Health()
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, ServiceName, h.Service)
	assert.True(t, h.ModelLoaded)
}

func TestRecordUpload(t *testing.T) {
	svc, buf := newTestService(t, nil, Options{})
	var got Event
	svc.AddObserver(func(e Event) { got = e })

	svc.RecordUpload("dataset.csv", 1234)

	entries := auditEntries(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.KindUpload, entries[0].Kind)
	assert.Equal(t, int64(1234), entries[0].Size)
	assert.Equal(t, EventUpload, got.Kind)
	assert.Equal(t, "dataset.csv", got.Filename)
}

func TestService_ConcurrentPredictAndTrain(t *testing.T) {
	svc, _ := newTestService(t, store.NewMemoryStore(), Options{})

	var mu sync.Mutex
	count := 0
	svc.AddObserver(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			svc.Predict("https://example.com/page")
		}()
		go func(i int) {
			defer wg.Done()
			k := model.Kernels[i%len(model.Kernels)]
			_, err := svc.Train(context.Background(), string(k), 1.0)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 40, count)
}

func BenchmarkPredict(b *testing.B) {
	mgr := model.NewManager(nil)
	mgr.Load(context.Background())
	svc := New(mgr, audit.NopLogger(), Options{})
	for i := 0; i < b.N; i++ {
		svc.Predict("http://secure-login.example.net/verify/account")
	}
}
