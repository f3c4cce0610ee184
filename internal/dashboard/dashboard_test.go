package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"nhooyr.io/websocket"

	"github.com/Mirandateresa/malicious-url-detector/internal/model"
	"github.com/Mirandateresa/malicious-url-detector/internal/scorer"
	"github.com/Mirandateresa/malicious-url-detector/internal/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func predictEvent(url string, ts time.Time) service.Event {
	c := scorer.New().Score(url)
	return service.Event{
		Timestamp:      ts,
		Kind:           service.EventPredict,
		RequestID:      "req-" + url,
		Classification: &c,
	}
}

func testInfo() service.ModelInfo {
	return service.ModelInfo{
		IsTrained: true,
		NFeatures: service.NFeatures,
		ModelType: service.ModelType,
		Kernel:    "rbf",
		Metrics:   model.Baselines[model.KernelRBF],
	}
}

func TestRingBuffer_Overwrite(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := 1; i <= 5; i++ {
		rb.Add(&DashboardEvent{ID: fmt.Sprintf("evt-%d", i)})
	}

	assert.Equal(t, 3, rb.Len())
	all := rb.All()
	require.Len(t, all, 3)
	assert.Equal(t, "evt-3", all[0].ID)
	assert.Equal(t, "evt-5", all[2].ID)

	recent := rb.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "evt-4", recent[0].ID)
	assert.Equal(t, "evt-5", recent[1].ID)

	assert.Len(t, rb.Recent(10), 3)
}

func TestRingBuffer_DefaultCapacity(t *testing.T) {
	rb := NewRingBuffer(0)
	assert.Equal(t, DefaultBufferSize, len(rb.items))
	assert.Empty(t, rb.All())
}

func TestStats_Record(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 30, 15, 0, time.UTC)
	s := NewStats()
	s.now = func() time.Time { return now }

	s.Record(&DashboardEvent{Event: predictEvent("https://google.com", now)})
	s.Record(&DashboardEvent{Event: predictEvent("http://phishing-site.net", now)})
	s.Record(&DashboardEvent{Event: service.Event{Kind: service.EventTrain, Kernel: "poly", Applied: true}})
	s.Record(&DashboardEvent{Event: service.Event{Kind: service.EventTrain, Kernel: "quantum"}})
	s.Record(&DashboardEvent{Event: service.Event{Kind: service.EventUpload, Filename: "d.csv"}})

	snap := s.Snapshot()
	assert.Equal(t, uint64(2), snap.TotalPredictions)
	assert.Equal(t, uint64(1), snap.MaliciousCount)
	assert.Equal(t, uint64(1), snap.LegitimateCount)
	assert.Equal(t, uint64(1), snap.TrainCount)
	assert.Equal(t, uint64(1), snap.UploadCount)
	assert.Equal(t, map[string]uint64{"poly": 1}, snap.KernelCounts)
	assert.Equal(t, uint64(1), snap.LevelCounts[string(scorer.RiskLow)])
	assert.Equal(t, uint64(1), snap.LevelCounts[string(scorer.RiskHigh)])
	assert.Equal(t, uint64(1), snap.SignalCounts[scorer.RuleSuspiciousToken])
	// -2 and 4
	assert.InDelta(t, 1.0, snap.AvgRiskScore, 1e-9)
	assert.Equal(t, uint64(1), snap.ScoreHistogram[-2])
	assert.Equal(t, uint64(1), snap.ScoreHistogram[4])

	require.Len(t, snap.TimeSeries, timeSeriesMinutes)
	last := snap.TimeSeries[timeSeriesMinutes-1]
	assert.True(t, last.Timestamp.Equal(now.Truncate(time.Minute)))
	assert.Equal(t, uint64(2), last.Count)
	assert.Equal(t, uint64(1), last.Malicious)
	assert.Equal(t, uint64(0), snap.TimeSeries[0].Count)
}

func TestStats_SnapshotIsCopy(t *testing.T) {
	s := NewStats()
	s.Record(&DashboardEvent{Event: predictEvent("http://hack.io", time.Now())})
	snap := s.Snapshot()
	snap.LevelCounts["BAJO"] = 99

	assert.NotEqual(t, uint64(99), s.Snapshot().LevelCounts["BAJO"])
}

func TestHandler_REST(t *testing.T) {
	hub := NewHub(10, testInfo, zerolog.Nop())
	hub.OnEvent(predictEvent("https://example.com", time.Now()))
	hub.OnEvent(predictEvent("http://malware.biz", time.Now()))

	srv := httptest.NewServer(Handler(hub))
	defer srv.Close()
	defer http.DefaultClient.CloseIdleConnections()

	t.Run("stats", func(t *testing.T) {
		resp, err := http.Get(srv.URL + Prefix + "api/stats")
		require.NoError(t, err)
		defer resp.Body.Close()
		var snap StatsSnapshot
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
		assert.Equal(t, uint64(2), snap.TotalPredictions)
	})

	t.Run("events with limit", func(t *testing.T) {
		resp, err := http.Get(srv.URL + Prefix + "api/events?limit=1")
		require.NoError(t, err)
		defer resp.Body.Close()
		var events []DashboardEvent
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
		require.Len(t, events, 1)
		assert.Equal(t, "evt-2", events[0].ID)
		assert.Equal(t, "http://malware.biz", events[0].Classification.URL)
	})

	t.Run("bad limit", func(t *testing.T) {
		resp, err := http.Get(srv.URL + Prefix + "api/events?limit=x")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("model", func(t *testing.T) {
		resp, err := http.Get(srv.URL + Prefix + "api/model")
		require.NoError(t, err)
		defer resp.Body.Close()
		var info service.ModelInfo
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
		assert.Equal(t, "rbf", info.Kernel)
	})

	t.Run("page", func(t *testing.T) {
		resp, err := http.Get(srv.URL + Prefix)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
	})
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) WSMessage {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHandler_WebSocketFeed(t *testing.T) {
	hub := NewHub(10, testInfo, zerolog.Nop())
	hub.OnEvent(predictEvent("https://github.com/a", time.Now()))

	srv := httptest.NewServer(Handler(hub))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + Prefix + "ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	initial := readMessage(t, ctx, conn)
	assert.Equal(t, "initial_state", initial.Type)
	payload := initial.Payload.(map[string]any)
	assert.Len(t, payload["events"], 1)
	assert.NotNil(t, payload["model"])

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.OnEvent(predictEvent("http://phishing.top", time.Now()))
	live := readMessage(t, ctx, conn)
	assert.Equal(t, "event", live.Type)

	Run(ctx, hub, 20*time.Millisecond)
	update := readMessage(t, ctx, conn)
	assert.Equal(t, "stats_update", update.Type)

	conn.Close(websocket.StatusNormalClosure, "")
	cancel()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
