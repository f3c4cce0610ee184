package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Mirandateresa/malicious-url-detector/internal/model"
	"github.com/Mirandateresa/malicious-url-detector/internal/scorer"
	"github.com/Mirandateresa/malicious-url-detector/internal/service"
)

// Defaults for zero-valued Options.
const (
	DefaultMaxBatch       = 1000
	DefaultMaxUploadBytes = 10 << 20
)

// Detector is the subset of the service used by the HTTP handlers.
type Detector interface {
	Predict(url string) scorer.Classification
	PredictBatch(ctx context.Context, urls []string) ([]scorer.Classification, error)
	Train(ctx context.Context, kernel string, c float64) (*service.TrainResult, error)
	RecordUpload(filename string, size int64)
	ChartSeries() []model.SeriesPoint
	Info() service.ModelInfo
	Health() service.Health
}

// Options configures a Server.
type Options struct {
	DefaultKernel   string
	DefaultC        float64
	UploadDir       string
	MaxUploadBytes  int64
	MaxBatch        int
	// Limiter throttles /api/ routes. Nil disables rate limiting.
	Limiter         *ClientLimiter
	// Dashboard, when set, is served under DashboardPrefix.
	Dashboard       http.Handler
	DashboardPrefix string
	Logger          zerolog.Logger
}

// Server is the HTTP front of the detector.
type Server struct {
	det    Detector
	opts   Options
	logger zerolog.Logger
	mux    *http.ServeMux
}

// New creates a Server and registers its routes.
func New(det Detector, opts Options) *Server {
	if opts.DefaultKernel == "" {
		opts.DefaultKernel = string(model.DefaultKernel)
	}
	if opts.DefaultC == 0 {
		opts.DefaultC = model.DefaultC
	}
	if opts.UploadDir == "" {
		opts.UploadDir = "data"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = DefaultMaxBatch
	}

	s := &Server{
		det:    det,
		opts:   opts,
		logger: opts.Logger,
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/predict", s.handlePredict)
	s.mux.HandleFunc("POST /api/predict/batch", s.handlePredictBatch)
	s.mux.HandleFunc("GET /api/model-info", s.handleModelInfo)
	s.mux.HandleFunc("GET /api/metrics-chart", s.handleMetricsChart)
	s.mux.HandleFunc("POST /api/train", s.handleTrain)
	s.mux.HandleFunc("POST /api/upload-dataset", s.handleUpload)

	return s
}

// ServeHTTP applies CORS, rate limiting and request logging around the routes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w.Header())
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	// The dashboard websocket needs the raw writer to hijack the connection.
	if s.opts.Dashboard != nil && s.opts.DashboardPrefix != "" &&
		strings.HasPrefix(r.URL.Path, s.opts.DashboardPrefix) {
		s.opts.Dashboard.ServeHTTP(w, r)
		return
	}

	if s.opts.Limiter != nil && strings.HasPrefix(r.URL.Path, "/api/") {
		if !s.opts.Limiter.Allow(clientKey(r)) {
			s.logger.Warn().
				Str("client", clientKey(r)).
				Str("path", r.URL.Path).
				Msg("rate limited")
			writeError(w, http.StatusTooManyRequests, "Demasiadas solicitudes")
			return
		}
	}

	rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
	s.mux.ServeHTTP(rec, r)

	s.logger.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", rec.code).
		Msg("request")
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s
}

func setCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "*")
}

// statusRecorder captures the response code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}
