package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Mirandateresa/malicious-url-detector/internal/model"
	"github.com/Mirandateresa/malicious-url-detector/internal/scorer"
)

const (
	maxJSONBody       = 1 << 20
	multipartOverhead = 1 << 20

	datasetFilename = "dataset.csv"
	msgTrained      = "Modelo entrenado exitosamente"
	msgUploaded     = "Dataset cargado exitosamente"
)

// PredictRequest is the body of POST /api/predict.
type PredictRequest struct {
	URL *string `json:"url"`
}

// BatchRequest is the body of POST /api/predict/batch.
type BatchRequest struct {
	URLs []string `json:"urls"`
}

// BatchResponse is returned by POST /api/predict/batch.
type BatchResponse struct {
	Results []scorer.Classification `json:"results"`
}

// TrainResponse is returned by POST /api/train.
type TrainResponse struct {
	Message string        `json:"message"`
	Kernel  string        `json:"kernel"`
	C       float64       `json:"C"`
	Metrics model.Metrics `json:"metrics"`
	Applied bool          `json:"applied"`
}

// UploadResponse is returned by POST /api/upload-dataset.
type UploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// ChartResponse wraps the encoded figure.
type ChartResponse struct {
	Chart string `json:"chart"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.det.Health())
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.URL == nil {
		writeError(w, http.StatusBadRequest, "field 'url' is required")
		return
	}

	c := s.det.Predict(*req.URL)
	s.logger.Info().
		Str("url", c.URL).
		Int("risk_score", c.RiskScore).
		Str("risk_level", string(c.RiskLevel)).
		Bool("malicious", c.IsMalicious).
		Msg("predict")

	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.URLs) > s.opts.MaxBatch {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("too many urls: %d (max %d)", len(req.URLs), s.opts.MaxBatch))
		return
	}

	results, err := s.det.PredictBatch(r.Context(), req.URLs)
	if err != nil {
		s.logger.Warn().Err(err).Int("urls", len(req.URLs)).Msg("batch prediction aborted")
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if results == nil {
		results = []scorer.Classification{}
	}

	s.logger.Info().Int("urls", len(results)).Msg("batch predict")
	writeJSON(w, http.StatusOK, BatchResponse{Results: results})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.det.Info())
}

func (s *Server) handleMetricsChart(w http.ResponseWriter, r *http.Request) {
	chart, err := metricsChartJSON(s.det.ChartSeries())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ChartResponse{Chart: chart})
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	kernel := strings.TrimSpace(r.PostFormValue("kernel"))
	if kernel == "" {
		kernel = s.opts.DefaultKernel
	}
	c := s.opts.DefaultC
	if v := strings.TrimSpace(r.PostFormValue("C")); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid C %q: must be a number", v))
			return
		}
		c = parsed
	}

	res, err := s.det.Train(r.Context(), kernel, c)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Info().Str("kernel", kernel).Msg("training request abandoned by client")
			return
		}
		s.logger.Error().Err(err).Str("kernel", kernel).Msg("training failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, TrainResponse{
		Message: msgTrained,
		Kernel:  res.Kernel,
		C:       res.C,
		Metrics: res.Metrics,
		Applied: res.Applied,
	})
}

// parseForm accepts both urlencoded and multipart bodies.
func parseForm(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxJSONBody); err != nil {
			return fmt.Errorf("invalid form body: %w", err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("invalid form body: %w", err)
	}
	return nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "archivo demasiado grande")
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("missing file field: %v", err))
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeError(w, http.StatusBadRequest, "Solo archivos CSV")
		return
	}

	size, err := writeDataset(s.opts.UploadDir, file, s.opts.MaxUploadBytes)
	if err != nil {
		if errors.Is(err, errDatasetTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "archivo demasiado grande")
			return
		}
		s.logger.Error().Err(err).Str("filename", header.Filename).Msg("dataset upload failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.det.RecordUpload(header.Filename, size)
	s.logger.Info().
		Str("filename", header.Filename).
		Int64("size", size).
		Msg("dataset uploaded")

	writeJSON(w, http.StatusOK, UploadResponse{
		Message:  msgUploaded,
		Filename: header.Filename,
		Size:     size,
	})
}

var errDatasetTooLarge = errors.New("dataset exceeds size limit")

// writeDataset replaces dir/dataset.csv with the contents of src through a
// temp file and rename. A limit of zero means unlimited.
func writeDataset(dir string, src io.Reader, limit int64) (int64, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("creating upload dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".dataset_*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	reader := src
	if limit > 0 {
		reader = io.LimitReader(src, limit+1)
	}
	n, err := io.Copy(tmp, reader)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("writing dataset: %w", err)
	}
	if limit > 0 && n > limit {
		tmp.Close()
		return 0, errDatasetTooLarge
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing dataset: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return 0, fmt.Errorf("setting dataset permissions: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, datasetFilename)); err != nil {
		return 0, fmt.Errorf("replacing dataset: %w", err)
	}
	return n, nil
}
