// Package api exposes the pipeline over HTTP and reports readiness over gRPC.
package api

import (
	"FlowSentinel/internal/model"
	"FlowSentinel/internal/pipeline"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Engine is the part of the pipeline the API serves.
type Engine interface {
	Analyze(r io.Reader) ([]model.Verdict, error)
	Extract(r io.Reader) ([]model.FlowFeatures, error)
	Load(path string) error
	Ready() bool
	Algorithm() string
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	engine          Engine
	modelPath       string
	maxCaptureBytes int64
	writer          model.VerdictWriter
	health          *Health
}

// NewHandler creates the HTTP handlers. writer and health may be nil.
func NewHandler(engine Engine, modelPath string, maxCaptureBytes int64, writer model.VerdictWriter, health *Health) *Handler {
	return &Handler{
		engine:          engine,
		modelPath:       modelPath,
		maxCaptureBytes: maxCaptureBytes,
		writer:          writer,
		health:          health,
	}
}

// Router returns the API routes.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/classify", h.classifyHandler).Methods("POST")
	r.HandleFunc("/api/v1/features", h.featuresHandler).Methods("POST")
	r.HandleFunc("/api/v1/model", h.modelHandler).Methods("GET")
	r.HandleFunc("/api/v1/model/reload", h.reloadHandler).Methods("POST")
	return r
}

type flowVerdict struct {
	Flow          string                  `json:"flow"`
	Label         int                     `json:"label"`
	LabelName     string                  `json:"label_name"`
	Confidence    float64                 `json:"confidence"`
	Probabilities []float64               `json:"probabilities"`
	Features      model.FlowFeatureVector `json:"features"`
}

type classifyResponse struct {
	Source   string        `json:"source"`
	Verdicts []flowVerdict `json:"verdicts"`
	Message  string        `json:"message,omitempty"`
}

type flowFeatures struct {
	Flow     string                  `json:"flow"`
	Features model.FlowFeatureVector `json:"features"`
}

type featuresResponse struct {
	Source  string         `json:"source"`
	Flows   []flowFeatures `json:"flows"`
	Message string         `json:"message,omitempty"`
}

type modelResponse struct {
	Ready     bool   `json:"ready"`
	Algorithm string `json:"algorithm"`
}

// classifyHandler classifies every flow of the uploaded capture.
func (h *Handler) classifyHandler(w http.ResponseWriter, r *http.Request) {
	if !h.engine.Ready() {
		writeError(w, model.ErrNoModel)
		return
	}
	body, err := h.readCapture(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	verdicts, err := h.engine.Analyze(bytes.NewReader(body))
	if err != nil {
		writeError(w, err)
		return
	}

	source := sourceName(r)
	resp := classifyResponse{Source: source, Verdicts: make([]flowVerdict, 0, len(verdicts))}
	for _, v := range verdicts {
		resp.Verdicts = append(resp.Verdicts, flowVerdict{
			Flow:          v.Key.Value,
			Label:         v.Result.Label,
			LabelName:     model.LabelName(v.Result.Label),
			Confidence:    v.Result.Confidence,
			Probabilities: v.Result.Probabilities,
			Features:      v.Features,
		})
	}
	if len(verdicts) == 0 {
		resp.Message = pipeline.NoFeaturesMessage
	}

	if h.writer != nil && len(verdicts) > 0 {
		if err := h.writer.Write(r.Context(), source, verdicts); err != nil {
			log.Errorf("Failed to export verdicts for %s: %v", source, err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// featuresHandler returns the extracted features without classifying.
func (h *Handler) featuresHandler(w http.ResponseWriter, r *http.Request) {
	body, err := h.readCapture(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	flows, err := h.engine.Extract(bytes.NewReader(body))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := featuresResponse{Source: sourceName(r), Flows: make([]flowFeatures, 0, len(flows))}
	for _, f := range flows {
		resp.Flows = append(resp.Flows, flowFeatures{Flow: f.Key.Value, Features: f.Features})
	}
	if len(flows) == 0 {
		resp.Message = pipeline.NoFeaturesMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) modelHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, modelResponse{Ready: h.engine.Ready(), Algorithm: h.engine.Algorithm()})
}

// reloadHandler replaces the served model with the one at the configured path.
func (h *Handler) reloadHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Load(h.modelPath); err != nil {
		writeError(w, err)
		return
	}
	if h.health != nil {
		h.health.Update(h.engine.Ready())
	}
	log.Infof("Model reloaded from %s.", h.modelPath)
	writeJSON(w, http.StatusOK, modelResponse{Ready: h.engine.Ready(), Algorithm: h.engine.Algorithm()})
}

func (h *Handler) readCapture(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := r.Body
	if h.maxCaptureBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxCaptureBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func sourceName(r *http.Request) string {
	if s := r.URL.Query().Get("source"); s != "" {
		return s
	}
	return "upload"
}

func writeError(w http.ResponseWriter, err error) {
	var (
		maxErr *http.MaxBytesError
		capErr *model.CaptureFormatError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &maxErr):
		status = http.StatusRequestEntityTooLarge
	case errors.As(err, &capErr):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrNoModel):
		status = http.StatusServiceUnavailable
	case errors.Is(err, model.ErrModelNotFound):
		status = http.StatusNotFound
	}
	http.Error(w, fmt.Sprintf("%v", err), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(jsonBytes)
}
