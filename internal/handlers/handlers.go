package handlers

import (
	"encoding/json"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Brownie44l1/classify-api/internal/classify"
	"github.com/Brownie44l1/classify-api/internal/model"
	"github.com/Brownie44l1/classify-api/internal/worker"
)

type Handler struct {
	queue *worker.Queue
	log   *logrus.Logger
}

func NewHandler(queue *worker.Queue, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		queue: queue,
		log:   log,
	}
}

type TensorRequest struct {
	Tensor []float32 `json:"tensor"`
	// Softmax asks for the winning class's probability, treating the
	// posted values as raw logits.
	Softmax bool `json:"softmax"`
}

type ClassifyResponse struct {
	RequestID   string            `json:"request_id"`
	Label       string            `json:"label"`
	Index       int               `json:"index"`
	Score       float32           `json:"score"`
	Probability *float64          `json:"probability,omitempty"`
	Predictions []classify.Ranked `json:"predictions,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Classify accepts a multipart image upload, queues it for preprocessing and
// inference, and responds with the decoded label.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// 10MB upload cap
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "No image file provided. Use 'image' as the form field name", http.StatusBadRequest)
		return
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		http.Error(w, "Invalid image format. Supported: JPEG, PNG", http.StatusBadRequest)
		return
	}

	h.log.WithFields(logrus.Fields{
		"file":   header.Filename,
		"format": format,
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
	}).Debug("image received")

	pending, err := h.queue.Submit(r.Context(), img)
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}

	result, err := pending.Wait(r.Context())
	if err != nil {
		h.writeClassifyError(w, pending.ID.String(), err)
		return
	}

	writeJSON(w, http.StatusOK, ClassifyResponse{
		RequestID:   pending.ID.String(),
		Label:       result.Label,
		Index:       result.Index,
		Score:       result.Score,
		Predictions: result.Best,
	})
}

// ClassifyTensor accepts a raw, already-preprocessed float array. The array
// length must match the model's input size exactly.
func (h *Handler) ClassifyTensor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TensorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	pending, err := h.queue.SubmitTensor(r.Context(), req.Tensor)
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}

	result, err := pending.Wait(r.Context())
	if err != nil {
		h.writeClassifyError(w, pending.ID.String(), err)
		return
	}

	resp := ClassifyResponse{
		RequestID:   pending.ID.String(),
		Label:       result.Label,
		Index:       result.Index,
		Score:       result.Score,
		Predictions: result.Best,
	}
	if req.Softmax {
		probs := classify.Softmax(result.Scores)
		resp.Probability = &probs[result.Index]
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeSubmitError(w http.ResponseWriter, err error) {
	if errors.Is(err, worker.ErrClosed) {
		http.Error(w, "Service is shutting down", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, "Request cancelled", http.StatusBadRequest)
}

func (h *Handler) writeClassifyError(w http.ResponseWriter, requestID string, err error) {
	h.log.WithField("request_id", requestID).WithError(err).Warn("classification failed")

	var infErr *model.InferenceError
	if errors.As(err, &infErr) {
		http.Error(w, infErr.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, "Classification failed", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
