package spoilage

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"smartkitchen/internal/api"
	"smartkitchen/internal/domain/spoilage"
	spoilageservice "smartkitchen/internal/services/spoilage"
	"smartkitchen/pkg/errors"
)

const defaultMaxUpload = 10 << 20

// Service is the spoilage detection service as used by the handler
type Service interface {
	Detect(ctx context.Context, r io.Reader, itemType string) (*spoilage.Result, error)
	Health() spoilageservice.Health
}

// Handler serves the spoilage detection API
type Handler struct {
	svc       Service
	maxUpload int64
}

// NewHandler creates the handler. Uploads larger than maxUpload bytes are rejected.
func NewHandler(svc Service, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &Handler{svc: svc, maxUpload: maxUpload}
}

// Routes mounts the endpoints on r
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.health)
	r.Post("/detect-spoilage", h.detect)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	api.WriteJSON(w, http.StatusOK, h.svc.Health())
}

// detect expects a multipart "file" field and an optional item_type query parameter
func (h *Handler) detect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	file, _, err := r.FormFile("file")
	if err != nil {
		h.fail(w, h.uploadError(err))
		return
	}
	defer file.Close()

	result, err := h.svc.Detect(r.Context(), file, r.URL.Query().Get("item_type"))
	if err != nil {
		h.fail(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errors.NewValidationError("file", fmt.Sprintf("upload exceeds %s", humanize.Bytes(uint64(h.maxUpload))), nil)
	}
	if errors.Is(err, http.ErrMissingFile) {
		return errors.NewValidationError("file", "field required", nil)
	}
	return errors.NewValidationError("file", err.Error(), nil)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := api.StatusFor(err)
	if status >= http.StatusInternalServerError {
		api.WriteError(w, errors.Wrap(err, "Error processing image"))
		return
	}
	api.WriteDetail(w, status, "Error processing image: "+err.Error())
}
