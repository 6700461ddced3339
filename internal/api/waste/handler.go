package waste

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"smartkitchen/internal/api"
	"smartkitchen/internal/domain/waste"
	wasteservice "smartkitchen/internal/services/waste"
)

// Service is the waste risk service as used by the handler
type Service interface {
	Predict(ctx context.Context, item waste.Item) (*waste.Assessment, error)
	Health() wasteservice.Health
}

// Handler serves the waste risk API
type Handler struct {
	svc Service
}

// NewHandler creates the handler
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the endpoints on r
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.health)
	r.Post("/predict", h.predict)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	api.WriteJSON(w, http.StatusOK, h.svc.Health())
}

type itemRequest struct {
	ItemName         *string  `json:"item_name"`
	ExpiryDate       *string  `json:"expiry_date"`
	Quantity         *int     `json:"quantity"`
	UsedQuantity     *float64 `json:"used_quantity"`
	Category         *string  `json:"category"`
	StorageCondition *string  `json:"storage_condition"`
}

func (i itemRequest) item() (waste.Item, error) {
	var missing api.Missing
	missing.Check("item_name", i.ItemName != nil)
	missing.Check("expiry_date", i.ExpiryDate != nil)
	missing.Check("quantity", i.Quantity != nil)
	missing.Check("used_quantity", i.UsedQuantity != nil)
	missing.Check("category", i.Category != nil)
	missing.Check("storage_condition", i.StorageCondition != nil)
	if err := missing.Err(); err != nil {
		return waste.Item{}, err
	}

	return waste.Item{
		ItemName:         *i.ItemName,
		ExpiryDate:       *i.ExpiryDate,
		Quantity:         *i.Quantity,
		UsedQuantity:     *i.UsedQuantity,
		Category:         *i.Category,
		StorageCondition: *i.StorageCondition,
	}, nil
}

func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := api.DecodeJSON(r.Body, &req); err != nil {
		api.WriteError(w, err)
		return
	}
	item, err := req.item()
	if err != nil {
		api.WriteError(w, err)
		return
	}

	result, err := h.svc.Predict(r.Context(), item)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, result)
}
