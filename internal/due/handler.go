package due

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nihalm/duetrack/pkg/middleware"
	"github.com/nihalm/duetrack/pkg/response"
)

// Handler handles HTTP requests for ledger operations
type Handler struct {
	service *Service
}

// NewHandler creates a new due handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for due endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)

	return r
}

// Create handles POST /dues
// @Summary      Record a payment claim
// @Description  Extract an amount from a free-text message, append a ledger entry and settle it against the counterparty's outstanding dues
// @Tags         dues
// @Accept       json
// @Produce      json
// @Param        request body CreateDueRequest true "Payment claim"
// @Success      201 {object} response.APIResponse{data=DueResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /dues [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	var req CreateDueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.ConnectedUserID == 0 || req.Message == "" {
		response.BadRequest(w, "connected_user_id and message are required")
		return
	}

	created, err := h.service.CreateDue(r.Context(), userID, req.ConnectedUserID, req.Message)
	if err != nil {
		response.FromError(w, err)
		return
	}

	if err := h.service.Settle(r.Context(), created.ID); err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, created.ToResponse())
}
