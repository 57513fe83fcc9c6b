package request

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nihalm/duetrack/pkg/middleware"
	"github.com/nihalm/duetrack/pkg/response"
)

// CreateRequestBody is the request body for opening a connection request
type CreateRequestBody struct {
	RequestTo int64 `json:"request_to" validate:"required"`
}

// UpdateRequestBody is the request body for deciding a request
type UpdateRequestBody struct {
	Status Status `json:"status" validate:"required,oneof=accepted rejected"`
}

// Handler handles HTTP requests for connection-request operations
type Handler struct {
	service *Service
}

// NewHandler creates a new request handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for request endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Post("/checkout", h.Checkout)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Remove)

	return r
}

// Create handles POST /requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	var body CreateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if body.RequestTo == 0 {
		response.BadRequest(w, "request_to is required")
		return
	}

	req, err := h.service.Create(r.Context(), userID, body.RequestTo)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]int64{"request_id": req.ID})
}

// Update handles PUT /requests/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	var body UpdateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.service.Update(r.Context(), userID, id, body.Status); err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Request updated"})
}

// Remove handles DELETE /requests/{id}
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid request ID")
		return
	}

	if err := h.service.Remove(r.Context(), userID, id); err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Request removed"})
}

// List handles GET /requests?filter=received|sent
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	requests, err := h.service.List(r.Context(), userID, r.URL.Query().Get("filter"))
	if err != nil {
		response.InternalError(w, "Failed to list requests")
		return
	}

	response.JSON(w, http.StatusOK, requests)
}

// Checkout handles POST /requests/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	if err := h.service.Checkout(r.Context(), userID); err != nil {
		response.InternalError(w, "Failed to mark requests checked")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Requests checked"})
}
