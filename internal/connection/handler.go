package connection

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nihalm/duetrack/pkg/middleware"
	"github.com/nihalm/duetrack/pkg/response"
)

// Handler handles HTTP requests for connection operations
type Handler struct {
	service *Service
}

// NewHandler creates a new connection handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for connection endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{userId}/messages", h.RoomMessages)

	return r
}

// List handles GET /connections
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	summaries, err := h.service.ListConnections(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to list connections")
		return
	}

	response.JSON(w, http.StatusOK, summaries)
}

// RoomMessages handles GET /connections/{userId}/messages
func (h *Handler) RoomMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Not authenticated")
		return
	}

	counterpartID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	messages, err := h.service.GetRoomMessages(r.Context(), userID, counterpartID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, messages)
}
