package leaderboardhandlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	leaderboardservice "github.com/campus-coders-club/cp-board/app/modules/leaderboard/application"
	userdb "github.com/campus-coders-club/cp-board/app/modules/user/infrastructure/repositories"
	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
	"github.com/campus-coders-club/cp-board/internal/observability/attr"
)

// Handlers exposes the leaderboard HTTP surface.
type Handlers struct {
	service leaderboardservice.Service
	logger  *slog.Logger
}

// NewHandlers creates the leaderboard HTTP handlers.
func NewHandlers(service leaderboardservice.Service, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// RegisterRoutes mounts the leaderboard routes on r.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/api/leaderboard", func(r chi.Router) {
		r.Get("/", h.HandleGetLeaderboard)
		r.Post("/refresh", h.HandleRefresh)
		r.Patch("/platform", h.HandlePlatformUpdate)
		r.Get("/export", h.HandleExport)
		r.Get("/chart", h.HandleChart)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			h.logger.Warn("failed to encode response", attr.Error(err))
		}
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, leaderboardservice.ErrMissingField),
		errors.Is(err, leaderboardservice.ErrInvalidPlatform):
		h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, userdb.ErrUserNotFound):
		h.respondJSON(w, http.StatusNotFound, errorResponse{Error: "user not found"})
	default:
		h.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

// HandleGetLeaderboard returns the leaderboard projection sorted by rank,
// without triggering a refresh.
func (h *Handlers) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.GetLeaderboard(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, entries)
}

type refreshResponse struct {
	CycleID     string                                `json:"cycleId"`
	UserCount   int                                   `json:"userCount"`
	BatchCount  int                                   `json:"batchCount"`
	Leaderboard []leaderboardservice.LeaderboardEntry `json:"leaderboard"`
}

// HandleRefresh triggers a manual refresh. The default returns once the
// cycle is scheduled, with the current standings; ?wait=true blocks until
// the cycle finishes and returns the post-refresh standings.
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	opts := leaderboardservice.RefreshOptions{
		Source: sharedtypes.RefreshSourceManual,
		Wait:   r.URL.Query().Get("wait") == "true",
	}

	receipt, err := h.service.Refresh(r.Context(), opts)
	if err != nil {
		h.respondError(w, err)
		return
	}

	entries, err := h.service.GetLeaderboard(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, refreshResponse{
		CycleID:     receipt.CycleID.String(),
		UserCount:   receipt.UserCount,
		BatchCount:  receipt.BatchCount,
		Leaderboard: entries,
	})
}

type platformUpdateRequest struct {
	Email    string `json:"email"`
	Platform string `json:"platform"`
	Username string `json:"username"`
	Stats    *struct {
		Score *int `json:"score"`
	} `json:"stats"`
}

// HandlePlatformUpdate updates one platform's username and score for the
// user matching the given email.
func (h *Handlers) HandlePlatformUpdate(w http.ResponseWriter, r *http.Request) {
	var req platformUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	update := leaderboardservice.PlatformUpdateRequest{
		Email:    req.Email,
		Platform: sharedtypes.Platform(req.Platform),
		Username: req.Username,
	}
	if req.Stats != nil {
		update.Score = req.Stats.Score
	}

	if err := h.service.UpdatePlatform(r.Context(), update); err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
