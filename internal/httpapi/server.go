package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/user/life-rpg/internal/game"
	"github.com/user/life-rpg/internal/interfaces"
	"github.com/user/life-rpg/internal/types"
	"go.uber.org/zap"
)

// TitleSuggester proposes a flavorful variant of a class title
type TitleSuggester interface {
	SuggestTitle(ctx context.Context, archetype types.Archetype, level int) string
}

// Handler exposes the game manager over HTTP
type Handler struct {
	gm     interfaces.GameManager
	titles TitleSuggester
	logger *zap.Logger
}

// NewHandler creates a handler. titles may be nil, in which case the class
// title is returned unchanged.
func NewHandler(gm interfaces.GameManager, titles TitleSuggester, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{gm: gm, titles: titles, logger: logger}
}

// Router builds the chi router
func (h *Handler) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	router.Get("/activities", h.listActivities)
	router.Get("/state", h.getState)
	router.Post("/profile", h.onboard)
	router.Post("/logs", h.logActivity)
	router.Post("/quests/{id}/claim", h.claimQuest)
	router.Post("/buffs", h.activateBuff)
	router.Post("/sync", h.sync)
	router.Get("/narration", h.getNarration)
	router.Get("/title", h.getTitle)

	return router
}

type logRequest struct {
	ActivityID string  `json:"activity_id"`
	Amount     float64 `json:"amount"`
}

type buffRequest struct {
	Multiplier      float64 `json:"multiplier"`
	DurationMinutes float64 `json:"duration_minutes"`
	Description     string  `json:"description"`
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gm.Activities())
}

func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gm.Snapshot())
}

func (h *Handler) onboard(w http.ResponseWriter, r *http.Request) {
	var profile types.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := h.gm.Onboard(r.Context(), profile); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logActivity(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	res, err := h.gm.LogActivity(r.Context(), req.ActivityID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) claimQuest(w http.ResponseWriter, r *http.Request) {
	res, err := h.gm.ClaimQuest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) activateBuff(w http.ResponseWriter, r *http.Request) {
	var req buffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	duration := time.Duration(req.DurationMinutes * float64(time.Minute))
	buff, err := h.gm.ActivateBuff(r.Context(), req.Multiplier, duration, req.Description)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, buff)
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	if err := h.gm.Reconnected(r.Context()); err != nil {
		h.logger.Warn("Manual sync failed", zap.Error(err))
		http.Error(w, "Sync failed", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getNarration(w http.ResponseWriter, r *http.Request) {
	n, ok := h.gm.LastNarration()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handler) getTitle(w http.ResponseWriter, r *http.Request) {
	st := h.gm.Snapshot().State
	title := string(st.ClassTitle)
	if h.titles != nil {
		title = h.titles.SuggestTitle(r.Context(), st.ClassTitle, st.Level)
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"class": string(st.ClassTitle),
		"title": title,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrUnknownActivity),
		errors.Is(err, game.ErrInvalidAmount),
		errors.Is(err, game.ErrInvalidBuff),
		errors.Is(err, game.ErrInvalidProfile):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrQuestNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrQuestIncomplete),
		errors.Is(err, game.ErrQuestClaimed),
		errors.Is(err, game.ErrProfileExists):
		status = http.StatusConflict
	default:
		h.logger.Error("Request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
