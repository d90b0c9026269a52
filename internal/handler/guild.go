package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ebrown/guildhall/internal/guild"
	guildsync "github.com/ebrown/guildhall/internal/sync"
)

type GuildHandler struct {
	engine *guildsync.Engine
	logger *slog.Logger
}

func NewGuildHandler(engine *guildsync.Engine, logger *slog.Logger) *GuildHandler {
	return &GuildHandler{engine: engine, logger: logger}
}

// State returns the full cached document, or 503 until the first snapshot.
func (h *GuildHandler) State(w http.ResponseWriter, r *http.Request) {
	state, loaded := h.engine.State()
	if !loaded {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "guild state not loaded yet"})
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type questRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Type          string `json:"type"`
	Category      string `json:"category"`
	AssignedTo    string `json:"assignedTo"`
	ResetsMonthly bool   `json:"resetsMonthly"`
	TargetValue   int    `json:"targetValue"`
	Unit          string `json:"unit"`
}

func (h *GuildHandler) CreateQuest(w http.ResponseWriter, r *http.Request) {
	var req questRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	h.dispatch(w, r, guild.AddQuest{
		Title:         req.Title,
		Description:   req.Description,
		Type:          req.Type,
		Category:      req.Category,
		AssignedTo:    req.AssignedTo,
		ResetsMonthly: req.ResetsMonthly,
		TargetValue:   req.TargetValue,
		Unit:          req.Unit,
	})
}

func (h *GuildHandler) CreateCleaningTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
		Room  string `json:"room"`
		Type  string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	h.dispatch(w, r, guild.AddCleaningTask{Title: req.Title, Room: req.Room, Type: req.Type})
}

func (h *GuildHandler) CompleteQuest(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	h.dispatch(w, r, guild.CompleteQuest{ID: id})
}

func (h *GuildHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be positive"})
		return
	}

	h.dispatch(w, r, guild.UpdateEpicProgress{ID: id, Amount: req.Amount})
}

func (h *GuildHandler) DeleteQuest(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	h.dispatch(w, r, guild.DeleteQuest{ID: id})
}

func (h *GuildHandler) ClaimRoomBonus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Room string `json:"room"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Room == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "room is required"})
		return
	}
	h.dispatch(w, r, guild.ClaimRoomBonus{Room: req.Room})
}

func (h *GuildHandler) ClaimSanctuaryBonus(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, guild.ClaimSanctuaryBonus{})
}

func (h *GuildHandler) MonthlyReset(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, guild.MonthlyReset{})
}

func (h *GuildHandler) CreateReward(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owner  string `json:"owner"`
		Label  string `json:"label"`
		Rarity string `json:"rarity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Label) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "label is required"})
		return
	}
	h.dispatch(w, r, guild.AddReward{Owner: req.Owner, Label: req.Label, Rarity: req.Rarity})
}

func (h *GuildHandler) DeleteReward(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	label := r.URL.Query().Get("label")
	if owner == "" || label == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "owner and label are required"})
		return
	}
	h.dispatch(w, r, guild.DeleteReward{Owner: owner, Label: label})
}

func (h *GuildHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}
	h.dispatch(w, r, guild.AddBounty{Text: req.Text})
}

func (h *GuildHandler) CompleteReminder(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	h.dispatch(w, r, guild.CompleteReminder{ID: id})
}

func (h *GuildHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	h.dispatch(w, r, guild.DeleteBounty{ID: id})
}

func (h *GuildHandler) UpdateMeal(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 || index > 6 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "index must be 0-6"})
		return
	}

	var req struct {
		Meal string `json:"meal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	h.dispatch(w, r, guild.UpdateMeal{Index: index, Meal: req.Meal})
}

// dispatch sends the action fire-and-forget. Mutations are acknowledged with
// 202: the state only changes once the store echoes the update back.
func (h *GuildHandler) dispatch(w http.ResponseWriter, r *http.Request, action guild.Action) {
	if err := h.engine.Dispatch(r.Context(), action); err != nil {
		if errors.Is(err, guildsync.ErrNotLoaded) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "guild state not loaded yet"})
			return
		}
		h.logger.Error("dispatch failed", "action", guild.Name(action), "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "dispatch failed"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
