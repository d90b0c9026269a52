package handler

import (
	"net/http"

	"github.com/ebrown/guildhall/internal/guild"
	"github.com/ebrown/guildhall/internal/model"
)

type roomView struct {
	Room         string `json:"room"`
	Percent      int    `json:"percent"`
	Cleared      bool   `json:"cleared"`
	BonusClaimed bool   `json:"bonusClaimed"`
}

type epicView struct {
	model.Quest
	Percent int `json:"percent"`
}

type viewsResponse struct {
	Filter          string        `json:"filter"`
	Level           int           `json:"level"`
	LevelProgress   float64       `json:"levelProgress"`
	CleaningPercent int           `json:"cleaningPercent"`
	SanctuaryDone   bool          `json:"sanctuaryDone"`
	Rooms           []roomView    `json:"rooms"`
	ActiveQuests    []model.Quest `json:"activeQuests"`
	Epics           []epicView    `json:"epics"`
}

// Views returns the derived projections, recomputed from the cached state on
// every call.
func (h *GuildHandler) Views(w http.ResponseWriter, r *http.Request) {
	state, loaded := h.engine.State()
	if !loaded {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "guild state not loaded yet"})
		return
	}

	filter := r.URL.Query().Get("filter")
	if filter == "" {
		filter = guild.FilterAll
	}

	rooms := make([]roomView, 0, len(model.Rooms))
	for _, room := range model.Rooms {
		claimed := false
		for _, c := range state.ClaimedBonuses.Rooms {
			if c == room {
				claimed = true
				break
			}
		}
		rooms = append(rooms, roomView{
			Room:         room,
			Percent:      guild.RoomPercent(state, room),
			Cleared:      guild.RoomCleared(state, room),
			BonusClaimed: claimed,
		})
	}

	epics := []epicView{}
	for _, q := range guild.Epics(state, filter) {
		epics = append(epics, epicView{Quest: q, Percent: guild.EpicPercent(q)})
	}

	writeJSON(w, http.StatusOK, viewsResponse{
		Filter:          filter,
		Level:           guild.Level(state),
		LevelProgress:   guild.LevelProgress(state),
		CleaningPercent: guild.CleaningPercent(state),
		SanctuaryDone:   guild.AllCleaningDone(state),
		Rooms:           rooms,
		ActiveQuests:    guild.ActiveQuests(state, filter),
		Epics:           epics,
	})
}
