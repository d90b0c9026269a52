package guild

import (
	"math"

	"github.com/ebrown/guildhall/internal/model"
)

// FilterAll matches every assignee in the quest filters.
const FilterAll = "All"

// CleaningPercent is the rounded completion percentage across every cleaning
// quest, 0 when none exist.
func CleaningPercent(state model.GuildState) int {
	total, done := 0, 0
	for _, q := range state.Quests {
		if q.Category != model.CategoryCleaning {
			continue
		}
		total++
		if q.Status == model.StatusCompleted {
			done++
		}
	}
	return percent(done, total)
}

// RoomPercent is the completion percentage for quests in a single room.
func RoomPercent(state model.GuildState, room string) int {
	total, done := 0, 0
	for _, q := range state.Quests {
		if q.Room != room {
			continue
		}
		total++
		if q.Status == model.StatusCompleted {
			done++
		}
	}
	return percent(done, total)
}

// RoomCleared reports whether the room has cleaning quests and all of them
// are completed.
func RoomCleared(state model.GuildState, room string) bool {
	total := 0
	for _, q := range state.Quests {
		if q.Category != model.CategoryCleaning || q.Room != room {
			continue
		}
		total++
		if q.Status != model.StatusCompleted {
			return false
		}
	}
	return total > 0
}

// AllCleaningDone reports whether every cleaning quest across all rooms is
// completed (and at least one exists).
func AllCleaningDone(state model.GuildState) bool {
	total := 0
	for _, q := range state.Quests {
		if q.Category != model.CategoryCleaning {
			continue
		}
		total++
		if q.Status != model.StatusCompleted {
			return false
		}
	}
	return total > 0
}

// ActiveQuests returns non-cleaning, non-epic quests, restricted to the given
// assignee unless filter is FilterAll.
func ActiveQuests(state model.GuildState, filter string) []model.Quest {
	out := []model.Quest{}
	for _, q := range state.Quests {
		if q.Category == model.CategoryCleaning || q.Type == model.TypeEpic {
			continue
		}
		if filter != FilterAll && q.AssignedTo != filter {
			continue
		}
		out = append(out, q)
	}
	return out
}

// Epics returns epic quests under the same filter rule as ActiveQuests.
func Epics(state model.GuildState, filter string) []model.Quest {
	out := []model.Quest{}
	for _, q := range state.Quests {
		if q.Type != model.TypeEpic {
			continue
		}
		if filter != FilterAll && q.AssignedTo != filter {
			continue
		}
		out = append(out, q)
	}
	return out
}

// EpicPercent is the campaign progress percentage, capped at 100. A zero or
// absent target counts as 1 to avoid division by zero.
func EpicPercent(q model.Quest) int {
	target := q.TargetValue
	if target <= 0 {
		target = 1
	}
	p := int(math.Round(float64(q.CurrentValue) / float64(target) * 100))
	if p > 100 {
		p = 100
	}
	return p
}

// Level is the guild level: one level per 1000 shared XP.
func Level(state model.GuildState) int {
	return state.FamilyXP / 1000
}

// LevelProgress is the progress toward the next level as a percentage.
func LevelProgress(state model.GuildState) float64 {
	return float64(state.FamilyXP%1000) / 10
}

func percent(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
