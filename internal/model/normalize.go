package model

import "encoding/json"

// Normalize fills defaults for absent or malformed fields so downstream code
// never needs read-site fallbacks. It is applied to every snapshot received
// from the remote store and to migrated/imported documents.
func Normalize(s *GuildState) {
	if s.FamilyXP < 0 {
		s.FamilyXP = 0
	}
	if s.FamilyGold < 0 {
		s.FamilyGold = 0
	}
	if s.Members == nil {
		s.Members = DefaultState().Members
	}
	for i := range s.Members {
		if s.Members[i].GP < 0 {
			s.Members[i].GP = 0
		}
		if s.Members[i].Stats == nil {
			s.Members[i].Stats = map[string]int{}
		}
	}
	if s.Quests == nil {
		s.Quests = []Quest{}
	}
	for i := range s.Quests {
		q := &s.Quests[i]
		if q.Status == "" {
			q.Status = StatusActive
		}
		if q.Reward == 0 {
			q.Reward = 10
		}
		if q.XP == 0 {
			q.XP = 20
		}
		if q.CurrentValue < 0 {
			q.CurrentValue = 0
		}
		if q.TargetValue > 0 && q.CurrentValue > q.TargetValue {
			q.CurrentValue = q.TargetValue
		}
	}
	if s.Reminders == nil {
		s.Reminders = []Reminder{}
	}
	for i := range s.Reminders {
		if s.Reminders[i].Status == "" {
			s.Reminders[i].Status = StatusActive
		}
	}
	if s.ClaimedBonuses.Rooms == nil {
		s.ClaimedBonuses.Rooms = []string{}
	}
	if s.Rewards == nil {
		s.Rewards = map[string][]RewardItem{}
	}
	for owner, items := range s.Rewards {
		if items == nil {
			s.Rewards[owner] = []RewardItem{}
		}
	}
	normalizeMenu(s)
}

// normalizeMenu forces exactly seven slots with the fixed weekday labels.
func normalizeMenu(s *GuildState) {
	menu := make([]MealSlot, len(WeekDays))
	for i, d := range WeekDays {
		meal := "TBD"
		if i < len(s.Menu) && s.Menu[i].Meal != "" {
			meal = s.Menu[i].Meal
		}
		menu[i] = MealSlot{Day: d, Meal: meal}
	}
	s.Menu = menu
}

// Clone returns a deep copy of the state. The document is plain JSON data, so
// a marshal round-trip is the simplest faithful copy.
func Clone(s GuildState) GuildState {
	data, err := json.Marshal(s)
	if err != nil {
		return s
	}
	var out GuildState
	if err := json.Unmarshal(data, &out); err != nil {
		return s
	}
	return out
}
