package guild

import (
	"strings"
	"time"

	"github.com/ebrown/guildhall/internal/model"
)

// Update is a partial document: only the top-level fields an action changed.
// An empty Update means the action was a no-op (precondition not met).
type Update map[string]any

// Apply maps an action against the current (normalized, read-only) state to a
// partial update. It never mutates state; failed preconditions yield an empty
// update rather than an error.
func Apply(state model.GuildState, action Action, now time.Time) Update {
	switch a := action.(type) {
	case CompleteQuest:
		return applyCompleteQuest(state, a)
	case UpdateEpicProgress:
		return applyEpicProgress(state, a)
	case ClaimRoomBonus:
		return applyRoomBonus(state, a)
	case ClaimSanctuaryBonus:
		return applySanctuaryBonus(state)
	case MonthlyReset:
		return applyMonthlyReset(state)
	case AddQuest:
		return applyAddQuest(state, a, now)
	case AddCleaningTask:
		return applyAddCleaningTask(state, a, now)
	case AddReward:
		return applyAddReward(state, a)
	case AddBounty:
		return applyAddBounty(state, a, now)
	case DeleteQuest:
		return applyDeleteQuest(state, a)
	case DeleteReward:
		return applyDeleteReward(state, a)
	case DeleteBounty:
		return applyDeleteBounty(state, a)
	case CompleteReminder:
		return applyCompleteReminder(state, a)
	case UpdateMeal:
		return applyUpdateMeal(state, a)
	}
	return Update{}
}

func applyCompleteQuest(state model.GuildState, a CompleteQuest) Update {
	quest, ok := findQuest(state.Quests, a.ID)
	if !ok || quest.Status == model.StatusCompleted {
		return Update{}
	}

	quests := cloneQuests(state.Quests)
	for i := range quests {
		if quests[i].ID == a.ID {
			quests[i].Status = model.StatusCompleted
		}
	}

	update := Update{
		"quests":   quests,
		"familyXP": state.FamilyXP + quest.XP,
	}
	if quest.AssignedTo == model.OwnerFamily {
		update["familyGold"] = state.FamilyGold + quest.Reward
	} else {
		members := cloneMembers(state.Members)
		for i := range members {
			if members[i].ID == quest.AssignedTo {
				members[i].GP += quest.Reward
			}
		}
		update["members"] = members
	}
	return update
}

func applyEpicProgress(state model.GuildState, a UpdateEpicProgress) Update {
	quest, ok := findQuest(state.Quests, a.ID)
	if !ok || quest.Type != model.TypeEpic || a.Amount <= 0 {
		return Update{}
	}

	target := quest.TargetValue
	if target <= 0 {
		target = 10
	}
	next := quest.CurrentValue + a.Amount
	if next > target {
		next = target
	}
	if next == quest.CurrentValue {
		return Update{}
	}

	quests := cloneQuests(state.Quests)
	for i := range quests {
		if quests[i].ID == a.ID {
			quests[i].CurrentValue = next
		}
	}
	return Update{"quests": quests}
}

func applyRoomBonus(state model.GuildState, a ClaimRoomBonus) Update {
	for _, r := range state.ClaimedBonuses.Rooms {
		if r == a.Room {
			return Update{}
		}
	}
	if !RoomCleared(state, a.Room) {
		return Update{}
	}

	claimed := state.ClaimedBonuses
	claimed.Rooms = append(append([]string{}, state.ClaimedBonuses.Rooms...), a.Room)
	return Update{
		"familyGold":     state.FamilyGold + 50,
		"familyXP":       state.FamilyXP + 100,
		"claimedBonuses": claimed,
	}
}

func applySanctuaryBonus(state model.GuildState) Update {
	if state.ClaimedBonuses.Sanctuary || !AllCleaningDone(state) {
		return Update{}
	}

	claimed := state.ClaimedBonuses
	claimed.Rooms = append([]string{}, state.ClaimedBonuses.Rooms...)
	claimed.Sanctuary = true
	return Update{
		"familyGold":     state.FamilyGold + 500,
		"familyXP":       state.FamilyXP + 1000,
		"claimedBonuses": claimed,
	}
}

func applyMonthlyReset(state model.GuildState) Update {
	quests := cloneQuests(state.Quests)
	for i := range quests {
		switch {
		case quests[i].Category == model.CategoryCleaning:
			quests[i].Status = model.StatusActive
		case quests[i].ResetsMonthly:
			quests[i].Status = model.StatusActive
			quests[i].CurrentValue = 0
		}
	}
	return Update{
		"quests":         quests,
		"claimedBonuses": model.ClaimedBonuses{Rooms: []string{}},
	}
}

func applyAddQuest(state model.GuildState, a AddQuest, now time.Time) Update {
	title := strings.TrimSpace(a.Title)
	if title == "" {
		return Update{}
	}

	questType := a.Type
	if questType == "" {
		questType = model.TypeDaily
	}
	category := a.Category
	if category == "" {
		category = "Personal"
	}
	assignedTo := a.AssignedTo
	if assignedTo == "" {
		assignedTo = model.OwnerFamily
	}
	reward := 100
	if questType == model.TypeDaily {
		reward = 10
	}

	quest := model.Quest{
		ID:            nextQuestID(state.Quests, now),
		Title:         title,
		Description:   a.Description,
		Type:          questType,
		Category:      category,
		AssignedTo:    assignedTo,
		Status:        model.StatusActive,
		Reward:        reward,
		XP:            20,
		ResetsMonthly: a.ResetsMonthly,
		TargetValue:   a.TargetValue,
		Unit:          a.Unit,
	}
	return Update{"quests": append(cloneQuests(state.Quests), quest)}
}

func applyAddCleaningTask(state model.GuildState, a AddCleaningTask, now time.Time) Update {
	title := strings.TrimSpace(a.Title)
	if title == "" {
		return Update{}
	}

	room := a.Room
	if room == "" {
		room = "General"
	}
	taskType := a.Type
	if taskType == "" {
		taskType = model.TypeDaily
	}

	quest := model.Quest{
		ID:          nextQuestID(state.Quests, now),
		Title:       title,
		Description: strings.ToUpper(taskType[:1]),
		Type:        taskType,
		Category:    model.CategoryCleaning,
		AssignedTo:  model.OwnerFamily,
		Status:      model.StatusActive,
		Reward:      10,
		XP:          10,
		Room:        room,
	}
	return Update{"quests": append(cloneQuests(state.Quests), quest)}
}

func applyAddReward(state model.GuildState, a AddReward) Update {
	label := strings.TrimSpace(a.Label)
	if label == "" {
		return Update{}
	}

	owner := a.Owner
	if owner == "" {
		owner = model.OwnerFamily
	}

	rewards := cloneRewards(state.Rewards)
	rewards[owner] = append(rewards[owner], model.RewardItem{
		Label:  label,
		Cost:   model.TierCost(a.Rarity),
		Rarity: a.Rarity,
	})
	return Update{"rewards": rewards}
}

func applyAddBounty(state model.GuildState, a AddBounty, now time.Time) Update {
	text := strings.TrimSpace(a.Text)
	if text == "" {
		return Update{}
	}

	reminder := model.Reminder{
		ID:     nextReminderID(state.Reminders, now),
		Text:   text,
		Status: model.StatusActive,
	}
	reminders := append(cloneReminders(state.Reminders), reminder)
	return Update{"reminders": reminders}
}

func applyDeleteQuest(state model.GuildState, a DeleteQuest) Update {
	if _, ok := findQuest(state.Quests, a.ID); !ok {
		return Update{}
	}
	quests := make([]model.Quest, 0, len(state.Quests)-1)
	for _, q := range state.Quests {
		if q.ID != a.ID {
			quests = append(quests, q)
		}
	}
	return Update{"quests": quests}
}

func applyDeleteReward(state model.GuildState, a DeleteReward) Update {
	items, ok := state.Rewards[a.Owner]
	if !ok {
		return Update{}
	}
	found := false
	kept := make([]model.RewardItem, 0, len(items))
	for _, item := range items {
		if item.Label == a.Label {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if !found {
		return Update{}
	}
	rewards := cloneRewards(state.Rewards)
	rewards[a.Owner] = kept
	return Update{"rewards": rewards}
}

func applyDeleteBounty(state model.GuildState, a DeleteBounty) Update {
	found := false
	reminders := make([]model.Reminder, 0, len(state.Reminders))
	for _, r := range state.Reminders {
		if r.ID == a.ID {
			found = true
			continue
		}
		reminders = append(reminders, r)
	}
	if !found {
		return Update{}
	}
	return Update{"reminders": reminders}
}

func applyCompleteReminder(state model.GuildState, a CompleteReminder) Update {
	var target *model.Reminder
	for i := range state.Reminders {
		if state.Reminders[i].ID == a.ID {
			target = &state.Reminders[i]
		}
	}
	if target == nil || target.Status == model.StatusCompleted {
		return Update{}
	}

	reminders := cloneReminders(state.Reminders)
	for i := range reminders {
		if reminders[i].ID == a.ID {
			reminders[i].Status = model.StatusCompleted
		}
	}
	return Update{
		"reminders":  reminders,
		"familyGold": state.FamilyGold + 10,
	}
}

func applyUpdateMeal(state model.GuildState, a UpdateMeal) Update {
	if a.Index < 0 || a.Index >= len(state.Menu) {
		return Update{}
	}
	menu := make([]model.MealSlot, len(state.Menu))
	copy(menu, state.Menu)
	menu[a.Index].Meal = a.Meal
	return Update{"menu": menu}
}

func findQuest(quests []model.Quest, id int64) (model.Quest, bool) {
	for _, q := range quests {
		if q.ID == id {
			return q, true
		}
	}
	return model.Quest{}, false
}

// nextQuestID derives a creation-time ID (unix milliseconds), bumped past any
// collision so IDs stay unique within the sequence.
func nextQuestID(quests []model.Quest, now time.Time) int64 {
	id := now.UnixMilli()
	for {
		taken := false
		for _, q := range quests {
			if q.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
		id++
	}
}

func nextReminderID(reminders []model.Reminder, now time.Time) int64 {
	id := now.UnixMilli()
	for {
		taken := false
		for _, r := range reminders {
			if r.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
		id++
	}
}

func cloneQuests(quests []model.Quest) []model.Quest {
	out := make([]model.Quest, len(quests))
	copy(out, quests)
	return out
}

func cloneMembers(members []model.Member) []model.Member {
	out := make([]model.Member, len(members))
	copy(out, members)
	return out
}

func cloneReminders(reminders []model.Reminder) []model.Reminder {
	out := make([]model.Reminder, len(reminders))
	copy(out, reminders)
	return out
}

func cloneRewards(rewards map[string][]model.RewardItem) map[string][]model.RewardItem {
	out := make(map[string][]model.RewardItem, len(rewards))
	for owner, items := range rewards {
		out[owner] = append([]model.RewardItem{}, items...)
	}
	return out
}
