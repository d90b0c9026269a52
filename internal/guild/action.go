package guild

// Action is a user intent against the shared guild document. Each action is
// applied by Apply, which turns it into a partial update of the top-level
// document fields that changed.
type Action interface {
	actionName() string
}

type CompleteQuest struct {
	ID int64
}

type UpdateEpicProgress struct {
	ID     int64
	Amount int
}

type ClaimRoomBonus struct {
	Room string
}

type ClaimSanctuaryBonus struct{}

type MonthlyReset struct{}

type AddQuest struct {
	Title         string
	Description   string
	Type          string
	Category      string
	AssignedTo    string
	ResetsMonthly bool
	TargetValue   int
	Unit          string
}

type AddCleaningTask struct {
	Title string
	Room  string
	Type  string
}

type AddReward struct {
	Owner  string
	Label  string
	Rarity string
}

type AddBounty struct {
	Text string
}

type DeleteQuest struct {
	ID int64
}

type DeleteReward struct {
	Owner string
	Label string
}

type DeleteBounty struct {
	ID int64
}

type CompleteReminder struct {
	ID int64
}

type UpdateMeal struct {
	Index int
	Meal  string
}

func (CompleteQuest) actionName() string       { return "complete_quest" }
func (UpdateEpicProgress) actionName() string  { return "update_epic_progress" }
func (ClaimRoomBonus) actionName() string      { return "claim_room_bonus" }
func (ClaimSanctuaryBonus) actionName() string { return "claim_sanctuary_bonus" }
func (MonthlyReset) actionName() string        { return "monthly_reset" }
func (AddQuest) actionName() string            { return "add_quest" }
func (AddCleaningTask) actionName() string     { return "add_cleaning_task" }
func (AddReward) actionName() string           { return "add_reward" }
func (AddBounty) actionName() string           { return "add_bounty" }
func (DeleteQuest) actionName() string         { return "delete_quest" }
func (DeleteReward) actionName() string        { return "delete_reward" }
func (DeleteBounty) actionName() string        { return "delete_bounty" }
func (CompleteReminder) actionName() string    { return "complete_reminder" }
func (UpdateMeal) actionName() string          { return "update_meal" }

// Name returns a stable identifier for logging.
func Name(a Action) string {
	if a == nil {
		return "none"
	}
	return a.actionName()
}
