package model

// Owner of a quest or reward list. Either OwnerFamily or a member ID.
const OwnerFamily = "Family"

// CategoryCleaning marks quests that belong to the sanctuary (room cleaning)
// board. The category field is otherwise free text.
const CategoryCleaning = "Cleaning"

// Quest types.
const (
	TypeDaily  = "daily"
	TypeWeekly = "weekly"
	TypeEpic   = "epic"
)

// Quest and reminder statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// TierCosts maps reward rarity to its gold cost at mint time. The cost is
// frozen on the reward when it is created; changing this table later does not
// reprice existing rewards.
var TierCosts = map[string]int{
	"Common":    10,
	"Unusual":   25,
	"Rare":      100,
	"Epic":      400,
	"Legendary": 1000,
	"Mythic":    2500,
}

// DefaultTierCost is used when a rarity is not in TierCosts.
const DefaultTierCost = 10

// Rooms is the canonical sanctuary room list.
var Rooms = []string{
	"Kitchen", "Upstairs Bath", "Downstairs Bath", "Laundry Room",
	"Dining Room", "Living Room", "Eric's Office", "Catie's Office",
	"Theatre Room", "Rory's Room", "Olive's Room", "Primary Bedroom", "General",
}

// WeekDays are the fixed labels of the seven menu slots.
var WeekDays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

type Member struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Class string         `json:"class"`
	GP    int            `json:"gp"`
	Stats map[string]int `json:"stats"`
	Color string         `json:"color,omitempty"`
}

type Quest struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Type          string `json:"type"`
	Category      string `json:"category"`
	AssignedTo    string `json:"assignedTo"`
	Status        string `json:"status"`
	Reward        int    `json:"reward"`
	XP            int    `json:"xp"`
	ResetsMonthly bool   `json:"resetsMonthly"`
	TargetValue   int    `json:"targetValue,omitempty"`
	CurrentValue  int    `json:"currentValue,omitempty"`
	Room          string `json:"room,omitempty"`
	Unit          string `json:"unit,omitempty"`
}

type Reminder struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Status string `json:"status"`
}

type RewardItem struct {
	Label  string `json:"label"`
	Cost   int    `json:"cost"`
	Rarity string `json:"rarity"`
}

type MealSlot struct {
	Day  string `json:"day"`
	Meal string `json:"meal"`
}

type ClaimedBonuses struct {
	Rooms     []string `json:"rooms"`
	Sanctuary bool     `json:"sanctuary"`
}

// GuildState is the single shared document mirrored to the remote store.
type GuildState struct {
	FamilyXP       int                     `json:"familyXP"`
	FamilyGold     int                     `json:"familyGold"`
	Members        []Member                `json:"members"`
	Quests         []Quest                 `json:"quests"`
	Reminders      []Reminder              `json:"reminders"`
	ClaimedBonuses ClaimedBonuses          `json:"claimedBonuses"`
	Rewards        map[string][]RewardItem `json:"rewards"`
	Menu           []MealSlot              `json:"menu"`
}

// TierCost returns the gold cost for a rarity, falling back to DefaultTierCost.
func TierCost(rarity string) int {
	if c, ok := TierCosts[rarity]; ok {
		return c
	}
	return DefaultTierCost
}

// DefaultState returns the seed document for a fresh install.
func DefaultState() GuildState {
	menu := make([]MealSlot, len(WeekDays))
	for i, d := range WeekDays {
		menu[i] = MealSlot{Day: d, Meal: "TBD"}
	}
	return GuildState{
		Members: []Member{
			{ID: "Eric", Name: "Eric", Class: "Architect", Stats: map[string]int{"Fortune": 1, "Wisdom": 1, "Vitality": 1}, Color: "blue"},
			{ID: "Catie", Name: "Catie", Class: "Alchemist", Stats: map[string]int{"Harmony": 1, "Wisdom": 1, "Vitality": 1}, Color: "purple"},
			{ID: "Rory", Name: "Rory", Class: "Squire", Stats: map[string]int{"Order": 1, "Study": 1}, Color: "orange"},
			{ID: "Olive", Name: "Olive", Class: "Scout", Stats: map[string]int{"Grit": 1, "Order": 1}, Color: "pink"},
		},
		Quests:         []Quest{},
		Reminders:      []Reminder{},
		ClaimedBonuses: ClaimedBonuses{Rooms: []string{}},
		Rewards: map[string][]RewardItem{
			OwnerFamily: {}, "Eric": {}, "Catie": {}, "Rory": {}, "Olive": {},
		},
		Menu: menu,
	}
}
