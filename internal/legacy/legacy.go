// Package legacy reads the v1 on-device state for the one-shot migration to
// the remote document. The v1 app persisted one row per key in a key/value
// table, numbers as plain text and everything else as JSON.
package legacy

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ebrown/guildhall/internal/model"
)

const (
	keyXP        = "familyXP"
	keyGold      = "familyGold"
	keyMembers   = "familyMembers"
	keyQuests    = "familyQuests"
	keyReminders = "familyReminders"
	keyBonuses   = "claimedBonuses"
	keyRewards   = "familyRewardsStore"
	keyMenu      = "familyMenu"
)

type Reader struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewReader(db *sql.DB, logger *slog.Logger) *Reader {
	return &Reader{db: db, logger: logger}
}

// Read returns the legacy state overlaid on the given defaults, or nil when
// no legacy install exists. Presence is keyed on familyXP, matching the v1
// persistence behavior: it was always written first.
func (r *Reader) Read(defaults model.GuildState) (*model.GuildState, error) {
	values, err := r.readAll()
	if err != nil {
		return nil, err
	}
	if _, ok := values[keyXP]; !ok {
		return nil, nil
	}

	state := model.Clone(defaults)
	state.FamilyXP = r.intValue(values, keyXP)
	state.FamilyGold = r.intValue(values, keyGold)
	jsonValue(r.logger, values, keyMembers, &state.Members)
	jsonValue(r.logger, values, keyQuests, &state.Quests)
	jsonValue(r.logger, values, keyReminders, &state.Reminders)
	jsonValue(r.logger, values, keyBonuses, &state.ClaimedBonuses)
	jsonValue(r.logger, values, keyRewards, &state.Rewards)
	jsonValue(r.logger, values, keyMenu, &state.Menu)

	model.Normalize(&state)
	return &state, nil
}

func (r *Reader) readAll() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT key, value FROM legacy_state`)
	if err != nil {
		return nil, fmt.Errorf("read legacy state: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan legacy row: %w", err)
		}
		values[key] = value
	}
	return values, rows.Err()
}

func (r *Reader) intValue(values map[string]string, key string) int {
	raw, ok := values[key]
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		r.logger.Warn("ignoring malformed legacy value", "key", key, "value", raw)
		return 0
	}
	return n
}

// jsonValue assigns target only on a clean parse. Decoding goes through a
// scratch value so a mid-document error cannot leave target half filled; a
// malformed value is logged and the default left in place.
func jsonValue[T any](logger *slog.Logger, values map[string]string, key string, target *T) {
	raw, ok := values[key]
	if !ok {
		return
	}
	var parsed T
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		logger.Warn("ignoring malformed legacy value", "key", key, "error", err)
		return
	}
	*target = parsed
}
