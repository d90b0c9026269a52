package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/ebrown/guildhall/internal/archive"
	"github.com/ebrown/guildhall/internal/auth"
	"github.com/ebrown/guildhall/internal/docstore"
	"github.com/ebrown/guildhall/internal/model"
	guildsync "github.com/ebrown/guildhall/internal/sync"
	ws "github.com/ebrown/guildhall/internal/websocket"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := docstore.NewMemoryStore()
	hub := ws.NewHub(logger)
	engine := guildsync.New(store, nil, logger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go engine.Run(ctx)

	archiveMgr := archive.NewManager(archive.Config{}, engine, nil, logger)
	srv := New(engine, hub, archiveMgr, auth.NewSessions(""), logger)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	// Wait for the seed document to load.
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(ts.URL + "/api/state")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return ts
		}
		if time.Now().After(deadline) {
			t.Fatal("state never loaded")
		}
		time.Sleep(time.Millisecond)
	}
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getState(t *testing.T, ts *httptest.Server) model.GuildState {
	t.Helper()
	resp, err := http.Get(ts.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/state = %d", resp.StatusCode)
	}
	var state model.GuildState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatal(err)
	}
	return state
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestQuestLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, "POST", ts.URL+"/api/quests", map[string]any{"title": "Dishes"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("create quest = %d, want 202", resp.StatusCode)
	}

	state := getState(t, ts)
	if len(state.Quests) != 1 {
		t.Fatalf("got %d quests, want 1", len(state.Quests))
	}
	id := state.Quests[0].ID

	resp = doJSON(t, "POST", ts.URL+"/api/quests/"+strconv.FormatInt(id, 10)+"/complete", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("complete quest = %d, want 202", resp.StatusCode)
	}

	state = getState(t, ts)
	if state.Quests[0].Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", state.Quests[0].Status)
	}
	if state.FamilyXP != 20 || state.FamilyGold != 10 {
		t.Errorf("balances = %d/%d, want 20/10", state.FamilyXP, state.FamilyGold)
	}

	resp = doJSON(t, "DELETE", ts.URL+"/api/quests/"+strconv.FormatInt(id, 10), nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("delete quest = %d, want 202", resp.StatusCode)
	}
	if state = getState(t, ts); len(state.Quests) != 0 {
		t.Errorf("got %d quests after delete, want 0", len(state.Quests))
	}
}

func TestQuestValidation(t *testing.T) {
	ts := newTestServer(t)

	if resp := doJSON(t, "POST", ts.URL+"/api/quests", map[string]any{"title": "  "}); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("blank title = %d, want 400", resp.StatusCode)
	}
	if resp := doJSON(t, "POST", ts.URL+"/api/quests/abc/complete", nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", resp.StatusCode)
	}
	if resp := doJSON(t, "POST", ts.URL+"/api/quests/1/progress", map[string]any{"amount": 0}); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("zero amount = %d, want 400", resp.StatusCode)
	}
}

func TestCleaningBoardAndBonuses(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, "POST", ts.URL+"/api/quests/cleaning", map[string]any{"title": "Wipe counters", "room": "Kitchen"})
	state := getState(t, ts)
	id := state.Quests[0].ID
	doJSON(t, "POST", ts.URL+"/api/quests/"+strconv.FormatInt(id, 10)+"/complete", nil)

	resp := doJSON(t, "POST", ts.URL+"/api/bonuses/room", map[string]any{"room": "Kitchen"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("room bonus = %d, want 202", resp.StatusCode)
	}
	state = getState(t, ts)
	if state.FamilyGold != 10+50 {
		t.Errorf("familyGold = %d, want 60 after task and room bonus", state.FamilyGold)
	}
	if len(state.ClaimedBonuses.Rooms) != 1 {
		t.Errorf("claimed rooms = %v, want [Kitchen]", state.ClaimedBonuses.Rooms)
	}

	doJSON(t, "POST", ts.URL+"/api/bonuses/sanctuary", nil)
	state = getState(t, ts)
	if !state.ClaimedBonuses.Sanctuary {
		t.Error("sanctuary bonus not claimed")
	}

	doJSON(t, "POST", ts.URL+"/api/reset", nil)
	state = getState(t, ts)
	if state.Quests[0].Status != model.StatusActive {
		t.Error("monthly reset did not reopen the cleaning quest")
	}
	if len(state.ClaimedBonuses.Rooms) != 0 || state.ClaimedBonuses.Sanctuary {
		t.Errorf("claimedBonuses = %+v, want cleared", state.ClaimedBonuses)
	}
}

func TestViews(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, "POST", ts.URL+"/api/quests", map[string]any{"title": "Campaign", "type": "epic", "assignedTo": "Olive", "targetValue": 10})
	doJSON(t, "POST", ts.URL+"/api/quests", map[string]any{"title": "Dishes"})

	resp, err := http.Get(ts.URL + "/api/views?filter=Olive")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var views struct {
		Filter       string `json:"filter"`
		ActiveQuests []any  `json:"activeQuests"`
		Epics        []struct {
			Percent int `json:"percent"`
		} `json:"epics"`
		Rooms []any `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&views); err != nil {
		t.Fatal(err)
	}

	if views.Filter != "Olive" {
		t.Errorf("filter = %q, want Olive", views.Filter)
	}
	if len(views.ActiveQuests) != 0 {
		t.Errorf("activeQuests = %d, want 0 for Olive", len(views.ActiveQuests))
	}
	if len(views.Epics) != 1 || views.Epics[0].Percent != 0 {
		t.Errorf("epics = %+v, want one at 0%%", views.Epics)
	}
	if len(views.Rooms) != len(model.Rooms) {
		t.Errorf("got %d rooms, want %d", len(views.Rooms), len(model.Rooms))
	}
}

func TestRemindersAndMenu(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, "POST", ts.URL+"/api/reminders", map[string]any{"text": "Buy milk"})
	state := getState(t, ts)
	if len(state.Reminders) != 1 {
		t.Fatalf("got %d reminders, want 1", len(state.Reminders))
	}
	id := state.Reminders[0].ID

	doJSON(t, "POST", ts.URL+"/api/reminders/"+strconv.FormatInt(id, 10)+"/complete", nil)
	state = getState(t, ts)
	if state.FamilyGold != 10 {
		t.Errorf("familyGold = %d, want 10", state.FamilyGold)
	}

	doJSON(t, "DELETE", ts.URL+"/api/reminders/"+strconv.FormatInt(id, 10), nil)
	if state = getState(t, ts); len(state.Reminders) != 0 {
		t.Errorf("got %d reminders after delete, want 0", len(state.Reminders))
	}

	doJSON(t, "PUT", ts.URL+"/api/menu/2", map[string]any{"meal": "Tacos"})
	state = getState(t, ts)
	if state.Menu[2].Meal != "Tacos" {
		t.Errorf("menu slot = %+v, want Tacos", state.Menu[2])
	}
	if resp := doJSON(t, "PUT", ts.URL+"/api/menu/9", map[string]any{"meal": "Pizza"}); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("out-of-range slot = %d, want 400", resp.StatusCode)
	}
}

func TestRewards(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, "POST", ts.URL+"/api/rewards", map[string]any{"owner": "Rory", "label": "Movie night", "rarity": "Rare"})
	state := getState(t, ts)
	if items := state.Rewards["Rory"]; len(items) != 1 || items[0].Cost != 100 {
		t.Fatalf("rewards = %+v, want Movie night at 100", items)
	}

	resp := doJSON(t, "DELETE", ts.URL+"/api/rewards?owner=Rory&label=Movie+night", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("delete reward = %d, want 202", resp.StatusCode)
	}
	state = getState(t, ts)
	if items := state.Rewards["Rory"]; len(items) != 0 {
		t.Errorf("rewards = %+v, want empty", items)
	}
}

func TestLedgerRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	doJSON(t, "POST", ts.URL+"/api/reminders", map[string]any{"text": "Buy milk"})

	resp, err := http.Get(ts.URL + "/api/ledger")
	if err != nil {
		t.Fatal(err)
	}
	ledger, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export = %d, want 200", resp.StatusCode)
	}

	// Wipe, then restore.
	if resp := doJSON(t, "POST", ts.URL+"/api/ledger", map[string]any{"familyXP": 0}); resp.StatusCode != http.StatusOK {
		t.Fatalf("wipe import = %d, want 200", resp.StatusCode)
	}
	if state := getState(t, ts); len(state.Reminders) != 0 {
		t.Fatal("wipe did not clear reminders")
	}

	req, _ := http.NewRequest("POST", ts.URL+"/api/ledger", bytes.NewReader(ledger))
	restoreResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	restoreResp.Body.Close()
	if restoreResp.StatusCode != http.StatusOK {
		t.Fatalf("restore = %d, want 200", restoreResp.StatusCode)
	}
	if state := getState(t, ts); len(state.Reminders) != 1 {
		t.Error("restore did not bring the reminder back")
	}
}

func TestLedgerImportBadJSON(t *testing.T) {
	ts := newTestServer(t)

	req, _ := http.NewRequest("POST", ts.URL+"/api/ledger", bytes.NewReader([]byte("not json")))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad import = %d, want 400", resp.StatusCode)
	}
}

func TestArchiveDisabled(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/ledger/archive")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var status archive.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.State != archive.StateDisabled {
		t.Errorf("state = %q, want disabled", status.State)
	}

	if resp := doJSON(t, "POST", ts.URL+"/api/ledger/archive", nil); resp.StatusCode != http.StatusConflict {
		t.Errorf("archive now = %d, want 409 when disabled", resp.StatusCode)
	}
}

func TestLoginWithoutPasscode(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, "POST", ts.URL+"/login", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("login = %d, want 200 when the gate is open", resp.StatusCode)
	}
}
