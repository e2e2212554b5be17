package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/dmelim/matebot/internal/engine"
	"github.com/dmelim/matebot/internal/service/cache"
	"github.com/dmelim/matebot/internal/service/game"
	"github.com/dmelim/matebot/pkg/botdto"
	"github.com/redis/go-redis/v9"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func newTestServer(t *testing.T) (*httptest.Server, *WatchHub) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cacheSvc, err := cache.NewCacheService(rdb, nil)
	if err != nil {
		t.Fatalf("NewCacheService: %v", err)
	}

	hub := NewWatchHub()
	eng := engine.NewEngine(engine.WithProgress(hub.Publish))
	eng.SetRandomSeed(11)

	svc, err := game.NewService(eng, cacheSvc, game.NewMemoryRepository(), game.Config{
		DefaultPreset: "level1",
		SessionTTL:    time.Hour,
		HistoryLimit:  10,
	}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	srv, err := New(":0", svc, hub, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, hub
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any, dest any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			t.Fatalf("decode %s response: %v", path, err)
		}
	}
	return resp
}

func getJSON(t *testing.T, ts *httptest.Server, path string, dest any) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			t.Fatalf("decode %s response: %v", path, err)
		}
	}
	return resp
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	var body map[string]string
	resp := getJSON(t, ts, "/healthz", &body)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthz: %d %v", resp.StatusCode, body)
	}
}

func TestPresets(t *testing.T) {
	ts, _ := newTestServer(t)
	var body botdto.PresetsResponse
	getJSON(t, ts, "/api/presets", &body)
	if len(body.Presets) != 5 {
		t.Fatalf("presets: %+v", body.Presets)
	}
	if body.Presets[0].Name != "level1" || body.Presets[0].Depth != 1 {
		t.Errorf("first preset: %+v", body.Presets[0])
	}
}

func TestStartAndPlayFlow(t *testing.T) {
	ts, _ := newTestServer(t)

	var started botdto.StartSessionResponse
	resp := postJSON(t, ts, "/api/game/start", botdto.StartSessionRequest{PlayerID: "alice", DisplayName: "Alice"}, &started)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status = %d", resp.StatusCode)
	}
	if started.Resumed || started.State == nil || started.State.Preset != "level1" {
		t.Fatalf("start response: %+v", started)
	}

	// Starting again resumes.
	var resumed botdto.StartSessionResponse
	resp = postJSON(t, ts, "/api/game/start", botdto.StartSessionRequest{PlayerID: "alice"}, &resumed)
	if resp.StatusCode != http.StatusOK || !resumed.Resumed {
		t.Fatalf("resume: %d %+v", resp.StatusCode, resumed)
	}

	var played botdto.PlayResponse
	resp = postJSON(t, ts, "/api/game/move", botdto.PlayRequest{PlayerID: "alice", Move: "e4"}, &played)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("move status = %d", resp.StatusCode)
	}
	if played.Summary == nil || played.Summary.EngineUCI == "" {
		t.Fatalf("move response: %+v", played)
	}
	if played.Summary.EngineInfo == nil || played.Summary.EngineInfo.Depth != 1 {
		t.Errorf("engine info: %+v", played.Summary.EngineInfo)
	}

	var status botdto.StatusResponse
	getJSON(t, ts, "/api/game/status?player_id=alice", &status)
	if status.State == nil || status.State.MoveCount != 2 {
		t.Fatalf("status: %+v", status.State)
	}
}

func TestErrorMapping(t *testing.T) {
	ts, _ := newTestServer(t)

	var derr botdto.DomainError
	resp := getJSON(t, ts, "/api/game/status?player_id=nobody", &derr)
	if resp.StatusCode != http.StatusNotFound || derr.Code != "not_found" {
		t.Fatalf("missing session: %d %+v", resp.StatusCode, derr)
	}

	postJSON(t, ts, "/api/game/start", botdto.StartSessionRequest{PlayerID: "bob"}, nil)
	derr = botdto.DomainError{}
	resp = postJSON(t, ts, "/api/game/move", botdto.PlayRequest{PlayerID: "bob", Move: "xx"}, &derr)
	if resp.StatusCode != http.StatusBadRequest || derr.Code != "bad_request" {
		t.Fatalf("invalid move: %d %+v", resp.StatusCode, derr)
	}

	derr = botdto.DomainError{}
	resp = postJSON(t, ts, "/api/game/undo", botdto.UndoRequest{PlayerID: "bob"}, &derr)
	if resp.StatusCode != http.StatusConflict || derr.Code != "conflict" {
		t.Fatalf("undo on fresh game: %d %+v", resp.StatusCode, derr)
	}

	derr = botdto.DomainError{}
	resp = getJSON(t, ts, "/api/game/record?player_id=bob&id=0", &derr)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad record id: %d %+v", resp.StatusCode, derr)
	}
}

func TestResignHistoryProfile(t *testing.T) {
	ts, _ := newTestServer(t)

	postJSON(t, ts, "/api/game/start", botdto.StartSessionRequest{PlayerID: "carol"}, nil)
	postJSON(t, ts, "/api/game/move", botdto.PlayRequest{PlayerID: "carol", Move: "d4"}, nil)

	var resigned botdto.ResignResponse
	resp := postJSON(t, ts, "/api/game/resign", botdto.ResignRequest{PlayerID: "carol"}, &resigned)
	if resp.StatusCode != http.StatusOK || resigned.State == nil {
		t.Fatalf("resign: %d %+v", resp.StatusCode, resigned)
	}
	if resigned.State.Outcome == "" {
		t.Error("resigned state has no outcome")
	}

	var history botdto.HistoryResponse
	getJSON(t, ts, "/api/game/history?player_id=carol", &history)
	if len(history.Games) != 1 || history.Games[0].Result != "loss" {
		t.Fatalf("history: %+v", history.Games)
	}

	var record botdto.GameResponse
	getJSON(t, ts, "/api/game/record?player_id=carol&id=1", &record)
	if record.Game == nil || record.Game.ID != history.Games[0].ID {
		t.Fatalf("record: %+v", record.Game)
	}

	var profile botdto.ProfileResponse
	resp = getJSON(t, ts, "/api/profile?player_id=carol", &profile)
	if resp.StatusCode != http.StatusOK || profile.Profile == nil || profile.Profile.Losses != 1 {
		t.Fatalf("profile: %d %+v", resp.StatusCode, profile.Profile)
	}
}

func TestUpdatePreset(t *testing.T) {
	ts, _ := newTestServer(t)

	var updated botdto.UpdatePresetResponse
	resp := postJSON(t, ts, "/api/profile/preset", botdto.UpdatePresetRequest{PlayerID: "dave", Preset: "level3"}, &updated)
	if resp.StatusCode != http.StatusOK || updated.Profile == nil || updated.Profile.PreferredPreset != "level3" {
		t.Fatalf("update preset: %d %+v", resp.StatusCode, updated.Profile)
	}
}

func TestWatchStreamsCandidates(t *testing.T) {
	ts, hub := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/watch"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// Publishing before the subscriber loop runs would race; poll until the
	// hub sees the subscription.
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.mu.RLock()
		n := len(hub.subs)
		hub.mu.RUnlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	postJSON(t, ts, "/api/game/start", botdto.StartSessionRequest{PlayerID: "eve"}, nil)
	postJSON(t, ts, "/api/game/move", botdto.PlayRequest{PlayerID: "eve", Move: "e4"}, nil)

	var event botdto.CandidateScore
	if err := wsjson.Read(ctx, conn, &event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.MoveUCI == "" {
		t.Fatalf("empty candidate event: %+v", event)
	}
}
