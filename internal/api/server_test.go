package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/talgya/freightline/internal/sim"
	"github.com/talgya/freightline/internal/worldmap"
)

func newTestServer(adminKey string) (*Server, http.Handler) {
	s := sim.New(sim.Config{Seed: 5, TimeScale: 1, StartingBalance: 50000})
	s.Prices.AddItem("STEEL", "Steel", "industrial", 1000)
	s.World.AddRegion(&worldmap.Region{ID: "north"})
	s.World.AddCity(&worldmap.City{ID: "a", RegionID: "north"})
	s.World.AddCity(&worldmap.City{ID: "b", RegionID: "north"})
	s.World.AddLane("ab", "a", "b", 100)

	srv := &Server{
		Runner:   &sim.Runner{Sim: s},
		AdminKey: adminKey,
	}
	return srv, srv.routes()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func post(t *testing.T, h http.Handler, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatusEndpoint(t *testing.T) {
	_, h := newTestServer("secret")
	rec := get(t, h, "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["name"] != "Freightline" {
		t.Fatalf("name = %v", body["name"])
	}
	if body["balance"].(float64) != 50000 {
		t.Fatalf("balance = %v", body["balance"])
	}
	if body["running"].(bool) {
		t.Fatal("reported running while stopped")
	}
}

func TestPriceHistoryRouting(t *testing.T) {
	_, h := newTestServer("secret")

	if rec := get(t, h, "/api/v1/prices/STEEL/history"); rec.Code != http.StatusOK {
		t.Fatalf("known commodity: %d", rec.Code)
	}
	if rec := get(t, h, "/api/v1/prices/GOLD/history"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown commodity: %d", rec.Code)
	}
	if rec := get(t, h, "/api/v1/prices/STEEL"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing /history suffix: %d", rec.Code)
	}
}

func TestCommandRequiresBearerToken(t *testing.T) {
	_, h := newTestServer("secret")
	body := `{"action":"purchase_lane","lane_id":"ab"}`

	if rec := post(t, h, "/api/v1/command", "", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", rec.Code)
	}
	if rec := post(t, h, "/api/v1/command", "wrong", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", rec.Code)
	}

	rec := post(t, h, "/api/v1/command", "secret", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: %d (%s)", rec.Code, rec.Body.String())
	}
	var res sim.CommandResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.OK {
		t.Fatalf("purchase rejected: %s", res.Reason)
	}
}

func TestCommandDisabledWithoutAdminKey(t *testing.T) {
	_, h := newTestServer("")
	rec := post(t, h, "/api/v1/command", "", `{"action":"purchase_lane"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestCommandUnknownAction(t *testing.T) {
	_, h := newTestServer("secret")
	rec := post(t, h, "/api/v1/command", "secret", `{"action":"teleport"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCommandRejectsMalformedJSON(t *testing.T) {
	_, h := newTestServer("secret")
	rec := post(t, h, "/api/v1/command", "secret", `{"action`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSpeedEndpoint(t *testing.T) {
	_, h := newTestServer("secret")

	if rec := post(t, h, "/api/v1/speed", "secret", `{"speed":0}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("zero speed: %d", rec.Code)
	}
	if rec := post(t, h, "/api/v1/speed", "secret", `{"speed":5}`); rec.Code != http.StatusOK {
		t.Fatalf("valid speed: %d", rec.Code)
	}

	rec := get(t, h, "/api/v1/speed")
	var body map[string]float64
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["speed"] != 5 {
		t.Fatalf("speed = %v, want 5", body["speed"])
	}
}

func TestEventsActiveFilter(t *testing.T) {
	srv, h := newTestServer("secret")
	srv.Runner.Do(func(sm *sim.Simulation) {
		ev, _ := sm.Events.CreateEvent("economic", 0.5, 0)
		sm.Events.Resolve(ev.ID, "hedge", 1)
		sm.Events.CreateEvent("economic", 0.5, 2)
	})

	var all, active []map[string]any
	if err := json.Unmarshal(get(t, h, "/api/v1/events").Body.Bytes(), &all); err != nil {
		t.Fatalf("decode all: %v", err)
	}
	if err := json.Unmarshal(get(t, h, "/api/v1/events?active=true").Body.Bytes(), &active); err != nil {
		t.Fatalf("decode active: %v", err)
	}
	if len(all) != 2 || len(active) != 1 {
		t.Fatalf("all = %d, active = %d; want 2 and 1", len(all), len(active))
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d denied within budget", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("budget exceeded but allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("separate IP shares a bucket")
	}
	if rl.RetryAfter("10.0.0.1") <= 0 {
		t.Fatal("no retry-after for limited IP")
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:4432"
	if got := clientIP(r); got != "192.0.2.7" {
		t.Fatalf("clientIP = %q, want 192.0.2.7", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(r); got != "203.0.113.9" {
		t.Fatalf("clientIP = %q, want first forwarded hop", got)
	}
}

func TestNotificationsWithoutDB(t *testing.T) {
	_, h := newTestServer("secret")
	rec := get(t, h, "/api/v1/notifications")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("body = %s, want empty list", rec.Body.String())
	}
}
