// Package api provides the HTTP API for observing and steering the
// simulation. GET endpoints are public (read-only observation). POST
// endpoints require a bearer token (player control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/freightline/internal/persistence"
	"github.com/talgya/freightline/internal/sim"
)

// Server serves the simulation state over HTTP.
type Server struct {
	Runner   *sim.Runner
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	handler := s.routes()
	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// routes builds the full handler stack, middleware included.
func (s *Server) routes() http.Handler {
	// Command endpoints share one per-IP budget.
	cmdLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/prices", s.handlePrices)
	mux.HandleFunc("/api/v1/prices/", s.handlePriceHistory)
	mux.HandleFunc("/api/v1/map", s.handleMap)
	mux.HandleFunc("/api/v1/lanes", s.handleLanes)
	mux.HandleFunc("/api/v1/contracts", s.handleContracts)
	mux.HandleFunc("/api/v1/customers", s.handleCustomers)
	mux.HandleFunc("/api/v1/carriers", s.handleCarriers)
	mux.HandleFunc("/api/v1/offers", s.handleOffers)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/ledger", s.handleLedger)
	mux.HandleFunc("/api/v1/notifications", s.handleNotifications)

	// Player command endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/command", RateLimitMiddleware(cmdLimiter, s.adminOnly(s.handleCommand)))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/save", s.adminOnly(s.handleSave))

	return corsMiddleware(mux)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "command endpoints disabled (no admin key set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	running := s.Runner.Running()

	var status map[string]any
	s.Runner.Do(func(sm *sim.Simulation) {
		status = map[string]any{
			"name":      "Freightline",
			"sim_time":  sm.Clock.Now(),
			"day":       sm.Clock.Day(),
			"speed":     sm.Clock.Scale(),
			"running":   running,
			"balance":   sm.Ledger.Balance(),
			"net_worth": sm.Ledger.NetWorth(),
			"level":     sm.Ledger.Level(),
			"bankrupt":  sm.Ledger.Bankrupt(),
			"stats":     sm.Stats,
			"debug":     sm.DebugMode,
		}
	})
	writeJSON(w, status)
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")

	type priceEntry struct {
		ID        string  `json:"id"`
		Name      string  `json:"name"`
		Category  string  `json:"category"`
		BasePrice float64 `json:"base_price"`
		Price     float64 `json:"price"`
	}

	var result []priceEntry
	s.Runner.Do(func(sm *sim.Simulation) {
		now := sm.Clock.Now()
		for _, id := range sm.Prices.Items() {
			item := sm.Prices.Item(id)
			if item == nil {
				continue
			}
			result = append(result, priceEntry{
				ID:        item.ID,
				Name:      item.Name,
				Category:  item.Category,
				BasePrice: item.BasePrice,
				Price:     sm.Prices.Price(id, now, region),
			})
		}
	})
	writeJSON(w, result)
}

// handlePriceHistory serves GET /api/v1/prices/:id/history.
func (s *Server) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/prices/")
	if !strings.HasSuffix(path, "/history") {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	id := strings.TrimSuffix(path, "/history")
	if id == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var history any
	found := false
	s.Runner.Do(func(sm *sim.Simulation) {
		if sm.Prices.Item(id) != nil {
			history = sm.Prices.History(id)
			found = true
		}
	})
	if !found {
		http.Error(w, "unknown commodity", http.StatusNotFound)
		return
	}
	writeJSON(w, history)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	s.Runner.Do(func(sm *sim.Simulation) {
		payload = map[string]any{
			"regions": sm.World.Regions(),
			"lanes":   sm.World.Lanes(),
		}
	})
	writeJSON(w, payload)
}

func (s *Server) handleLanes(w http.ResponseWriter, r *http.Request) {
	var lanes any
	s.Runner.Do(func(sm *sim.Simulation) {
		lanes = sm.World.Lanes()
	})
	writeJSON(w, lanes)
}

func (s *Server) handleContracts(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	s.Runner.Do(func(sm *sim.Simulation) {
		payload = map[string]any{
			"customer_contracts": sm.Contracts.Contracts(),
			"carrier_contracts":  sm.Carriers.Contracts(),
		}
	})
	writeJSON(w, payload)
}

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	var customers any
	s.Runner.Do(func(sm *sim.Simulation) {
		customers = sm.Contracts.Customers()
	})
	writeJSON(w, customers)
}

func (s *Server) handleCarriers(w http.ResponseWriter, r *http.Request) {
	var carriers any
	s.Runner.Do(func(sm *sim.Simulation) {
		carriers = sm.Carriers.Carriers()
	})
	writeJSON(w, carriers)
}

func (s *Server) handleOffers(w http.ResponseWriter, r *http.Request) {
	var offers any
	s.Runner.Do(func(sm *sim.Simulation) {
		offers = sm.Carriers.Offers()
	})
	writeJSON(w, offers)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	var result any
	s.Runner.Do(func(sm *sim.Simulation) {
		all := sm.Events.Events()
		if !activeOnly {
			result = all
			return
		}
		active := all[:0:0]
		for _, ev := range all {
			if ev.IsActive {
				active = append(active, ev)
			}
		}
		result = active
	})
	writeJSON(w, result)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	s.Runner.Do(func(sm *sim.Simulation) {
		l := sm.Ledger
		payload = map[string]any{
			"balance":   l.Balance(),
			"net_worth": l.NetWorth(),
			"bankrupt":  l.Bankrupt(),
			"level":     l.Level(),
			"xp":        l.XP(),
			"loans":     l.Loans(),
			"reputation": map[string]float64{
				"global":   l.Reputation("global"),
				"customer": l.Reputation("customer"),
				"carrier":  l.Reputation("carrier"),
				"legal":    l.Reputation("legal"),
			},
			"transactions": l.Transactions(),
		}
	})
	writeJSON(w, payload)
}

// handleNotifications serves the persisted journal, newest first.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeJSON(w, []any{})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	notifications, err := s.DB.RecentNotifications(limit)
	if err != nil {
		http.Error(w, "journal unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, notifications)
}

// commandRequest is the envelope for POST /api/v1/command.
type commandRequest struct {
	Action     string   `json:"action"`
	LaneID     string   `json:"lane_id"`
	ContractID string   `json:"contract_id"`
	OfferID    string   `json:"offer_id"`
	EventID    string   `json:"event_id"`
	Upgrade    string   `json:"upgrade"`
	Response   string   `json:"response"`
	Price      float64  `json:"price"`
	Regions    []string `json:"regions"`
	Days       int      `json:"days"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var payload any
	s.Runner.Do(func(sm *sim.Simulation) {
		switch req.Action {
		case "purchase_lane":
			payload = sm.PurchaseLane(req.LaneID)
		case "sell_lane":
			payload = sm.SellLane(req.LaneID)
		case "upgrade_lane":
			payload = sm.UpgradeLane(req.LaneID, req.Upgrade)
		case "accept_contract":
			payload = sm.AcceptContract(req.ContractID)
		case "request_offer":
			offer, res := sm.RequestOffer(req.LaneID, req.ContractID)
			payload = map[string]any{"result": res, "offer": offer}
		case "accept_offer":
			contract, res := sm.AcceptOffer(req.OfferID, req.ContractID)
			payload = map[string]any{"result": res, "contract": contract}
		case "reject_offer":
			payload = sm.RejectOffer(req.OfferID)
		case "negotiate_offer":
			outcome, res := sm.NegotiateOffer(req.OfferID, req.Price)
			payload = map[string]any{"result": res, "outcome": outcome}
		case "resolve_event":
			payload = sm.ResolveEvent(req.EventID, req.Response)
		case "block_region_lanes":
			payload = sm.BlockRegionLanes(req.Regions, req.Days)
		default:
			payload = nil
		}
	})

	if payload == nil {
		http.Error(w, fmt.Sprintf("unknown action %q", req.Action), http.StatusBadRequest)
		return
	}

	slog.Info("command", "action", req.Action)
	writeJSON(w, payload)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed <= 0 || req.Speed > 1000 {
			http.Error(w, "speed must be in (0, 1000]", http.StatusBadRequest)
			return
		}
		s.Runner.Do(func(sm *sim.Simulation) {
			sm.SetSpeed(req.Speed)
		})
		slog.Info("speed changed", "speed", req.Speed)
	}

	var speed float64
	s.Runner.Do(func(sm *sim.Simulation) {
		speed = sm.Clock.Scale()
	})
	writeJSON(w, map[string]float64{"speed": speed})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "persistence disabled", http.StatusServiceUnavailable)
		return
	}

	var err error
	s.Runner.Do(func(sm *sim.Simulation) {
		err = s.DB.SaveWorld(sm)
	})
	if err != nil {
		slog.Error("manual save failed", "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "saved"})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
