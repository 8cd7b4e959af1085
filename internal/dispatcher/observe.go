// Package dispatcher implements a rule-based autopilot for the simulation.
// It observes world state via the API, decides on actions with simple
// heuristics, and acts via the command endpoint.
package dispatcher

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Snapshot holds all data collected during an observation cycle.
type Snapshot struct {
	Status    Status    `json:"status"`
	Lanes     []Lane    `json:"lanes"`
	Contracts Contracts `json:"contracts"`
	Offers    []Offer   `json:"offers"`
	Events    []Event   `json:"events"`
}

// Status mirrors GET /api/v1/status.
type Status struct {
	Name     string  `json:"name"`
	SimTime  float64 `json:"sim_time"`
	Day      int     `json:"day"`
	Speed    float64 `json:"speed"`
	Running  bool    `json:"running"`
	Balance  float64 `json:"balance"`
	NetWorth float64 `json:"net_worth"`
	Level    int     `json:"level"`
	Bankrupt bool    `json:"bankrupt"`
}

// Lane mirrors items from GET /api/v1/lanes.
type Lane struct {
	ID              string          `json:"id"`
	StartCity       string          `json:"start_city"`
	EndCity         string          `json:"end_city"`
	Distance        float64         `json:"distance"`
	BaseCost        float64         `json:"base_cost"`
	Status          string          `json:"status"`
	AssignedCarrier string          `json:"assigned_carrier"`
	Congestion      float64         `json:"congestion"`
	Restrictions    map[string]bool `json:"restrictions"`
	BlockedDaysLeft int             `json:"blocked_days_left"`
}

// Contracts mirrors GET /api/v1/contracts.
type Contracts struct {
	Customer []CustomerContract `json:"customer_contracts"`
	Carrier  []CarrierContract  `json:"carrier_contracts"`
}

// CustomerContract mirrors a customer contract.
type CustomerContract struct {
	ID             string  `json:"id"`
	CustomerID     string  `json:"customer_id"`
	CargoType      string  `json:"cargo_type"`
	Amount         float64 `json:"amount"`
	Value          float64 `json:"value"`
	UpfrontCost    float64 `json:"upfront_cost"`
	Deadline       float64 `json:"deadline"`
	ExpirationTime float64 `json:"expiration_time"`
	Status         string  `json:"status"`
}

// CarrierContract mirrors a carrier hire.
type CarrierContract struct {
	ID                 string  `json:"id"`
	CarrierID          string  `json:"carrier_id"`
	LaneID             string  `json:"lane_id"`
	CustomerContractID string  `json:"customer_contract_id"`
	Price              float64 `json:"price"`
	Status             string  `json:"status"`
}

// Offer mirrors items from GET /api/v1/offers.
type Offer struct {
	ID         string  `json:"id"`
	CarrierID  string  `json:"carrier_id"`
	LaneID     string  `json:"lane_id"`
	CargoType  string  `json:"cargo_type"`
	Price      float64 `json:"price"`
	Expiration float64 `json:"expiration"`
}

// Event mirrors items from GET /api/v1/events?active=true.
type Event struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Severity float64 `json:"severity"`
	IsActive bool    `json:"is_active"`
}

// Observer fetches world state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches all five endpoints and returns a Snapshot.
func (o *Observer) Observe() (*Snapshot, error) {
	snap := &Snapshot{}

	if err := o.fetchJSON("/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON("/api/v1/lanes", &snap.Lanes); err != nil {
		return nil, fmt.Errorf("fetch lanes: %w", err)
	}
	if err := o.fetchJSON("/api/v1/contracts", &snap.Contracts); err != nil {
		return nil, fmt.Errorf("fetch contracts: %w", err)
	}
	if err := o.fetchJSON("/api/v1/offers", &snap.Offers); err != nil {
		return nil, fmt.Errorf("fetch offers: %w", err)
	}
	if err := o.fetchJSON("/api/v1/events?active=true", &snap.Events); err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}

	return snap, nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(path string, target any) error {
	resp, err := o.HTTPClient.Get(o.BaseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
