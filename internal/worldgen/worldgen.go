// Package worldgen builds a deterministic-from-seed starting world: regions,
// cities with noise-derived population and infrastructure, lanes, the
// commodity catalog, customers, and the carrier roster.
package worldgen

import (
	"fmt"
	"log/slog"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/freightline/internal/contracts"
	"github.com/talgya/freightline/internal/sim"
	"github.com/talgya/freightline/internal/worldmap"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Seed            int64
	CitiesPerRegion int
	Carriers        int
	Customers       int
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		CitiesPerRegion: 4,
		Carriers:        8,
		Customers:       10,
	}
}

// commodityDef seeds the catalog.
type commodityDef struct {
	id, name, category string
	basePrice          float64
	group              string
}

var commodityDefs = []commodityDef{
	{"STEEL", "Steel", "industrial", 6000, "metals"},
	{"COPPER", "Copper", "industrial", 8500, "metals"},
	{"GRAIN", "Grain", "agricultural", 1200, "food"},
	{"PRODUCE", "Fresh Produce", "agricultural", 2400, "food"},
	{"FUEL", "Fuel", "energy", 4800, "energy"},
	{"COAL", "Coal", "energy", 2000, "energy"},
	{"ELECTRONICS", "Electronics", "manufactured", 15000, "goods"},
	{"TEXTILES", "Textiles", "manufactured", 3500, "goods"},
	{"CHEMICALS", "Chemicals", "industrial", 9000, "hazardous"},
	{"LUMBER", "Lumber", "raw", 1800, "raw_materials"},
}

// regionDef seeds the map's regions.
type regionDef struct {
	id, name               string
	risk, economy, weather float64
}

var regionDefs = []regionDef{
	{"north", "Northern Reach", 0.3, 0.7, 0.8},
	{"south", "Southern Plains", 0.2, 0.9, 0.4},
	{"east", "Eastern Corridor", 0.4, 1.0, 0.5},
	{"west", "Western Highlands", 0.5, 0.6, 0.7},
}

var cityNames = []string{
	"Ashford", "Breconvale", "Caldermoor", "Dunwich", "Eastbrook",
	"Fenwick", "Garrowby", "Halstead", "Ironbridge", "Jarrow",
	"Kelsmere", "Lynmouth", "Marwick", "Norcross", "Oakhaven",
	"Pembroke", "Quarryton", "Ravenscar", "Stanmore", "Thornby",
}

var carrierNames = []string{
	"Ironline Haulage", "Swift & Sons", "Meridian Freight", "Bluewater Transit",
	"Crownpoint Carriers", "Vanguard Logistics", "Redway Transport", "Atlas Hauling",
	"Northgate Express", "Stonebridge Freight",
}

var customerNames = []string{
	"Harland Mills", "Corvus Manufacturing", "Greenfield Co-op", "Delport Trading",
	"Summit Industrial", "Weald & Weft", "Foundry Union", "Eastgate Provisioners",
	"Tarn Chemical Works", "Longview Timber", "Brightwater Foods", "Keystone Assembly",
}

// Generate populates a fresh simulation from the seed. Deterministic: the
// same seed always yields the same world.
func Generate(s *sim.Simulation, cfg GenConfig) {
	seedCommodities(s)
	seedMap(s, cfg)
	seedCarriers(s, cfg)
	seedCustomers(s, cfg)

	slog.Info("world generated",
		"regions", len(regionDefs),
		"cities", len(s.World.Regions())*cfg.CitiesPerRegion,
		"lanes", len(s.World.Lanes()),
		"carriers", cfg.Carriers,
		"customers", cfg.Customers,
	)
}

func seedCommodities(s *sim.Simulation) {
	for _, def := range commodityDefs {
		s.Prices.AddItem(def.id, def.name, def.category, def.basePrice)
		s.Prices.AddGroup(def.group)
		s.Prices.AddItemToGroup(def.id, def.group)
	}

	// Regional actors inherit from the global market with damped influence.
	s.Prices.AddActor("global_market", "", 1.0)
	for _, def := range regionDefs {
		s.Prices.AddActor(def.id, "global_market", 0.6+def.economy*0.3)
	}
}

func seedMap(s *sim.Simulation, cfg GenConfig) {
	// Independent noise layers for population and infrastructure fields.
	popNoise := opensimplex.NewNormalized(cfg.Seed)
	infraNoise := opensimplex.NewNormalized(cfg.Seed + 1)

	nameIdx := 0

	for ri, def := range regionDefs {
		region := &worldmap.Region{
			ID:                    def.id,
			Name:                  def.name,
			RiskFactor:            def.risk,
			EconomyStrength:       def.economy,
			WeatherSusceptibility: def.weather,
		}
		s.World.AddRegion(region)

		// Cities placed on a ring per region, fields sampled from noise.
		for ci := 0; ci < cfg.CitiesPerRegion; ci++ {
			angle := 2 * math.Pi * float64(ci) / float64(cfg.CitiesPerRegion)
			cx := float64(ri*100) + 40*math.Cos(angle)
			cy := float64(ri*100) + 40*math.Sin(angle)

			pop := popNoise.Eval2(cx*0.01, cy*0.01)
			infra := infraNoise.Eval2(cx*0.01, cy*0.01)

			name := cityNames[nameIdx%len(cityNames)]
			nameIdx++
			city := &worldmap.City{
				ID:             fmt.Sprintf("%s_%d", def.id, ci),
				Name:           name,
				RegionID:       def.id,
				X:              cx,
				Y:              cy,
				Population:     20000 + int(pop*480000),
				Infrastructure: 0.2 + infra*0.8,
				Industries:     industriesFor(ri, ci),
				Congestion:     0.1 + pop*0.3,
				Risk:           worldmap.RiskLow,
			}
			s.World.AddCity(city)
		}
	}

	// Lanes: connect adjacent cities within a region plus one inter-region
	// link per region pair, distance from city positions.
	laneIdx := 0
	addLane := func(a, b string) {
		ca, cb := s.World.City(a), s.World.City(b)
		if ca == nil || cb == nil {
			return
		}
		dx, dy := ca.X-cb.X, ca.Y-cb.Y
		dist := math.Sqrt(dx*dx+dy*dy) * 10 // map units → km
		if dist < 100 {
			dist = 100
		}
		s.World.AddLane(fmt.Sprintf("lane_%d", laneIdx), a, b, math.Round(dist))
		laneIdx++
	}

	for _, def := range regionDefs {
		cities := s.World.Region(def.id).Cities
		for i := range cities {
			addLane(cities[i], cities[(i+1)%len(cities)])
		}
	}
	for i := 0; i < len(regionDefs)-1; i++ {
		a := s.World.Region(regionDefs[i].id).Cities[0]
		b := s.World.Region(regionDefs[i+1].id).Cities[0]
		addLane(a, b)
	}
}

// industriesFor assigns industry tags cycling over the catalog categories.
func industriesFor(regionIdx, cityIdx int) []string {
	cats := []string{"industrial", "agricultural", "energy", "manufactured", "raw"}
	return []string{
		cats[(regionIdx+cityIdx)%len(cats)],
		cats[(regionIdx+cityIdx+2)%len(cats)],
	}
}

func seedCarriers(s *sim.Simulation, cfg GenConfig) {
	for i := 0; i < cfg.Carriers; i++ {
		name := carrierNames[i%len(carrierNames)]
		c := s.Carriers.NewCarrier(
			fmt.Sprintf("carrier_%d", i),
			name,
			2+s.Rand.Intn(4),        // fleet size 2 to 5
			0.8+s.Rand.Float()*0.6,  // speed factor
			0.85+s.Rand.Float()*0.4, // pricing factor
			s.Rand.Float(),          // risk tolerance
		)
		// One or two cargo specializations per carrier.
		c.PreferredCargo[commodityDefs[s.Rand.Intn(len(commodityDefs))].id] = true
		if s.Rand.Chance(0.5) {
			c.PreferredCargo[commodityDefs[s.Rand.Intn(len(commodityDefs))].id] = true
		}
	}
}

func seedCustomers(s *sim.Simulation, cfg GenConfig) {
	for i := 0; i < cfg.Customers; i++ {
		name := customerNames[i%len(customerNames)]
		needs := make(map[string]float64)
		for n := 0; n < 3; n++ {
			needs[commodityDefs[s.Rand.Intn(len(commodityDefs))].id] = 0.5 + s.Rand.Float()
		}
		s.Contracts.AddCustomer(&contracts.Customer{
			ID:    fmt.Sprintf("customer_%d", i),
			Name:  name,
			Trust: 30 + s.Rand.Float()*40,
			Needs: needs,
		})
	}
}
