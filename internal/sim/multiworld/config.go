package multiworld

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"sleepwarp.ai/internal/protocol"
	"sleepwarp.ai/internal/sim/world"
)

type Config struct {
	DefaultWorldID string      `yaml:"default_world_id"`
	Worlds         []WorldSpec `yaml:"worlds"`
}

// WorldSpec describes one partition. Nil flags mean "use the default" (true).
type WorldSpec struct {
	ID         string `yaml:"id"`
	SeedOffset int64  `yaml:"seed_offset"`
	BoundaryR  int    `yaml:"boundary_r"`

	ClockDriverActive *bool `yaml:"clock_driver_active,omitempty"`
	WeatherCycle      *bool `yaml:"weather_cycle,omitempty"`

	Warp *WarpOverride `yaml:"warp,omitempty"`
}

// WarpOverride replaces individual tuning warp values for one partition.
type WarpOverride struct {
	MaxTicksPerInvocation *int     `yaml:"max_ticks_per_invocation,omitempty"`
	ParticipantWeight     *float64 `yaml:"participant_weight,omitempty"`
	SleepEligibleTicks    *int     `yaml:"sleep_eligible_ticks,omitempty"`
	RegionRadius          *int     `yaml:"region_radius,omitempty"`
	CycleLength           *int64   `yaml:"cycle_length,omitempty"`

	RandomCellUpdates   *bool `yaml:"random_cell_updates,omitempty"`
	BlockEntities       *bool `yaml:"block_entities,omitempty"`
	Precipitation       *bool `yaml:"precipitation,omitempty"`
	ElectricalDischarge *bool `yaml:"electrical_discharge,omitempty"`
}

func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	cfg = Config{}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("worlds.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("worlds.yaml: %w", err)
	}
	return cfg, nil
}

func boolPtr(v bool) *bool { return &v }

func defaults() Config {
	return Config{
		DefaultWorldID: "OVERWORLD",
		Worlds: []WorldSpec{
			{ID: "OVERWORLD", BoundaryR: 4000},
			// The nether has no day cycle and no weather; sleeping there only
			// ever accelerates the shared game time.
			{ID: "NETHER", SeedOffset: 1, BoundaryR: 1000, ClockDriverActive: boolPtr(false), WeatherCycle: boolPtr(false)},
		},
	}
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	for i := range c.Worlds {
		w := &c.Worlds[i]
		w.ID = strings.ToUpper(strings.TrimSpace(w.ID))
		if w.ClockDriverActive == nil {
			w.ClockDriverActive = boolPtr(true)
		}
		if w.WeatherCycle == nil {
			w.WeatherCycle = boolPtr(true)
		}
	}
	c.DefaultWorldID = strings.ToUpper(strings.TrimSpace(c.DefaultWorldID))
	if c.DefaultWorldID == "" && len(c.Worlds) > 0 {
		c.DefaultWorldID = c.Worlds[0].ID
	}
}

func (c Config) Validate() error {
	c.Normalize()
	if len(c.Worlds) == 0 {
		return fmt.Errorf("worlds must not be empty")
	}
	seen := map[string]bool{}
	for _, w := range c.Worlds {
		if w.ID == "" {
			return fmt.Errorf("world id must not be empty")
		}
		if seen[w.ID] {
			return fmt.Errorf("duplicate world id: %s", w.ID)
		}
		seen[w.ID] = true
		if w.BoundaryR < 0 {
			return fmt.Errorf("world %s boundary_r must be >= 0", w.ID)
		}
		if o := w.Warp; o != nil {
			if o.ParticipantWeight != nil && *o.ParticipantWeight < 0 {
				return fmt.Errorf("world %s warp.participant_weight must be >= 0", w.ID)
			}
			if o.CycleLength != nil && *o.CycleLength <= 0 {
				return fmt.Errorf("world %s warp.cycle_length must be > 0", w.ID)
			}
			if o.RegionRadius != nil && *o.RegionRadius < 0 {
				return fmt.Errorf("world %s warp.region_radius must be >= 0", w.ID)
			}
		}
	}
	if !seen[c.DefaultWorldID] {
		return fmt.Errorf("default_world_id %q not found in worlds", c.DefaultWorldID)
	}
	return nil
}

// WorldConfig applies this entry on top of base, the tuning-derived config.
func (w WorldSpec) WorldConfig(base world.WorldConfig) world.WorldConfig {
	cfg := base
	cfg.ID = w.ID
	cfg.Seed = base.Seed + w.SeedOffset
	cfg.BoundaryR = w.BoundaryR
	cfg.ClockDriverActive = w.ClockDriverActive == nil || *w.ClockDriverActive
	cfg.WeatherCycle = w.WeatherCycle == nil || *w.WeatherCycle

	o := w.Warp
	if o == nil {
		return cfg
	}
	wc := &cfg.Warp
	if o.MaxTicksPerInvocation != nil {
		wc.MaxTicksPerInvocation = *o.MaxTicksPerInvocation
	}
	if o.ParticipantWeight != nil {
		wc.ParticipantWeight = *o.ParticipantWeight
	}
	if o.SleepEligibleTicks != nil {
		wc.SleepEligibleTicks = *o.SleepEligibleTicks
	}
	if o.RegionRadius != nil {
		wc.RegionRadius = *o.RegionRadius
	}
	if o.CycleLength != nil && *o.CycleLength != wc.CycleLength {
		// Keep the sleep window at the same fraction of the cycle.
		cfg.NightStart = cfg.NightStart * *o.CycleLength / wc.CycleLength
		cfg.NightEnd = cfg.NightEnd * *o.CycleLength / wc.CycleLength
		wc.CycleLength = *o.CycleLength
	}
	if o.RandomCellUpdates != nil {
		wc.Features.RandomCellUpdates = *o.RandomCellUpdates
	}
	if o.BlockEntities != nil {
		wc.Features.BlockEntities = *o.BlockEntities
	}
	if o.Precipitation != nil {
		wc.Features.Precipitation = *o.Precipitation
	}
	if o.ElectricalDischarge != nil {
		wc.Features.ElectricalDischarge = *o.ElectricalDischarge
	}
	return cfg
}

func (c Config) Manifest() []protocol.WorldRef {
	out := make([]protocol.WorldRef, 0, len(c.Worlds))
	for _, w := range c.Worlds {
		out = append(out, protocol.WorldRef{
			WorldID:           w.ID,
			ClockDriverActive: w.ClockDriverActive == nil || *w.ClockDriverActive,
			WeatherCycle:      w.WeatherCycle == nil || *w.WeatherCycle,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorldID < out[j].WorldID })
	return out
}

func (c Config) WorldSpecByID(id string) (WorldSpec, bool) {
	for _, w := range c.Worlds {
		if w.ID == id {
			return w, true
		}
	}
	return WorldSpec{}, false
}
