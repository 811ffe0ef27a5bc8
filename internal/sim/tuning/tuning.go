package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sleepwarp.ai/internal/sim/world"
	"sleepwarp.ai/internal/sim/world/feature/warp"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version" json:"protocol_version"`

	TickRateHz         int   `yaml:"tick_rate_hz" json:"tick_rate_hz"`
	Height             int   `yaml:"height" json:"height"`
	Seed               int64 `yaml:"seed" json:"seed"`
	LoadRadius         int   `yaml:"load_radius" json:"load_radius"`
	SnapshotEveryTicks int   `yaml:"snapshot_every_ticks" json:"snapshot_every_ticks"`
	TimeSyncEveryTicks int   `yaml:"time_sync_every_ticks" json:"time_sync_every_ticks"`

	DischargeEventRadius int `yaml:"discharge_event_radius" json:"discharge_event_radius"`

	// Sleep window as fractions of the standard 24000-tick cycle; scaled to the
	// configured cycle length.
	NightStart int64 `yaml:"night_start" json:"night_start"`
	NightEnd   int64 `yaml:"night_end" json:"night_end"`

	Worldgen   Worldgen   `yaml:"worldgen" json:"worldgen"`
	RateLimits RateLimits `yaml:"rate_limits" json:"rate_limits"`
	Warp       Warp       `yaml:"warp" json:"warp"`
}

type Worldgen struct {
	SeaLevel        int `yaml:"sea_level" json:"sea_level"`
	BiomeRegionSize int `yaml:"biome_region_size" json:"biome_region_size"`
	TreePermille    int `yaml:"tree_permille" json:"tree_permille"`
	SaplingPermille int `yaml:"sapling_permille" json:"sapling_permille"`
	CropPermille    int `yaml:"crop_permille" json:"crop_permille"`
	FixturePermille int `yaml:"fixture_permille" json:"fixture_permille"`
}

type RateLimits struct {
	ActionWindowTicks int `yaml:"action_window_ticks" json:"action_window_ticks"`
	ActionMax         int `yaml:"action_max" json:"action_max"`
}

// Warp mirrors warp.Config. Partitions may override it in worlds.yaml.
type Warp struct {
	MaxTicksPerInvocation    int     `yaml:"max_ticks_per_invocation" json:"max_ticks_per_invocation"`
	ParticipantWeight        float64 `yaml:"participant_weight" json:"participant_weight"`
	SleepEligibleTicks       int     `yaml:"sleep_eligible_ticks" json:"sleep_eligible_ticks"`
	RegionRadius             int     `yaml:"region_radius" json:"region_radius"`
	RandomSamplesPerRegion   int     `yaml:"random_samples_per_region" json:"random_samples_per_region"`
	PrecipitationProbability float64 `yaml:"precipitation_probability" json:"precipitation_probability"`
	DischargeProbability     float64 `yaml:"discharge_probability" json:"discharge_probability"`
	MaxSnowLayers            int     `yaml:"max_snow_layers" json:"max_snow_layers"`
	CycleLength              int64   `yaml:"cycle_length" json:"cycle_length"`

	Features Features `yaml:"features" json:"features"`
}

type Features struct {
	RandomCellUpdates   bool `yaml:"random_cell_updates" json:"random_cell_updates"`
	BlockEntities       bool `yaml:"block_entities" json:"block_entities"`
	Precipitation       bool `yaml:"precipitation" json:"precipitation"`
	ElectricalDischarge bool `yaml:"electrical_discharge" json:"electrical_discharge"`
}

// Defaults returns the values used when no tuning file is given. Load overlays
// a file on top of these, so a file only needs the keys it changes.
func Defaults() Tuning {
	wc := warp.DefaultConfig()
	return Tuning{
		ProtocolVersion:      "1.0",
		TickRateHz:           20,
		Height:               64,
		Seed:                 1337,
		LoadRadius:           4,
		SnapshotEveryTicks:   3000,
		TimeSyncEveryTicks:   20,
		DischargeEventRadius: 64,
		NightStart:           12542,
		NightEnd:             23459,
		Worldgen: Worldgen{
			BiomeRegionSize: 64,
			TreePermille:    40,
			SaplingPermille: 8,
			CropPermille:    30,
			FixturePermille: 120,
		},
		RateLimits: RateLimits{ActionWindowTicks: 20, ActionMax: 10},
		Warp:       WarpFrom(wc),
	}
}

func WarpFrom(c warp.Config) Warp {
	return Warp{
		MaxTicksPerInvocation:    c.MaxTicksPerInvocation,
		ParticipantWeight:        c.ParticipantWeight,
		SleepEligibleTicks:       c.SleepEligibleTicks,
		RegionRadius:             c.RegionRadius,
		RandomSamplesPerRegion:   c.RandomSamplesPerRegion,
		PrecipitationProbability: c.PrecipitationProbability,
		DischargeProbability:     c.DischargeProbability,
		MaxSnowLayers:            c.MaxSnowLayers,
		CycleLength:              c.CycleLength,
		Features: Features{
			RandomCellUpdates:   c.Features.RandomCellUpdates,
			BlockEntities:       c.Features.BlockEntities,
			Precipitation:       c.Features.Precipitation,
			ElectricalDischarge: c.Features.ElectricalDischarge,
		},
	}
}

func (w Warp) Config() warp.Config {
	c := warp.Config{
		MaxTicksPerInvocation:    w.MaxTicksPerInvocation,
		ParticipantWeight:        w.ParticipantWeight,
		SleepEligibleTicks:       w.SleepEligibleTicks,
		RegionRadius:             w.RegionRadius,
		RandomSamplesPerRegion:   w.RandomSamplesPerRegion,
		PrecipitationProbability: w.PrecipitationProbability,
		DischargeProbability:     w.DischargeProbability,
		MaxSnowLayers:            w.MaxSnowLayers,
		CycleLength:              w.CycleLength,
		Features: warp.Features{
			RandomCellUpdates:   w.Features.RandomCellUpdates,
			BlockEntities:       w.Features.BlockEntities,
			Precipitation:       w.Features.Precipitation,
			ElectricalDischarge: w.Features.ElectricalDischarge,
		},
	}
	c.ApplyDefaults()
	return c
}

// WorldConfig is the partition config every world starts from before its
// worlds.yaml entry is applied.
func (t Tuning) WorldConfig() world.WorldConfig {
	wc := t.Warp.Config()
	return world.WorldConfig{
		TickRateHz:           t.TickRateHz,
		Height:               t.Height,
		Seed:                 t.Seed,
		SeaLevel:             t.Worldgen.SeaLevel,
		BiomeRegionSize:      t.Worldgen.BiomeRegionSize,
		TreePermille:         t.Worldgen.TreePermille,
		SaplingPermille:      t.Worldgen.SaplingPermille,
		CropPermille:         t.Worldgen.CropPermille,
		FixturePermille:      t.Worldgen.FixturePermille,
		LoadRadius:           t.LoadRadius,
		ClockDriverActive:    true,
		WeatherCycle:         true,
		NightStart:           t.NightStart * wc.CycleLength / 24000,
		NightEnd:             t.NightEnd * wc.CycleLength / 24000,
		SnapshotEveryTicks:   t.SnapshotEveryTicks,
		TimeSyncEveryTicks:   t.TimeSyncEveryTicks,
		DischargeEventRadius: t.DischargeEventRadius,
		ActionWindowTicks:    t.RateLimits.ActionWindowTicks,
		ActionMax:            t.RateLimits.ActionMax,
		Warp:                 wc,
	}
}

func (t Tuning) Validate() error {
	switch {
	case t.TickRateHz <= 0:
		return fmt.Errorf("tick_rate_hz must be > 0")
	case t.Height < 8:
		return fmt.Errorf("height must be >= 8")
	case t.Warp.CycleLength < 0:
		return fmt.Errorf("warp.cycle_length must be >= 0")
	case t.Warp.ParticipantWeight < 0:
		return fmt.Errorf("warp.participant_weight must be >= 0")
	case t.Warp.MaxTicksPerInvocation < 0:
		return fmt.Errorf("warp.max_ticks_per_invocation must be >= 0")
	case t.NightStart < 0 || t.NightEnd < t.NightStart || t.NightEnd >= 24000:
		return fmt.Errorf("night window must satisfy 0 <= night_start <= night_end < 24000")
	}
	return nil
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
