package multiworld

import (
	"os"
	"path/filepath"
	"testing"

	"sleepwarp.ai/internal/sim/tuning"
)

func TestLoad_WorldsYAML(t *testing.T) {
	cfg, err := Load("../../../configs/worlds.yaml")
	if err != nil {
		t.Fatalf("load worlds.yaml: %v", err)
	}
	over, ok := cfg.WorldSpecByID("OVERWORLD")
	if !ok || !*over.ClockDriverActive || !*over.WeatherCycle {
		t.Fatalf("OVERWORLD should drive its clock and weather: %+v", over)
	}
	nether, ok := cfg.WorldSpecByID("NETHER")
	if !ok || *nether.ClockDriverActive || *nether.WeatherCycle {
		t.Fatalf("NETHER should have a frozen cycle and no weather: %+v", nether)
	}
	if cfg.DefaultWorldID != "OVERWORLD" {
		t.Fatalf("default = %q", cfg.DefaultWorldID)
	}
}

func TestValidateRejects(t *testing.T) {
	neg := -1.0
	cases := map[string]Config{
		"empty":     {},
		"duplicate": {DefaultWorldID: "A", Worlds: []WorldSpec{{ID: "A"}, {ID: "a"}}},
		"default":   {DefaultWorldID: "B", Worlds: []WorldSpec{{ID: "A"}}},
		"weight":    {DefaultWorldID: "A", Worlds: []WorldSpec{{ID: "A", Warp: &WarpOverride{ParticipantWeight: &neg}}}},
	}
	for name, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadReportsFileName(t *testing.T) {
	p := filepath.Join(t.TempDir(), "worlds.yaml")
	if err := os.WriteFile(p, []byte("worlds: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected error for empty worlds")
	}
}

func TestWorldSpecOverrides(t *testing.T) {
	base := tuning.Defaults().WorldConfig()
	max := 80
	cycle := int64(12000)
	off := false
	spec := WorldSpec{
		ID:         "SKY",
		SeedOffset: 7,
		BoundaryR:  256,
		Warp: &WarpOverride{
			MaxTicksPerInvocation: &max,
			CycleLength:           &cycle,
			ElectricalDischarge:   &off,
		},
	}
	cfg := spec.WorldConfig(base)
	if cfg.ID != "SKY" || cfg.Seed != base.Seed+7 || cfg.BoundaryR != 256 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if !cfg.ClockDriverActive || !cfg.WeatherCycle {
		t.Fatalf("unset flags default to true")
	}
	if cfg.Warp.MaxTicksPerInvocation != 80 || cfg.Warp.CycleLength != 12000 || cfg.Warp.Features.ElectricalDischarge {
		t.Fatalf("warp = %+v", cfg.Warp)
	}
	if !cfg.Warp.Features.Precipitation {
		t.Fatalf("untouched features keep their base value")
	}
	if cfg.NightStart != base.NightStart/2 {
		t.Fatalf("night start %d should scale with the cycle (base %d)", cfg.NightStart, base.NightStart)
	}
	if base.Warp.MaxTicksPerInvocation != 40 {
		t.Fatalf("base config must not be mutated")
	}
}

func TestManifestSorted(t *testing.T) {
	cfg := defaults()
	cfg.Normalize()
	m := cfg.Manifest()
	if len(m) != 2 || m[0].WorldID != "NETHER" || m[0].ClockDriverActive || !m[1].ClockDriverActive {
		t.Fatalf("manifest = %+v", m)
	}
}
