package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
	// Digest is the hex state digest of the partition at Tick.
	Digest string `json:"digest,omitempty"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed        int64 `json:"seed"`
	TickRate    int   `json:"tick_rate_hz"`
	CycleLength int64 `json:"cycle_length"`
	Height      int   `json:"height"`
	BoundaryR   int   `json:"boundary_r"`
	LoadRadius  int   `json:"load_radius"`

	// Worldgen tuning.
	SeaLevel        int `json:"sea_level"`
	BiomeRegionSize int `json:"biome_region_size,omitempty"`
	TreePermille    int `json:"tree_permille,omitempty"`
	SaplingPermille int `json:"sapling_permille,omitempty"`
	CropPermille    int `json:"crop_permille,omitempty"`
	FixturePermille int `json:"fixture_permille,omitempty"`

	ClockDriverActive bool `json:"clock_driver_active"`
	WeatherCycle      bool `json:"weather_cycle"`

	GameTime  int64 `json:"game_time"`
	CycleTime int64 `json:"cycle_time"`

	Raining     bool `json:"raining"`
	Thundering  bool `json:"thundering"`
	RainTime    int  `json:"rain_time"`
	ThunderTime int  `json:"thunder_time"`
	ClearTime   int  `json:"clear_time,omitempty"`

	// RNG is the marshalled state of the partition's random source.
	RNG []byte `json:"rng,omitempty"`

	Chunks       []ChunkV1       `json:"chunks"`
	Furnaces     []FurnaceV1     `json:"furnaces,omitempty"`
	Composters   []ComposterV1   `json:"composters,omitempty"`
	Participants []ParticipantV1 `json:"participants,omitempty"`
	Counters     CountersV1      `json:"counters"`
}

type ChunkV1 struct {
	CX     int      `json:"cx"`
	CZ     int      `json:"cz"`
	Height int      `json:"height"`
	Blocks []uint16 `json:"blocks"`
}

type FurnaceV1 struct {
	Pos       [3]int `json:"pos"`
	Fuel      int    `json:"fuel"`
	Input     int    `json:"input"`
	Output    int    `json:"output"`
	BurnTicks int    `json:"burn_ticks"`
	Progress  int    `json:"progress"`
}

type ComposterV1 struct {
	Pos   [3]int `json:"pos"`
	Level int    `json:"level"`
	Timer int    `json:"timer"`
}

type ParticipantV1 struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ResumeToken string `json:"resume_token,omitempty"`
	Pos         [3]int `json:"pos"`
	Sleeping    bool   `json:"sleeping"`
	SleepTicks  int    `json:"sleep_ticks"`
}

type CountersV1 struct {
	Passes     uint64 `json:"passes"`
	WarpTicks  uint64 `json:"warp_ticks"`
	ForceWakes uint64 `json:"force_wakes"`
	Discharges uint64 `json:"discharges"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The gob body repeats the header.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}

// ReadHeader decodes only the JSON header line of a snapshot file.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	if h.WorldID == "" {
		return h, errors.New("snapshot header missing world_id")
	}
	return h, nil
}
