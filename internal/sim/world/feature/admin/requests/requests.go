package requests

type SnapshotReq struct {
	Resp chan SnapshotResp
}

type SnapshotResp struct {
	Tick uint64
	Err  string
}

// WeatherReq forces the partition weather. DurationTicks of 0 lets the weather
// cycle pick the next change.
type WeatherReq struct {
	Raining       bool
	Thundering    bool
	DurationTicks int
	Resp          chan WeatherResp
}

type WeatherResp struct {
	Tick       uint64
	Raining    bool
	Thundering bool
	Err        string
}

// Reply delivers resp without blocking; a caller that gave up is skipped.
func Reply[T any](ch chan T, resp T) {
	if ch == nil {
		return
	}
	select {
	case ch <- resp:
	default:
	}
}

type FixturesReq struct {
	Resp chan FixturesResp
}

type FixturesResp struct {
	Tick     uint64
	Fixtures []Fixture
}

// Fixture is a read-only copy of one stateful fixture.
type Fixture struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Pos      [3]int `json:"pos"`
	Loaded   bool   `json:"loaded"`
	Input    int    `json:"input,omitempty"`
	Output   int    `json:"output,omitempty"`
	Fuel     int    `json:"fuel,omitempty"`
	Progress int    `json:"progress,omitempty"`
	Level    int    `json:"level,omitempty"`
}
