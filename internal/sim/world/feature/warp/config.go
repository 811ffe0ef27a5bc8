package warp

type Features struct {
	RandomCellUpdates   bool
	BlockEntities       bool
	Precipitation       bool
	ElectricalDischarge bool
}

// AllFeatures enables every simulation step.
func AllFeatures() Features {
	return Features{
		RandomCellUpdates:   true,
		BlockEntities:       true,
		Precipitation:       true,
		ElectricalDischarge: true,
	}
}

type Config struct {
	MaxTicksPerInvocation int
	ParticipantWeight     float64
	SleepEligibleTicks    int
	RegionRadius          int

	RandomSamplesPerRegion   int
	PrecipitationProbability float64
	DischargeProbability     float64
	MaxSnowLayers            int

	CycleLength int64

	// Features is taken as-is; zero value disables every optional step.
	Features Features
}

func DefaultConfig() Config {
	c := Config{
		RegionRadius:           3,
		RandomSamplesPerRegion: 3,
		Features:               AllFeatures(),
	}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero or out-of-range numeric fields. A RegionRadius of 0 is
// a valid setting (own region only), so only negative radii are replaced.
func (c *Config) ApplyDefaults() {
	if c.MaxTicksPerInvocation <= 0 {
		c.MaxTicksPerInvocation = 40
	}
	if c.ParticipantWeight <= 0 {
		c.ParticipantWeight = 0.6
	}
	if c.SleepEligibleTicks <= 0 {
		c.SleepEligibleTicks = 100
	}
	if c.RegionRadius < 0 {
		c.RegionRadius = 3
	}
	if c.RandomSamplesPerRegion < 0 {
		c.RandomSamplesPerRegion = 3
	}
	if c.PrecipitationProbability <= 0 || c.PrecipitationProbability > 1 {
		c.PrecipitationProbability = 1.0 / 16
	}
	if c.DischargeProbability <= 0 || c.DischargeProbability > 1 {
		c.DischargeProbability = 1.0 / 100000
	}
	if c.MaxSnowLayers <= 0 {
		c.MaxSnowLayers = MaxSnowLayerCap
	}
	if c.CycleLength <= 0 {
		c.CycleLength = 24000
	}
}

// SnowLayerLimit is MaxSnowLayers capped to what a single cell can hold.
func (c Config) SnowLayerLimit() int {
	if c.MaxSnowLayers <= 0 || c.MaxSnowLayers > MaxSnowLayerCap {
		return MaxSnowLayerCap
	}
	return c.MaxSnowLayers
}
