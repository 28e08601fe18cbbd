package domain

// WindConfig describes the base wind signal and the time grid.
// BaseSpeed is the mean; Gust bounds the symmetric random deviation.
type WindConfig struct {
	BaseSpeed float64 `json:"base_speed" yaml:"base_speed"`
	Gust      float64 `json:"gust" yaml:"gust"`
	Duration  float64 `json:"duration" yaml:"duration"`
	Step      float64 `json:"step" yaml:"step"`
}

// Grid returns the time grid for this configuration.
func (c WindConfig) Grid() Grid {
	return Grid{Duration: c.Duration, Step: c.Step}
}

// EventConfig is the shared shape of the storm and burst parameters.
type EventConfig struct {
	TriggerProbability float64 `json:"probability" yaml:"probability"`
	MinAmplitude       float64 `json:"min_amplitude" yaml:"min_amplitude"`
	MaxAmplitude       float64 `json:"max_amplitude" yaml:"max_amplitude"`
	MinDuration        float64 `json:"min_duration" yaml:"min_duration"`
	MaxDuration        float64 `json:"max_duration" yaml:"max_duration"`
}

// AlwaysTriggers reports whether every idle point opens a window.
func (c EventConfig) AlwaysTriggers() bool {
	return c.TriggerProbability >= 1
}

// SimulationConfig groups the parameters of one run. Seed is optional;
// when nil the caller picks one.
type SimulationConfig struct {
	Wind  WindConfig  `json:"wind" yaml:"wind"`
	Storm EventConfig `json:"storm" yaml:"storm"`
	Burst EventConfig `json:"burst" yaml:"burst"`
	Seed  *uint64     `json:"seed,omitempty" yaml:"seed,omitempty"`
}
