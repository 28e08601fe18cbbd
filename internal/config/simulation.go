package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/windsim/internal/domain"
)

// MaxGridPoints bounds the number of samples a single run may materialize.
const MaxGridPoints = 5_000_000

// legacyFields is the count of numbers in the plain-text parameter format:
// wind (base, gust, duration, step), then storm and burst (probability,
// min/max amplitude, min/max duration).
const legacyFields = 14

// ValidationError lists every rule a simulation configuration violates.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%d errors in simulation configuration: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

func (e *ValidationError) errorf(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// LoadSimulation reads and validates a simulation parameter file.
// The format follows the extension: .yaml/.yml, .json, or otherwise the
// whitespace-separated 14-number layout.
func LoadSimulation(path string) (domain.SimulationConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.SimulationConfig{}, fmt.Errorf("open simulation config: %w", err)
	}
	defer f.Close()

	var cfg domain.SimulationConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return domain.SimulationConfig{}, fmt.Errorf("parse YAML simulation config: %w", err)
		}
	case ".json":
		dec := json.NewDecoder(f)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return domain.SimulationConfig{}, fmt.Errorf("parse JSON simulation config: %w", err)
		}
	default:
		cfg, err = ParseLegacy(f)
		if err != nil {
			return domain.SimulationConfig{}, err
		}
	}

	if err := ValidateSimulation(cfg); err != nil {
		return domain.SimulationConfig{}, err
	}
	return cfg, nil
}

// ParseLegacy reads the 14-number plain-text format. Missing numbers are an error;
// anything after the fourteenth number is ignored.
func ParseLegacy(r io.Reader) (domain.SimulationConfig, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	values := make([]float64, 0, legacyFields)
	for len(values) < legacyFields && sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return domain.SimulationConfig{}, fmt.Errorf("parse simulation config value %d: %w", len(values)+1, err)
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return domain.SimulationConfig{}, fmt.Errorf("read simulation config: %w", err)
	}
	if len(values) < legacyFields {
		return domain.SimulationConfig{}, fmt.Errorf("simulation config has %d values, want %d", len(values), legacyFields)
	}

	event := func(v []float64) domain.EventConfig {
		return domain.EventConfig{
			TriggerProbability: v[0],
			MinAmplitude:       v[1],
			MaxAmplitude:       v[2],
			MinDuration:        v[3],
			MaxDuration:        v[4],
		}
	}
	return domain.SimulationConfig{
		Wind: domain.WindConfig{
			BaseSpeed: values[0],
			Gust:      values[1],
			Duration:  values[2],
			Step:      values[3],
		},
		Storm: event(values[4:9]),
		Burst: event(values[9:14]),
	}, nil
}

// ValidateSimulation checks every parameter rule and returns a *ValidationError
// naming all violations, or nil.
func ValidateSimulation(cfg domain.SimulationConfig) error {
	v := &ValidationError{}

	w := cfg.Wind
	requireFinite(v, "wind base speed", w.BaseSpeed)
	requireFinite(v, "wind gust", w.Gust)
	requireFinite(v, "duration", w.Duration)
	requireFinite(v, "step", w.Step)
	if w.BaseSpeed < 0 || w.BaseSpeed < w.Gust {
		v.errorf("wind base speed must be non-negative and not less than the gust")
	}
	if w.Gust < 0 {
		v.errorf("wind gust must be non-negative")
	}
	if w.Duration <= 0 {
		v.errorf("duration must be positive")
	}
	if w.Step <= 0 {
		v.errorf("step must be positive")
	}
	if w.Duration > 0 && w.Step > 0 && w.Duration/w.Step >= MaxGridPoints {
		v.errorf("grid of duration %g and step %g exceeds %d points", w.Duration, w.Step, MaxGridPoints)
	}

	validateEvent(v, "storm", cfg.Storm)
	validateEvent(v, "burst", cfg.Burst)

	if len(v.Problems) > 0 {
		return v
	}
	return nil
}

func validateEvent(v *ValidationError, name string, c domain.EventConfig) {
	requireFinite(v, name+" probability", c.TriggerProbability)
	requireFinite(v, name+" min amplitude", c.MinAmplitude)
	requireFinite(v, name+" max amplitude", c.MaxAmplitude)
	requireFinite(v, name+" min duration", c.MinDuration)
	requireFinite(v, name+" max duration", c.MaxDuration)

	if c.TriggerProbability < 0 {
		v.errorf("%s probability must be non-negative", name)
	}
	if c.MinAmplitude <= 0 {
		v.errorf("%s min amplitude must be positive", name)
	}
	if c.MaxAmplitude <= 0 || c.MaxAmplitude < c.MinAmplitude {
		v.errorf("%s max amplitude must be positive and not less than the min amplitude", name)
	}
	if c.MinDuration <= 0 {
		v.errorf("%s min duration must be positive", name)
	}
	if c.MaxDuration <= 0 || c.MaxDuration < c.MinDuration {
		v.errorf("%s max duration must be positive and not less than the min duration", name)
	}
}

// requireFinite rejects NaN and infinities, which slip past every ordered comparison.
func requireFinite(v *ValidationError, field string, x float64) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		v.errorf("%s must be a finite number, got %g", field, x)
	}
}
