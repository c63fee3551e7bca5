package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical run defaults file.
const DefaultConfigPath = "config/location.defaults.json"

const maxFileSize = 1 * 1024 * 1024

// RunConfig holds the tunables shared by the geogrid and heatmovie tools.
// Omitted fields fall back to the defaults returned by the Get* methods.
type RunConfig struct {
	// Grid aggregation
	Precision          *int     `json:"precision,omitempty"`
	InterpolationSteps *int     `json:"interpolation_steps,omitempty"`
	PathActivities     []string `json:"path_activities,omitempty"`
	Workers            *int     `json:"workers,omitempty"`

	// Temporal density
	MinuteStep        *int     `json:"minute_step,omitempty"`
	Persistence       *float64 `json:"persistence,omitempty"`
	SmoothingSigma    *float64 `json:"smoothing_sigma,omitempty"`
	SmoothingTruncate *float64 `json:"smoothing_truncate,omitempty"`
	Percentiles       *int     `json:"percentiles,omitempty"`

	// Rendering
	GIFMaxHeight *int     `json:"gif_max_height,omitempty"`
	GIFDelay     *string  `json:"gif_delay,omitempty"` // duration string like "300ms"
	OverlayAlpha *float64 `json:"overlay_alpha,omitempty"`
	BaseAlpha    *float64 `json:"base_alpha,omitempty"`
	FrameDPI     *float64 `json:"frame_dpi,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultRunConfig returns a config with every field set to its default.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		Precision:          ptrInt(3),
		InterpolationSteps: ptrInt(3),
		PathActivities:     []string{"WALKING", "CYCLING", "RUNNING"},
		Workers:            ptrInt(1),
		MinuteStep:         ptrInt(15),
		Persistence:        ptrFloat64(4),
		SmoothingSigma:     ptrFloat64(1),
		SmoothingTruncate:  ptrFloat64(4),
		Percentiles:        ptrInt(99),
		GIFMaxHeight:       ptrInt(500),
		GIFDelay:           ptrString("300ms"),
		OverlayAlpha:       ptrFloat64(0.5),
		BaseAlpha:          ptrFloat64(0.48),
		FrameDPI:           ptrFloat64(90),
	}
}

// LoadRunConfig loads a RunConfig from a JSON file. Partial files are
// fine; unknown keys are rejected so typos do not pass silently.
func LoadRunConfig(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	cfg := &RunConfig{}
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. It panics when the
// file cannot be loaded and is intended for test setup.
func MustLoadDefaultConfig() *RunConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadRunConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set.
func (c *RunConfig) Validate() error {
	if c.Precision != nil && (*c.Precision < 0 || *c.Precision > 7) {
		return fmt.Errorf("precision must be between 0 and 7, got %d", *c.Precision)
	}
	if c.InterpolationSteps != nil && *c.InterpolationSteps < 1 {
		return fmt.Errorf("interpolation_steps must be positive, got %d", *c.InterpolationSteps)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", *c.Workers)
	}
	if c.MinuteStep != nil && (*c.MinuteStep < 1 || *c.MinuteStep > 1440) {
		return fmt.Errorf("minute_step must be between 1 and 1440, got %d", *c.MinuteStep)
	}
	if c.Persistence != nil && *c.Persistence < 0 {
		return fmt.Errorf("persistence must be non-negative, got %f", *c.Persistence)
	}
	if c.SmoothingSigma != nil && *c.SmoothingSigma < 0 {
		return fmt.Errorf("smoothing_sigma must be non-negative, got %f", *c.SmoothingSigma)
	}
	if c.SmoothingTruncate != nil && *c.SmoothingTruncate < 0 {
		return fmt.Errorf("smoothing_truncate must be non-negative, got %f", *c.SmoothingTruncate)
	}
	if c.Percentiles != nil && *c.Percentiles < 1 {
		return fmt.Errorf("percentiles must be positive, got %d", *c.Percentiles)
	}
	if c.GIFMaxHeight != nil && *c.GIFMaxHeight < 1 {
		return fmt.Errorf("gif_max_height must be positive, got %d", *c.GIFMaxHeight)
	}
	if c.GIFDelay != nil && *c.GIFDelay != "" {
		if _, err := time.ParseDuration(*c.GIFDelay); err != nil {
			return fmt.Errorf("invalid gif_delay '%s': %w", *c.GIFDelay, err)
		}
	}
	for name, v := range map[string]*float64{"overlay_alpha": c.OverlayAlpha, "base_alpha": c.BaseAlpha} {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
		}
	}
	if c.FrameDPI != nil && *c.FrameDPI <= 0 {
		return fmt.Errorf("frame_dpi must be positive, got %f", *c.FrameDPI)
	}
	return nil
}

func getInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func getFloat(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// GetPrecision returns the grid decimal precision.
func (c *RunConfig) GetPrecision() int { return getInt(c.Precision, 3) }

// GetInterpolationSteps returns the samples taken per path segment.
func (c *RunConfig) GetInterpolationSteps() int { return getInt(c.InterpolationSteps, 3) }

// GetPathActivities returns the activity types aggregated as paths.
func (c *RunConfig) GetPathActivities() []string {
	if len(c.PathActivities) == 0 {
		return []string{"WALKING", "CYCLING", "RUNNING"}
	}
	return append([]string(nil), c.PathActivities...)
}

// GetWorkers returns the number of files aggregated concurrently.
func (c *RunConfig) GetWorkers() int { return getInt(c.Workers, 1) }

// GetMinuteStep returns the time bin width in minutes.
func (c *RunConfig) GetMinuteStep() int { return getInt(c.MinuteStep, 15) }

// GetPersistence returns the moving average weight of a new frame.
func (c *RunConfig) GetPersistence() float64 { return getFloat(c.Persistence, 4) }

func (c *RunConfig) GetSmoothingSigma() float64    { return getFloat(c.SmoothingSigma, 1) }
func (c *RunConfig) GetSmoothingTruncate() float64 { return getFloat(c.SmoothingTruncate, 4) }
func (c *RunConfig) GetPercentiles() int           { return getInt(c.Percentiles, 99) }
func (c *RunConfig) GetGIFMaxHeight() int          { return getInt(c.GIFMaxHeight, 500) }
func (c *RunConfig) GetOverlayAlpha() float64      { return getFloat(c.OverlayAlpha, 0.5) }
func (c *RunConfig) GetBaseAlpha() float64         { return getFloat(c.BaseAlpha, 0.48) }
func (c *RunConfig) GetFrameDPI() float64          { return getFloat(c.FrameDPI, 90) }

// GetGIFDelay parses GIFDelay, falling back to 300ms.
func (c *RunConfig) GetGIFDelay() time.Duration {
	if c.GIFDelay == nil || *c.GIFDelay == "" {
		return 300 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.GIFDelay)
	if err != nil {
		return 300 * time.Millisecond
	}
	return d
}
