// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/scene-relations-mcp/internal/spatial"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	LogLevel string `env:"SCENE_MCP_LOG_LEVEL" envDefault:"info"`

	GeminiAPIKey     string        `env:"GEMINI_API_KEY"`
	GeminiModel      string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-pro"`
	GeminiBaseURL    string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	NarrativeTimeout time.Duration `env:"SCENE_NARRATIVE_TIMEOUT" envDefault:"30s"`

	// MinConfidence drops detections scoring below it before inference.
	MinConfidence float64 `env:"SCENE_MIN_CONFIDENCE" envDefault:"0"`

	DominanceAreaRatio  float64 `env:"SCENE_DOMINANCE_AREA_RATIO" envDefault:"0.10"`
	ProximityWidthRatio float64 `env:"SCENE_PROXIMITY_WIDTH_RATIO" envDefault:"0.15"`
	OverlapIoU          float64 `env:"SCENE_OVERLAP_IOU" envDefault:"0.05"`
	OverlapWeight       float64 `env:"SCENE_OVERLAP_WEIGHT" envDefault:"1000"`
	MaxPairs            int     `env:"SCENE_MAX_PAIRS" envDefault:"15"`

	// EngineFile is an optional YAML file whose keys override the
	// threshold variables above.
	EngineFile string `env:"SCENE_ENGINE_CONFIG"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// Engine returns the validated engine thresholds, with EngineFile applied on
// top of the environment values when set.
func (c *Config) Engine() (spatial.Config, error) {
	cfg := spatial.Config{
		DominanceAreaRatio:  c.DominanceAreaRatio,
		ProximityWidthRatio: c.ProximityWidthRatio,
		OverlapIoU:          c.OverlapIoU,
		OverlapWeight:       c.OverlapWeight,
		MaxPairs:            c.MaxPairs,
	}
	if c.EngineFile != "" {
		var err error
		if cfg, err = LoadEngineFile(c.EngineFile, cfg); err != nil {
			return spatial.Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return spatial.Config{}, err
	}
	return cfg, nil
}

// LoadEngineFile reads threshold overrides from a YAML file. Keys missing from
// the file keep their value from base.
func LoadEngineFile(path string, base spatial.Config) (spatial.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return spatial.Config{}, fmt.Errorf("read engine config: %w", err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return spatial.Config{}, fmt.Errorf("parse engine config %s: %w", path, err)
	}
	return cfg, nil
}
