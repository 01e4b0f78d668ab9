// Package config loads strata settings from a YAML file, a .env file and STRATA_* variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full strata configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Engine   EngineConfig   `yaml:"engine"`
	Layout   LayoutConfig   `yaml:"layout"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig locates the fossil store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// EngineConfig holds the analysis thresholds.
type EngineConfig struct {
	CacheCapacity        int     `yaml:"cache_capacity"`
	SemanticThreshold    float64 `yaml:"semantic_threshold"`
	ConflictMin          float64 `yaml:"conflict_min"`
	ConflictMax          float64 `yaml:"conflict_max"`
	ResurfaceTopK        int     `yaml:"resurface_top_k"`
	RelatedMin           float64 `yaml:"related_min"`
	RelatedMax           int     `yaml:"related_max"`
	ClusterMinSize       int     `yaml:"cluster_min_size"`
	ClusterMinSimilarity float64 `yaml:"cluster_min_similarity"`
	SuggestMin           float64 `yaml:"suggest_min"`
	SuggestMax           float64 `yaml:"suggest_max"`
	SuggestLimit         int     `yaml:"suggest_limit"`
	BridgeMinSimilarity  float64 `yaml:"bridge_min_similarity"`
	BridgeLimit          int     `yaml:"bridge_limit"`
	StaleDays            int64   `yaml:"stale_days"`
	HubThreshold         int     `yaml:"hub_threshold"`
}

// LayoutConfig is the default viewport for graph layout.
type LayoutConfig struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Iterations int     `yaml:"iterations"`
	Padding    float64 `yaml:"padding"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			CacheCapacity:        1000,
			SemanticThreshold:    0.30,
			ConflictMin:          0.25,
			ConflictMax:          0.85,
			ResurfaceTopK:        5,
			RelatedMin:           0.2,
			RelatedMax:           5,
			ClusterMinSize:       3,
			ClusterMinSimilarity: 0.3,
			SuggestMin:           0.25,
			SuggestMax:           0.70,
			SuggestLimit:         10,
			BridgeMinSimilarity:  0.15,
			BridgeLimit:          5,
			StaleDays:            30,
			HubThreshold:         10,
		},
		Layout: LayoutConfig{
			Width:      1200,
			Height:     800,
			Iterations: 80,
			Padding:    40,
		},
		Server: ServerConfig{Addr: "127.0.0.1:7077"},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads path (optional; a missing file is not an error), applies .env and
// STRATA_* overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	// .env is optional; real environment variables win over it
	_ = godotenv.Load()
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Database.Path = envString("STRATA_DB", cfg.Database.Path)
	cfg.Server.Addr = envString("STRATA_ADDR", cfg.Server.Addr)
	cfg.Log.Level = envString("STRATA_LOG_LEVEL", cfg.Log.Level)

	cfg.Engine.CacheCapacity = envInt("STRATA_CACHE_CAPACITY", cfg.Engine.CacheCapacity)
	cfg.Engine.SemanticThreshold = envFloat("STRATA_SEMANTIC_THRESHOLD", cfg.Engine.SemanticThreshold)
	cfg.Engine.ConflictMin = envFloat("STRATA_CONFLICT_MIN", cfg.Engine.ConflictMin)
	cfg.Engine.ConflictMax = envFloat("STRATA_CONFLICT_MAX", cfg.Engine.ConflictMax)
	cfg.Engine.ResurfaceTopK = envInt("STRATA_RESURFACE_TOP_K", cfg.Engine.ResurfaceTopK)
	cfg.Engine.StaleDays = int64(envInt("STRATA_STALE_DAYS", int(cfg.Engine.StaleDays)))

	cfg.Layout.Width = envFloat("STRATA_LAYOUT_WIDTH", cfg.Layout.Width)
	cfg.Layout.Height = envFloat("STRATA_LAYOUT_HEIGHT", cfg.Layout.Height)
	cfg.Layout.Iterations = envInt("STRATA_LAYOUT_ITERATIONS", cfg.Layout.Iterations)
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

// Validate checks ranges and cross-field constraints.
func (c Config) Validate() error {
	e := c.Engine
	var errs []error
	if e.CacheCapacity < 0 {
		errs = append(errs, fmt.Errorf("cache_capacity must be >= 0"))
	}
	if e.SemanticThreshold <= 0 || e.SemanticThreshold > 1 {
		errs = append(errs, fmt.Errorf("semantic_threshold must be in (0,1]"))
	}
	if e.ConflictMin < 0 || e.ConflictMax > 1 || e.ConflictMin >= e.ConflictMax {
		errs = append(errs, fmt.Errorf("conflict band must satisfy 0 <= conflict_min < conflict_max <= 1"))
	}
	if e.SuggestMin >= e.SuggestMax {
		errs = append(errs, fmt.Errorf("suggest_min must be below suggest_max"))
	}
	if e.ResurfaceTopK < 1 {
		errs = append(errs, fmt.Errorf("resurface_top_k must be >= 1"))
	}
	if e.StaleDays < 1 {
		errs = append(errs, fmt.Errorf("stale_days must be >= 1"))
	}
	if c.Layout.Width <= 0 || c.Layout.Height <= 0 {
		errs = append(errs, fmt.Errorf("layout width and height must be > 0"))
	}
	if c.Layout.Iterations < 1 {
		errs = append(errs, fmt.Errorf("layout iterations must be >= 1"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}
