package lithium

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/MozillaSecurity/lithium/internal/strategy"
)

// ConfigFileName is the optional project config file, parsed as JSONC. The
// source tool has no such file; this is a documented enrichment so that
// repeated invocations against the same project need not repeat flags
// (SPEC_FULL.md AMBIENT STACK).
const ConfigFileName = ".lithium.json"

// Config holds resolved reduction settings, before any single-run
// resolution against CLI flags.
type Config struct {
	Strategy  string `json:"strategy,omitempty"`
	Repeat    string `json:"repeat,omitempty"`
	ChunkMax  int    `json:"chunk-max,omitempty"`
	ChunkMin  int    `json:"chunk-min,omitempty"`
	Workspace string `json:"workspace,omitempty"`

	// Source is the path of the project config file that was loaded, or
	// empty if none was found. Diagnostic only.
	Source string `json:"-"`
}

// DefaultConfig returns the built-in defaults (spec §6.1: strategy
// "minimize", repeat "last", chunk-min 1; chunk-max is resolved from the
// testcase length at load time when unset).
func DefaultConfig() Config {
	return Config{
		Strategy: "minimize",
		Repeat:   "last",
		ChunkMin: 1,
	}
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDir    string // defaults to os.Getwd() if empty
	ConfigPath string // explicit --config path; empty means look for ConfigFileName
}

// LoadConfig merges, highest wins: defaults < project config file (JSONC,
// via hujson then encoding/json) < CLI overrides. CLI overrides are applied
// by the caller afterward (internal/cli's applyFlagOverrides), since pflag's "was this flag
// set" state lives with the flag set, not here.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDir
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("%w: cannot get working directory: %w", ErrConfig, err)
		}
	}

	cfg := DefaultConfig()

	fileCfg, path, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Source = path
	cfg = mergeConfig(cfg, fileCfg)

	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	mustExist := configPath != ""

	cfgFile := configPath
	if cfgFile == "" {
		cfgFile = filepath.Join(workDir, ConfigFileName)
	} else if !filepath.IsAbs(cfgFile) {
		cfgFile = filepath.Join(workDir, cfgFile)
	}

	data, err := os.ReadFile(cfgFile)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, "", nil
		}

		return Config{}, "", fmt.Errorf("%w: reading %s: %w", ErrConfig, cfgFile, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, "", fmt.Errorf("%w: %s is not valid JSONC: %w", ErrConfig, cfgFile, err)
	}

	var fileCfg Config

	if err := json.Unmarshal(standardized, &fileCfg); err != nil {
		return Config{}, "", fmt.Errorf("%w: %s: %w", ErrConfig, cfgFile, err)
	}

	return fileCfg, cfgFile, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Strategy != "" {
		base.Strategy = overlay.Strategy
	}

	if overlay.Repeat != "" {
		base.Repeat = overlay.Repeat
	}

	if overlay.ChunkMax != 0 {
		base.ChunkMax = overlay.ChunkMax
	}

	if overlay.ChunkMin != 0 {
		base.ChunkMin = overlay.ChunkMin
	}

	if overlay.Workspace != "" {
		base.Workspace = overlay.Workspace
	}

	return base
}

// ValidateConfig checks strategy/repeat names and the power-of-two
// constraint on chunk bounds (spec §9: "enforce strictly (reject)"). It is
// applied by LoadConfig to the merged file config, and again by the CLI
// after CLI flag overrides are layered on top, since those can introduce
// values the file-level merge never saw.
func ValidateConfig(cfg Config) error {
	if _, ok := strategy.Lookup(cfg.Strategy); !ok {
		return fmt.Errorf("%w: unknown strategy %q", ErrConfig, cfg.Strategy)
	}

	if _, err := strategy.ParseRepeatPolicy(cfg.Repeat); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	if cfg.ChunkMax != 0 && !isPowerOfTwo(cfg.ChunkMax) {
		return fmt.Errorf("%w: chunk-max %d is not a power of two", ErrConfig, cfg.ChunkMax)
	}

	if cfg.ChunkMin != 0 && !isPowerOfTwo(cfg.ChunkMin) {
		return fmt.Errorf("%w: chunk-min %d is not a power of two", ErrConfig, cfg.ChunkMin)
	}

	if cfg.ChunkMax != 0 && cfg.ChunkMin != 0 && cfg.ChunkMin > cfg.ChunkMax {
		return fmt.Errorf("%w: chunk-min %d exceeds chunk-max %d", ErrConfig, cfg.ChunkMin, cfg.ChunkMax)
	}

	return nil
}

// isPowerOfTwo enforces spec §9's strict choice ("enforce strictly
// (reject)") over silently flooring to the nearest power of two.
func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
