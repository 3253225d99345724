// Package osbfconfig loads the named-scalar configuration options that
// tune the classifier's bucket table and confidence-factor math.
package osbfconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// APriori selects which header counter seeds the prior probability for a
// class in Classify (§6).
type APriori string

const (
	APrioriLearnings       APriori = "LEARNINGS"
	APrioriInstances       APriori = "INSTANCES"
	APrioriClassifications APriori = "CLASSIFICATIONS"
	APrioriMistakes        APriori = "MISTAKES"
)

// Config is the recognized option set (§6's Configuration options table).
type Config struct {
	MaxChain       uint32  `json:"max_chain"`
	StopAfter      uint32  `json:"stop_after"`
	K1             float64 `json:"k1"`
	// K2 is accepted for compatibility with the reference option table
	// (§6) but has no effect: the classifier's confidence-factor formula
	// is the reference implementation's compiled EDDC_VARIANT==3 branch,
	// which never references it (see osbfengine.confidenceFactor).
	K2             float64 `json:"k2"`
	K3             float64 `json:"k3"`
	LimitTokenSize bool    `json:"limit_token_size"`
	MaxTokenSize   uint32  `json:"max_token_size"`
	MaxLongTokens  uint32  `json:"max_long_tokens"`
	PRScaleFactor  float64 `json:"pr_scf"`
	APriori        APriori `json:"a_priori"`

	// Sources tracks which config files were loaded, for diagnostics.
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string
	Project string
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".osbf.json"

var (
	ErrConfigFileNotFound = errors.New("osbfconfig: config file not found")
	ErrConfigFileRead     = errors.New("osbfconfig: could not read config file")
	ErrConfigInvalid      = errors.New("osbfconfig: invalid config")
	ErrUnknownAPriori     = errors.New("osbfconfig: unknown a_priori value")
)

// Default returns the built-in defaults matching the reference
// implementation's compiled-in constants.
func Default() Config {
	return Config{
		MaxChain:       0, // 0 = auto (§4.4)
		StopAfter:      10000,
		K1:             0.25,
		K2:             12,
		K3:             8,
		LimitTokenSize: false,
		MaxTokenSize:   30,
		MaxLongTokens:  1000,
		PRScaleFactor:  1,
		APriori:        APrioriLearnings,
	}
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDirOverride string // -C/--cwd flag value; empty means os.Getwd()
	ConfigPath      string // -c/--config flag value
	Env             map[string]string
}

// Load loads configuration with the following precedence (highest wins):
//  1. Defaults
//  2. Global user config ($XDG_CONFIG_HOME/osbf/config.json, else
//     ~/.config/osbf/config.json)
//  3. Project config: the explicit file at ConfigPath if non-empty (it must
//     exist), otherwise .osbf.json in the working directory if present.
//     The explicit file replaces the default project file; both are never
//     loaded together.
//
// All config files are JSON-with-comments (hujson), standardized to plain
// JSON before unmarshaling.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("osbfconfig: cannot get working directory: %w", err)
		}
	}

	cfg := Default()

	globalCfg, globalPath, err := loadGlobalConfig(input.Env)
	if err != nil {
		return Config{}, err
	}
	cfg.Sources.Global = globalPath
	cfg = merge(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}
	cfg.Sources.Project = projectPath
	cfg = merge(cfg, projectCfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getGlobalConfigPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "osbf", "config.json")
	}
	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "osbf", "config.json")
	}
	return ""
}

func loadGlobalConfig(env map[string]string) (Config, string, error) {
	path := getGlobalConfigPath(env)
	if path == "" {
		return Config{}, "", nil
	}
	cfg, loaded, err := loadConfigFile(path, false)
	if err != nil || !loaded {
		return Config{}, "", err
	}
	return cfg, path, nil
}

func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	cfgFile := configPath
	mustExist := configPath != ""
	if cfgFile == "" {
		cfgFile = filepath.Join(workDir, ConfigFileName)
	} else if !filepath.IsAbs(cfgFile) {
		cfgFile = filepath.Join(workDir, cfgFile)
	}

	if mustExist {
		if _, err := os.Stat(cfgFile); err != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	}

	cfg, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil || !loaded {
		return Config{}, "", err
	}
	return cfg, cfgFile, nil
}

func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}
		return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: invalid JSONC: %w", ErrConfigInvalid, path, err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}
	return cfg, true, nil
}

func merge(base, overlay Config) Config {
	if overlay.MaxChain != 0 {
		base.MaxChain = overlay.MaxChain
	}
	if overlay.StopAfter != 0 {
		base.StopAfter = overlay.StopAfter
	}
	if overlay.K1 != 0 {
		base.K1 = overlay.K1
	}
	if overlay.K2 != 0 {
		base.K2 = overlay.K2
	}
	if overlay.K3 != 0 {
		base.K3 = overlay.K3
	}
	base.LimitTokenSize = base.LimitTokenSize || overlay.LimitTokenSize
	if overlay.MaxTokenSize != 0 {
		base.MaxTokenSize = overlay.MaxTokenSize
	}
	if overlay.MaxLongTokens != 0 {
		base.MaxLongTokens = overlay.MaxLongTokens
	}
	if overlay.PRScaleFactor != 0 {
		base.PRScaleFactor = overlay.PRScaleFactor
	}
	if overlay.APriori != "" {
		base.APriori = overlay.APriori
	}
	return base
}

func validate(cfg Config) error {
	switch cfg.APriori {
	case APrioriLearnings, APrioriInstances, APrioriClassifications, APrioriMistakes:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAPriori, cfg.APriori)
	}
	return nil
}
