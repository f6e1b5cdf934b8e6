package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/marcohefti/dvc/internal/schema"
)

// Merged is the resolved defaults a CLI subcommand falls back to when a
// flag is not supplied (spec.md doesn't mandate these defaults, but every
// subcommand needs one: palette path, tile size, step limit, output root).
type Merged struct {
	PalettePath string
	TileSize    int
	StepLimit   int
	OutRoot     string
	Source      string
}

// GlobalConfigV1 is the optional `~/.dvc/config.json` carried over from the
// teacher's global-config layer (JSON there, unlike the YAML project file,
// matching the teacher's own asymmetry between the two).
type GlobalConfigV1 struct {
	SchemaVersion int    `json:"schemaVersion"`
	PalettePath   string `json:"palettePath,omitempty"`
	TileSize      int    `json:"tileSize,omitempty"`
	StepLimit     int    `json:"stepLimit,omitempty"`
	OutRoot       string `json:"outRoot,omitempty"`
}

func DefaultGlobalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".dvc", "config.json"), nil
}

// FlagOverrides carries the CLI flags a subcommand actually parsed; zero
// values mean "not supplied" and fall through to env/project/global/default.
type FlagOverrides struct {
	PalettePath string
	TileSize    int
	StepLimit   int
	OutRoot     string
}

// LoadMerged resolves flag > env > project (dvc.config.yaml) > global
// (~/.dvc/config.json) > built-in default, per field.
func LoadMerged(flags FlagOverrides) (Merged, error) {
	projectCfg, hasProjectCfg, err := loadProject(DefaultProjectConfigPath)
	if err != nil {
		return Merged{}, err
	}
	globalPath, err := DefaultGlobalConfigPath()
	if err != nil {
		return Merged{}, err
	}
	globalCfg, hasGlobalCfg, err := loadGlobal(globalPath)
	if err != nil {
		return Merged{}, err
	}

	res := Merged{
		TileSize:  16,
		StepLimit: schema.DefaultStepLimit,
		OutRoot:   ".dvc",
		Source:    "default",
	}

	res.PalettePath, res.Source = resolveString(
		flags.PalettePath, os.Getenv("DVC_PALETTE_PATH"),
		hasProjectCfg, projectCfg.PalettePath,
		hasGlobalCfg, globalCfg.PalettePath,
		res.PalettePath, globalPath,
	)
	res.OutRoot, _ = resolveString(
		flags.OutRoot, os.Getenv("DVC_OUT_ROOT"),
		hasProjectCfg, projectCfg.OutRoot,
		hasGlobalCfg, globalCfg.OutRoot,
		res.OutRoot, globalPath,
	)
	if v := resolveInt(flags.TileSize, os.Getenv("DVC_TILE_SIZE"), hasProjectCfg, projectCfg.TileSize, hasGlobalCfg, globalCfg.TileSize); v > 0 {
		res.TileSize = v
	}
	if v := resolveInt(flags.StepLimit, os.Getenv("DVC_STEP_LIMIT"), hasProjectCfg, projectCfg.StepLimit, hasGlobalCfg, globalCfg.StepLimit); v > 0 {
		res.StepLimit = v
	}

	return res, nil
}

func resolveString(flagVal, envVal string, hasProject bool, projectVal string, hasGlobal bool, globalVal string, fallback, globalPath string) (string, string) {
	if strings.TrimSpace(flagVal) != "" {
		return flagVal, "flag"
	}
	if strings.TrimSpace(envVal) != "" {
		return envVal, "env"
	}
	if hasProject && strings.TrimSpace(projectVal) != "" {
		return projectVal, DefaultProjectConfigPath
	}
	if hasGlobal && strings.TrimSpace(globalVal) != "" {
		return globalVal, globalPath
	}
	return fallback, "default"
}

func resolveInt(flagVal int, envVal string, hasProject bool, projectVal int, hasGlobal bool, globalVal int) int {
	if flagVal > 0 {
		return flagVal
	}
	if v, err := strconv.Atoi(strings.TrimSpace(envVal)); err == nil && v > 0 {
		return v
	}
	if hasProject && projectVal > 0 {
		return projectVal
	}
	if hasGlobal && globalVal > 0 {
		return globalVal
	}
	return 0
}

func loadGlobal(path string) (GlobalConfigV1, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return GlobalConfigV1{}, false, nil
		}
		return GlobalConfigV1{}, false, err
	}
	var cfg GlobalConfigV1
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return GlobalConfigV1{}, false, err
	}
	if cfg.SchemaVersion != 0 && cfg.SchemaVersion != 1 {
		return GlobalConfigV1{}, false, fmt.Errorf("global config unsupported schemaVersion=%d", cfg.SchemaVersion)
	}
	return cfg, true, nil
}
