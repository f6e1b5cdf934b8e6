// Package config implements the flag > env > project-file > global-file >
// default precedence chain for DVC's defaults, grounded on the teacher's
// internal/config (project.go, merge.go), retargeted from run-tracking
// settings to palette path / tile size / step limit / output root.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ProjectConfigSchemaV1    = 1
	DefaultProjectConfigPath = "dvc.config.yaml"
)

// ProjectConfigV1 is the optional per-repo config (spec.md's ambient
// config layer — see SPEC_FULL.md §2). YAML, not JSON, because that is the
// file format the teacher already depends on `gopkg.in/yaml.v3` for.
type ProjectConfigV1 struct {
	SchemaVersion int    `yaml:"schemaVersion"`
	PalettePath   string `yaml:"palettePath,omitempty"`
	TileSize      int    `yaml:"tileSize,omitempty"`
	StepLimit     int    `yaml:"stepLimit,omitempty"`
	OutRoot       string `yaml:"outRoot,omitempty"`
}

func loadProject(path string) (ProjectConfigV1, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ProjectConfigV1{}, false, nil
		}
		return ProjectConfigV1{}, false, err
	}
	var cfg ProjectConfigV1
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return ProjectConfigV1{}, false, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if cfg.SchemaVersion != 0 && cfg.SchemaVersion != ProjectConfigSchemaV1 {
		return ProjectConfigV1{}, false, fmt.Errorf("project config unsupported schemaVersion=%d", cfg.SchemaVersion)
	}
	return cfg, true, nil
}

// InitResult is returned by InitProject (the `dvc.config.yaml` bootstrap
// used by tests and an optional future `init` verb).
type InitResult struct {
	OK         bool   `json:"ok"`
	ConfigPath string `json:"configPath"`
	Created    bool   `json:"created"`
}

// InitProject writes a fresh dvc.config.yaml if one doesn't already exist,
// mirroring the teacher's InitProject but without the runs/tmp directory
// scaffolding this domain has no use for.
func InitProject(configPath string, outRoot string) (*InitResult, error) {
	if strings.TrimSpace(configPath) == "" {
		configPath = DefaultProjectConfigPath
	}
	if strings.TrimSpace(outRoot) == "" {
		outRoot = ".dvc"
	}

	if _, err := os.Stat(configPath); err == nil {
		return &InitResult{OK: true, ConfigPath: configPath, Created: false}, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg := ProjectConfigV1{
		SchemaVersion: ProjectConfigSchemaV1,
		TileSize:      16,
		StepLimit:     10_000,
		OutRoot:       outRoot,
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(configPath, b, 0o644); err != nil {
		return nil, err
	}
	return &InitResult{OK: true, ConfigPath: configPath, Created: true}, nil
}
