// Package mconfig loads and merges mascot.conf.json files from a
// workspace directory hierarchy, giving the "caller supplies a
// configuration base object" input of spec.md §6 a concrete, on-disk
// representation. It is adapted from the teacher's fbs.conf.json
// walk-up-merge-down loader (pkg/config.LoadConfiguration).
package mconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the merged result of every mascot.conf.json found between
// startDir and the filesystem root.
type Config struct {
	ConfigType      string                 `json:"config_type,omitempty"`
	BinDir          string                 `json:"bin_dir,omitempty"`
	SrcDir          string                 `json:"src_dir,omitempty"`
	CopyAssets      *bool                  `json:"copy_assets,omitempty"`
	SDKPath         string                 `json:"sdk_path,omitempty"`
	CompilerCommand string                 `json:"compiler_command,omitempty"`
	AsconfigBase    map[string]interface{} `json:"asconfig_base,omitempty"`
	SettingsExtra   map[string]interface{} `json:"settings_extra,omitempty"`
}

// Load walks up from startDir to the filesystem root collecting every
// mascot.conf.json encountered, then merges them root-to-leaf so the
// most specific (deepest) file wins per scalar field, and asconfig_base
// / settings_extra are merged key-by-key with the same leaf-wins rule.
func Load(startDir string) (*Config, error) {
	cfg := &Config{AsconfigBase: map[string]interface{}{}, SettingsExtra: map[string]interface{}{}}

	var configFiles []string
	currentDir := startDir
	for {
		path := filepath.Join(currentDir, "mascot.conf.json")
		if _, err := os.Stat(path); err == nil {
			configFiles = append(configFiles, path)
		}
		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			break
		}
		currentDir = parent
	}

	for i := len(configFiles) - 1; i >= 0; i-- {
		if err := cfg.mergeFile(configFiles[i]); err != nil {
			return nil, fmt.Errorf("failed to merge config file %s: %w", configFiles[i], err)
		}
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var leaf Config
	if err := json.Unmarshal(data, &leaf); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if leaf.ConfigType != "" {
		c.ConfigType = leaf.ConfigType
	}
	if leaf.BinDir != "" {
		c.BinDir = leaf.BinDir
	}
	if leaf.SrcDir != "" {
		c.SrcDir = leaf.SrcDir
	}
	if leaf.CopyAssets != nil {
		c.CopyAssets = leaf.CopyAssets
	}
	if leaf.SDKPath != "" {
		c.SDKPath = leaf.SDKPath
	}
	if leaf.CompilerCommand != "" {
		c.CompilerCommand = leaf.CompilerCommand
	}
	for k, v := range leaf.AsconfigBase {
		c.AsconfigBase[k] = v
	}
	for k, v := range leaf.SettingsExtra {
		c.SettingsExtra[k] = v
	}

	return nil
}
