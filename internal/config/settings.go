package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kennyg/persona-kit/internal/fileio"
)

// ErrMalformedSettings marks an implement.json that exists but cannot be parsed.
var ErrMalformedSettings = errors.New("malformed implementation settings")

// Settings toggles the optional stages of the task execution pipeline.
type Settings struct {
	AutoCommit     bool `json:"auto_commit"`
	CreateBranches bool `json:"create_branches"`
	RunTests       bool `json:"run_tests"`
	GenerateDocs   bool `json:"generate_docs"`
}

// ImplementConfig is the on-disk shape of implement.json
type ImplementConfig struct {
	Settings Settings `json:"settings"`
	Version  string   `json:"version"`
}

// SettingNames lists the settings in display order, keyed as in implement.json.
var SettingNames = []string{"auto_commit", "create_branches", "run_tests", "generate_docs"}

// DefaultImplementConfig returns the settings used when none are saved.
func DefaultImplementConfig() *ImplementConfig {
	return &ImplementConfig{
		Settings: Settings{
			AutoCommit:     true,
			CreateBranches: true,
			RunTests:       true,
			GenerateDocs:   false,
		},
		Version: FormatVersion,
	}
}

// Get returns a setting by its implement.json key.
func (s Settings) Get(name string) (bool, bool) {
	switch name {
	case "auto_commit":
		return s.AutoCommit, true
	case "create_branches":
		return s.CreateBranches, true
	case "run_tests":
		return s.RunTests, true
	case "generate_docs":
		return s.GenerateDocs, true
	}
	return false, false
}

// Set updates a setting by its implement.json key.
func (s *Settings) Set(name string, v bool) error {
	switch name {
	case "auto_commit":
		s.AutoCommit = v
	case "create_branches":
		s.CreateBranches = v
	case "run_tests":
		s.RunTests = v
	case "generate_docs":
		s.GenerateDocs = v
	default:
		return fmt.Errorf("unknown setting %q", name)
	}
	return nil
}

// LoadImplementConfig reads implement.json. The returned config is never nil:
// a missing file yields the defaults, and an unreadable or malformed file yields
// the defaults together with a non-nil warning. Keys absent from the file keep
// their default values.
func LoadImplementConfig(path string) (*ImplementConfig, error) {
	cfg := DefaultImplementConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, &fileio.Error{Op: "read", Path: path, Err: err}
	}

	loaded := DefaultImplementConfig()
	if err := json.Unmarshal(data, loaded); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrMalformedSettings, path, err)
	}
	if loaded.Version == "" {
		loaded.Version = FormatVersion
	}
	return loaded, nil
}

// SaveImplementConfig writes implement.json atomically.
func SaveImplementConfig(path string, cfg *ImplementConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return fileio.WriteFile(path, append(data, '\n'), 0644)
}
