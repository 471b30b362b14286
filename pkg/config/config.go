// Package config loads .gil.yaml and merges editor settings into it.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/errors"
)

// FileName is the configuration file looked up from the workspace root upwards
const FileName = ".gil.yaml"

const (
	DefaultOpenModule      = "Prelude"
	DefaultImportKeyword   = "import"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultAnalysisTimeout = 10 * time.Second
)

// AnalysisConfig selects the analysis backend. An empty Command means the
// built-in Go backend.
type AnalysisConfig struct {
	Command []string      `yaml:"command,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Symbol is an extra entry for the built-in backend's symbol index
type Symbol struct {
	Identifier string `yaml:"identifier"`
	Module     string `yaml:"module"`
	Namespace  string `yaml:"namespace,omitempty"` // value or type; empty matches both
}

type Config struct {
	AutoAddImport  bool           `yaml:"autoAddImport"`
	OpenModule     string         `yaml:"openModule"`
	ImportKeyword  string         `yaml:"importKeyword"`
	Orgs           []string       `yaml:"orgs,omitempty"`
	CurrentProject string         `yaml:"currentProject,omitempty"`
	Exclude        []string       `yaml:"exclude,omitempty"`
	LogLevel       string         `yaml:"logLevel"`
	LogFormat      string         `yaml:"logFormat"`
	LogFile        string         `yaml:"logFile,omitempty"`
	Analysis       AnalysisConfig `yaml:"analysis"`
	Symbols        []Symbol       `yaml:"symbols,omitempty"`
}

func Default() *Config {
	return &Config{
		AutoAddImport: true,
		OpenModule:    DefaultOpenModule,
		ImportKeyword: DefaultImportKeyword,
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		Analysis: AnalysisConfig{
			Timeout: DefaultAnalysisTimeout,
		},
	}
}

// Find walks up from dir looking for FileName. It returns "" when no file
// exists between dir and the filesystem root.
func Find(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, FileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errors.ErrMsgFailedToReadConfig, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s %s: %w", errors.ErrMsgFailedToParseConfig, path, err)
	}

	if cfg.ImportKeyword == "" {
		cfg.ImportKeyword = DefaultImportKeyword
	}
	if cfg.Analysis.Timeout <= 0 {
		cfg.Analysis.Timeout = DefaultAnalysisTimeout
	}
	return cfg, nil
}

// Clone returns a copy that shares no slices with c
func (c *Config) Clone() *Config {
	out := *c
	out.Orgs = append([]string(nil), c.Orgs...)
	out.Exclude = append([]string(nil), c.Exclude...)
	out.Analysis.Command = append([]string(nil), c.Analysis.Command...)
	out.Symbols = append([]Symbol(nil), c.Symbols...)
	return &out
}

// Settings is the shape of workspace/didChangeConfiguration params.settings
type Settings struct {
	Gil struct {
		AutoAddImport *bool   `json:"autoAddImport"`
		OpenModule    *string `json:"openModule"`
	} `json:"gil"`
}

// ApplySettings merges the runtime-adjustable fields of raw into c and
// reports whether anything changed. Unknown or malformed settings are ignored.
func (c *Config) ApplySettings(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var settings Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return false
	}

	changed := false
	if v := settings.Gil.AutoAddImport; v != nil && *v != c.AutoAddImport {
		c.AutoAddImport = *v
		changed = true
	}
	if v := settings.Gil.OpenModule; v != nil && *v != c.OpenModule {
		c.OpenModule = *v
		changed = true
	}
	return changed
}
