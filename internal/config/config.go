// Package config provides configuration loading and structs for paperbox.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up inside a project directory.
const FileName = "paperbox.yaml"

// Environment overrides.
const (
	EnvProject = "PAPERBOX_PROJECT"
	EnvConfig  = "PAPERBOX_CONFIG"
	EnvDebug   = "PAPERBOX_DEBUG"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Project   string          `yaml:"project"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Search    SearchConfig    `yaml:"search"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// ServerConfig holds HTTP server settings. The API ingests any path readable by the server
// process (POST /api/v1/ingest), so Host should stay a loopback address unless every client
// is trusted with the file system.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the document database and the full-text index.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	IndexPath    string `yaml:"index_path"`
}

// AnalyticsConfig holds the defaults for summarize, compare and graph.
type AnalyticsConfig struct {
	SentenceCount int      `yaml:"sentence_count"`
	TopTerms      int      `yaml:"top_terms"`
	Threshold     *float64 `yaml:"threshold"`
	MaxNodes      int      `yaml:"max_nodes"`
}

// ThresholdOrDefault returns the graph edge threshold; zero is a valid value, so only an
// unset threshold falls back to DefaultThreshold.
func (a *AnalyticsConfig) ThresholdOrDefault() float64 {
	if a.Threshold != nil {
		return *a.Threshold
	}
	return DefaultThreshold
}

// SearchConfig holds keyword search settings.
type SearchConfig struct {
	Limit int `yaml:"limit"`
	// TitleBoost multiplies the score of title matches; values <= 1 disable it.
	TitleBoost float64 `yaml:"title_boost"`
	// Fuzziness is the edit distance (1 or 2) used by fuzzy searches.
	Fuzziness int `yaml:"fuzziness"`
	// AutoFuzzy retries a search with no hits as a fuzzy search.
	AutoFuzzy *bool `yaml:"auto_fuzzy"`
}

// AutoFuzzyOrDefault reports whether empty searches are retried fuzzily; unset means true.
func (s *SearchConfig) AutoFuzzyOrDefault() bool {
	if s.AutoFuzzy != nil {
		return *s.AutoFuzzy
	}
	return true
}

// IngestConfig holds ingest settings.
type IngestConfig struct {
	Extensions []string `yaml:"extensions"`
}

// Address returns host:port for the HTTP server.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns a config for the project directory with all defaults applied.
func Default(project string) *Config {
	cfg := &Config{Project: project}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Relative paths resolve against the directory holding the file.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	if cfg.Project == "" {
		cfg.Project = configDir
	} else {
		cfg.Project = expandPath(cfg.Project, configDir)
	}
	ApplyDefaults(&cfg)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, cfg.Project)
	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, cfg.Project)

	return &cfg, nil
}

// Resolve finds the active config: explicit path, else $PAPERBOX_CONFIG, else
// <project>/paperbox.yaml if it exists, else defaults for project. An optional .env file in
// the working directory is loaded first, and environment overrides are applied last.
func Resolve(path, project string) (*Config, error) {
	LoadDotEnv(".env")
	if project == "" {
		project = os.Getenv(EnvProject)
	}
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		dir := project
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}

	var cfg *Config
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = Default(project)
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// ApplyEnv overrides cfg.Debug with PAPERBOX_DEBUG when it is set.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvDebug); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvDebug, v, err)
		}
		cfg.Debug = debug
	}
	return nil
}

// Validate rejects out-of-range analytics and search defaults and an unusable server port.
func Validate(cfg *Config) error {
	a := cfg.Analytics
	if a.SentenceCount <= 0 {
		return fmt.Errorf("analytics.sentence_count must be positive, got %d", a.SentenceCount)
	}
	if a.TopTerms <= 0 {
		return fmt.Errorf("analytics.top_terms must be positive, got %d", a.TopTerms)
	}
	if a.MaxNodes <= 0 {
		return fmt.Errorf("analytics.max_nodes must be positive, got %d", a.MaxNodes)
	}
	if th := a.ThresholdOrDefault(); math.IsNaN(th) || th < 0 || th > 1 {
		return fmt.Errorf("analytics.threshold must be within [0,1], got %v", th)
	}
	sc := cfg.Search
	if sc.Limit < 1 || sc.Limit > MaxSearchLimit {
		return fmt.Errorf("search.limit must be within [1,%d], got %d", MaxSearchLimit, sc.Limit)
	}
	if math.IsNaN(sc.TitleBoost) || sc.TitleBoost < 0 {
		return fmt.Errorf("search.title_boost must not be negative, got %v", sc.TitleBoost)
	}
	if sc.Fuzziness < 1 || sc.Fuzziness > 2 {
		return fmt.Errorf("search.fuzziness must be 1 or 2, got %d", sc.Fuzziness)
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	return nil
}

// Save writes the config to path, creating the parent directory when needed.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// InitProject writes a starter paperbox.yaml into project unless one exists. Storage paths in
// the file are relative to the project directory. It returns the file path and whether it
// was created.
func InitProject(project string) (string, bool, error) {
	path := filepath.Join(project, FileName)
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}
	cfg := Default("")
	cfg.Project = ""
	cfg.Storage = StorageConfig{DatabasePath: "paperbox.db", IndexPath: "index.bleve"}
	if err := Save(path, cfg); err != nil {
		return "", false, err
	}
	return path, true, nil
}

// expandPath converts a path to absolute. "~/" paths are relative to the home directory;
// other relative paths are relative to baseDir.
func expandPath(path string, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	return filepath.Join(baseDir, path)
}
