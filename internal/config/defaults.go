package config

import "path/filepath"

// Defaults for the analytics operations.
const (
	DefaultSentenceCount = 7
	DefaultTopTerms      = 15
	DefaultThreshold     = 0.25
	DefaultMaxNodes      = 60
	DefaultSearchLimit   = 10
	MaxSearchLimit       = 100
	DefaultTitleBoost    = 10.0
	DefaultFuzziness     = 2
)

// DefaultExtensions are the file types ingest accepts.
var DefaultExtensions = []string{".pdf", ".docx", ".html", ".htm", ".txt", ".md", ".rst", ".xlsx"}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Project == "" {
		cfg.Project = "."
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = filepath.Join(cfg.Project, "paperbox.db")
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = filepath.Join(cfg.Project, "index.bleve")
	}
	if cfg.Analytics.SentenceCount == 0 {
		cfg.Analytics.SentenceCount = DefaultSentenceCount
	}
	if cfg.Analytics.TopTerms == 0 {
		cfg.Analytics.TopTerms = DefaultTopTerms
	}
	if cfg.Analytics.Threshold == nil {
		th := DefaultThreshold
		cfg.Analytics.Threshold = &th
	}
	if cfg.Analytics.MaxNodes == 0 {
		cfg.Analytics.MaxNodes = DefaultMaxNodes
	}
	if cfg.Search.Limit == 0 {
		cfg.Search.Limit = DefaultSearchLimit
	}
	if cfg.Search.TitleBoost == 0 {
		cfg.Search.TitleBoost = DefaultTitleBoost
	}
	if cfg.Search.Fuzziness == 0 {
		cfg.Search.Fuzziness = DefaultFuzziness
	}
	if cfg.Search.AutoFuzzy == nil {
		auto := true
		cfg.Search.AutoFuzzy = &auto
	}
	if cfg.Ingest.Extensions == nil {
		cfg.Ingest.Extensions = append([]string(nil), DefaultExtensions...)
	}
}
