// Package config loads chronicle's run configuration from chronicle.yml with
// defaults suitable for a C/C++-style tree, the tool's original target.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds project-level settings loaded from chronicle.yml.
type Config struct {
	// SourceRoot is the directory enumerated by the source catalog.
	SourceRoot string `yaml:"sourceRoot,omitempty"`

	// Extensions is the set of file extensions considered source files.
	Extensions []string `yaml:"extensions,omitempty"`

	// OutputDir receives every persisted artifact (notes, plan, manual, ...).
	OutputDir string `yaml:"outputDir,omitempty"`

	// MetadataDir optionally holds supplementary context (text extracted from
	// reference PDFs) folded into the overview. Empty disables it.
	MetadataDir string `yaml:"metadataDir,omitempty"`

	// RetrievalEndpoint is the URL of the retrieval index service. Empty
	// disables retrieval augmentation during annotation.
	RetrievalEndpoint string `yaml:"retrievalEndpoint,omitempty"`

	// ModelEndpoint is the URL of the generative model service.
	ModelEndpoint string `yaml:"modelEndpoint,omitempty"`

	// Model names the generative model requested from the endpoint.
	Model string `yaml:"model,omitempty"`

	// Concurrency bounds the worker pools of the annotate and interdocs
	// stages. The manual stage is always sequential.
	Concurrency int `yaml:"concurrency,omitempty"`

	// SnippetCount is the number of retrieval snippets requested per file.
	SnippetCount int `yaml:"snippetCount,omitempty"`

	// MaxClusterSize caps connected-component task size before splitting.
	MaxClusterSize int `yaml:"maxClusterSize,omitempty"`

	// SectionWordBudget is the per-section word target given to the model.
	SectionWordBudget int `yaml:"sectionWordBudget,omitempty"`

	// RetryAttempts bounds delivery attempts per logical model call.
	RetryAttempts int `yaml:"retryAttempts,omitempty"`

	// RetryBackoffBase is the initial backoff delay between attempts.
	RetryBackoffBase time.Duration `yaml:"retryBackoffBase,omitempty"`

	Verbose bool `yaml:"verbose,omitempty"`
}

// Default returns the configuration used when no chronicle.yml exists.
func Default() *Config {
	return &Config{
		SourceRoot:        "./src",
		Extensions:        []string{".h", ".cpp", ".i"},
		OutputDir:         "./chronicle-out",
		Concurrency:       4,
		SnippetCount:      3,
		MaxClusterSize:    6,
		SectionWordBudget: 1500,
		RetryAttempts:     3,
		RetryBackoffBase:  2 * time.Second,
		Model:             "claude-3-5-sonnet-20240620",
	}
}

// Load reads chronicle.yml or chronicle.yaml from dir, overlaying values on
// the defaults. A missing config file is not an error.
func Load(dir string) (*Config, error) {
	cfg := Default()
	for _, name := range []string{"chronicle.yml", "chronicle.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		break
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if len(c.Extensions) == 0 {
		return fmt.Errorf("config: at least one source extension is required")
	}
	for _, ext := range c.Extensions {
		if ext == "" || ext[0] != '.' {
			return fmt.Errorf("config: extension %q must start with a dot", ext)
		}
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("config: concurrency must be >= 1, got %d", c.Concurrency)
	}
	if c.MaxClusterSize < 2 {
		return fmt.Errorf("config: maxClusterSize must be >= 2, got %d", c.MaxClusterSize)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("config: retryAttempts must be >= 1, got %d", c.RetryAttempts)
	}
	return nil
}
