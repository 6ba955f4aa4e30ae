// Package config holds the tunable knobs of the extraction engine: filler
// words, alias overrides, the domain lexicon, and scoring thresholds.
// Everything has a built-in default; a YAML file can override any field.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Thresholds are the fixed scoring constants. They are configuration, not
// per-call parameters, so that repeated runs stay reproducible.
type Thresholds struct {
	ThemeMinFreq      float64 `yaml:"theme_min_freq"`      // min normalized term frequency for theme support
	TensionMinMarkers int     `yaml:"tension_min_markers"` // contrast-marker hits needed for a tension
	PolarityGap       int     `yaml:"polarity_gap"`        // opposite-sign polarity distance for a tension
	RouterMargin      float64 `yaml:"router_margin"`       // speakers within this of the top score are returned
	RouterFloor       float64 `yaml:"router_floor"`        // below this the router reports no relevant speaker
	RouterTopK        int     `yaml:"router_top_k"`        // supporting positions per returned speaker
	SignatureMinCount int     `yaml:"signature_min_count"` // n-gram repetitions needed for a signature phrase
}

// Config is the full engine configuration
type Config struct {
	Fillers    []string          `yaml:"fillers"`    // standalone filler tokens stripped at segmentation
	Aliases    map[string]string `yaml:"aliases"`    // explicit raw-ref -> canonical-name overrides
	Lexicon    []string          `yaml:"lexicon"`    // domain terms for skills profiles and themes
	TechTerms  []string          `yaml:"tech_terms"` // vocabulary-register probe list
	Frameworks []string          `yaml:"frameworks"` // named frameworks/technologies to spot
	Stopwords  []string          `yaml:"stopwords"`
	Thresholds Thresholds        `yaml:"thresholds"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Fillers: []string{"um", "uh", "you know"},
		Aliases: map[string]string{},
		Lexicon: []string{
			"ai", "machine learning", "neural", "model", "training", "inference",
			"llm", "agent", "agents", "cloud", "cloud-first", "local-first",
			"server", "deploy", "deployment", "kubernetes", "docker",
			"infrastructure", "compute", "gpu", "cluster", "latency",
			"security", "privacy", "encryption", "auth", "vulnerability",
			"trust", "permission", "user", "product", "feature", "experience",
			"interface", "design", "customer", "revenue", "market", "strategy",
			"growth", "enterprise", "startup", "investment", "open source",
			"github", "community", "contributor", "repository", "license",
			"learn", "teach", "student", "curriculum", "workshop", "policy",
			"regulation", "compliance", "governance", "ethics", "data",
			"pipeline", "api", "protocol", "memory", "transcription",
		},
		TechTerms: []string{
			"algorithm", "infrastructure", "protocol", "api", "model",
			"architecture", "deploy", "inference", "latency", "compute",
			"runtime", "framework", "pipeline", "endpoint", "cluster",
			"gpu", "token", "vector", "embedding", "fine-tune", "kernel",
			"throughput", "orchestration",
		},
		Frameworks: []string{
			"kubernetes", "docker", "react", "pytorch", "tensorflow",
			"postgres", "sqlite", "kafka", "terraform", "linux", "unix",
			"mcp", "rest", "grpc", "graphql", "ffmpeg", "whatsapp",
		},
		Stopwords: []string{
			"that", "this", "with", "have", "from", "they", "been", "were",
			"their", "will", "would", "could", "should", "about", "which",
			"there", "when", "what", "your", "just", "like", "know", "think",
			"going", "really", "very", "also", "some", "more", "than", "then",
			"into", "other", "people", "because", "something", "the", "and",
			"for", "are", "but", "not", "was", "you", "all", "can", "had",
			"has", "its", "our", "out", "say", "she", "too", "use", "how",
			"who", "did", "yes", "his", "her", "them", "these", "those",
			"where", "why", "does", "doing", "here", "over", "only", "such",
			"most", "many", "much", "each", "even", "still", "well", "way",
			"thing", "things", "want", "need", "make", "made", "get", "got",
		},
		Thresholds: Thresholds{
			ThemeMinFreq:      0.002,
			TensionMinMarkers: 2,
			PolarityGap:       2,
			RouterMargin:      0.05,
			RouterFloor:       0.05,
			RouterTopK:        3,
			SignatureMinCount: 2,
		},
	}
}

// Load reads a YAML config file over the defaults. A missing path is not an
// error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// StopwordSet returns the stopword list as a lookup set
func (c *Config) StopwordSet() map[string]bool {
	set := make(map[string]bool, len(c.Stopwords))
	for _, w := range c.Stopwords {
		set[w] = true
	}
	return set
}
