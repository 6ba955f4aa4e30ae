package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if len(cfg.Fillers) == 0 || len(cfg.Lexicon) == 0 || len(cfg.Stopwords) == 0 {
		t.Fatal("defaults incomplete")
	}
	th := cfg.Thresholds
	if th.TensionMinMarkers <= 0 || th.RouterMargin <= 0 || th.RouterFloor <= 0 || th.RouterTopK <= 0 {
		t.Errorf("thresholds = %+v", th)
	}
}

func TestLoadMissingPathKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Lexicon) != len(Default().Lexicon) {
		t.Error("missing file should leave defaults untouched")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "confmind.yaml")
	data := []byte("fillers: [erm]\naliases:\n  js: \"Jane Smith\"\nthresholds:\n  router_top_k: 5\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Fillers) != 1 || cfg.Fillers[0] != "erm" {
		t.Errorf("fillers = %v", cfg.Fillers)
	}
	if cfg.Aliases["js"] != "Jane Smith" {
		t.Errorf("aliases = %v", cfg.Aliases)
	}
	if cfg.Thresholds.RouterTopK != 5 {
		t.Errorf("router_top_k = %d", cfg.Thresholds.RouterTopK)
	}
	// Unset fields keep defaults
	if len(cfg.Lexicon) == 0 {
		t.Error("lexicon lost on partial override")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("fillers: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed yaml should fail")
	}
}
