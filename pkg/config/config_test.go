package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Segments.LTVGranularity != 0.01 {
		t.Fatalf("expected default granularity 0.01, got %v", c.Segments.LTVGranularity)
	}
	if c.Scrape.URLsLimit != -1 {
		t.Fatalf("expected unlimited urls by default, got %d", c.Scrape.URLsLimit)
	}
	if c.Scrape.Seed != 42 {
		t.Fatalf("expected default seed 42, got %d", c.Scrape.Seed)
	}
	if len(c.Providers.ICA.Periods) != 4 {
		t.Fatalf("expected 4 default ica periods, got %v", c.Providers.ICA.Periods)
	}
	if len(c.Scrape.Sinks) != 1 || c.Scrape.Sinks[0] != "csv" {
		t.Fatalf("expected default csv sink, got %v", c.Scrape.Sinks)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
scrape:
  targets: [sbab, ica]
  urls_limit: 10
  randomize_order: true
  seed: 7
segments:
  ltv_granularity: 0.05
  loan_volume_bins: "[100_000, 500_000, 100_000]"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Segments.LTVGranularity != 0.05 {
		t.Fatalf("granularity override lost: %v", c.Segments.LTVGranularity)
	}
	if c.Scrape.URLsLimit != 10 || c.Scrape.Seed != 7 || !c.Scrape.RandomizeOrder {
		t.Fatalf("scrape overrides lost: %+v", c.Scrape)
	}
	if len(c.Scrape.Targets) != 2 {
		t.Fatalf("expected 2 targets, got %v", c.Scrape.Targets)
	}
}

func TestLoadRejectsBadGranularity(t *testing.T) {
	path := writeConfig(t, "segments:\n  ltv_granularity: 0.7\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("granularity above 0.5 should be rejected")
	}

	path = writeConfig(t, "segments:\n  ltv_granularity: -0.1\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("negative granularity should be rejected")
	}
}

func TestLoadRejectsKafkaWithoutBrokers(t *testing.T) {
	path := writeConfig(t, "kafka:\n  enabled: true\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("kafka sink without brokers should be rejected")
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("RATEPULL_TARGETS", "hypoteket,skandia")
	t.Setenv("RATEPULL_DATA_DIR", "/tmp/runs")
	t.Setenv("RATEPULL_SEED", "1337")

	c, err := LoadWithEnv("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Scrape.Targets) != 2 || c.Scrape.Targets[0] != "hypoteket" {
		t.Fatalf("env targets lost: %v", c.Scrape.Targets)
	}
	if c.CSV.DataDir != "/tmp/runs" {
		t.Fatalf("env data dir lost: %v", c.CSV.DataDir)
	}
	if c.Scrape.Seed != 1337 {
		t.Fatalf("env seed lost: %v", c.Scrape.Seed)
	}
}
