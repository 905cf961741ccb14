package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := LoadConfig(path)

	if cfg.Crawl.Mode != "pool" || cfg.Crawl.Workers != 5 || cfg.Crawl.MaxPages != 50 {
		t.Fatalf("unexpected crawl defaults: %+v", cfg.Crawl)
	}
	if cfg.Crawl.Timeout != 8*time.Second {
		t.Fatalf("expected 8s timeout, got %s", cfg.Crawl.Timeout)
	}
	if len(cfg.Crawl.StartURLs) != len(DefaultStartURLs) {
		t.Fatalf("expected default start urls, got %v", cfg.Crawl.StartURLs)
	}
	if cfg.Chunking.Size != 1000 || cfg.Chunking.Overlap != 200 {
		t.Fatalf("unexpected chunking defaults: %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 10 || cfg.Retrieval.Mode != "vector" {
		t.Fatalf("unexpected retrieval defaults: %+v", cfg.Retrieval)
	}
	if cfg.Index.Path != "data/index.db" {
		t.Fatalf("unexpected index path %q", cfg.Index.Path)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"crawl": {"mode": "depth", "max_depth": 3, "delay": "250ms", "start_urls": ["https://example.com/"]},
	          "chunking": {"size": 500, "overlap": 50}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CAMPUSBOT_RETRIEVAL_TOP_K", "4")

	cfg := LoadConfig(path)
	if cfg.Crawl.Mode != "depth" || cfg.Crawl.MaxDepth != 3 {
		t.Fatalf("unexpected crawl config: %+v", cfg.Crawl)
	}
	if cfg.Crawl.Delay != 250*time.Millisecond {
		t.Fatalf("expected 250ms delay, got %s", cfg.Crawl.Delay)
	}
	if cfg.Chunking.Size != 500 || cfg.Chunking.Overlap != 50 {
		t.Fatalf("unexpected chunking: %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 4 {
		t.Fatalf("expected env override of top_k, got %d", cfg.Retrieval.TopK)
	}
}

func TestLoadConfigPanicsOnInvalidMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"crawl": {"mode": "sideways"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for invalid crawl mode")
		}
	}()
	LoadConfig(path)
}

func TestChunkingValidate(t *testing.T) {
	if err := (ChunkingConfig{Size: 100, Overlap: 100}).Validate(); err == nil {
		t.Fatalf("expected overlap >= size to fail")
	}
	if err := (ChunkingConfig{Size: 100, Overlap: 10}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
