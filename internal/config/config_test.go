package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DOCBIND_API_KEY", "DOCBIND_MANIFEST", "DOCBIND_FORMAT", "TOC_INDENT", "TOC_LEADER", "MAX_QUEUE_SIZE", "JOB_TTL"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.Port != "8091" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.Manifest != "book.yaml" {
		t.Errorf("Manifest = %q", cfg.Manifest)
	}
	if cfg.Format != "docx" {
		t.Errorf("Format = %q", cfg.Format)
	}
	if cfg.TOCIndent != 360 || cfg.TOCLeader != "." {
		t.Errorf("toc = %d %q", cfg.TOCIndent, cfg.TOCLeader)
	}
	if cfg.MaxQueueSize != 16 {
		t.Errorf("MaxQueueSize = %d", cfg.MaxQueueSize)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("JobTTL = %v", cfg.JobTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TOC_INDENT", "200")
	t.Setenv("TOC_LEADER", "-")
	t.Setenv("MAX_QUEUE_SIZE", "-3")
	t.Setenv("JOB_TTL", "5m")
	t.Setenv("DOCBIND_FORMAT", "html")

	cfg := Load()
	if cfg.TOCIndent != 200 || cfg.TOCLeader != "-" {
		t.Errorf("toc = %d %q", cfg.TOCIndent, cfg.TOCLeader)
	}
	if cfg.MaxQueueSize != 16 {
		t.Errorf("non-positive queue size should clamp, got %d", cfg.MaxQueueSize)
	}
	if cfg.JobTTL != 5*time.Minute {
		t.Errorf("JobTTL = %v", cfg.JobTTL)
	}
	if cfg.Format != "html" {
		t.Errorf("Format = %q", cfg.Format)
	}
}

func TestLoad_BadNumberFallsBack(t *testing.T) {
	t.Setenv("TOC_INDENT", "wide")
	if cfg := Load(); cfg.TOCIndent != 360 {
		t.Errorf("TOCIndent = %d", cfg.TOCIndent)
	}
}

func TestValidate(t *testing.T) {
	if err := (Config{Manifest: "b.yaml"}).Validate(); err == nil {
		t.Error("expected error without api key")
	}
	if err := (Config{APIKey: "k"}).Validate(); err == nil {
		t.Error("expected error without manifest")
	}
	if err := (Config{APIKey: "k", Manifest: "b.yaml"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
