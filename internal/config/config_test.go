package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("WORKBOT_WORKSECTION_URL", "https://tracker.example/api")
	t.Setenv("WORKBOT_WORKSECTION_SECRET", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.StateBackend != "auto" {
		t.Fatalf("StateBackend = %q", cfg.StateBackend)
	}
	if cfg.DraftTTL != 24*time.Hour {
		t.Fatalf("DraftTTL = %v", cfg.DraftTTL)
	}
	if cfg.MaxAttachmentMB != 5 {
		t.Fatalf("MaxAttachmentMB = %d", cfg.MaxAttachmentMB)
	}
	if cfg.MaxAttachmentBytes() != 5<<20 {
		t.Fatalf("MaxAttachmentBytes() = %d", cfg.MaxAttachmentBytes())
	}
	if !cfg.CurrencyEnabled {
		t.Fatalf("CurrencyEnabled = false by default")
	}
	if cfg.QueueSize != 16 {
		t.Fatalf("QueueSize = %d", cfg.QueueSize)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("WORKBOT_BIND_ADDR", ":9191")
	t.Setenv("WORKBOT_REMOTE_TIMEOUT", "3s")
	t.Setenv("WORKBOT_MAX_ATTACHMENT_MB", "2")
	t.Setenv("WORKBOT_STATE_BACKEND", "nats")
	t.Setenv("WORKBOT_NATS_URL", "nats://localhost:4222")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9191" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.RemoteTimeout != 3*time.Second {
		t.Fatalf("RemoteTimeout = %v", cfg.RemoteTimeout)
	}
	if cfg.MaxAttachmentBytes() != 2<<20 {
		t.Fatalf("MaxAttachmentBytes() = %d", cfg.MaxAttachmentBytes())
	}
	if cfg.StateBackend != "nats" || cfg.NATSURL != "nats://localhost:4222" {
		t.Fatalf("state backend = %q / %q", cfg.StateBackend, cfg.NATSURL)
	}
}

func TestLoadRequiresTrackerSettings(t *testing.T) {
	t.Setenv("WORKBOT_WORKSECTION_URL", "")
	t.Setenv("WORKBOT_WORKSECTION_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatalf("Load() error = nil without tracker settings")
	}
	if !strings.Contains(err.Error(), "WORKSECTION_URL") {
		t.Fatalf("Load() error = %v, want the missing key named", err)
	}
}

func TestLoadRejectsNonPositiveTimeouts(t *testing.T) {
	setRequired(t)
	t.Setenv("WORKBOT_REMOTE_TIMEOUT", "0s")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil with zero REMOTE_TIMEOUT")
	}
}
