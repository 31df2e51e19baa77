package configuration_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudsync-go/cloudsync/internal/cloudsync"
	"github.com/cloudsync-go/cloudsync/internal/cloudsync/configuration"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := configuration.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != configuration.Default() {
		t.Fatalf("Load(missing) = %+v, want Default() = %+v", cfg, configuration.Default())
	}
}

func TestLoadParsesYAMLAndFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cloudsync.yaml")
	yaml := "conflict:\n  suffix: \".mine\"\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := configuration.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Conflict.Suffix != ".mine" {
		t.Errorf("Conflict.Suffix = %q, want %q", cfg.Conflict.Suffix, ".mine")
	}
	// Fields left unset in the file fall back to the built-in defaults.
	if cfg.Mkdirs.MaxRetries != configuration.Default().Mkdirs.MaxRetries {
		t.Errorf("Mkdirs.MaxRetries = %d, want default %d", cfg.Mkdirs.MaxRetries, configuration.Default().Mkdirs.MaxRetries)
	}
	if cfg.Polling.IdleIntervalMilliseconds != configuration.Default().Polling.IdleIntervalMilliseconds {
		t.Errorf("Polling.IdleIntervalMilliseconds = %d, want default %d",
			cfg.Polling.IdleIntervalMilliseconds, configuration.Default().Polling.IdleIntervalMilliseconds)
	}
}

func TestLoadWithEnvOverlayAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("CLOUDSYNC_CONFLICT_SUFFIX=.dupe\nCLOUDSYNC_MKDIRS_MAX_RETRIES=5\n"), 0o644); err != nil {
		t.Fatalf("write .env fixture: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("CLOUDSYNC_CONFLICT_SUFFIX")
		os.Unsetenv("CLOUDSYNC_MKDIRS_MAX_RETRIES")
		os.Unsetenv("CLOUDSYNC_POLL_INTERVAL_MS")
	})

	cfg, err := configuration.LoadWithEnvOverlay(filepath.Join(dir, "missing.yaml"), envPath)
	if err != nil {
		t.Fatalf("LoadWithEnvOverlay: %v", err)
	}
	if cfg.Conflict.Suffix != ".dupe" {
		t.Errorf("Conflict.Suffix = %q, want %q (from env overlay)", cfg.Conflict.Suffix, ".dupe")
	}
	if cfg.Mkdirs.MaxRetries != 5 {
		t.Errorf("Mkdirs.MaxRetries = %d, want 5 (from env overlay)", cfg.Mkdirs.MaxRetries)
	}
}

func TestBuildGlobTranslatorRewritesMatchingPaths(t *testing.T) {
	translate, err := configuration.BuildGlobTranslator([]configuration.GlobRule{
		{Pattern: "docs/**", FromPrefix: "/docs", ToPrefix: "/shared/docs"},
	})
	if err != nil {
		t.Fatalf("BuildGlobTranslator: %v", err)
	}

	got, err := translate(cloudsync.Remote, "/docs/readme.md")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got != "/shared/docs/readme.md" {
		t.Errorf("translate(/docs/readme.md) = %q, want %q", got, "/shared/docs/readme.md")
	}

	got, err = translate(cloudsync.Remote, "/other/file.txt")
	if err != nil {
		t.Fatalf("translate (no match): %v", err)
	}
	if got != "" {
		t.Errorf("translate(/other/file.txt) = %q, want \"\" (ignored)", got)
	}
}

func TestBuildGlobTranslatorRejectsInvalidPattern(t *testing.T) {
	if _, err := configuration.BuildGlobTranslator([]configuration.GlobRule{{Pattern: "["}}); err == nil {
		t.Error("expected an error for an invalid glob pattern")
	}
}
