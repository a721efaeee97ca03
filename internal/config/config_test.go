package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.AlphaMin != 0.30 || cfg.AlphaMax != 0.80 {
		t.Errorf("unexpected alpha range: [%v, %v]", cfg.AlphaMin, cfg.AlphaMax)
	}
	if cfg.BetaMin != 0.80 || cfg.BetaMax != 1.20 {
		t.Errorf("unexpected beta range: [%v, %v]", cfg.BetaMin, cfg.BetaMax)
	}
	if sum := cfg.Weights.sum(); sum < 0.999 || sum > 1.001 {
		t.Errorf("default weights should sum to 1.0, got %v", sum)
	}
	if !strings.Contains(cfg.LogPath, ".tripverifier") {
		t.Errorf("log path should contain .tripverifier: %s", cfg.LogPath)
	}
	if !strings.Contains(cfg.AuditLogPath, ".tripverifier") {
		t.Errorf("audit log path should contain .tripverifier: %s", cfg.AuditLogPath)
	}
}

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	if path == "" {
		t.Error("ConfigPath returned empty string")
	}
	if !strings.HasSuffix(path, "config.toml") {
		t.Errorf("expected path ending with config.toml, got %s", path)
	}
	if !strings.Contains(path, ".tripverifier") {
		t.Errorf("config path should contain .tripverifier: %s", path)
	}
}

func TestTripDir(t *testing.T) {
	dir := TripDir()
	if dir == "" {
		t.Error("TripDir returned empty string")
	}
	if !strings.HasSuffix(dir, ".tripverifier") {
		t.Errorf("expected dir ending with .tripverifier, got %s", dir)
	}
}

func TestLoadNonexistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.AlphaMin != 0.30 {
		t.Errorf("expected default alpha_min 0.30, got %v", cfg.AlphaMin)
	}
}

func TestLoadValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
alpha_min = 0.25
alpha_max = 0.85
beta_min = 0.75
beta_max = 1.25
x_min = 0.02
challenge_deadline_seconds = 45
signing_key_path = "/custom/path/key"

[weights]
spatial = 0.25
temporal = 0.20
kinetic = 0.15
flock = 0.15
contextual = 0.15
structure = 0.10
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AlphaMin != 0.25 {
		t.Errorf("expected alpha_min 0.25, got %v", cfg.AlphaMin)
	}
	if cfg.ChallengeDeadlineSeconds != 45 {
		t.Errorf("expected deadline 45, got %d", cfg.ChallengeDeadlineSeconds)
	}
	if cfg.SigningKeyPath != "/custom/path/key" {
		t.Errorf("expected signing key path /custom/path/key, got %s", cfg.SigningKeyPath)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
challenge_deadline_seconds = 60
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ChallengeDeadlineSeconds != 60 {
		t.Errorf("expected deadline 60, got %d", cfg.ChallengeDeadlineSeconds)
	}
	if cfg.AlphaMin != 0.30 {
		t.Errorf("unset fields should have defaults, alpha_min got %v", cfg.AlphaMin)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
this is not valid toml {{{
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestValidateInvertedAlphaRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AlphaMin = 0.9
	cfg.AlphaMax = 0.1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for inverted alpha range")
	}
}

func TestValidateMissingSigningKeyPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SigningKeyPath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing signing key path")
	}
}

func TestValidateBadWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights.Spatial = 0.9
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for weights not summing to 1.0")
	}
}

func TestEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{
		LogPath:      filepath.Join(tmpDir, "subdir1", "tripverifier.log"),
		AuditLogPath: filepath.Join(tmpDir, "subdir2", "audit.db"),
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "subdir1")); os.IsNotExist(err) {
		t.Error("subdir1 was not created")
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "subdir2")); os.IsNotExist(err) {
		t.Error("subdir2 was not created")
	}
}

func TestEnsureDirectoriesEmptyPaths(t *testing.T) {
	cfg := &Config{}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Errorf("EnsureDirectories failed with empty paths: %v", err)
	}
}

func TestConfigWithComments(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
# This is a comment
challenge_deadline_seconds = 15 # inline comment
# alpha_min = 0.99
alpha_min = 0.22
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ChallengeDeadlineSeconds != 15 {
		t.Errorf("expected deadline 15, got %d", cfg.ChallengeDeadlineSeconds)
	}
	if cfg.AlphaMin != 0.22 {
		t.Errorf("expected alpha_min 0.22, got %v", cfg.AlphaMin)
	}
}
