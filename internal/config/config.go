// Package config handles configuration loading and validation for the
// criticality engine's verifier process.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/tripverifier/criticality/internal/hamiltonian"
)

// Config holds the verifier process configuration: the thresholds and
// weights passed into criticality.Config on every evaluation, plus the
// ambient paths and timings the process itself needs.
type Config struct {
	// AlphaMin/AlphaMax bound the PSD exponent's human-plausible range.
	AlphaMin float64 `toml:"alpha_min"`
	AlphaMax float64 `toml:"alpha_max"`

	// BetaMin/BetaMax bound the Lévy exponent's human-plausible range.
	BetaMin float64 `toml:"beta_min"`
	BetaMax float64 `toml:"beta_max"`

	// XMin is the displacement noise floor (km) excluded from the Lévy fit.
	XMin float64 `toml:"x_min"`

	// Weights are the six Hamiltonian component weights; must sum to 1.0.
	Weights WeightsConfig `toml:"weights"`

	// ChallengeDeadlineSeconds is the Active Verification response window.
	ChallengeDeadlineSeconds int `toml:"challenge_deadline_seconds"`

	// CertificateValiditySeconds is how long an issued certificate is
	// considered fresh.
	CertificateValiditySeconds int `toml:"certificate_validity_seconds"`

	// SigningKeyPath is the path to the verifier's Ed25519 private key,
	// used to sign issued PoH Certificates.
	SigningKeyPath string `toml:"signing_key_path"`

	// LogPath is the path to the verifier's log file.
	LogPath string `toml:"log_path"`

	// AuditLogPath is the path to the SQLite audit log database recording
	// certificate-issuance metadata.
	AuditLogPath string `toml:"audit_log_path"`

	// SchemaPath is a location for a JSON Schema document. cmd/tripverify
	// does not read it: ingress is validated against the built-in
	// schemavalidation.EvidenceSchemaV1.
	SchemaPath string `toml:"schema_path"`

	// MetricsAddr is the address the Prometheus metrics HTTP server binds.
	MetricsAddr string `toml:"metrics_addr"`
}

// WeightsConfig mirrors hamiltonian.Weights for TOML decoding.
type WeightsConfig struct {
	Spatial    float64 `toml:"spatial"`
	Temporal   float64 `toml:"temporal"`
	Kinetic    float64 `toml:"kinetic"`
	Flock      float64 `toml:"flock"`
	Contextual float64 `toml:"contextual"`
	Structure  float64 `toml:"structure"`
}

// sum reports the total of all six weights (used by Merge to detect a
// caller-supplied override, since the zero value is indistinguishable from
// "not configured" field by field).
func (w WeightsConfig) sum() float64 {
	return w.Spatial + w.Temporal + w.Kinetic + w.Flock + w.Contextual + w.Structure
}

func (w WeightsConfig) toHamiltonian() hamiltonian.Weights {
	return hamiltonian.Weights{
		Spatial: w.Spatial, Temporal: w.Temporal, Kinetic: w.Kinetic,
		Flock: w.Flock, Contextual: w.Contextual, Structure: w.Structure,
	}
}

// HamiltonianWeights returns the configured weights as a hamiltonian.Weights value.
func (c *Config) HamiltonianWeights() hamiltonian.Weights { return c.Weights.toHamiltonian() }

// DefaultConfig returns a configuration with the spec-mandated defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	tripDir := filepath.Join(homeDir, ".tripverifier")
	defaultWeights := hamiltonian.DefaultWeights()

	return &Config{
		AlphaMin: 0.30, AlphaMax: 0.80,
		BetaMin: 0.80, BetaMax: 1.20,
		XMin: 0.01,
		Weights: WeightsConfig{
			Spatial: defaultWeights.Spatial, Temporal: defaultWeights.Temporal,
			Kinetic: defaultWeights.Kinetic, Flock: defaultWeights.Flock,
			Contextual: defaultWeights.Contextual, Structure: defaultWeights.Structure,
		},
		ChallengeDeadlineSeconds:   30,
		CertificateValiditySeconds: 3600,
		SigningKeyPath:             filepath.Join(homeDir, ".ssh", "tripverifier_signing_key"),
		LogPath:                    filepath.Join(tripDir, "tripverifier.log"),
		AuditLogPath:               filepath.Join(tripDir, "audit.db"),
		SchemaPath:                 filepath.Join(tripDir, "evidence.schema.json"),
		MetricsAddr:                "127.0.0.1:9090",
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".tripverifier", "config.toml")
}

// Load reads configuration from the specified path, falling back to
// defaults for anything the file doesn't set. If the file doesn't exist,
// returns the defaults unmodified.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for internally-inconsistent values.
func (c *Config) Validate() error {
	if c.AlphaMin >= c.AlphaMax {
		return errors.New("config: alpha_min must be less than alpha_max")
	}
	if c.BetaMin >= c.BetaMax {
		return errors.New("config: beta_min must be less than beta_max")
	}
	if c.XMin <= 0 {
		return errors.New("config: x_min must be positive")
	}

	sum := c.Weights.toHamiltonian().Sum()
	if sum < 0.999 || sum > 1.001 {
		return errors.New("config: hamiltonian weights must sum to 1.0")
	}

	if c.ChallengeDeadlineSeconds < 1 {
		return errors.New("config: challenge_deadline_seconds must be at least 1")
	}
	if c.SigningKeyPath == "" {
		return errors.New("config: signing_key_path is required")
	}

	return nil
}

// EnsureDirectories creates all necessary directories for the verifier.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.LogPath),
		filepath.Dir(c.AuditLogPath),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}

	return nil
}

// TripDir returns the base verifier configuration directory.
func TripDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".tripverifier")
}
