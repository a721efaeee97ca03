// Command tripverify evaluates a breadcrumb chain export and prints a
// Proof-of-Humanity criticality report, the Go counterpart of
// _examples/original_source/verifier/src/bin/analyze.rs, adapted to the
// teacher's flag-based CLI idiom.
package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tripverifier/criticality/internal/auditlog"
	"github.com/tripverifier/criticality/internal/breadcrumb"
	"github.com/tripverifier/criticality/internal/certificate"
	"github.com/tripverifier/criticality/internal/chain"
	"github.com/tripverifier/criticality/internal/config"
	"github.com/tripverifier/criticality/internal/criticality"
	"github.com/tripverifier/criticality/internal/logging"
	"github.com/tripverifier/criticality/internal/metrics"
	"github.com/tripverifier/criticality/internal/report"
	"github.com/tripverifier/criticality/internal/schemavalidation"
	"github.com/tripverifier/criticality/internal/signer"
	"github.com/tripverifier/criticality/internal/triperr"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config.toml (defaults to ~/.tripverifier/config.toml)")
		verbose     = flag.Bool("verbose", false, "print the full narrative report")
		skipSchema  = flag.Bool("skip-schema", false, "skip JSON Schema validation of the evidence file")
		skipSigCheck = flag.Bool("skip-signatures", false, "skip Ed25519 signature verification (fixtures only)")
	)
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: tripverify [flags] <evidence.json>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	evidencePath := args[0]

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		fatalf("invalid config: %v", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		fatalf("prepare directories: %v", err)
	}
	log := setupLogging(cfg)
	defer log.Close()

	tm := setupMetrics(cfg, log)

	log.Info("loading evidence", "path", evidencePath)
	fmt.Printf("Loading evidence from: %s\n", evidencePath)
	data, err := os.ReadFile(evidencePath)
	if err != nil {
		fatalf("read evidence file: %v", err)
	}

	if !*skipSchema {
		validator, err := schemavalidation.NewDefaultValidator()
		if err != nil {
			fatalf("build schema validator: %v", err)
		}
		if err := validator.Validate(data); err != nil {
			fatalf("evidence failed schema validation: %v", err)
		}
	}

	crumbs, err := breadcrumb.ParseEvidence(data)
	if err != nil {
		fatalf("parse evidence: %v", err)
	}
	log.Info("parsed evidence", "breadcrumb_count", len(crumbs))
	fmt.Printf("Loaded %d breadcrumbs\n", len(crumbs))

	opts := chain.DefaultOptions()
	opts.VerifySignatures = !*skipSigCheck
	validateStart := time.Now()
	c, err := chain.Validate(crumbs, opts)
	tm.RecordChainValidation(time.Since(validateStart))
	if err != nil {
		tm.RecordChainRejection(errorKind(err))
		log.Error("chain verification failed", "error", err)
		fatalf("chain verification FAILED: %v", err)
	}

	critCfg := criticality.Config{
		AlphaMin: cfg.AlphaMin, AlphaMax: cfg.AlphaMax,
		BetaMin: cfg.BetaMin, BetaMax: cfg.BetaMax,
		XMin:    cfg.XMin,
		Weights: cfg.HamiltonianWeights(),
	}

	evalStart := time.Now()
	result, err := criticality.Evaluate(c, critCfg)
	if err != nil {
		tm.RecordChainRejection(errorKind(err))
		log.Error("criticality engine error", "error", err)
		fmt.Fprintf(os.Stderr, "\nCriticality engine error: %v\n", err)
		if triperr.Is(err, triperr.KindInsufficientBreadcrumbs) {
			fmt.Fprintln(os.Stderr, "Need at least 64 breadcrumbs for analysis.")
		}
		os.Exit(1)
	}
	tm.RecordEvaluation(time.Since(evalStart), result.TrustScore)
	log.Info("evaluation complete",
		"identity", breadcrumb.Fingerprint(c.Identity),
		"trust_score", result.TrustScore,
		"is_human", result.IsHuman,
	)

	if *verbose {
		fmt.Println(report.Narrative(c, result))
	} else {
		fmt.Println(result.Verdict())
	}

	cert, err := buildCertificate(c, result, cfg)
	if err != nil {
		fatalf("build certificate: %v", err)
	}
	tm.RecordCertificateIssued()

	certPath := strings.TrimSuffix(evidencePath, filepath.Ext(evidencePath)) + "_poh.json"
	certJSON, err := cert.EncodeJSON()
	if err != nil {
		fatalf("encode certificate: %v", err)
	}
	if err := os.WriteFile(certPath, certJSON, 0644); err != nil {
		fatalf("write certificate: %v", err)
	}
	log.Info("certificate issued", "path", certPath)
	fmt.Printf("\nCertificate: %s\n", certPath)

	if err := recordIssuance(cfg, c, result); err != nil {
		log.Warn("audit log write failed", "error", err)
		fmt.Fprintf(os.Stderr, "warning: audit log write failed: %v\n", err)
	}
}

// setupLogging builds the verifier's structured logger from the loaded
// config, writing JSON lines to cfg.LogPath alongside the CLI's own
// stdout narrative.
func setupLogging(cfg *config.Config) *logging.Logger {
	logCfg := logging.DefaultConfig()
	logCfg.Output = "file"
	logCfg.FilePath = cfg.LogPath
	logCfg.Format = logging.FormatJSON
	logCfg.Component = "tripverify"

	log, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: falling back to stderr logging: %v\n", err)
		log = logging.Default()
	}
	logging.SetDefault(log)
	return log
}

// setupMetrics starts the Prometheus /metrics HTTP listener on
// cfg.MetricsAddr (if set) and returns the registered verifier metrics.
// A bind failure is logged and metrics recording continues in-process
// without a scrape endpoint.
func setupMetrics(cfg *config.Config, log *logging.Logger) *metrics.TripMetrics {
	registry := metrics.NewRegistry("tripverifier", "")
	tm := metrics.InitMetrics(registry)

	if cfg.MetricsAddr == "" {
		return tm
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.HTTPHandler())
	server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", "addr", cfg.MetricsAddr, "error", err)
		}
	}()
	log.Info("metrics server listening", "addr", cfg.MetricsAddr)

	return tm
}

// errorKind extracts the triperr.Kind label for metrics, falling back to
// "unknown" for errors outside the engine's closed taxonomy.
func errorKind(err error) string {
	var terr *triperr.Error
	if errors.As(err, &terr) {
		return terr.Kind.String()
	}
	return "unknown"
}

func buildCertificate(c *chain.Chain, result criticality.Result, cfg *config.Config) (*certificate.Certificate, error) {
	priv, err := signer.LoadPrivateKey(cfg.SigningKeyPath)
	if err != nil {
		return nil, err
	}
	pub := signer.GetPublicKey(priv)

	cert, err := certificate.FromResult(c, result, certificate.BuildParams{
		VerifierKey:  pub,
		ValidSeconds: uint64(cfg.CertificateValiditySeconds),
	})
	if err != nil {
		return nil, err
	}
	if err := cert.Sign(priv); err != nil {
		return nil, err
	}
	return cert, nil
}

func recordIssuance(cfg *config.Config, c *chain.Chain, result criticality.Result) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	log, err := auditlog.Open(cfg.AuditLogPath)
	if err != nil {
		return err
	}
	defer log.Close()

	now := time.Now().UTC()
	return log.RecordIssuance(auditlog.Entry{
		IdentityKey: c.Identity,
		TrustScore:  result.TrustScore,
		Verdict:     verdictLabel(result.IsHuman),
		ChainLength: result.ChainLength,
		IssuedAt:    now,
		ExpiresAt:   now.Add(time.Duration(cfg.CertificateValiditySeconds) * time.Second),
	})
}

func verdictLabel(isHuman bool) string {
	if isHuman {
		return "human"
	}
	return "not-human"
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
