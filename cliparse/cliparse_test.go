// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/star-vote/models"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("SESSION_SECRET", "test-session")
	t.Setenv("IP_HASH_SALT", "test-salt")
}

func TestParseFlags_EnvVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("FRAUD_WINDOW", "10m")
	t.Setenv("STANDINGS_ROUND", "province")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.FraudWindow != 10*time.Minute {
		t.Errorf("expected fraud window 10m, got %s", cfg.FraudWindow)
	}
	if cfg.StandingsRound != models.RoundProvince {
		t.Errorf("expected standings round PROVINCE, got %s", cfg.StandingsRound)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-fraud-threshold", "25"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "file:test.db" {
		t.Errorf("CLI should override env: expected file:test.db, got %s", cfg.DatabaseURL)
	}
	if cfg.FraudThreshold != 25 {
		t.Errorf("expected fraud threshold 25, got %d", cfg.FraudThreshold)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("expected default port %d, got %d", DefaultPort, cfg.Port)
	}
	if cfg.DatabaseType != DefaultDatabaseType {
		t.Errorf("expected default database type %s, got %s", DefaultDatabaseType, cfg.DatabaseType)
	}
	if cfg.StandingsRound != models.RoundDistrict {
		t.Errorf("expected default standings round DISTRICT, got %s", cfg.StandingsRound)
	}
	if cfg.FraudThreshold != DefaultFraudThreshold {
		t.Errorf("expected default fraud threshold %d, got %d", DefaultFraudThreshold, cfg.FraudThreshold)
	}
	if cfg.PhaseCacheTTL != DefaultPhaseCacheTTL {
		t.Errorf("expected default phase TTL %s, got %s", DefaultPhaseCacheTTL, cfg.PhaseCacheTTL)
	}
}

func TestParseFlags_ConfigFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FRAUD_THRESHOLD", "40")

	path := filepath.Join(t.TempDir(), "star-vote.yaml")
	yaml := `
port: 7000
tie_policy: dense
rank_interval: 30s
fraud_threshold: 12
allowed_origins:
  - https://star.tuko.lk
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := ParseFlags([]string{"-config", path})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 7000 {
		t.Errorf("expected port from file 7000, got %d", cfg.Port)
	}
	if cfg.TiePolicy != "dense" {
		t.Errorf("expected tie policy from file, got %s", cfg.TiePolicy)
	}
	if cfg.RankInterval != 30*time.Second {
		t.Errorf("expected rank interval from file 30s, got %s", cfg.RankInterval)
	}
	// env beats file
	if cfg.FraudThreshold != 40 {
		t.Errorf("env should override file: expected 40, got %d", cfg.FraudThreshold)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://star.tuko.lk" {
		t.Errorf("expected allowed origins from file, got %v", cfg.AllowedOrigins)
	}
}

func TestParseFlags_MissingSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://test")

	if _, err := ParseFlags([]string{}); err == nil {
		t.Error("expected error when SESSION_SECRET is missing")
	}

	t.Setenv("SESSION_SECRET", "s")
	if _, err := ParseFlags([]string{}); err == nil {
		t.Error("expected error when IP_HASH_SALT is missing")
	}
}

func TestParseFlags_InvalidRound(t *testing.T) {
	setRequiredEnv(t)

	if _, err := ParseFlags([]string{"-standings-round", "QUARTER_FINAL"}); err == nil {
		t.Error("expected error for unknown standings round")
	}
}

func TestParseFlags_ExplicitZero(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := ParseFlags([]string{"-phase-ttl", "0", "-fraud-threshold", "0", "-reconcile-interval", "0"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.PhaseCacheTTL != 0 {
		t.Errorf("expected phase TTL 0 from flag, got %s", cfg.PhaseCacheTTL)
	}
	if cfg.FraudThreshold != 0 {
		t.Errorf("expected fraud threshold 0 from flag, got %d", cfg.FraudThreshold)
	}
	if cfg.ReconcileInterval != 0 {
		t.Errorf("expected reconcile interval 0 from flag, got %s", cfg.ReconcileInterval)
	}
	// Untouched settings still get defaults
	if cfg.RankInterval != DefaultRankInterval {
		t.Errorf("expected default rank interval %s, got %s", DefaultRankInterval, cfg.RankInterval)
	}
}

func TestParseFlags_ExplicitZeroBeatsEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PHASE_CACHE_TTL", "30s")
	t.Setenv("FRAUD_INTERVAL", "0")

	cfg, err := ParseFlags([]string{"-phase-ttl", "0"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.PhaseCacheTTL != 0 {
		t.Errorf("flag should override env: expected 0, got %s", cfg.PhaseCacheTTL)
	}
	if cfg.FraudInterval != 0 {
		t.Errorf("expected fraud interval 0 from env, got %s", cfg.FraudInterval)
	}
}

func TestParseFlags_ConfigFileZero(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "star-vote.yaml")
	yaml := `
phase_cache_ttl: 0s
reconcile_interval: 0s
trusted_proxies: 2
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := ParseFlags([]string{"-config", path})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.PhaseCacheTTL != 0 {
		t.Errorf("expected phase TTL 0 from file, got %s", cfg.PhaseCacheTTL)
	}
	if cfg.ReconcileInterval != 0 {
		t.Errorf("expected reconcile interval 0 from file, got %s", cfg.ReconcileInterval)
	}
	if cfg.FraudInterval != DefaultFraudInterval {
		t.Errorf("expected default fraud interval, got %s", cfg.FraudInterval)
	}
	if cfg.TrustedProxies != 2 {
		t.Errorf("expected trusted proxies 2 from file, got %d", cfg.TrustedProxies)
	}
}
