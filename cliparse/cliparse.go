package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/danielhkuo/star-vote/models"
)

type Config struct {
	Port         int    `koanf:"port"`
	DatabaseURL  string `koanf:"database_url"`
	DatabaseType string `koanf:"database_type"`
	ConfigFile   string `koanf:"-"`

	// Secrets
	SessionSecret string `koanf:"session_secret"`
	AdminKey      string `koanf:"admin_key"`
	IPHashSalt    string `koanf:"ip_hash_salt"`

	AllowedOrigins []string `koanf:"allowed_origins"`
	LogLevel       string   `koanf:"log_level"`
	LogFormat      string   `koanf:"log_format"`

	// Vote ledger and batch jobs
	StandingsRound     models.Round  `koanf:"standings_round"`
	TiePolicy          string        `koanf:"tie_policy"`
	PhaseCacheTTL      time.Duration `koanf:"phase_cache_ttl"`
	RankInterval       time.Duration `koanf:"rank_interval"`
	FraudInterval      time.Duration `koanf:"fraud_interval"`
	FraudWindow        time.Duration `koanf:"fraud_window"`
	FraudThreshold     int           `koanf:"fraud_threshold"`
	ReconcileInterval  time.Duration `koanf:"reconcile_interval"`
	ReconcileTolerance int           `koanf:"reconcile_tolerance"`

	// Number of reverse proxies in front of the server whose
	// X-Forwarded-For entries are trusted. 0 uses the socket address.
	TrustedProxies int `koanf:"trusted_proxies"`
}

// Defaults used when neither a flag, env variable nor config file sets a value
const (
	DefaultPort              = 3318
	DefaultDatabaseType      = "sqlite"
	DefaultTiePolicy         = "sequential"
	DefaultPhaseCacheTTL     = 5 * time.Second
	DefaultRankInterval      = 5 * time.Minute
	DefaultFraudInterval     = time.Minute
	DefaultFraudWindow       = 5 * time.Minute
	DefaultFraudThreshold    = 10
	DefaultReconcileInterval = 15 * time.Minute
)

// ParseFlags validates flags and fills the rest from env, then the optional
// YAML config file, then defaults.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var origins string
	var standings string

	fs := flag.NewFlagSet("star-vote", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.ConfigFile, "config", "", "YAML config file")
	fs.StringVar(&origins, "origins", "", "Comma-separated CORS origins")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format (text or json)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSecret, "session-secret", "", "Session token secret (prefer env)")
	fs.StringVar(&cfg.AdminKey, "admin-key", "", "Admin API key (prefer env)")
	fs.StringVar(&cfg.IPHashSalt, "ip-salt", "", "IP hash salt (prefer env)")

	// Jobs
	fs.StringVar(&standings, "standings-round", "", "Round used for rankings")
	fs.StringVar(&cfg.TiePolicy, "tie-policy", "", "Rank tie policy (sequential, dense, competition)")
	fs.DurationVar(&cfg.PhaseCacheTTL, "phase-ttl", 0, "Phase cache TTL")
	fs.DurationVar(&cfg.RankInterval, "rank-interval", 0, "Ranking recompute interval")
	fs.DurationVar(&cfg.FraudInterval, "fraud-interval", 0, "Fraud scan interval")
	fs.DurationVar(&cfg.FraudWindow, "fraud-window", 0, "Fraud scan trailing window")
	fs.IntVar(&cfg.FraudThreshold, "fraud-threshold", 0, "Max votes from one origin per window")
	fs.DurationVar(&cfg.ReconcileInterval, "reconcile-interval", 0, "Vote count reconcile interval")
	fs.IntVar(&cfg.ReconcileTolerance, "reconcile-tolerance", 0, "Allowed vote count drift before recompute")
	fs.IntVar(&cfg.TrustedProxies, "trusted-proxies", 0, "Reverse proxies trusted for X-Forwarded-For")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// An explicit 0 on the command line is a value, not "unset"
	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if cfg.ConfigFile == "" {
		cfg.ConfigFile = os.Getenv("CONFIG_FILE")
	}
	var fileCfg fileConfig
	if cfg.ConfigFile != "" {
		loaded, err := loadFile(cfg.ConfigFile)
		if err != nil {
			return Config{}, err
		}
		fileCfg = loaded
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else if fileCfg.Port != 0 {
			cfg.Port = fileCfg.Port
		} else {
			cfg.Port = DefaultPort
		}
	}

	stringSetting(&cfg.DatabaseURL, "DATABASE_URL", fileCfg.DatabaseURL, "")
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	stringSetting(&cfg.DatabaseType, "DATABASE_TYPE", fileCfg.DatabaseType, DefaultDatabaseType)
	stringSetting(&cfg.LogLevel, "LOG_LEVEL", fileCfg.LogLevel, "info")
	stringSetting(&cfg.LogFormat, "LOG_FORMAT", fileCfg.LogFormat, "text")

	// Secrets - session secret and IP salt MUST be provided, admin key is optional
	stringSetting(&cfg.SessionSecret, "SESSION_SECRET", fileCfg.SessionSecret, "")
	if cfg.SessionSecret == "" {
		return Config{}, errors.New("SESSION_SECRET required")
	}
	stringSetting(&cfg.IPHashSalt, "IP_HASH_SALT", fileCfg.IPHashSalt, "")
	if cfg.IPHashSalt == "" {
		return Config{}, errors.New("IP_HASH_SALT required")
	}
	stringSetting(&cfg.AdminKey, "ADMIN_KEY", fileCfg.AdminKey, "")

	stringSetting(&origins, "ALLOWED_ORIGINS", "", "")
	if origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	} else {
		cfg.AllowedOrigins = fileCfg.AllowedOrigins
	}

	stringSetting(&standings, "STANDINGS_ROUND", string(fileCfg.StandingsRound), string(models.RoundDistrict))
	round, err := models.ParseRound(standings)
	if err != nil {
		return Config{}, fmt.Errorf("invalid standings round: %w", err)
	}
	cfg.StandingsRound = round

	stringSetting(&cfg.TiePolicy, "TIE_POLICY", fileCfg.TiePolicy, DefaultTiePolicy)

	durations := []struct {
		dst  *time.Duration
		flag string
		env  string
		key  string
		file time.Duration
		def  time.Duration
	}{
		{&cfg.PhaseCacheTTL, "phase-ttl", "PHASE_CACHE_TTL", "phase_cache_ttl", fileCfg.PhaseCacheTTL, DefaultPhaseCacheTTL},
		{&cfg.RankInterval, "rank-interval", "RANK_INTERVAL", "rank_interval", fileCfg.RankInterval, DefaultRankInterval},
		{&cfg.FraudInterval, "fraud-interval", "FRAUD_INTERVAL", "fraud_interval", fileCfg.FraudInterval, DefaultFraudInterval},
		{&cfg.FraudWindow, "fraud-window", "FRAUD_WINDOW", "fraud_window", fileCfg.FraudWindow, DefaultFraudWindow},
		{&cfg.ReconcileInterval, "reconcile-interval", "RECONCILE_INTERVAL", "reconcile_interval", fileCfg.ReconcileInterval, DefaultReconcileInterval},
	}
	for _, d := range durations {
		if explicit[d.flag] {
			continue
		}
		if err := durationSetting(d.dst, d.env, fileCfg.has(d.key), d.file, d.def); err != nil {
			return Config{}, err
		}
	}

	ints := []struct {
		dst  *int
		flag string
		env  string
		key  string
		file int
		def  int
	}{
		{&cfg.FraudThreshold, "fraud-threshold", "FRAUD_THRESHOLD", "fraud_threshold", fileCfg.FraudThreshold, DefaultFraudThreshold},
		{&cfg.ReconcileTolerance, "reconcile-tolerance", "RECONCILE_TOLERANCE", "reconcile_tolerance", fileCfg.ReconcileTolerance, 0},
		{&cfg.TrustedProxies, "trusted-proxies", "TRUSTED_PROXIES", "trusted_proxies", fileCfg.TrustedProxies, 0},
	}
	for _, n := range ints {
		if explicit[n.flag] {
			continue
		}
		if err := intSetting(n.dst, n.env, fileCfg.has(n.key), n.file, n.def); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// fileConfig is the decoded YAML file plus the keys it actually set, so a
// 0 written in the file is told apart from a missing key.
type fileConfig struct {
	Config
	keys map[string]bool
}

func (f fileConfig) has(key string) bool {
	return f.keys[key]
}

// loadFile reads the YAML config file with koanf
func loadFile(path string) (fileConfig, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fileConfig{}, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fileConfig{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	keys := make(map[string]bool)
	for _, key := range k.Keys() {
		keys[key] = true
	}
	return fileConfig{Config: cfg, keys: keys}, nil
}

func stringSetting(dst *string, env, fromFile, def string) {
	if *dst != "" {
		return
	}
	switch {
	case os.Getenv(env) != "":
		*dst = os.Getenv(env)
	case fromFile != "":
		*dst = fromFile
	default:
		*dst = def
	}
}

// durationSetting fills dst from env, then the file when inFile, then def.
// Callers skip it when the flag was given explicitly.
func durationSetting(dst *time.Duration, env string, inFile bool, fromFile, def time.Duration) error {
	if v := os.Getenv(env); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s env variable: %w", env, err)
		}
		*dst = d
		return nil
	}
	if inFile {
		*dst = fromFile
		return nil
	}
	*dst = def
	return nil
}

func intSetting(dst *int, env string, inFile bool, fromFile, def int) error {
	if v := os.Getenv(env); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s env variable: %w", env, err)
		}
		*dst = n
		return nil
	}
	if inFile {
		*dst = fromFile
		return nil
	}
	*dst = def
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
