package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Redis   RedisConfig   `yaml:"redis" mapstructure:"redis"`
	Notify  NotifyConfig  `yaml:"notify" mapstructure:"notify"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the record store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port                int      `yaml:"port" mapstructure:"port"`
	CORSOrigins         []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	AnalyzeRPS          float64  `yaml:"analyze_rps" mapstructure:"analyze_rps"`
	AnalyzeBurst        int      `yaml:"analyze_burst" mapstructure:"analyze_burst"`
	ShutdownTimeoutSecs int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// RedisConfig configures the draft store. An empty Addr selects the
// in-process draft store.
type RedisConfig struct {
	Addr          string `yaml:"addr" mapstructure:"addr"`
	Password      string `yaml:"password" mapstructure:"password"`
	DB            int    `yaml:"db" mapstructure:"db"`
	DraftTTLHours int    `yaml:"draft_ttl_hours" mapstructure:"draft_ttl_hours"`
}

// NotifyConfig configures publish-request notifications.
type NotifyConfig struct {
	SNSTopicARN string `yaml:"sns_topic_arn" mapstructure:"sns_topic_arn"`
	Region      string `yaml:"region" mapstructure:"region"`
}

// RankThreshold maps a minimum total score to a rank letter.
type RankThreshold struct {
	Rank     string `yaml:"rank" mapstructure:"rank"`
	MinScore int    `yaml:"min_score" mapstructure:"min_score"`
}

// ScoringConfig holds every tunable of the scoring engine. Margins and
// ratios are fractions; CVR and churn are in percent.
type ScoringConfig struct {
	PolicyFile string `yaml:"policy_file" mapstructure:"policy_file"`

	// Subscore weights.
	FinanceFitWeight float64 `yaml:"finance_fit_weight" mapstructure:"finance_fit_weight"`
	ViabilityWeight  float64 `yaml:"viability_weight" mapstructure:"viability_weight"`
	GoToMarketWeight float64 `yaml:"go_to_market_weight" mapstructure:"go_to_market_weight"`
	RiskWeight       float64 `yaml:"risk_weight" mapstructure:"risk_weight"`

	// Subscore curves: base + (metric - ref) * slope.
	FinanceBase          float64 `yaml:"finance_base" mapstructure:"finance_base"`
	FinanceMarginRef     float64 `yaml:"finance_margin_ref" mapstructure:"finance_margin_ref"`
	FinanceMarginSlope   float64 `yaml:"finance_margin_slope" mapstructure:"finance_margin_slope"`
	ViabilityBase        float64 `yaml:"viability_base" mapstructure:"viability_base"`
	ViabilityLTVCACRef   float64 `yaml:"viability_ltv_cac_ref" mapstructure:"viability_ltv_cac_ref"`
	ViabilityLTVCACSlope float64 `yaml:"viability_ltv_cac_slope" mapstructure:"viability_ltv_cac_slope"`
	GoToMarketBase       float64 `yaml:"go_to_market_base" mapstructure:"go_to_market_base"`
	GoToMarketCVRRef     float64 `yaml:"go_to_market_cvr_ref" mapstructure:"go_to_market_cvr_ref"`
	GoToMarketCVRSlope   float64 `yaml:"go_to_market_cvr_slope" mapstructure:"go_to_market_cvr_slope"`
	RiskBase             float64 `yaml:"risk_base" mapstructure:"risk_base"`
	RiskChurnSlope       float64 `yaml:"risk_churn_slope" mapstructure:"risk_churn_slope"`

	// Rank table, highest first. Scores below every entry get RankFloor.
	RankThresholds []RankThreshold `yaml:"rank_thresholds" mapstructure:"rank_thresholds"`
	RankFloor      string          `yaml:"rank_floor" mapstructure:"rank_floor"`

	// Advice thresholds.
	ThinMarginBelow     float64 `yaml:"thin_margin_below" mapstructure:"thin_margin_below"`
	WeakLTVCACBelow     float64 `yaml:"weak_ltv_cac_below" mapstructure:"weak_ltv_cac_below"`
	HighChurnAtLeast    float64 `yaml:"high_churn_at_least" mapstructure:"high_churn_at_least"`
	StrongMarginAtLeast float64 `yaml:"strong_margin_at_least" mapstructure:"strong_margin_at_least"`
	StrongLTVCACAtLeast float64 `yaml:"strong_ltv_cac_at_least" mapstructure:"strong_ltv_cac_at_least"`
	AdDependencyAbove   float64 `yaml:"ad_dependency_above" mapstructure:"ad_dependency_above"`
	ConsistencyBelow    float64 `yaml:"consistency_below" mapstructure:"consistency_below"`
}

// DefaultScoringConfig returns the canonical scoring policy.
// Weights are relative and sum to 1 here.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		FinanceFitWeight: 0.35,
		ViabilityWeight:  0.35,
		GoToMarketWeight: 0.20,
		RiskWeight:       0.10,

		FinanceBase:          50,
		FinanceMarginRef:     0.30,
		FinanceMarginSlope:   120,
		ViabilityBase:        50,
		ViabilityLTVCACRef:   3,
		ViabilityLTVCACSlope: 20,
		GoToMarketBase:       50,
		GoToMarketCVRRef:     2,
		GoToMarketCVRSlope:   8,
		RiskBase:             100,
		RiskChurnSlope:       5,

		RankThresholds: []RankThreshold{
			{Rank: "A", MinScore: 85},
			{Rank: "B", MinScore: 70},
			{Rank: "C", MinScore: 55},
		},
		RankFloor: "D",

		ThinMarginBelow:     0.20,
		WeakLTVCACBelow:     3,
		HighChurnAtLeast:    5,
		StrongMarginAtLeast: 0.40,
		StrongLTVCACAtLeast: 3,
		AdDependencyAbove:   0.30,
		ConsistencyBelow:    85,
	}
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, ./config.yaml, and environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// working directory for an optional config.yaml; a named file must exist.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("PITCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	// AutomaticEnv only resolves keys viper already knows about, so every
	// key gets a default, even an empty one.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.analyze_rps", 20.0)
	v.SetDefault("server.analyze_burst", 40)
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.draft_ttl_hours", 720)
	v.SetDefault("notify.sns_topic_arn", "")
	v.SetDefault("notify.region", "us-east-1")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	setScoringDefaults(v, DefaultScoringConfig())

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if cfg.Store.Driver == "sqlite" && cfg.Store.DatabaseURL == "" {
		cfg.Store.DatabaseURL = "pitchscore.db"
	}

	return &cfg, nil
}

func setScoringDefaults(v *viper.Viper, d ScoringConfig) {
	v.SetDefault("scoring.policy_file", "")
	v.SetDefault("scoring.finance_fit_weight", d.FinanceFitWeight)
	v.SetDefault("scoring.viability_weight", d.ViabilityWeight)
	v.SetDefault("scoring.go_to_market_weight", d.GoToMarketWeight)
	v.SetDefault("scoring.risk_weight", d.RiskWeight)
	v.SetDefault("scoring.finance_base", d.FinanceBase)
	v.SetDefault("scoring.finance_margin_ref", d.FinanceMarginRef)
	v.SetDefault("scoring.finance_margin_slope", d.FinanceMarginSlope)
	v.SetDefault("scoring.viability_base", d.ViabilityBase)
	v.SetDefault("scoring.viability_ltv_cac_ref", d.ViabilityLTVCACRef)
	v.SetDefault("scoring.viability_ltv_cac_slope", d.ViabilityLTVCACSlope)
	v.SetDefault("scoring.go_to_market_base", d.GoToMarketBase)
	v.SetDefault("scoring.go_to_market_cvr_ref", d.GoToMarketCVRRef)
	v.SetDefault("scoring.go_to_market_cvr_slope", d.GoToMarketCVRSlope)
	v.SetDefault("scoring.risk_base", d.RiskBase)
	v.SetDefault("scoring.risk_churn_slope", d.RiskChurnSlope)
	v.SetDefault("scoring.rank_floor", d.RankFloor)
	v.SetDefault("scoring.thin_margin_below", d.ThinMarginBelow)
	v.SetDefault("scoring.weak_ltv_cac_below", d.WeakLTVCACBelow)
	v.SetDefault("scoring.high_churn_at_least", d.HighChurnAtLeast)
	v.SetDefault("scoring.strong_margin_at_least", d.StrongMarginAtLeast)
	v.SetDefault("scoring.strong_ltv_cac_at_least", d.StrongLTVCACAtLeast)
	v.SetDefault("scoring.ad_dependency_above", d.AdDependencyAbove)
	v.SetDefault("scoring.consistency_below", d.ConsistencyBelow)

	thresholds := make([]map[string]any, 0, len(d.RankThresholds))
	for _, rt := range d.RankThresholds {
		thresholds = append(thresholds, map[string]any{"rank": rt.Rank, "min_score": rt.MinScore})
	}
	v.SetDefault("scoring.rank_thresholds", thresholds)
}

// Validate checks the settings a command needs before it starts.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for postgres")
	}

	if mode == "serve" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
		if c.Server.AnalyzeRPS <= 0 {
			errs = append(errs, "server.analyze_rps must be > 0")
		}
		if c.Server.AnalyzeBurst <= 0 {
			errs = append(errs, "server.analyze_burst must be > 0")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
