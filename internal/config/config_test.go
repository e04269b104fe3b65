package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml or .env is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "pitchscore.db", cfg.Store.DatabaseURL)
	assert.Equal(t, int32(10), cfg.Store.MaxConns)
	assert.Equal(t, int32(2), cfg.Store.MinConns)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 20.0, cfg.Server.AnalyzeRPS, 0.001)
	assert.Equal(t, 40, cfg.Server.AnalyzeBurst)
	assert.Equal(t, 10, cfg.Server.ShutdownTimeoutSecs)
	assert.Equal(t, "", cfg.Redis.Addr)
	assert.Equal(t, 720, cfg.Redis.DraftTTLHours)
	assert.Equal(t, "us-east-1", cfg.Notify.Region)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	d := DefaultScoringConfig()
	assert.InDelta(t, d.FinanceFitWeight, cfg.Scoring.FinanceFitWeight, 0.001)
	assert.InDelta(t, d.RiskWeight, cfg.Scoring.RiskWeight, 0.001)
	assert.InDelta(t, 120.0, cfg.Scoring.FinanceMarginSlope, 0.001)
	assert.Equal(t, "D", cfg.Scoring.RankFloor)
	require.Len(t, cfg.Scoring.RankThresholds, 3)
	assert.Equal(t, RankThreshold{Rank: "A", MinScore: 85}, cfg.Scoring.RankThresholds[0])
	assert.Equal(t, RankThreshold{Rank: "C", MinScore: 55}, cfg.Scoring.RankThresholds[2])
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/pitch
log:
  level: debug
  format: console
server:
  port: 9090
scoring:
  risk_weight: 0.2
  rank_thresholds:
    - rank: S
      min_score: 95
    - rank: A
      min_score: 85
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/pitch", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 0.2, cfg.Scoring.RiskWeight, 0.001)
	require.Len(t, cfg.Scoring.RankThresholds, 2)
	assert.Equal(t, "S", cfg.Scoring.RankThresholds[0].Rank)
	// Defaults still apply for unset values
	assert.InDelta(t, 0.35, cfg.Scoring.FinanceFitWeight, 0.001)
	assert.Equal(t, 40, cfg.Server.AnalyzeBurst)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
server:
  port: 9090
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))
	t.Setenv("PITCH_SERVER_PORT", "7070")
	t.Setenv("PITCH_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PITCH_REDIS_ADDR", "localhost:6379")
	t.Setenv("PITCH_NOTIFY_SNS_TOPIC_ARN", "arn:aws:sns:us-east-1:123:pitch")
	t.Setenv("PITCH_SCORING_POLICY_FILE", "policy.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "arn:aws:sns:us-east-1:123:pitch", cfg.Notify.SNSTopicARN)
	assert.Equal(t, "policy.yaml", cfg.Scoring.PolicyFile)
}

func TestLoadEnvWithoutFileOrDefault(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PITCH_STORE_DRIVER", "postgres")
	t.Setenv("PITCH_STORE_DATABASE_URL", "postgres://u@h/db")
	t.Setenv("PITCH_REDIS_PASSWORD", "hunter2")
	t.Setenv("PITCH_REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://u@h/db", cfg.Store.DatabaseURL)
	assert.Equal(t, "hunter2", cfg.Redis.Password)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.NoError(t, cfg.Validate("serve"))
}

func TestLoadFile(t *testing.T) {
	chdirTemp(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 6060\n"), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PITCH_SERVER_ANALYZE_BURST=5\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("PITCH_SERVER_ANALYZE_BURST") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Server.AnalyzeBurst)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		mode    string
		wantErr string
	}{
		{name: "defaults ok", mutate: func(*Config) {}, mode: "serve"},
		{name: "bad driver", mutate: func(c *Config) { c.Store.Driver = "mysql" }, mode: "store", wantErr: "store.driver"},
		{name: "postgres needs url", mutate: func(c *Config) { c.Store.Driver = "postgres"; c.Store.DatabaseURL = "" }, mode: "store", wantErr: "database_url"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, mode: "serve", wantErr: "server.port"},
		{name: "port ignored outside serve", mutate: func(c *Config) { c.Server.Port = 0 }, mode: "store"},
		{name: "bad rps", mutate: func(c *Config) { c.Server.AnalyzeRPS = 0 }, mode: "serve", wantErr: "analyze_rps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Store:  StoreConfig{Driver: "sqlite", DatabaseURL: "x.db"},
				Server: ServerConfig{Port: 8080, AnalyzeRPS: 1, AnalyzeBurst: 1},
			}
			tt.mutate(cfg)
			err := cfg.Validate(tt.mode)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)
}
