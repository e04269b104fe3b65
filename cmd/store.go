package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pitchscore/internal/config"
	"github.com/sells-group/pitchscore/internal/draft"
	"github.com/sells-group/pitchscore/internal/notify"
	"github.com/sells-group/pitchscore/internal/resilience"
	"github.com/sells-group/pitchscore/internal/scoring"
	"github.com/sells-group/pitchscore/internal/store"
)

// startupRetry governs waiting for Postgres and Redis at startup.
var startupRetry = resilience.StartupRetryConfig()

func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	if err := c.Validate(""); err != nil {
		return nil, err
	}
	switch c.Store.Driver {
	case "sqlite":
		st, err := store.NewSQLite(c.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres":
		return resilience.DoVal(ctx, startupRetry, "postgres", func(ctx context.Context) (store.Store, error) {
			st, err := store.NewPostgres(ctx, c.Store.DatabaseURL, &store.PoolConfig{
				MaxConns: c.Store.MaxConns,
				MinConns: c.Store.MinConns,
			})
			if err != nil {
				return nil, err
			}
			return st, nil
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
}

// openStore opens the configured store and applies the schema.
func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	st, err := initStore(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// initDrafts returns the Redis draft store when an address is configured and
// the in-process store otherwise. The returned func releases the client.
func initDrafts(ctx context.Context, c config.RedisConfig) (draft.Store, func(), error) {
	if c.Addr == "" {
		zap.L().Info("drafts: using in-memory store")
		return draft.NewMemoryStore(), func() {}, nil
	}

	client := draft.NewRedisClient(draft.RedisOptions{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})
	rs := draft.NewRedisStore(client, time.Duration(c.DraftTTLHours)*time.Hour)
	if err := resilience.Do(ctx, startupRetry, "redis", rs.Ping); err != nil {
		rs.Close() //nolint:errcheck
		return nil, nil, err
	}
	zap.L().Info("drafts: using redis", zap.String("addr", c.Addr))
	return rs, func() { _ = rs.Close() }, nil
}

func initNotifier(ctx context.Context, c config.NotifyConfig) (notify.Notifier, error) {
	if c.SNSTopicARN == "" {
		return notify.Nop{}, nil
	}
	n, err := notify.NewSNSNotifierFromEnv(ctx, c.Region, c.SNSTopicARN)
	if err != nil {
		return nil, err
	}
	zap.L().Info("notify: publishing to sns", zap.String("topic", c.SNSTopicARN))
	return n, nil
}

func initEngine(c config.ScoringConfig) (*scoring.Engine, error) {
	e, err := scoring.FromConfig(c)
	if err != nil {
		return nil, eris.Wrap(err, "init scoring engine")
	}
	return e, nil
}
