package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/pitchscore/internal/api"
	"github.com/sells-group/pitchscore/internal/metrics"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		engine, err := initEngine(cfg.Scoring)
		if err != nil {
			return err
		}

		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if serveMigrate {
			if err := st.Migrate(ctx); err != nil {
				return err
			}
		}

		drafts, closeDrafts, err := initDrafts(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer closeDrafts()

		notifier, err := initNotifier(ctx, cfg.Notify)
		if err != nil {
			return err
		}

		srv := api.New(api.Deps{
			Store:    st,
			Drafts:   drafts,
			Engine:   engine,
			Notifier: notifier,
			Metrics:  metrics.New(),
		}, api.Options{
			CORSOrigins:  cfg.Server.CORSOrigins,
			AnalyzeRPS:   cfg.Server.AnalyzeRPS,
			AnalyzeBurst: cfg.Server.AnalyzeBurst,
		})

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		return runServer(ctx, httpSrv, time.Duration(cfg.Server.ShutdownTimeoutSecs)*time.Second)
	},
}

// runServer serves until ctx is cancelled, then drains connections for up
// to timeout.
func runServer(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server", zap.Duration("timeout", timeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return eris.Wrap(srv.Shutdown(shutdownCtx), "server shutdown")
	})

	return g.Wait()
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "create the schema before serving")
	rootCmd.AddCommand(serveCmd)
}
