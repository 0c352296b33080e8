package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hyperengineering/cellar/internal/api"
	"github.com/hyperengineering/cellar/internal/assistant"
	"github.com/hyperengineering/cellar/internal/cellar"
	"github.com/hyperengineering/cellar/internal/config"
	"github.com/hyperengineering/cellar/internal/images"
	"github.com/hyperengineering/cellar/internal/overlay"
	"github.com/hyperengineering/cellar/internal/worker"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:          "cellar",
	Short:        "Cellar - Wine Collection Service",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(winesCmd)
}

// server is the assembled HTTP service and the background loops that run
// alongside it.
type server struct {
	httpSrv *http.Server
	closeDB func() error
	workers map[string]func(context.Context)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(os.Stdout, cfg.Log))

	srv, err := newServer(ctx, cfg)
	if err != nil {
		return err
	}
	return srv.serve(ctx, cancel, time.Duration(cfg.Server.ShutdownTimeout))
}

// newServer opens storage and wires the service, router and workers.
func newServer(ctx context.Context, cfg *config.Config) (*server, error) {
	db, err := openStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	ov, err := overlay.Load(cfg.Overlay.Path)
	if err != nil {
		db.Close()
		return nil, err
	}
	img, err := images.NewStore(cfg.Images)
	if err != nil {
		db.Close()
		return nil, err
	}
	ai := assistant.New(cfg.Assistant)

	slog.Info("collection opened",
		"driver", cfg.Database.Driver,
		"overlay", cfg.Overlay.Path,
		"images_enabled", img.Enabled(),
		"assistant_configured", ai.Configured(),
		"model", cfg.Assistant.Model,
	)

	svc := cellar.New(db, ov, img, ai, cellar.Options{
		OverlayPath:     cfg.Overlay.Path,
		EnforceQuantity: cfg.Collection.EnforceQuantity,
	})
	router := api.NewRouter(api.NewHandler(svc, Version), api.RouterConfig{
		APIKey:              cfg.Auth.APIKey,
		CORSOrigins:         cfg.Server.CORSOrigins,
		AIRequestsPerMinute: cfg.RateLimit.AIRequestsPerMinute,
		AIBurst:             cfg.RateLimit.AIBurst,
	})

	s := &server{
		httpSrv: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
			WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
		},
		closeDB: db.Close,
		workers: make(map[string]func(context.Context)),
	}

	wc := cfg.Worker
	if svc.ImagesEnabled() && wc.ImageUploadInterval > 0 {
		s.workers["image-upload"] = worker.NewImageUploadWorker(svc,
			time.Duration(wc.ImageUploadInterval), wc.ImageUploadMaxAttempts, wc.ImageUploadBatchSize).Run
	}
	if wc.MetricsInterval > 0 {
		s.workers["metrics"] = worker.NewMetricsWorker(svc, time.Duration(wc.MetricsInterval)).Run
	}
	return s, nil
}

// serve runs until ctx is cancelled or the listener fails, then drains
// requests, waits for workers and closes the database.
func (s *server) serve(ctx context.Context, cancel context.CancelFunc, drain time.Duration) error {
	var wg sync.WaitGroup
	for name, fn := range s.workers {
		startWorker(ctx, &wg, name, fn)
	}

	go func() {
		slog.Info("server starting", "address", s.httpSrv.Addr, "version", Version)
		if err := s.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), drain)
	defer shutdownCancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	wg.Wait()
	if err := s.closeDB(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// parseLogLevel accepts slog's level names in any case. Unknown names log
// at info.
func parseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// newLogger builds the process logger. Format "text" selects the
// human-readable handler; anything else logs JSON.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// startWorker runs fn in a goroutine tracked by wg. fn must return once ctx
// is cancelled.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		defer slog.Info("worker stopped", "worker", name)
		fn(ctx)
	}()
}
