package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mirandateresa/malicious-url-detector/internal/api"
	"github.com/Mirandateresa/malicious-url-detector/internal/audit"
	"github.com/Mirandateresa/malicious-url-detector/internal/dashboard"
	"github.com/Mirandateresa/malicious-url-detector/internal/service"
	"github.com/Mirandateresa/malicious-url-detector/internal/store"
)

const shutdownTimeout = 10 * time.Second

var (
	listenAddr  string
	auditFile   string
	noDashboard bool
	ephemeral   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the URL Guard HTTP API",
	Long:  "Start the HTTP API that classifies URLs, reports model metrics and accepts retraining requests.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Address to listen on (overrides config and PORT)")
	serveCmd.Flags().StringVar(&auditFile, "audit-log", "", "Path to audit log file (default: config audit_log, else stderr)")
	serveCmd.Flags().BoolVar(&noDashboard, "no-dashboard", false, "Disable the real-time dashboard")
	serveCmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "Keep model state in memory only")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if auditFile == "" {
		auditFile = cfg.AuditLog
	}
	dashEnabled := cfg.Dashboard.Enabled && !noDashboard

	logger := newLogger(cfg, "urlguard")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr, st, err := openModel(ctx, cfg, ephemeral, logger.With().Str("component", "model").Logger())
	if err != nil {
		return err
	}
	defer st.Close()

	snap := mgr.Snapshot()
	logger.Info().
		Str("backend", cfg.State.Backend).
		Bool("ephemeral", ephemeral).
		Str("kernel", string(snap.Kernel)).
		Str("state", mgr.Lifecycle().String()).
		Msg("model loaded")

	if cfg.State.Watch && !ephemeral {
		watcher, err := store.NewWatcher(cfg.State.Path, logger)
		if err != nil {
			return fmt.Errorf("watching state file: %w", err)
		}
		go watcher.Run(ctx, func() {
			changed, err := mgr.Reload(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("state file changed but could not be reloaded")
				return
			}
			if changed {
				logger.Info().Str("kernel", string(mgr.Kernel())).Msg("model reloaded from state file")
			}
		})
	}

	// Set up audit logger
	var auditLogger *audit.Logger
	if auditFile != "" {
		auditLogger, err = audit.NewFileLogger(auditFile)
		if err != nil {
			return fmt.Errorf("creating audit logger: %w", err)
		}
		defer auditLogger.Close()
		logger.Info().Str("path", auditFile).Msg("audit log enabled")
	} else {
		auditLogger = audit.NewStderrLogger()
	}

	svc := service.New(mgr, auditLogger, service.Options{
		TrainDelay: cfg.Training.SimulatedDelay,
		Logger:     logger,
	})

	opts := api.Options{
		DefaultKernel:  cfg.Training.DefaultKernel,
		DefaultC:       cfg.Training.DefaultC,
		UploadDir:      cfg.Uploads.Dir,
		MaxUploadBytes: cfg.Uploads.MaxBytes,
		Logger:         logger.With().Str("component", "api").Logger(),
	}

	if cfg.RateLimits.RequestsPerSecond > 0 {
		limiter := api.NewClientLimiter(cfg.RateLimits.RequestsPerSecond, cfg.RateLimits.Burst)
		go limiter.StartCleanup(ctx)
		opts.Limiter = limiter
	}

	if dashEnabled {
		hub := dashboard.NewHub(cfg.Dashboard.BufferSize, svc.Info,
			logger.With().Str("component", "dashboard").Logger())
		svc.AddObserver(hub.OnEvent)
		dashboard.Run(ctx, hub, cfg.Dashboard.StatsInterval)
		opts.Dashboard = dashboard.Handler(hub)
		opts.DashboardPrefix = dashboard.Prefix
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.New(svc, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info().
		Str("listen", cfg.Listen).
		Str("service", cfg.ServiceName).
		Msg("starting url guard api")

	fmt.Fprintf(os.Stderr, "\n  URL Guard v%s\n", Version)
	fmt.Fprintf(os.Stderr, "  Listen:  %s\n", cfg.Listen)
	fmt.Fprintf(os.Stderr, "  Model:   %s (%s)\n", snap.Kernel, mgr.Lifecycle())
	if dashEnabled {
		dashAddr := cfg.Listen
		if strings.HasPrefix(dashAddr, ":") {
			dashAddr = "localhost" + dashAddr
		}
		fmt.Fprintf(os.Stderr, "  Dashboard: http://%s%s\n", dashAddr, dashboard.Prefix)
	}
	fmt.Fprintln(os.Stderr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
