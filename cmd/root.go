package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Mirandateresa/malicious-url-detector/internal/config"
	"github.com/Mirandateresa/malicious-url-detector/internal/model"
	"github.com/Mirandateresa/malicious-url-detector/internal/store"
)

// Version is set at build time.
var Version = "0.1.0"

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "urlguard",
	Short: "URL Guard, a malicious URL detector",
	Long: `URL Guard scores URLs for phishing and malware indicators using a small
set of lexical and structural rules, and serves the results over an HTTP API
alongside simulated SVM model metrics that can be retrained per kernel.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config YAML file (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(selftestCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("urlguard v%s\n", Version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file, if any, then applies environment and
// flag overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	if err := config.ApplyEnv(cfg, os.Getenv); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, component string) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Str("component", component).Logger()
}

// openModel opens the configured state store and loads the model manager.
// ephemeral forces an in-memory store. The caller closes the store.
func openModel(ctx context.Context, cfg *config.Config, ephemeral bool, logger zerolog.Logger) (*model.Manager, store.Store, error) {
	backend, path := cfg.State.Backend, cfg.State.Path
	if ephemeral {
		backend = store.BackendMemory
	}

	st, err := store.Open(backend, path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening state store: %w", err)
	}

	mgr := model.NewManager(st,
		model.WithRand(model.NewRand(cfg.Training.Seed)),
		model.WithLogger(logger),
	)
	mgr.Load(ctx)
	return mgr, st, nil
}
