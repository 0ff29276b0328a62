package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fundbot/internal/app"
	"fundbot/internal/config"
	"fundbot/internal/logger"
)

var cfgPath string

func main() {
	// Best effort; secrets may come from the real environment instead.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "fundbot",
		Short:         "AI-assisted trading decision pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "configs/config.yaml", "config file path")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the decision pipeline once and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runApp(cmd.Context(), false)
			},
		},
		&cobra.Command{
			Use:   "schedule",
			Short: "Run the pipeline on the configured schedule",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runApp(cmd.Context(), true)
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Errorf("fundbot: %v", err)
		os.Exit(1)
	}
}

func runApp(ctx context.Context, scheduled bool) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		return fmt.Errorf("initializing log file: %w", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	if cfg.App.LLMDump {
		dumpFile, err := setupModelDump(cfg.App.LLMLog)
		if err != nil {
			return fmt.Errorf("initializing model dump file: %w", err)
		}
		if dumpFile != nil {
			defer dumpFile.Close()
		}
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("config loaded (env=%s, instruments=%v)", cfg.App.Env, cfg.Pipeline.NormalizedInstruments())

	a, err := app.NewApp(cfg, scheduled)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}
	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	if err := ensureDir(trimmed); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}

func setupModelDump(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	if err := ensureDir(trimmed); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	logger.SetModelDumpWriter(file)
	return file, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
