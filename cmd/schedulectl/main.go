package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/app"
	"github.com/Freeeeeet/sirius_schedule/internal/config"
)

var (
	envFile string
	verbose bool

	rootCmd = &cobra.Command{
		Use:           "schedulectl",
		Short:         "Operator CLI for the schedule cache and API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stdout")

	rootCmd.AddCommand(resolveCmd, groupsCmd, teachersCmd, migrateCmd, purgeCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig читает .env и окружение; DB_DSN обязателен только для команд с базой
func loadConfig(requireDB bool) (*config.Config, error) {
	_ = godotenv.Load(envFile)

	cfg, err := config.FromEnv(os.LookupEnv)
	if err != nil {
		return nil, err
	}
	if requireDB && cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return app.NewLogger(cfg.Environment, "schedulectl")
}
