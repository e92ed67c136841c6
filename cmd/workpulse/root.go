package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/workpulse/work-pulse/internal/di"
	"github.com/workpulse/work-pulse/pkg/config"
	"github.com/workpulse/work-pulse/pkg/database"
	"github.com/workpulse/work-pulse/pkg/kafka"
	"github.com/workpulse/work-pulse/pkg/logger"
	"github.com/workpulse/work-pulse/pkg/redis"
)

// rootOptions are the flags shared by every subcommand
type rootOptions struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "workpulse",
		Short: "Work Pulse calendar and focus API",
		Long: `Work Pulse serves a workspace calendar (month grid, upcoming list,
iCalendar export) and per-user focus timers over a JSON API.

Configuration comes from environment variables, optionally seeded from a .env file.

Examples:
  workpulse serve                     # HTTP API + grid cache warmer
  workpulse serve --in-memory         # no Postgres/Redis/Kafka, state is lost on exit
  workpulse migrate                   # apply the database schema
  workpulse grid --tenant <id>        # print this month's grid
  workpulse token --tenant <id> --user <id> --role admin`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "path to a .env file (default: ./.env when present)")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newGridCmd(opts),
		newTokenCmd(opts),
	)
	return cmd
}

// load reads configuration and initialises the global logger from it
func (o *rootOptions) load() (*config.Config, *logger.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.envFile != "" {
		cfg, err = config.LoadWithPath(o.envFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}

	level := "info"
	if cfg.App.Debug {
		level = "debug"
	}
	if err := logger.Init(&logger.Config{
		Level:       level,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
		OutputPath:  "stdout",

		OTLPEndpoint:  cfg.OTel.LogExportEndpoint(),
		OTLPTimeout:   5 * time.Second,
		BatchSize:     cfg.OTel.LogBatchSize,
		BatchInterval: cfg.OTel.LogBatchInterval,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, logger.Get(), nil
}

// connect opens the configured infrastructure. With inMemory nothing is dialled and the
// container falls back to in-memory stores.
func connect(ctx context.Context, cfg *config.Config, log *logger.Logger, inMemory bool) (_ *di.ContainerConfig, err error) {
	cc := &di.ContainerConfig{Config: cfg, Logger: log}
	if inMemory {
		return cc, nil
	}

	defer func() {
		if err != nil {
			closeInfra(cc)
		}
	}()

	cc.DB, err = database.NewPostgres(ctx, database.FromAppConfig(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	log.Info("connected to postgres", zap.String("host", cfg.Database.Host))

	cc.Redis, err = redis.NewClient(ctx, redis.FromAppConfig(cfg.Redis))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr()))

	if cfg.Kafka.Enabled {
		cc.Producer, err = kafka.NewProducer(ctx, kafka.FromAppConfig(cfg.Kafka))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to kafka: %w", err)
		}
		log.Info("connected to kafka", zap.Strings("brokers", cfg.Kafka.Brokers))
	}
	return cc, nil
}

func closeInfra(cc *di.ContainerConfig) {
	if cc.Producer != nil {
		cc.Producer.Close(context.Background())
	}
	if cc.Redis != nil {
		_ = cc.Redis.Close()
	}
	if cc.DB != nil {
		cc.DB.Close()
	}
}

var errMissingFlag = errors.New("missing required flag")
