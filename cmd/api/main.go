package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nextstep-backend/internal/ai"
	"nextstep-backend/internal/analytics"
	"nextstep-backend/internal/config"
	"nextstep-backend/internal/db"
	"nextstep-backend/internal/events"
	"nextstep-backend/internal/logging"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "nextstep",
		Short:         "Breaks an overwhelming task into one next step",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file")

	root.AddCommand(serveCmd(), demoCmd(), historyCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app holds what every subcommand needs.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	recorder *analytics.Recorder
	closers  []func() error
}

// bootstrap loads config, logger and the interaction log. withBus also
// connects the NATS sink when NATS_URL is set.
func bootstrap(withBus bool) (*app, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	database, err := db.Connect(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}
	logger.Info("interaction log ready", zap.String("driver", cfg.DBDriver))

	a := &app{cfg: cfg, logger: logger, closers: []func() error{database.Close}}

	var opts []analytics.Option
	if withBus && cfg.NATSURL != "" {
		bus, err := events.NewNATSPublisher(events.NATSConfig{URL: cfg.NATSURL, Subject: cfg.NATSSubject})
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, bus.Close)
		opts = append(opts, analytics.WithSink(bus))
		logger.Info("publishing interactions to nats", zap.String("subject", cfg.NATSSubject))
	}

	a.recorder = analytics.NewRecorder(database, cfg.DBDriver, logger.Named("interactions"), opts...)
	return a, nil
}

func (a *app) gateway() *ai.Client {
	return ai.New(ai.Config{
		APIKey:    a.cfg.GroqAPIKey,
		BaseURL:   a.cfg.GroqBaseURL,
		Model:     a.cfg.GroqModel,
		Timeout:   a.cfg.LLMTimeout,
		PromptDir: a.cfg.PromptDir,
	}, a.logger.Named("groq"))
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	_ = a.logger.Sync()
}
