package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/whalebone/local-resolver-agent/interfaces"
	"github.com/whalebone/local-resolver-agent/models"
	"github.com/whalebone/local-resolver-agent/services/agent"
	"github.com/whalebone/local-resolver-agent/services/command"
	"github.com/whalebone/local-resolver-agent/services/compose"
	"github.com/whalebone/local-resolver-agent/services/docker"
	"github.com/whalebone/local-resolver-agent/services/lifecycle"
	"github.com/whalebone/local-resolver-agent/services/logging"
	"github.com/whalebone/local-resolver-agent/services/sysinfo"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configFile string
	envFile    string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "lr-agent",
		Short:        "Management agent of the local resolver appliance",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (yaml)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "env file loaded before reading LRA_* variables")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level, overrides the configuration")

	root.AddCommand(
		newServeCommand(opts),
		newListCommand(opts),
		newExecCommand(opts),
		newVersionCommand(),
	)
	return root
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to the management plane and execute its commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(opts, "stdout")
			if err != nil {
				return err
			}
			defer a.close()

			session := agent.NewSession(agent.ConfigFrom(a.cfg), a.processor, a.collector, a.logger)
			a.logger.Info("agent starting",
				zap.String("version", version),
				zap.String("name", a.cfg.AgentName),
				zap.String("address", a.cfg.Address),
			)

			err = session.Run(ctx)
			if errors.Is(err, context.Canceled) {
				a.logger.Info("agent stopped")
				return nil
			}
			return err
		},
	}
}

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List containers of the local runtime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLocal(cmd, opts, models.Request{Action: models.ActionList.String()})
		},
	}
}

func newExecCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <request-json>",
		Short: "Process one request locally and print the response",
		Example: `  lr-agent exec '{"action":"stop","data":{"containers":["resolver"]}}'
  lr-agent exec '{"action":"sysinfo"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req models.Request
			if err := json.Unmarshal([]byte(args[0]), &req); err != nil {
				return errors.Wrap(err, "parse request")
			}
			return runLocal(cmd, opts, req)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the agent version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func runLocal(cmd *cobra.Command, opts *rootOptions, req models.Request) error {
	// stdout carries the response.
	a, err := newApp(opts, "stderr")
	if err != nil {
		return err
	}
	defer a.close()

	req.CLI = true
	raw, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "encode request")
	}

	resp := a.processor.Process(cmd.Context(), raw)
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode response")
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if resp.Status.Outcome == models.StatusFailure {
		return errors.New("request failed")
	}
	return nil
}

// app is the wired agent.
type app struct {
	cfg       models.Configuration
	logger    *zap.Logger
	runtime   interfaces.Runtime
	processor *command.Processor
	collector *sysinfo.Collector
	closers   []func() error
}

func newApp(opts *rootOptions, logOutput string) (*app, error) {
	cfg, err := loadConfiguration(viper.New(), opts.configFile, opts.envFile)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	logger, err := logging.New(cfg.LogLevel, false, logOutput)
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}

	rt, closer, err := selectRuntime(cfg.Runtime, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	stash := models.NewErrorStash(models.DefaultErrorStashSize)
	translator := compose.NewTranslator(compose.NewHostEnvResolver(cfg.CertDir))
	orchestrator := lifecycle.NewOrchestrator(rt, translator, logger, stash, lifecycle.Options{
		AgentName:    cfg.AgentName,
		PollInterval: cfg.PollInterval,
		PollAttempts: cfg.PollAttempts,
	})
	collector := sysinfo.NewCollector(rt, stash, logger, version)

	return &app{
		cfg:       cfg,
		logger:    logger,
		runtime:   rt,
		processor: command.NewProcessor(orchestrator, collector, logger),
		collector: collector,
		closers:   []func() error{closer},
	}, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Debug("close", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func selectRuntime(name string, logger *zap.Logger) (interfaces.Runtime, func() error, error) {
	switch name {
	case "docker":
		rt, err := docker.NewDockerRuntime(logger)
		if err != nil {
			return nil, nil, err
		}
		return rt, rt.Close, nil
	// case "containerd":
	//     return containerd.New(...)
	default:
		return nil, nil, models.NewError(models.KindInit, "%q is not a supported runtime", name)
	}
}
