// Package main provides the openproject-mcp-server binary entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"openproject-mcp-server/internal/application"
	"openproject-mcp-server/internal/domain"
	"openproject-mcp-server/internal/infrastructure"
)

// Version is overridden at build time with -ldflags.
var Version = "0.1.0"

const appName = "openproject-mcp-server"

type options struct {
	configPath string
	envFiles   []string
	logLevel   string
	logFormat  string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "MCP server for the OpenProject API",
		Long: `openproject-mcp-server exposes OpenProject projects, work packages,
memberships, time entries, versions and relations as MCP tools.

Connection settings come from an optional YAML file, .env files and the
environment (OPENPROJECT_URL, OPENPROJECT_API_KEY, OPENPROJECT_PROXY).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML, optional)")
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "Dotenv files to load (missing files are ignored)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format (json, text); overrides config")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Test the connection to OpenProject and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return check(cmd.Context(), opts, cmd.OutOrStdout())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}

// loadConfig loads dotenv files, then the config file and environment,
// and applies flag overrides.
func loadConfig(opts *options) (*domain.Config, error) {
	if err := domain.LoadDotEnv(opts.envFiles...); err != nil {
		return nil, err
	}

	config, err := domain.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	if opts.logLevel != "" {
		config.Logging.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		config.Logging.Format = opts.logFormat
	}
	return config, nil
}

// newHandlers builds every tool family over clients.
func newHandlers(clients application.ClientSource) []domain.ToolHandler {
	return []domain.ToolHandler{
		application.NewSystemHandler(clients),
		application.NewProjectHandler(clients),
		application.NewWorkPackageHandler(clients),
		application.NewDirectoryHandler(clients),
		application.NewMembershipHandler(clients),
		application.NewTimeTrackingHandler(clients),
		application.NewRelationHandler(clients),
	}
}

// newTransport builds the configured transport. The HTTP transport also
// serves /metrics from registry.
func newTransport(config *domain.Config, logger *slog.Logger, registry *prometheus.Registry) (domain.Transport, error) {
	switch config.Transport.Type {
	case "stdio":
		return domain.NewStdioTransport(logger), nil
	case "http":
		metrics := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		return domain.NewHTTPTransport(config.Transport.HTTP.Addr(), logger, domain.WithHandler("/metrics", metrics)), nil
	default:
		return nil, fmt.Errorf("invalid transport type: %s", config.Transport.Type)
	}
}

func serve(ctx context.Context, opts *options) error {
	config, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// stdout carries the stdio protocol, so logs always go to stderr
	logger := application.NewLogger(os.Stderr, config.Logging.Level, config.Logging.Format)
	slog.SetDefault(logger)
	logger.Info("starting OpenProject MCP server", slog.String("version", Version))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := infrastructure.NewClientMetrics(registry)

	connector := infrastructure.NewConnector(config.OpenProject, metrics, logger)
	if err := config.OpenProject.RequireConnection(); err != nil {
		logger.Warn("OpenProject connection not configured, tool calls will fail until it is", slog.String("error", err.Error()))
	}

	router, err := application.NewRequestRouter(newHandlers(connector)...)
	if err != nil {
		return err
	}
	logger.Info("request router initialized", slog.Int("tools", len(router.ListAllTools())))

	transport, err := newTransport(config, logger, registry)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := application.NewServer(transport, router, logger, Version)
	if err := server.Start(ctx); err != nil {
		return err
	}

	if config.Transport.Type == "http" {
		logger.Info("MCP server listening", slog.String("addr", config.Transport.HTTP.Addr()))
	} else {
		logger.Info("MCP server started on stdio")
	}

	// Warm the connector so TEST_CONNECTION_ON_STARTUP runs at boot.
	if config.OpenProject.TestConnectionOnStartup {
		go func() {
			checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			_, _ = connector.Client(checkCtx)
		}()
	}

	<-ctx.Done()
	logger.Info("initiating graceful shutdown")
	if err := server.Close(); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}
	logger.Info("server shutdown complete")
	return nil
}

func check(ctx context.Context, opts *options, out io.Writer) error {
	config, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := application.NewLogger(os.Stderr, config.Logging.Level, config.Logging.Format)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	connector := infrastructure.NewConnector(config.OpenProject, nil, logger)
	client, err := connector.Client(ctx)
	if err != nil {
		return err
	}
	root, err := client.Root(ctx)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	fmt.Fprintf(out, "Connected to %s (core version %s)\n", root.InstanceName, root.CoreVersion)
	return nil
}
