package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netlogics/ollama-router/pkg/cli"
	"github.com/netlogics/ollama-router/pkg/config"
	"github.com/netlogics/ollama-router/pkg/proxy"
	"github.com/netlogics/ollama-router/pkg/requestlog"
	"github.com/netlogics/ollama-router/pkg/routing"
	tlsmgr "github.com/netlogics/ollama-router/pkg/security/tls"
	"github.com/netlogics/ollama-router/pkg/server"
	"github.com/netlogics/ollama-router/pkg/telemetry/logging"
	"github.com/netlogics/ollama-router/pkg/telemetry/metrics"
)

var runFlags struct {
	host      string
	port      int
	ollamaURL string
	logLevel  string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the proxy server",
	Long: `Start the HTTPS proxy server with the specified configuration.

Configuration is resolved in precedence order: built-in defaults, then
the configuration file, then OLLAMA_ROUTER_* environment variables, and
finally command-line flags.

Examples:
  # Start with defaults (listens on 0.0.0.0:8443)
  ollama-router run

  # Start with a custom config file
  ollama-router run --config /etc/ollama-router/config.yaml

  # Override the listen port and backend
  ollama-router run --port 9443 --ollama-url http://127.0.0.1:11434`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.host, "host", "", "override bind address")
	runCmd.Flags().IntVar(&runFlags.port, "port", 0, "override listen port")
	runCmd.Flags().StringVar(&runFlags.ollamaURL, "ollama-url", "", "override Ollama base URL")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}

	// Flags take precedence over file and environment.
	if runFlags.host != "" {
		cfg.Server.Host = runFlags.host
	}
	if runFlags.port != 0 {
		cfg.Server.Port = runFlags.port
	}
	if runFlags.ollamaURL != "" {
		cfg.Ollama.BaseURL = runFlags.ollamaURL
	}
	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	if err != nil {
		return err
	}
	logger.Info("configuration loaded",
		"config_file", cfgFile,
		"listen", cfg.Server.ListenAddress(),
		"backend", cfg.Ollama.BaseURL,
	)

	ctx, cancel := context.WithCancel(cli.SetupSignalHandler())
	defer cancel()

	// Certificate lifecycle: ensure a usable pair exists, then serve it
	// through a reloader so rotations take effect without restarting.
	manager := tlsmgr.NewManager(&cfg.Server.SSL)
	if _, err := manager.Ensure(); err != nil {
		return fmt.Errorf("certificate setup failed: %w", err)
	}

	reloader, err := tlsmgr.NewCertificateReloader(manager.CertFile(), manager.KeyFile())
	if err != nil {
		return fmt.Errorf("certificate load failed: %w", err)
	}

	watcher, err := tlsmgr.NewCertWatcher(reloader)
	if err != nil {
		logger.Warn("certificate watcher unavailable", "error", err)
	} else {
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				logger.Warn("certificate watcher stopped", "error", err)
			}
		}()
		defer watcher.Close()
	}

	renewer := tlsmgr.NewRenewer(manager, reloader, cfg.Security.RenewalSchedule)
	if err := renewer.Start(ctx); err != nil {
		return fmt.Errorf("certificate renewal scheduler failed: %w", err)
	}
	defer renewer.Stop()

	// Route policy table.
	rules := make([]routing.Rule, 0, len(cfg.Routes))
	for _, route := range cfg.Routes {
		rules = append(rules, routing.Rule{
			Pattern: route.Path,
			Timeout: route.Timeout.Std(),
		})
	}
	table, err := routing.New(rules, cfg.Ollama.Timeout.Std())
	if err != nil {
		return fmt.Errorf("invalid route table: %w", err)
	}

	// Request log.
	logRequests := cfg.Logging.LogRequests == nil || *cfg.Logging.LogRequests
	reqLog, err := requestlog.New(requestlog.Options{
		Dir:     cfg.Logging.LogDir,
		Enabled: logRequests,
	})
	if err != nil {
		return fmt.Errorf("request log setup failed: %w", err)
	}
	defer func() {
		if err := reqLog.Close(); err != nil {
			logger.Error("request log close failed", "error", err)
		}
		if dropped := reqLog.Dropped(); dropped > 0 {
			logger.Warn("request records dropped", "count", dropped)
		}
	}()

	collector := metrics.NewCollector(cfg.Telemetry.Metrics.Namespace)

	engine, err := proxy.NewEngine(proxy.Options{
		BackendURL:     cfg.Ollama.BaseURL,
		MaxConnections: cfg.Ollama.MaxConnections,
		Routes:         table,
		RequestLog:     reqLog,
		Metrics:        collector.Requests,
		LogResponses:   cfg.Logging.LogResponses,
	})
	if err != nil {
		return fmt.Errorf("proxy engine setup failed: %w", err)
	}

	srv := server.New(server.Options{
		Config:    cfg,
		Engine:    engine,
		Metrics:   collector.Handler(),
		TLSConfig: reloader.ServerTLSConfig(),
		Version:   Version,
	})

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}
