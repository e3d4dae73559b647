package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/powuno/internal/auth"
	"github.com/lox/powuno/internal/server"
	"github.com/lox/powuno/internal/store/sqlite"
)

// version is set by ldflags during build
var version = "dev"

var CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Config   string           `short:"c" default:"powuno.hcl" help:"Path to HCL configuration file"`
	Addr     string           `short:"a" help:"Server address to bind to (overrides config)"`
	LogLevel string           `short:"l" help:"Log level (overrides config)"`
	Database string           `short:"d" help:"SQLite database path (overrides config)"`
	AuthURL  string           `help:"Token validation endpoint (overrides config)"`
	Seed     int64            `help:"Fixed RNG seed for every game (overrides config)"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("powuno-server"),
		kong.Description("Real-time card game server"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	// Load configuration
	cfg, err := server.LoadServerConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.Database != "" {
		cfg.Server.Database = CLI.Database
	}
	if CLI.AuthURL != "" {
		if cfg.Auth == nil {
			cfg.Auth = &server.AuthConfig{}
		}
		cfg.Auth.URL = CLI.AuthURL
	}
	if CLI.Seed != 0 {
		if cfg.Rules == nil {
			cfg.Rules = &server.RulesConfig{}
		}
		cfg.Rules.Seed = CLI.Seed
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	// Setup logging
	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	addr := cfg.ResolveAddress(CLI.Addr)

	if err := run(cfg, addr, logger); err != nil {
		logger.Error("Server failed", "error", err)
		ctx.Exit(1)
	}
}

func run(cfg *server.ServerConfig, addr string, logger *log.Logger) error {
	st, err := sqlite.Open(cfg.Server.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	var validator auth.Validator
	if cfg.Auth != nil && cfg.Auth.URL != "" {
		validator = auth.NewHTTPValidator(cfg.Auth.URL, cfg.Auth.AdminSecret)
		logger.Info("Token auth enabled", "url", cfg.Auth.URL)
	} else {
		validator = auth.NewNoopValidator()
		logger.Warn("Auth disabled, trusting client-supplied user IDs")
	}

	gameService := server.NewGameService(st, validator, logger, cfg.GameServiceConfig())
	wsServer := server.NewServer(addr, gameService, logger)

	logger.Info("Starting server",
		"addr", addr,
		"database", cfg.Server.Database,
		"version", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return wsServer.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		return wsServer.Stop()
	})

	return g.Wait()
}
