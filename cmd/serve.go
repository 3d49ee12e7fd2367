package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/netresearch/ldap-rest-auth/internal/config"
	"github.com/netresearch/ldap-rest-auth/internal/directory"
	"github.com/netresearch/ldap-rest-auth/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.HTTP.Listen = listen
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	client, err := directory.New(directory.Config{
		Server:          cfg.LDAP.URL,
		BaseDN:          cfg.LDAP.BaseDN,
		BindDN:          cfg.LDAP.BindDN,
		BindPassword:    cfg.LDAP.BindPassword,
		UserSearchBase:  cfg.LDAP.UserSearchBase,
		GroupSearchBase: cfg.LDAP.GroupSearchBase,
		RequiredGroupDN: cfg.LDAP.RequiredGroup,
		Domain:          cfg.LDAP.Domain,
		ConnectTimeout:  cfg.LDAP.ConnectTimeout,
		ReadTimeout:     cfg.LDAP.ReadTimeout,
	}, directory.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to build directory client: %w", err)
	}

	// The directory may well come up after we do, so an unreachable
	// server at boot is logged, not fatal.
	if err := client.Ping(cmd.Context()); err != nil {
		logger.Warn("directory_unreachable_at_startup",
			slog.String("server", cfg.LDAP.URL),
			slog.String("error", err.Error()))
	}

	server := web.NewServer(client, web.Options{
		Listen:          cfg.HTTP.Listen,
		Domain:          cfg.LDAP.Domain,
		RequiredGroup:   cfg.LDAP.RequiredGroup,
		Logger:          logger,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx)
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
