package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/steadylab/caffeine-tracker/internal/auth"
	"github.com/steadylab/caffeine-tracker/internal/config"
	"github.com/steadylab/caffeine-tracker/internal/intake"
	"github.com/steadylab/caffeine-tracker/internal/logging"
	"github.com/steadylab/caffeine-tracker/internal/metrics"
	"github.com/steadylab/caffeine-tracker/internal/server"
	"github.com/steadylab/caffeine-tracker/internal/storage"
	"go.uber.org/zap"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "caffeine-api",
		Short: "Caffeine intake tracker backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().Int("port", defaults.GetInt("http.port"), "HTTP listen port")
	cmd.PersistentFlags().String("db-type", defaults.GetString("storage.backend"), "Storage backend (mysql, sqlite, memory)")
	cmd.PersistentFlags().String("sqlite-path", defaults.GetString("sqlite.path"), "SQLite database path")
	cmd.PersistentFlags().String("cors-origin", defaults.GetString("cors.origin"), "Allowed CORS origin")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Scope token signing secret (overrides env)")

	bindFlag(cmd, "http.port", "port")
	bindFlag(cmd, "storage.backend", "db-type")
	bindFlag(cmd, "sqlite.path", "sqlite-path")
	bindFlag(cmd, "cors.origin", "cors-origin")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	backend, err := storage.Open(appConfig.Storage, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	intakeService, err := intake.NewService(intake.ServiceConfig{
		Store:  backend.Store,
		Clock:  time.Now,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	var tokenManager *auth.TokenManager
	if appConfig.Auth.SigningSecret != "" {
		tokenManager = auth.NewTokenManager(auth.TokenManagerConfig{
			SigningSecret: []byte(appConfig.Auth.SigningSecret),
			Issuer:        "caffeine-api",
			Audience:      "caffeine-client",
			TokenTTL:      time.Duration(appConfig.Auth.TokenTTLMinutes) * time.Minute,
		})
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Intake:      intakeService,
		BackendType: backend.Type,
		Tokens:      tokenManager,
		Metrics:     metrics.New(),
		Logger:      logger,
		Version:     version,
		CORSOrigin:  appConfig.CORSOrigin,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.Address(),
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.Address()),
			zap.String("db_type", string(backend.Type)))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
