package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/golea/internal/calendar"
	"github.com/example/golea/internal/config"
	httptransport "github.com/example/golea/internal/http"
	"github.com/example/golea/internal/identity"
	"github.com/example/golea/internal/logging"
	"github.com/example/golea/internal/metrics"
	"github.com/example/golea/internal/persistence/sqlite"
	"github.com/example/golea/internal/ratelimit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GOLEA API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(os.Stdout, cfg.Logging.Format, cfg.Logging.Level)

	storage, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(cmd.Context()); err != nil {
		return err
	}
	logger.Info("storage ready", "dsn", cfg.Database.DSN)

	store := identity.NewSessionStoreWithLogger(
		newUserRegistryAdapter(storage.Users()),
		newSessionStateAdapter(storage.Sessions()),
		storeConfig(cfg),
		uuid.NewString,
		time.Now,
		logger,
	)
	if err := store.Restore(cmd.Context()); err != nil {
		return err
	}
	if user, ok := store.CurrentUser(); ok {
		logger.Info("session restored", "user_id", user.ID)
	}

	m := metrics.New()
	limiter := ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Window)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:     httptransport.NewAuthHandler(store, m, logger),
		Calendar: httptransport.NewCalendarHandler(calendar.NewBuilder(time.UTC), storage.Events(), m, uuid.NewString, time.Now, logger),
		Metrics:  m,
		Limiter:  limiter,
		Healthz:  func() error { return nil },
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}

// storeConfig maps configuration to verifier wiring. Demo verifiers keep the
// permissive campus-demo credential policy; disabling them switches the
// registry login to argon2id hashes.
func storeConfig(cfg *config.Config) identity.Config {
	out := identity.Config{LoginDelay: cfg.Auth.LoginDelay}

	if cfg.Auth.DemoVerifiers {
		out.Passwords = identity.AcceptAnyPassword{}
	} else {
		out.Passwords = identity.Argon2Verifier{}
	}
	if cfg.Auth.RoleSecret != "" {
		out.RoleSecret = identity.SharedSecret{Secret: cfg.Auth.RoleSecret}
	}
	if cfg.Auth.OTPCode != "" {
		out.OTP = identity.StaticOTP{Code: cfg.Auth.OTPCode}
	}
	return out
}
