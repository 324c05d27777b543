package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/jsbattig/code-indexer-sub037/internal/app"
	"github.com/jsbattig/code-indexer-sub037/internal/config"
	"github.com/jsbattig/code-indexer-sub037/internal/domain"
	"github.com/jsbattig/code-indexer-sub037/internal/http/handler"
	"github.com/jsbattig/code-indexer-sub037/internal/http/middleware"
	"github.com/jsbattig/code-indexer-sub037/internal/http/router"
	"github.com/jsbattig/code-indexer-sub037/internal/observability"
	"github.com/jsbattig/code-indexer-sub037/internal/repository"
	"github.com/jsbattig/code-indexer-sub037/internal/security"
	"github.com/jsbattig/code-indexer-sub037/internal/service"
	"github.com/jsbattig/code-indexer-sub037/internal/tools/common"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "authcore",
		Short: "Access-control core for the code index server",
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to optional env file")
	cmd.AddCommand(newServeCommand(&envFile))
	return cmd
}

func newServeCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := common.LoadEnvFile(*envFile); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			return a.Run(ctx)
		},
	}
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app.App, error) {
	runtime, err := observability.InitRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	clock := service.SystemClock()
	rotation := service.NewRotationGuard(clock)
	sessions := service.NewSessionStore(clock, cfg.SessionTTL, rotation)

	passwordLimiter, refreshLimiter, err := buildLimiters(cfg, clock)
	if err != nil {
		return nil, err
	}

	tools, err := service.NewToolRegistry(service.DefaultToolCatalog())
	if err != nil {
		return nil, fmt.Errorf("build tool registry: %w", err)
	}

	db, err := repository.Open(cfg.AuthStoreDriver, cfg.AuthStoreDSN)
	if err != nil {
		return nil, err
	}
	clients := service.NewOAuthClientRegistryFromDB(db, clock)
	users := repository.NewUserDirectory(db)
	if err := seedInitialAdmin(ctx, users, cfg, logger); err != nil {
		return nil, err
	}
	jwtMgr := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
	authz := service.NewAuthorizer(
		users,
		security.BcryptVerifier{},
		sessions,
		rotation,
		tools,
		jwtMgr,
		passwordLimiter,
		refreshLimiter,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)

	deps := router.Dependencies{
		Authorizer:      authz,
		AuthHandler:     handler.NewAuthHandler(authz, cfg.PublicHost, cfg.SessionTTL),
		OAuthHandler:    handler.NewOAuthHandler(clients),
		ToolHandler:     handler.NewToolHandler(authz),
		PasswordLimiter: middleware.NewRateLimit(passwordLimiter, "password_change", middleware.SubjectOrIPKeyFunc()),
		RefreshLimiter:  middleware.NewRateLimit(refreshLimiter, "refresh", middleware.SubjectOrIPKeyFunc()),
		EnableOTelHTTP:  cfg.OTELTracesEnabled,
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return app.New(cfg, logger, server, sessions, clients, runtime), nil
}

// seedInitialAdmin creates the bootstrap admin account on first start.
// Skipped when no bootstrap password is configured or the account exists.
func seedInitialAdmin(ctx context.Context, users *repository.GormUserDirectory, cfg *config.Config, logger *slog.Logger) error {
	if cfg.InitialAdminPassword == "" {
		return nil
	}
	if _, err := users.GetUser(ctx, cfg.InitialAdminUsername); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}
	if err := users.CreateUser(ctx, cfg.InitialAdminUsername, cfg.InitialAdminPassword, domain.RoleAdmin); err != nil {
		return err
	}
	logger.Info("initial admin account created", "username", cfg.InitialAdminUsername)
	return nil
}

func buildLimiters(cfg *config.Config, clock service.Clock) (service.Limiter, service.Limiter, error) {
	passwordCfg := service.RateLimitConfig{MaxAttempts: cfg.PasswordChangeMaxAttempts, Window: cfg.PasswordChangeWindow}
	refreshCfg := service.RateLimitConfig{MaxAttempts: cfg.RefreshMaxAttempts, Window: cfg.RefreshWindow}

	switch cfg.RateLimitBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, nil, fmt.Errorf("connect redis rate limiter: %w", err)
		}
		return service.NewRedisWindowLimiter(client, "password_change", passwordCfg, clock),
			service.NewRedisWindowLimiter(client, "refresh", refreshCfg, clock), nil
	default:
		return service.NewWindowLimiter("password_change", passwordCfg, clock),
			service.NewWindowLimiter("refresh", refreshCfg, clock), nil
	}
}
