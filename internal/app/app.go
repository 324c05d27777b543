package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jsbattig/code-indexer-sub037/internal/config"
	"github.com/jsbattig/code-indexer-sub037/internal/observability"
	"github.com/jsbattig/code-indexer-sub037/internal/service"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Sessions      *service.SessionStore
	Clients       *service.OAuthClientRegistry
	Observability *observability.Runtime
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, sessions *service.SessionStore, clients *service.OAuthClientRegistry, runtime *observability.Runtime) *App {
	return &App{
		Config:        cfg,
		Logger:        logger,
		Server:        server,
		Sessions:      sessions,
		Clients:       clients,
		Observability: runtime,
	}
}

// Run serves HTTP and sweeps expired sessions until ctx is cancelled, then
// shuts everything down within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server starting", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(a.Config.SessionCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				removed := a.Sessions.CleanupExpired()
				if removed > 0 {
					a.Logger.Debug("expired sessions removed", "count", removed)
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
		defer cancel()
		a.Logger.Info("shutting down")
		return a.Server.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()
	if a.Clients != nil {
		if cerr := a.Clients.Close(); cerr != nil {
			a.Logger.Error("closing oauth client store", "error", cerr)
		}
	}
	if a.Observability != nil {
		if oerr := a.Observability.Shutdown(closeCtx); oerr != nil {
			a.Logger.Error("shutting down observability", "error", oerr)
		}
	}
	return err
}
