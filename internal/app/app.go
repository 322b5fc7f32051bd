package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"opensesame/internal/config"
	"opensesame/internal/logger"
	"opensesame/internal/projects"

	"github.com/gin-gonic/gin"
)

type App struct {
	httpServer *http.Server
	cleanup    func() error

	projects        *projects.Service
	refreshInterval time.Duration
	refreshCtx      context.Context //nolint:containedctx
	stopRefresh     context.CancelFunc
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if cfg.Logger.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router, projectService, cleanup, err := setupHTTP(ctx, cfg)
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
	}

	refreshCtx, stopRefresh := context.WithCancel(context.Background())

	return &App{
		httpServer:      server,
		cleanup:         cleanup,
		projects:        projectService,
		refreshInterval: cfg.Projects.RefreshInterval,
		refreshCtx:      refreshCtx,
		stopRefresh:     stopRefresh,
	}, nil
}

// Run serves until Shutdown. A clean shutdown is not an error.
func (a *App) Run() error {
	if a.refreshInterval > 0 {
		logger.Info("project refresh started", map[string]any{
			"interval": a.refreshInterval.String(),
		})
		go a.projects.RunRefresher(a.refreshCtx, a.refreshInterval)
	}

	if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.stopRefresh()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	if a.cleanup != nil {
		return a.cleanup()
	}
	return nil
}
