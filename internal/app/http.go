package app

import (
	"context"
	"fmt"
	"net/http"

	"opensesame/internal/auth/handler"
	"opensesame/internal/auth/provider"
	"opensesame/internal/auth/provider/github"
	"opensesame/internal/auth/provider/oidc"
	"opensesame/internal/auth/resolver"
	"opensesame/internal/config"
	"opensesame/internal/logger"
	"opensesame/internal/middleware"
	"opensesame/internal/projects"
	"opensesame/internal/session"
	"opensesame/internal/users"
	"opensesame/internal/web"

	"github.com/gin-gonic/gin"
)

func setupProviders(ctx context.Context, cfg config.Config) (*provider.Registry, error) {
	githubProvider, err := github.New(github.Config{
		ClientID:     cfg.GitHub.ClientID,
		ClientSecret: cfg.GitHub.ClientSecret,
		RedirectURL:  cfg.GitHub.RedirectURL,
		APIBaseURL:   cfg.GitHub.APIBaseURL,
	})
	if err != nil {
		return nil, err
	}

	list := []provider.OAuthProvider{githubProvider}

	if cfg.OIDC.Issuer != "" {
		oidcProvider, err := oidc.New(ctx, oidc.Config{
			Name:         cfg.OIDC.Name,
			Issuer:       cfg.OIDC.Issuer,
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			RedirectURL:  cfg.OIDC.RedirectURL,
		})
		if err != nil {
			return nil, err
		}
		list = append(list, oidcProvider)
	}

	registry, err := provider.NewRegistry(list...)
	if err != nil {
		return nil, err
	}
	logger.Info("oauth providers registered", map[string]any{
		"providers": registry.Names(),
	})

	return registry, nil
}

// Deps are the collaborators the router is built from.
type Deps struct {
	Providers *provider.Registry
	Sessions  session.Store
	Resolver  resolver.Resolver
	Tags      users.TagStore
	// Projects is optional; /projects is only mounted when it is set.
	Projects *projects.Service
}

// NewRouter builds the gin engine serving every route.
func NewRouter(cfg config.Config, deps Deps) (*gin.Engine, error) {
	verifier, err := deps.Providers.Get(cfg.Signup.Provider)
	if err != nil {
		return nil, fmt.Errorf("signup provider: %w", err)
	}

	cookies := session.CookieOptions{
		Secure:   cfg.App.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}

	authHandler := handler.NewHandler(
		deps.Providers,
		cfg.Signup.Provider,
		deps.Sessions,
		cookies,
		cfg.Signup.SessionTTL,
	)
	authMiddleware := middleware.NewAuthMiddleware(deps.Sessions, cookies)

	userService := users.NewService(verifier, deps.Resolver, deps.Tags, cfg.Signup.InterestTags)
	userHandler := users.NewHandler(userService, deps.Sessions)
	pages := web.NewHandler(cfg.Signup.Provider, cfg.Signup.InterestTags, userService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler.RegisterRoutes(router)
	pages.RegisterRoutes(router, authMiddleware)

	api := router.Group("/")
	api.Use(middleware.GinLoadSession(authMiddleware))
	userHandler.RegisterRoutes(api)

	if deps.Projects != nil {
		projects.NewHandler(deps.Projects).RegisterRoutes(router)
	}

	for _, route := range router.Routes() {
		logger.Info("route", map[string]any{
			"method": route.Method,
			"path":   route.Path,
		})
	}

	return router, nil
}

func setupProjects(cfg config.Config, infra *Infra) (*projects.Service, error) {
	var counter projects.ContributorCounter
	if cfg.Projects.SyncWithGitHub {
		gh, err := github.New(github.Config{
			ClientID:   cfg.GitHub.ClientID,
			APIBaseURL: cfg.GitHub.APIBaseURL,
		})
		if err != nil {
			return nil, err
		}
		counter = gh
	}

	return projects.NewService(projects.NewRepository(infra.DB), counter, cfg.Projects.MaxSyncAge), nil
}

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, *projects.Service, func() error, error) {
	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	registry, err := setupProviders(ctx, cfg)
	if err != nil {
		_ = infra.Close()
		return nil, nil, nil, err
	}

	projectService, err := setupProjects(cfg, infra)
	if err != nil {
		_ = infra.Close()
		return nil, nil, nil, err
	}

	router, err := NewRouter(cfg, Deps{
		Providers: registry,
		Sessions:  session.NewRedisStore(infra.Redis.Client),
		Resolver:  resolver.NewDBResolver(infra.DB),
		Tags:      users.NewRepository(infra.DB),
		Projects:  projectService,
	})
	if err != nil {
		_ = infra.Close()
		return nil, nil, nil, err
	}

	return router, projectService, infra.Close, nil
}
