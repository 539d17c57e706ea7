package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arellanoelden/think-piece/internal/auth/credentials"
	"github.com/arellanoelden/think-piece/internal/auth/fireauth"
	"github.com/arellanoelden/think-piece/internal/auth/handler"
	"github.com/arellanoelden/think-piece/internal/auth/provider"
	"github.com/arellanoelden/think-piece/internal/auth/provider/google"
	"github.com/arellanoelden/think-piece/internal/auth/provider/openid"
	"github.com/arellanoelden/think-piece/internal/auth/resolver"
	"github.com/arellanoelden/think-piece/internal/auth/token"
	"github.com/arellanoelden/think-piece/internal/backend"
	"github.com/arellanoelden/think-piece/internal/config"
	"github.com/arellanoelden/think-piece/internal/logger"
	"github.com/arellanoelden/think-piece/internal/metrics"
	"github.com/arellanoelden/think-piece/internal/middleware"
	"github.com/arellanoelden/think-piece/internal/profile"
	"github.com/arellanoelden/think-piece/internal/session"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	fail := func(err error) (*gin.Engine, func() error, error) {
		infra.Close()
		return nil, nil, err
	}

	// ----------------------------
	// Auth backend
	// ----------------------------

	accounts, identityResolver, err := setupAccounts(ctx, cfg, infra)
	if err != nil {
		return fail(err)
	}

	registry, err := setupProviders(ctx, cfg)
	if err != nil {
		return fail(err)
	}

	client, err := backend.New(backend.Options{
		Accounts:   accounts,
		Providers:  registry,
		Resolver:   identityResolver,
		Sessions:   session.NewRedisStore(infra.Redis.Client),
		SessionTTL: cfg.SessionTTL,
	})
	if err != nil {
		return fail(err)
	}

	// ----------------------------
	// Profiles
	// ----------------------------

	store, err := newDocStore(ctx, cfg, infra)
	if err != nil {
		return fail(err)
	}
	infra.onClose(store.Close)

	logger.Info("profile store ready", map[string]any{"store": cfg.ProfileStore})

	// ----------------------------
	// Handlers
	// ----------------------------

	m := metrics.New()
	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTExpiry, cfg.JWTIssuer)

	authHandler := handler.NewHandler(
		client,
		profile.NewService(store),
		tokens,
		m,
		session.CookieOptions{Secure: cfg.SecureCookie},
	)

	authMiddleware := middleware.NewAuthMiddleware(client, tokens)

	router := newRouter(authHandler, authMiddleware, m)

	return router, infra.Close, nil
}

func newRouter(
	authHandler *handler.Handler,
	authMiddleware *middleware.AuthMiddleware,
	m *metrics.Metrics,
) *gin.Engine {

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(m.GinMiddleware())

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.GinRequireAuth(authMiddleware))

	api.GET("/me", authHandler.Me)

	// ----------------------------
	// Protected Web Routes
	// ----------------------------

	web := router.Group("/")
	web.Use(middleware.GinRedirectUnauthenticated(authMiddleware, "/signin"))

	web.GET("/", authHandler.Home)

	return router
}

// setupAccounts picks the password backend and the matching identity
// resolver for interactive sign-ins.
func setupAccounts(
	ctx context.Context,
	cfg config.Config,
	infra *Infra,
) (backend.Accounts, resolver.Resolver, error) {

	switch cfg.AuthBackend {
	case config.AuthBackendPostgres:
		return credentials.NewService(infra.DB), resolver.NewDBResolver(infra.DB), nil

	case config.AuthBackendFirebase:
		authClient, err := infra.Firebase.Auth(ctx)
		if err != nil {
			return nil, nil, err
		}
		accounts, err := fireauth.NewAccounts(ctx, cfg.FirebaseAPIKey, authClient)
		if err != nil {
			return nil, nil, err
		}
		return accounts, fireauth.NewResolver(authClient), nil

	default:
		return nil, nil, errors.New("unknown auth backend " + cfg.AuthBackend)
	}
}

func setupProviders(ctx context.Context, cfg config.Config) (*provider.Registry, error) {
	var list []provider.OAuthProvider

	if cfg.GoogleEnabled() {
		googleProvider, err := google.New(
			ctx,
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL,
		)
		if err != nil {
			return nil, err
		}
		list = append(list, googleProvider)
	}

	if cfg.OIDCEnabled() {
		oidcProvider, err := openid.New(ctx, openid.Config{
			Name:         cfg.OIDCName,
			Issuer:       cfg.OIDCIssuer,
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURL,
			AuthURL:      cfg.OIDCAuthURL,
		})
		if err != nil {
			return nil, err
		}
		list = append(list, oidcProvider)
	}

	registry := provider.NewRegistry(list...)
	logger.Info("oauth providers ready", map[string]any{"providers": registry.Names()})
	return registry, nil
}
