package http

import (
	"log/slog"

	"github.com/geocoder89/scheduler/internal/auth"
	"github.com/geocoder89/scheduler/internal/authz"
	"github.com/geocoder89/scheduler/internal/config"
	"github.com/geocoder89/scheduler/internal/http/handlers"
	"github.com/geocoder89/scheduler/internal/http/middlewares"
	"github.com/geocoder89/scheduler/internal/observability"
	"github.com/geocoder89/scheduler/internal/security"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// UsersRepo is what the router needs from the user store: CRUD plus the
// lookups the authenticator and session hydration use.
type UsersRepo interface {
	handlers.UsersStore
	auth.UserReader
}

type RolesRepo interface {
	handlers.RolesStore
	handlers.RoleFinder
}

type Deps struct {
	Users    UsersRepo
	Roles    RolesRepo
	Events   handlers.EventsStore
	Sessions *auth.Sessions
	Hasher   *security.Hasher
	Prom     *observability.Prom
	Ready    map[string]handlers.Check
	Draining func() bool
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers.RegisterValidators()

	r := gin.New()

	// client ips come from RemoteAddr unless the hop is a listed proxy
	if err := r.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Error("invalid trusted proxies, trusting none", "err", err)
		_ = r.SetTrustedProxies(nil)
	}

	// middleware

	r.Use(gin.Recovery())
	if cfg.Tracing.Endpoint != "" {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders(cfg.IsProd()))
	r.Use(middlewares.CORS(cfg.HTTP.CORSOrigins))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(deps.Prom.Handler()))
	}

	// health
	h := handlers.NewHealthHandler(deps.Ready, deps.Draining)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	api := r.Group("/")
	api.Use(
		middlewares.MaxBodyBytes(cfg.HTTP.MaxBodyBytes),
		middlewares.RequireJSON(),
		middlewares.Timeout(cfg.StoreTimeout),
	)

	policy := authz.NewPolicy(cfg.Admin.Role)
	authMW := middlewares.NewAuthMiddleware(deps.Sessions, deps.Prom)
	requireAuth := authMW.RequireAuth()

	// auth
	authHandler := handlers.NewAuthHandler(
		auth.NewAuthenticator(deps.Users, deps.Hasher),
		deps.Sessions,
		deps.Users,
		deps.Roles,
		deps.Hasher,
		deps.Prom,
		handlers.AuthConfig{
			DefaultRole:  cfg.Admin.DefaultRole,
			SecureCookie: cfg.IsProd(),
		},
	)

	loginLimiter := middlewares.NewRateLimiter(cfg.HTTP.LoginRateLimit, cfg.HTTP.LoginRateWindow)
	registerLimiter := middlewares.NewRateLimiter(cfg.HTTP.LoginRateLimit, cfg.HTTP.LoginRateWindow)

	api.POST("/auth/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
	api.POST("/auth/register", registerLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Register)
	api.GET("/auth/session", requireAuth, authHandler.Session)
	api.POST("/auth/logout", requireAuth, authHandler.Logout)

	// users
	usersHandler := handlers.NewUsersHandler(deps.Users, deps.Hasher, deps.Sessions, cfg.HTTP.EmptyListNotFound)
	users := api.Group("/users", requireAuth, middlewares.Authorize(policy.ManageUsers()))
	{
		users.GET("", usersHandler.ListUsers)
		users.GET("/:id", usersHandler.GetUser)
		users.POST("", usersHandler.CreateUser)
		users.PUT("", usersHandler.UpdateUser)
		users.PUT("/:id", usersHandler.UpdateUser)
		users.DELETE("", usersHandler.DeleteUser)
		users.DELETE("/:id", usersHandler.DeleteUser)
	}

	// roles
	rolesHandler := handlers.NewRolesHandler(deps.Roles, []string{cfg.Admin.Role, cfg.Admin.DefaultRole}, cfg.HTTP.EmptyListNotFound)
	roles := api.Group("/roles", requireAuth, middlewares.Authorize(policy.ManageRoles()))
	{
		roles.GET("", rolesHandler.ListRoles)
		roles.GET("/:id", rolesHandler.GetRole)
		roles.POST("", rolesHandler.CreateRole)
		roles.PUT("", rolesHandler.UpdateRole)
		roles.PUT("/:id", rolesHandler.UpdateRole)
		roles.DELETE("", rolesHandler.DeleteRole)
		roles.DELETE("/:id", rolesHandler.DeleteRole)
	}

	// events: any signed-in user; ownership is checked per event
	eventsHandler := handlers.NewEventsHandler(deps.Events, policy, cfg.HTTP.EmptyListNotFound)
	events := api.Group("/events", requireAuth)
	{
		events.GET("", eventsHandler.ListEvents)
		events.GET("/:id", eventsHandler.GetEventById)
		events.POST("", eventsHandler.CreateEvent)
		events.PUT("", eventsHandler.UpdateEvent)
		events.PUT("/:id", eventsHandler.UpdateEvent)
		events.DELETE("", eventsHandler.DeleteEvent)
		events.DELETE("/:id", eventsHandler.DeleteEvent)
	}

	return r
}
