package http

import (
	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/ratelimit"
	"github.com/geocoder89/taskhub/internal/session"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type UsersRepository interface {
	handlers.CredentialStore
	handlers.UsersStore
}

type TasksRepository interface {
	handlers.TasksStore
	handlers.Assigner
}

// Deps is everything the router needs from main. Prom and Checks may be nil.
type Deps struct {
	Users    UsersRepository
	Tasks    TasksRepository
	Codec    *auth.Codec
	Sessions *session.Authority

	AnonLimiter   ratelimit.Limiter
	AuthedLimiter ratelimit.Limiter

	Prom   *observability.Prom
	Checks map[string]handlers.Pinger
}

func NewRouter(cfg config.Config, d Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	var recorder middlewares.Recorder
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(d.Prom.Handler()))
		recorder = d.Prom
	}

	// health
	h := handlers.NewHealthHandler(d.Checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	gate := auth.NewGate(d.Codec, d.Sessions)
	authMw := middlewares.NewAuthMiddleware(gate, recorder)

	// admission control always runs first so a flood of bad tokens never
	// reaches the version store
	limit := middlewares.NewRateLimiter(d.AnonLimiter, d.AuthedLimiter, recorder).Middleware()
	requireAuth := authMw.RequireAuth()
	requireAdmin := authMw.RequireAdmin()
	requireJSON := middlewares.RequireJSON()

	r.GET("/", limit, handlers.Index)

	// auth
	authHandler := handlers.NewAuthHandler(d.Users, d.Sessions, d.Codec)

	authGroup := r.Group("/auth", limit)
	{
		authGroup.POST("/login", requireJSON, authHandler.Login)
		authGroup.POST("/register", requireJSON, authHandler.Register)
		authGroup.POST("/logout", requireAuth, authHandler.Logout)
		authGroup.GET("/me", requireAuth, authHandler.Me)
	}

	// tasks
	tasksHandler := handlers.NewTasksHandler(d.Tasks)
	assignmentsHandler := handlers.NewAssignmentsHandler(d.Tasks, d.Tasks, d.Users)

	tasks := r.Group("/tasks", limit, requireAuth)
	{
		tasks.GET("", tasksHandler.ListTasks)
		tasks.GET("/:id", tasksHandler.GetTask)
		tasks.POST("", requireJSON, tasksHandler.CreateTask)
		tasks.PUT("/:id", requireJSON, tasksHandler.UpdateTask)
		tasks.DELETE("/:id", tasksHandler.DeleteTask)
		tasks.POST("/:id/assign", requireJSON, assignmentsHandler.Assign)
	}

	// users
	usersHandler := handlers.NewUsersHandler(d.Users)

	users := r.Group("/users", limit)
	{
		users.GET("", requireAuth, usersHandler.ListUsers)
		users.GET("/:id", requireAuth, usersHandler.GetUser)
		users.GET("/:id/tasks", requireAuth, assignmentsHandler.ListUserTasks)
		users.POST("", requireAdmin, requireJSON, usersHandler.CreateUser)
		users.PUT("/:id", requireAuth, middlewares.RequireSelfOrAdmin("id"), requireJSON, usersHandler.UpdateUser)
		users.DELETE("/:id", requireAdmin, usersHandler.DeleteUser)
	}

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Not found")
	})

	return r
}
