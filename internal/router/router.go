package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskflow/api/handler"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Task    *apiHandler.TaskHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/auth/v1/signup", handlers.Auth.SignUp)
	r.POST("/auth/v1/token", handlers.Auth.Token)
	r.POST("/auth/v1/logout", authMiddleware(handlers.Auth.Logout))
	r.GET("/auth/v1/user", authMiddleware(handlers.Profile.GetProfile))
	r.PUT("/auth/v1/user", authMiddleware(handlers.Profile.UpdateProfile))

	// Task collection
	r.GET("/rest/v1/tasks", authMiddleware(handlers.Task.List))
	r.POST("/rest/v1/tasks", authMiddleware(handlers.Task.Create))
	r.PATCH("/rest/v1/tasks", authMiddleware(handlers.Task.Update))
	r.DELETE("/rest/v1/tasks", authMiddleware(handlers.Task.Delete))

	return r
}
