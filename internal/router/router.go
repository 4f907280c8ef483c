package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/taskmirror/backend/api/handler"
)

type Handlers struct {
	Task     *apiHandler.TaskHandler
	Sync     *apiHandler.SyncHandler
	Settings *apiHandler.SettingsHandler
	Health   *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Task routes
	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))
	r.PUT("/api/v1/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))
	r.POST("/api/v1/tasks/{id}/complete", authMiddleware(handlers.Task.CompleteTask))
	r.POST("/api/v1/tasks/{id}/uncomplete", authMiddleware(handlers.Task.UncompleteTask))
	r.POST("/api/v1/undo", authMiddleware(handlers.Task.UndoCompletion))

	// Reconciliation routes
	r.POST("/api/v1/sync", authMiddleware(handlers.Sync.RunCycle))
	r.GET("/api/v1/sync/reports", authMiddleware(handlers.Sync.ListReports))

	// Settings routes
	r.GET("/api/v1/settings", authMiddleware(handlers.Settings.GetSettings))
	r.PUT("/api/v1/settings", authMiddleware(handlers.Settings.UpdateSettings))
	r.GET("/api/v1/collections", authMiddleware(handlers.Settings.GetCollections))

	return r
}
