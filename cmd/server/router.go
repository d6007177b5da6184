package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phrazzld/taskmaster-api/internal/api"
	apiMiddleware "github.com/phrazzld/taskmaster-api/internal/api/middleware"
	"github.com/phrazzld/taskmaster-api/internal/api/shared"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	userHandler := api.NewUserHandler(app.userService)
	taskHandler := api.NewTaskHandler(app.taskService)
	liveHandler := api.NewLiveHandler(app.hub)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		shared.RespondWithText(w, http.StatusOK, "TaskMaster Backend Running...")
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		shared.RespondWithText(w, http.StatusOK, "OK")
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.UpsertUser)
		r.Get("/{email}", userHandler.GetUser)
		r.Patch("/{email}", userHandler.RecordLogin)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", taskHandler.AddTask)
		r.Get("/{email}", taskHandler.ListTasks)
		r.Put("/{email}", taskHandler.ReplaceTasks)
		r.Patch("/{email}/{taskId}", taskHandler.UpdateTask)
		r.Delete("/{email}/{taskId}", taskHandler.DeleteTask)
	})

	r.Get("/live", liveHandler.ServeHTTP)

	return r
}
