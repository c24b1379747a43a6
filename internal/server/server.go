package server

import (
	"context"
	_ "embed"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tasks-api/internal/crud"
	"tasks-api/internal/logger"
	"tasks-api/internal/models"
	"tasks-api/internal/storage"
)

//go:embed swagger.json
var swaggerDoc []byte

// TaskGateway is what the router needs from the task persistence layer.
type TaskGateway interface {
	crud.Repository[models.Task, models.TaskFilter]
	Ping(ctx context.Context) error
}

// NewRouter wires the task endpoints, API root, docs, health and metrics.
func NewRouter(tasks TaskGateway, validator crud.Validator[models.Task]) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(instrument)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.NotFound(crud.NotFound)

	taskHandler := crud.New(crud.Config[models.Task, models.TaskFilter]{
		EntityName: "Task",
		Messages:   crud.DefaultMessages("Task"),
		Validator:  validator,
		Repository: tasks,
		NotFound:   storage.ErrNotFound,
		Filter: statusFilter,
	})

	r.Get("/", apiRootHandler)
	r.Route("/tasks", taskHandler.Routes)

	r.Get("/swagger.json", swaggerHandler)
	r.Get("/health", healthHandler(tasks))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// statusFilter reads the status query parameter. When it is repeated the
// last value wins.
func statusFilter(r *http.Request) models.TaskFilter {
	var status string
	if values := r.URL.Query()["status"]; len(values) > 0 {
		status = values[len(values)-1]
	}
	return models.ParseStatus(status).Filter()
}

func apiRootHandler(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	crud.WriteJSON(w, http.StatusOK, map[string]string{
		"tasks": scheme + "://" + r.Host + "/tasks/",
	})
}

func swaggerHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(swaggerDoc)
}

func healthHandler(tasks TaskGateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := tasks.Ping(ctx); err != nil {
			logger.Error(ctx, err, "health check failed")
			crud.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		crud.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}
