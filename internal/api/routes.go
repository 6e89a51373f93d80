package api

import (
	"net/http"
)

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/healthcheck", s.healthCheckHandler)

	mux.HandleFunc("POST /v1/users", s.createUserHandler)
	mux.HandleFunc("POST /v1/session", s.createSessionHandler)
	mux.HandleFunc("GET /v1/session", s.requireAuthenticatedUser(s.getSessionHandler))
	mux.HandleFunc("DELETE /v1/session", s.requireAuthenticatedUser(s.deleteSessionHandler))

	mux.HandleFunc("GET /v1/tasks", s.requireAuthenticatedUser(s.listTasksHandler))
	mux.HandleFunc("POST /v1/tasks", s.requireAuthenticatedUser(s.createTaskHandler))
	mux.HandleFunc("GET /v1/tasks/export", s.requireAuthenticatedUser(s.exportTasksHandler))
	mux.HandleFunc("PUT /v1/tasks/order", s.requireAuthenticatedUser(s.sortTasksHandler))
	mux.HandleFunc("DELETE /v1/tasks/{id}", s.requireAuthenticatedUser(s.deleteTaskHandler))
	mux.HandleFunc("PUT /v1/tasks/{id}/completed", s.requireAuthenticatedUser(s.toggleTaskHandler))
	mux.HandleFunc("POST /v1/tasks/{id}/comments", s.requireAuthenticatedUser(s.createCommentHandler))

	mux.HandleFunc("GET /v1/preferences/theme", s.getThemeHandler)
	mux.HandleFunc("PUT /v1/preferences/theme", s.updateThemeHandler)

	var h http.Handler = s.enableCORS(mux)
	if s.config.Limiter.Enabled {
		h = s.rateLimit(h)
	}
	return h
}
