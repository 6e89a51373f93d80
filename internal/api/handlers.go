package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/harlequingg/taskplanner/internal/account"
	"github.com/harlequingg/taskplanner/internal/export"
	"github.com/harlequingg/taskplanner/internal/planner"
	"github.com/harlequingg/taskplanner/internal/task"
	"github.com/harlequingg/taskplanner/internal/validator"
)

func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{
		"status":      "available",
		"environment": s.config.Env,
		"version":     s.config.Version,
	})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) createUserHandler(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	if err := s.planner.CreateProfile(r.Context(), input.Username, input.Password); err != nil {
		s.writePlannerError(w, err)
		return
	}
	s.writeSession(w, http.StatusCreated)
}

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	if err := s.planner.Login(r.Context(), input.Username, input.Password); err != nil {
		s.writePlannerError(w, err)
		return
	}
	s.writeSession(w, http.StatusOK)
}

func (s *Server) writeSession(w http.ResponseWriter, status int) {
	username, _ := s.planner.CurrentUser()
	token, expiresAt, err := s.issueToken(username)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, status, envelope{
		"username":   username,
		"token":      token,
		"expires_at": expiresAt,
	})
}

func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"username": getUserFromRequest(r)})
}

func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.planner.Logout(r.Context()); err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "logged out"})
}

func (s *Server) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	f, err := task.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	tasks, err := s.planner.Filter(r.Context(), f)
	if err != nil {
		s.writePlannerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"tasks": tasks})
}

func (s *Server) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	var input task.Fields
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	t, err := s.planner.AddTask(r.Context(), input)
	if err != nil {
		s.writePlannerError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/tasks/"+t.ID)
	writeJSON(w, http.StatusCreated, envelope{"task": t})
}

func (s *Server) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	removed, err := s.planner.DeleteTask(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writePlannerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"deleted": removed})
}

func (s *Server) toggleTaskHandler(w http.ResponseWriter, r *http.Request) {
	t, found, err := s.planner.ToggleComplete(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writePlannerError(w, err)
		return
	}
	if !found {
		writeError(w, errors.New("task not found"), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"task": t})
}

func (s *Server) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Text string `json:"text"`
	}
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	t, found, err := s.planner.AddComment(r.Context(), r.PathValue("id"), input.Text)
	if err != nil {
		s.writePlannerError(w, err)
		return
	}
	if !found {
		writeError(w, errors.New("task not found"), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"task": t})
}

func (s *Server) sortTasksHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.planner.SortByPriority(r.Context()); err != nil {
		s.writePlannerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"tasks": s.planner.Tasks()})
}

func (s *Server) exportTasksHandler(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = export.FormatJSON
	}
	tasks, err := s.planner.Filter(r.Context(), task.FilterAll)
	if err != nil {
		s.writePlannerError(w, err)
		return
	}
	username := getUserFromRequest(r)
	data, err := export.Export(tasks, username, format)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="tasks.%s"`, format))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) getThemeHandler(w http.ResponseWriter, r *http.Request) {
	theme, err := s.planner.Theme(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"theme": theme})
}

func (s *Server) updateThemeHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Theme planner.Theme `json:"theme"`
	}
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	v := validator.New()
	v.Check(validator.PermittedValue(input.Theme, planner.ThemeLight, planner.ThemeDark), "theme", "must be light or dark")
	if v.HasErrors() {
		writeErrorMessage(w, v.Errors, http.StatusUnprocessableEntity)
		return
	}
	if err := s.planner.SetTheme(r.Context(), input.Theme); err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"theme": input.Theme})
}

// writePlannerError maps account, task and validation errors to statuses.
func (s *Server) writePlannerError(w http.ResponseWriter, err error) {
	var verr *validator.Error
	switch {
	case errors.As(err, &verr):
		writeErrorMessage(w, verr.Fields, http.StatusUnprocessableEntity)
	case errors.Is(err, account.ErrEmptyInput):
		writeError(w, err, http.StatusBadRequest)
	case errors.Is(err, account.ErrInvalidCredentials):
		writeError(w, err, http.StatusUnauthorized)
	case errors.Is(err, account.ErrUsernameTaken):
		writeError(w, err, http.StatusConflict)
	case errors.Is(err, task.ErrNoSession):
		writeError(w, err, http.StatusUnauthorized)
	case errors.Is(err, task.ErrUnknownFilter):
		writeError(w, err, http.StatusBadRequest)
	default:
		serverError(w, err)
	}
}
