package web

// errors.go turns handler errors into responses.
//
// Every error is logged with its technical detail and the request id, then
// mapped through dashboard.MapError and written as JSON for API clients or
// as an HTML error page otherwise. The dashboard page itself shows errors
// inline instead (see handlePage).

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/csvdash/internal/chart"
	"github.com/JonMunkholm/csvdash/internal/dashboard"
	"github.com/JonMunkholm/csvdash/internal/frame"
	"github.com/JonMunkholm/csvdash/internal/logging"
	"github.com/JonMunkholm/csvdash/internal/web/templates"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse is the JSON body of API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the user message in the format the
// client asked for. A zero statusCode picks one from the error.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	if statusCode == 0 {
		statusCode = statusFor(err)
	}
	userMsg := dashboard.MapError(err)
	logError(r, err, statusCode, userMsg)

	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, statusCode)
		return
	}
	renderHTML(w, r, statusCode, "error page", templates.ErrorPage(userMsg.Message, userMsg.Action, userMsg.Code))
}

func logError(r *http.Request, err error, statusCode int, msg dashboard.UserMessage) {
	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", msg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}
}

func respondErrorJSON(w http.ResponseWriter, msg dashboard.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	var (
		parseErr  *frame.ParseError
		renderErr *chart.RenderError
		maxBytes  *http.MaxBytesError
	)
	switch {
	case errors.Is(err, dashboard.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &parseErr), errors.As(err, &renderErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dashboard.ErrNoFile):
		return http.StatusConflict
	case errors.Is(err, dashboard.ErrTooManyIngests):
		return http.StatusServiceUnavailable
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case strings.Contains(strings.ToLower(err.Error()), "unknown chart type"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
