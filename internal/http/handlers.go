package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"tunepilot/internal/core"
)

const noDeviceMessage = "No playback device available. Open Spotify on one of your devices and try again."

type playRequest struct {
	Query string `json:"query"`
}

// Level is a pointer so an absent field is distinguishable from an
// explicit 0; a request without a level must not mute the player.
type volumeRequest struct {
	Level *int `json:"level"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.auth.AuthURL(s.state), http.StatusFound)
	s.observe("login", http.StatusFound, time.Now())
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if state := r.URL.Query().Get("state"); state != s.state {
		s.logger.Warn("Callback with invalid state parameter")
		s.respond(w, "callback", http.StatusBadRequest, "Invalid state parameter", start)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		s.logger.Warn("Callback without authorization code",
			zap.String("error", r.URL.Query().Get("error")))
		s.respond(w, "callback", http.StatusBadRequest, "Authorization failed", start)
		return
	}

	if err := s.auth.Exchange(r.Context(), code); err != nil {
		s.logger.Error("Authorization code exchange failed", zap.Error(err))
		s.respond(w, "callback", http.StatusInternalServerError, "Auth failed", start)
		return
	}

	s.respond(w, "callback", http.StatusOK, "Spotify connected!", start)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req playRequest
	if !s.decodeBody(w, r, "play", &req, start) {
		return
	}

	message, err := s.player.Play(r.Context(), req.Query)
	if err != nil {
		s.metrics.PlayOutcomesTotal.WithLabelValues(outcomeLabel(err)).Inc()
		s.writeError(w, "play", err, "Playback failed", start)
		return
	}

	s.metrics.PlayOutcomesTotal.WithLabelValues("ok").Inc()
	s.respond(w, "play", http.StatusOK, message, start)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	message, err := s.player.Resume(r.Context())
	if err != nil {
		s.writeError(w, "resume", err, "Resume failed", start)
		return
	}

	s.respond(w, "resume", http.StatusOK, message, start)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	message, err := s.player.Pause(r.Context())
	if err != nil {
		s.writeError(w, "pause", err, "Pause failed", start)
		return
	}

	s.respond(w, "pause", http.StatusOK, message, start)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	message, err := s.player.Skip(r.Context())
	if err != nil {
		s.writeError(w, "skip", err, "Skip failed", start)
		return
	}

	s.respond(w, "skip", http.StatusOK, message, start)
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req volumeRequest
	if !s.decodeBody(w, r, "volume", &req, start) {
		return
	}

	if req.Level == nil {
		s.logger.Warn("Volume request without a level")
		s.respond(w, "volume", http.StatusBadRequest, "Volume must be 0-100", start)
		return
	}

	message, err := s.player.SetVolume(r.Context(), *req.Level)
	if err != nil {
		s.writeError(w, "volume", err, "Volume failed", start)
		return
	}

	s.respond(w, "volume", http.StatusOK, message, start)
}

// decodeBody parses a JSON request body; an absent body leaves the target's
// zero values in place.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, endpoint string, target interface{}, start time.Time) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil && !errors.Is(err, io.EOF) {
		s.logger.Warn("Invalid request body",
			zap.String("endpoint", endpoint),
			zap.Error(err))
		s.respond(w, endpoint, http.StatusBadRequest, "Invalid request body", start)
		return false
	}
	return true
}

// writeError converts a failure to an HTTP status at the boundary. Unknown
// failures narrow to a generic 500 for the caller; full detail is logged
// server-side.
func (s *Server) writeError(w http.ResponseWriter, endpoint string, err error, fallback string, start time.Time) {
	var status int
	var message string

	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
		message = "Nothing found"
	case errors.Is(err, core.ErrInvalidVolume):
		status = http.StatusBadRequest
		message = "Volume must be 0-100"
	case errors.Is(err, core.ErrNoDevice):
		status = http.StatusInternalServerError
		message = noDeviceMessage
	default:
		status = http.StatusInternalServerError
		message = fallback
	}

	s.logger.Error("Request failed",
		zap.String("endpoint", endpoint),
		zap.Int("status", status),
		zap.Error(err))

	s.respond(w, endpoint, status, message, start)
}

func (s *Server) respond(w http.ResponseWriter, endpoint string, status int, message string, start time.Time) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
	s.observe(endpoint, status, start)
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	case errors.Is(err, core.ErrNoDevice):
		return "no_device"
	default:
		return "error"
	}
}
