package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tkarrer/deckhand/pkg/buildinfo"
	"github.com/tkarrer/deckhand/pkg/errors"
	"github.com/tkarrer/deckhand/pkg/layout"
)

// maxLayoutBody bounds PUT bodies; a dashboard layout is small, anything
// bigger is a client bug.
const maxLayoutBody = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"built":   buildinfo.Date,
	})
}

// handleLayoutGet returns the salvageable layout under a key, or 404 when
// nothing usable is stored.
func (s *Server) handleLayoutGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	l, err := s.guard.Load(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	if l == nil {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no usable layout under %q", key))
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// handleLayoutPut strictly parses and saves a layout. The write path never
// salvages: one invalid widget rejects the request.
func (s *Server) handleLayoutPut(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxLayoutBody))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body"))
		return
	}

	l, err := layout.ParseStrict(body)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.guard.Save(r.Context(), key, l); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLayoutDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if err := s.guard.Reset(r.Context(), key); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	snap, err := s.settings.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleSettingsPatch binds a partial name/value map onto the settings
// store. Unknown fields and bad values reject the whole request before any
// write.
func (s *Server) handleSettingsPatch(w http.ResponseWriter, r *http.Request) {
	var changes map[string]string
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeParse, err, "settings body is not a string map"))
		return
	}

	if err := s.settings.Apply(r.Context(), changes); err != nil {
		writeError(w, err)
		return
	}

	snap, err := s.settings.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSettingsDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.settings.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleThemeGet serves the full style table for list-widget coloring.
func (s *Server) handleThemeGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":     s.theme.Name(),
		"fallback": s.theme.Fallback(),
		"widgets":  s.theme.Table(),
	})
}

// handleCheckStart launches an asynchronous update check and returns its
// job id for polling.
func (s *Server) handleCheckStart(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{
			Error: errorDetail{Code: string(errors.ErrCodeUnsupported), Message: "update checks are not configured"},
		})
		return
	}

	refresh := r.URL.Query().Get("refresh") == "true"
	id := s.jobs.start(s.checker, refresh)

	w.Header().Set("Location", "/api/update/checks/"+id)
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

// handleCheckStatus reports the status of one update-check job; this is the
// endpoint the browser's progress poller hits.
func (s *Server) handleCheckStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	status, ok := s.jobs.get(id)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "unknown check job %q", id))
		return
	}
	writeJSON(w, http.StatusOK, status)
}
