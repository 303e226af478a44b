package http

import (
	"encoding/json"
	"net/http"

	"github.com/MrErgashev/quiz-app/internal/bank"
	"github.com/MrErgashev/quiz-app/internal/examcfg"
)

func GetConfigHandler(cfg examcfg.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := cfg.Get(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// SetConfigHandler merges the request over the current configuration
// (absent fields keep their values), validates the result against the
// current banks, and commits all-or-nothing.
func SetConfigHandler(cfg examcfg.Store, banks bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next, err := cfg.Get(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
			writeJSON(w, http.StatusBadRequest, errBody{Error: "bad json"})
			return
		}
		if err := examcfg.Validate(r.Context(), next, banks); err != nil {
			writeError(w, err)
			return
		}
		if err := cfg.Set(r.Context(), next); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, next)
	}
}

// PublicConfigHandler exposes the one value students need before starting.
func PublicConfigHandler(cfg examcfg.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := cfg.Get(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{
			"max_attempts_per_student": c.MaxAttemptsPerStudent,
		})
	}
}

func GetExamModeHandler(cfg examcfg.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enabled, err := cfg.ExamMode(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
	}
}

func SetExamModeHandler(cfg examcfg.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Enabled *bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			writeJSON(w, http.StatusBadRequest, errBody{Error: "enabled must be boolean"})
			return
		}
		if err := cfg.SetExamMode(r.Context(), *req.Enabled); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"enabled": *req.Enabled})
	}
}
