package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrErgashev/quiz-app/internal/attempt"
	"github.com/MrErgashev/quiz-app/internal/auth"
)

// StartAttemptHandler runs behind auth.RequireStudent; the engine does the
// rest of the eligibility checks.
func StartAttemptHandler(engine *attempt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, ok := auth.AccountFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errBody{Error: "unauthorized"})
			return
		}
		id, err := engine.Start(r.Context(), acct)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"attempt_id": id})
	}
}

func AttemptQuestionsHandler(engine *attempt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Question order is per-attempt state; intermediaries must not
		// cache it.
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		w.Header().Set("Surrogate-Control", "no-store")

		view, err := engine.Questions(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func SubmitAnswerHandler(engine *attempt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionIndex *int        `json:"question_index"`
			ChosenOption  interface{} `json:"chosen_option"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errBody{Error: "bad json"})
			return
		}
		if req.QuestionIndex == nil {
			writeJSON(w, http.StatusBadRequest, errBody{Error: "question_index required"})
			return
		}
		err := engine.Answer(r.Context(), chi.URLParam(r, "attemptID"), *req.QuestionIndex, req.ChosenOption)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func FinishAttemptHandler(engine *attempt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := engine.Finish(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func AttemptStatusHandler(engine *attempt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := engine.Status(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
