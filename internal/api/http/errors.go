package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/MrErgashev/quiz-app/internal/account"
	"github.com/MrErgashev/quiz-app/internal/attempt"
	"github.com/MrErgashev/quiz-app/internal/bank"
	"github.com/MrErgashev/quiz-app/internal/examcfg"
	"github.com/MrErgashev/quiz-app/internal/roster"
	"github.com/MrErgashev/quiz-app/internal/session"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errBody struct {
	Error string `json:"error"`
}

// writeError maps domain sentinels to status codes. Anything unmapped is a
// structural failure: logged server-side, opaque to the caller.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, attempt.ErrNotFound),
		errors.Is(err, bank.ErrNotFound),
		errors.Is(err, account.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errBody{Error: err.Error()})
	case errors.Is(err, attempt.ErrFinished),
		errors.Is(err, attempt.ErrTimeExpired),
		errors.Is(err, attempt.ErrExamModeDisabled):
		writeJSON(w, http.StatusConflict, errBody{Error: err.Error()})
	case errors.Is(err, attempt.ErrAttemptLimit):
		writeJSON(w, http.StatusForbidden, errBody{Error: err.Error()})
	case errors.Is(err, attempt.ErrInvalidInput),
		errors.Is(err, attempt.ErrNotEligible),
		errors.Is(err, bank.ErrInvalid),
		errors.Is(err, examcfg.ErrInvalid),
		errors.Is(err, roster.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, errBody{Error: err.Error()})
	case errors.Is(err, session.ErrNotFound):
		writeJSON(w, http.StatusUnauthorized, errBody{Error: "unauthorized"})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errBody{Error: "internal error"})
	}
}
