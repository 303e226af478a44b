package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrErgashev/quiz-app/internal/bank"
	"github.com/MrErgashev/quiz-app/internal/examcfg"
)

// UploadBankHandler accepts either pre-structured questions or the
// plain-text bank format in "text".
func UploadBankHandler(banks bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SubjectName string          `json:"subject_name"`
			Text        string          `json:"text"`
			Questions   []bank.Question `json:"questions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errBody{Error: "bad json"})
			return
		}
		req.SubjectName = strings.TrimSpace(req.SubjectName)
		if req.SubjectName == "" {
			writeJSON(w, http.StatusBadRequest, errBody{Error: "subject_name required"})
			return
		}
		questions := req.Questions
		if len(questions) == 0 && strings.TrimSpace(req.Text) != "" {
			questions = bank.Parse(req.Text)
		}
		if err := bank.ValidateQuestions(questions); err != nil {
			writeError(w, err)
			return
		}

		b := bank.Bank{
			ID:          uuid.NewString(),
			SubjectName: req.SubjectName,
			Questions:   questions,
			CreatedAt:   time.Now().UTC(),
		}
		if err := banks.Put(r.Context(), b); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":              true,
			"bank_id":         b.ID,
			"questions_count": len(b.Questions),
		})
	}
}

func ListBanksHandler(banks bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := banks.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// DeleteBankHandler removes a bank and cascades the id out of the exam
// configuration so a stale reference can't break the next start.
func DeleteBankHandler(banks bank.Store, cfg examcfg.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "bankID")
		if err := banks.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		if err := cfg.RemoveBankID(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
