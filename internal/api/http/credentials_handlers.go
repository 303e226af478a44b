package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrErgashev/quiz-app/internal/account"
	"github.com/MrErgashev/quiz-app/internal/roster"
)

type credential struct {
	Login    string  `json:"login"`
	FullName string  `json:"full_name"`
	Group    string  `json:"group"`
	ExamDate string  `json:"exam_date"`
	Password *string `json:"password"` // only set for freshly minted accounts
	Existing bool    `json:"existing"`
}

// GenerateCredentialsHandler mints one login per student of a roster group.
// Existing accounts are left alone unless regenerate is set; plaintext
// passwords appear in the response exactly once, at creation.
func GenerateCredentialsHandler(accounts account.Store, rosterStore roster.Store, university string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Group      string `json:"group"`
			ExamDate   string `json:"exam_date"`
			Regenerate bool   `json:"regenerate"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errBody{Error: "bad json"})
			return
		}
		req.Group = strings.TrimSpace(req.Group)
		req.ExamDate = strings.TrimSpace(req.ExamDate)
		if req.Group == "" || req.ExamDate == "" {
			writeJSON(w, http.StatusBadRequest, errBody{Error: "group and exam_date required"})
			return
		}

		ros, err := rosterStore.Get(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		program, group, ok := ros.FindGroup(req.Group, req.ExamDate)
		if !ok {
			writeJSON(w, http.StatusNotFound, errBody{Error: "group not found"})
			return
		}
		if len(group.Students) == 0 {
			writeJSON(w, http.StatusBadRequest, errBody{Error: "group has no students"})
			return
		}
		if ros.University == "" {
			ros.University = university
		}

		out := make([]credential, 0, len(group.Students))
		newCount := 0
		for i, fullName := range group.Students {
			login := account.GenerateLogin(req.Group, i+1)

			existing, err := accounts.GetByLogin(r.Context(), login)
			if err != nil && !errors.Is(err, account.ErrNotFound) {
				writeError(w, err)
				return
			}
			if err == nil && !req.Regenerate {
				out = append(out, credential{
					Login:    existing.Login,
					FullName: fullName,
					Group:    req.Group,
					ExamDate: req.ExamDate,
					Existing: true,
				})
				continue
			}

			password, err := account.GeneratePassword()
			if err != nil {
				writeError(w, err)
				return
			}
			hash, err := account.HashPassword(password)
			if err != nil {
				writeError(w, err)
				return
			}
			acct := account.Account{
				ID:           uuid.NewString(),
				Login:        login,
				PasswordHash: hash,
				FullName:     fullName,
				University:   ros.University,
				Program:      program.ProgramName,
				ProgramID:    program.ProgramID,
				GroupName:    req.Group,
				ExamDate:     req.ExamDate,
				Active:       true,
				CreatedAt:    time.Now().UTC(),
			}
			if err := accounts.Upsert(r.Context(), acct); err != nil {
				writeError(w, err)
				return
			}
			newCount++
			out = append(out, credential{
				Login:    login,
				FullName: fullName,
				Group:    req.Group,
				ExamDate: req.ExamDate,
				Password: &password,
			})
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":          true,
			"credentials": out,
			"total":       len(out),
			"new_count":   newCount,
		})
	}
}

func ListCredentialsHandler(accounts account.Store) http.HandlerFunc {
	type row struct {
		Login     string    `json:"login"`
		FullName  string    `json:"full_name"`
		Group     string    `json:"group"`
		ExamDate  string    `json:"exam_date"`
		Program   string    `json:"program"`
		Active    bool      `json:"active"`
		CreatedAt time.Time `json:"created_at"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := accounts.List(r.Context(), account.Filter{
			GroupName: strings.TrimSpace(r.URL.Query().Get("group")),
			ExamDate:  strings.TrimSpace(r.URL.Query().Get("exam_date")),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]row, 0, len(list))
		for _, a := range list {
			out = append(out, row{
				Login:     a.Login,
				FullName:  a.FullName,
				Group:     a.GroupName,
				ExamDate:  a.ExamDate,
				Program:   a.Program,
				Active:    a.Active,
				CreatedAt: a.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// CredentialGroupsHandler lists the roster groups a teacher can generate
// credentials for.
func CredentialGroupsHandler(rosterStore roster.Store) http.HandlerFunc {
	type row struct {
		GroupName    string `json:"group_name"`
		ExamDate     string `json:"exam_date"`
		ProgramName  string `json:"program_name"`
		StudentCount int    `json:"student_count"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ros, err := rosterStore.Get(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		out := []row{}
		for _, p := range ros.Programs {
			for _, g := range p.Groups {
				out = append(out, row{
					GroupName:    g.GroupName,
					ExamDate:     g.ExamDate,
					ProgramName:  p.ProgramName,
					StudentCount: len(g.Students),
				})
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}
