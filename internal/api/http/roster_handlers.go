package http

import (
	"encoding/json"
	"net/http"

	"github.com/MrErgashev/quiz-app/internal/roster"
)

func GetRosterHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ros, err := store.Get(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ros)
	}
}

func SetRosterHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ros roster.Roster
		if err := json.NewDecoder(r.Body).Decode(&ros); err != nil {
			writeJSON(w, http.StatusBadRequest, errBody{Error: "bad json"})
			return
		}
		if err := roster.Validate(&ros); err != nil {
			writeError(w, err)
			return
		}
		if err := store.Set(r.Context(), ros); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// Public roster reads drive the login-page dropdowns; they expose names and
// dates only.

func ListProgramsHandler(store roster.Store) http.HandlerFunc {
	type program struct {
		ProgramID   string `json:"program_id"`
		ProgramName string `json:"program_name"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ros, err := store.Get(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]program, 0, len(ros.Programs))
		for _, p := range ros.Programs {
			out = append(out, program{ProgramID: p.ProgramID, ProgramName: p.ProgramName})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func ListGroupsHandler(store roster.Store) http.HandlerFunc {
	type group struct {
		GroupName string `json:"group_name"`
		ExamDate  string `json:"exam_date"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ros, err := store.Get(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		out := []group{}
		if p, ok := ros.Program(r.URL.Query().Get("program_id")); ok {
			for _, g := range p.Groups {
				out = append(out, group{GroupName: g.GroupName, ExamDate: g.ExamDate})
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func ListStudentsHandler(store roster.Store) http.HandlerFunc {
	type student struct {
		Fullname string `json:"fullname"`
		ExamDate string `json:"exam_date"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ros, err := store.Get(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		out := []student{}
		if p, ok := ros.Program(r.URL.Query().Get("program_id")); ok {
			if g, ok := p.Group(r.URL.Query().Get("group_name")); ok {
				for _, s := range g.Students {
					out = append(out, student{Fullname: s, ExamDate: g.ExamDate})
				}
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}
