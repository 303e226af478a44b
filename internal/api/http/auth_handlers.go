package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/MrErgashev/quiz-app/internal/account"
	"github.com/MrErgashev/quiz-app/internal/auth"
	"github.com/MrErgashev/quiz-app/internal/session"
)

// invalidCredentials is deliberately uniform: callers never learn whether
// the login or the password was wrong.
const invalidCredentials = "login or password is incorrect"

func LoginHandler(accounts account.Store, sessions session.Store, secureCookies bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Login    string `json:"login"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errBody{Error: "bad json"})
			return
		}
		req.Login = strings.TrimSpace(req.Login)
		if req.Login == "" || req.Password == "" {
			writeJSON(w, http.StatusBadRequest, errBody{Error: "login and password required"})
			return
		}

		acct, err := accounts.GetByLogin(r.Context(), req.Login)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				writeJSON(w, http.StatusUnauthorized, errBody{Error: invalidCredentials})
				return
			}
			writeError(w, err)
			return
		}
		if !acct.Active || !account.VerifyPassword(req.Password, acct.PasswordHash) {
			writeJSON(w, http.StatusUnauthorized, errBody{Error: invalidCredentials})
			return
		}

		sess, err := sessions.Create(r.Context(), acct.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		auth.SetSessionCookie(w, sess, secureCookies)
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "meta": acct.Meta()})
	}
}

func LogoutHandler(sessions session.Store, secureCookies bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(session.CookieName); err == nil && c.Value != "" {
			_ = sessions.Delete(r.Context(), c.Value)
		}
		auth.ClearSessionCookie(w, secureCookies)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// MeHandler runs behind auth.RequireStudent, so the account is always on
// the context here.
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, ok := auth.AccountFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errBody{Error: "unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "meta": acct.Meta()})
	}
}

func TeacherLoginHandler(a *auth.AuthService, adminUser, adminPassHash string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errBody{Error: "bad json"})
			return
		}
		if req.Username != adminUser ||
			bcrypt.CompareHashAndPassword([]byte(adminPassHash), []byte(req.Password)) != nil {
			writeJSON(w, http.StatusUnauthorized, errBody{Error: invalidCredentials})
			return
		}
		tok, err := a.IssueJWT(req.Username, auth.RoleTeacher)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": tok})
	}
}
