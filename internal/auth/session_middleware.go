package auth

import (
	"net/http"

	"github.com/MrErgashev/quiz-app/internal/account"
	"github.com/MrErgashev/quiz-app/internal/session"
)

// RequireStudent resolves the session cookie to an active account and puts
// it on the request context. Missing, expired, or orphaned sessions all
// answer 401; the cookie is cleared so the client re-authenticates.
func RequireStudent(sessions session.Store, accounts account.Store, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(session.CookieName)
			if err != nil || c.Value == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			sess, err := sessions.Get(r.Context(), c.Value)
			if err != nil {
				ClearSessionCookie(w, secure)
				http.Error(w, "session expired", http.StatusUnauthorized)
				return
			}
			acct, err := accounts.GetByID(r.Context(), sess.AccountID)
			if err != nil || !acct.Active {
				ClearSessionCookie(w, secure)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acct)))
		})
	}
}

func SetSessionCookie(w http.ResponseWriter, s session.Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    s.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.ExpiresAt,
	})
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
