package httpapi

import (
	"net/http"

	"classquiz/internal/session"
)

// withPrincipal decodes the session cookie, when there is a valid one, into
// the request context. It never rejects a request.
func (a *API) withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principal, err := a.sessions.Read(r); err == nil {
			r = r.WithContext(session.WithPrincipal(r.Context(), principal))
		}
		next.ServeHTTP(w, r)
	})
}

// requireLogin sends anonymous visitors to the login page and brings them
// back to the original URL afterwards.
func requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.FromContext(r.Context()); !ok {
			http.Redirect(w, r, loginURL(r), http.StatusFound)
			return
		}
		next(w, r)
	}
}

func requireTeacher(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := session.FromContext(r.Context())
		if !ok || !principal.IsTeacher() {
			writeText(w, http.StatusForbidden, teachersOnlyText)
			return
		}
		next(w, r)
	}
}
