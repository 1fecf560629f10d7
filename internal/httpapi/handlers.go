package httpapi

import (
	"net/http"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"classquiz/internal/quiz"
	"classquiz/internal/session"
	"classquiz/internal/users"
)

func (a *API) HandleHome(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, "home", "Welcome", nil)
}

func (a *API) HandleAbout(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, "about", "About", nil)
}

func (a *API) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.render(w, r, "register", "Register", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "invalid form")
		return
	}

	// An unknown role parses to the zero Role, which Register rejects after
	// its duplicate check.
	role, _ := users.ParseRegistrationRole(r.PostFormValue("role"))
	err := a.users.Register(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"), role)
	if err != nil {
		if errors.Is(err, users.ErrUsernameTaken) {
			writeText(w, http.StatusOK, usernameTakenText)
			return
		}
		writeServiceError(w, err)
		return
	}

	http.Redirect(w, r, "/login", http.StatusFound)
}

func (a *API) HandleLogin(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if r.Method != http.MethodPost {
		a.render(w, r, "login", "Log in", next)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "invalid form")
		return
	}

	user, ok, err := a.users.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !ok {
		writeText(w, http.StatusOK, badCredentialsText)
		return
	}

	if err := a.sessions.Issue(w, session.Principal{Username: user.Username, Role: user.Role}); err != nil {
		writeServiceError(w, err)
		return
	}

	glog.V(2).Infof("%s logged in as %s", user.Username, user.Role)
	http.Redirect(w, r, safeNext(next), http.StatusFound)
}

func (a *API) HandleLogout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

type profileView struct {
	quiz.Profile
	Role users.Role
}

func (a *API) HandleProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := session.FromContext(r.Context())

	profile, err := a.quizzes.Profile(r.Context(), principal.Username)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	a.render(w, r, "profile", "Profile", profileView{Profile: profile, Role: principal.Role})
}

// HandleJoinQuiz checks the code and, for visitors without a session,
// issues a guest principal named after the form's name field.
func (a *API) HandleJoinQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.render(w, r, "join_quiz", "Join a quiz", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "invalid form")
		return
	}

	q, err := a.quizzes.GetQuiz(r.Context(), r.PostFormValue("code"))
	if err != nil {
		if errors.Is(err, quiz.ErrQuizNotFound) {
			writeText(w, http.StatusBadRequest, invalidCodeText)
			return
		}
		writeServiceError(w, err)
		return
	}

	if _, ok := session.FromContext(r.Context()); !ok {
		name := strings.TrimSpace(r.PostFormValue("name"))
		if name == "" {
			name = guestName
		}
		if err := a.sessions.Issue(w, session.Principal{Username: name, Role: users.RoleGuest}); err != nil {
			writeServiceError(w, err)
			return
		}
		glog.V(2).Infof("guest %q joined quiz %s", name, q.Code)
	}

	http.Redirect(w, r, "/take_quiz/"+q.Code, http.StatusFound)
}
