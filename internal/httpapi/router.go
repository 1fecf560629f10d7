package httpapi

import (
	"net/http"
	"strings"

	"github.com/golang/glog"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

func NewRouter(api *API) http.Handler {
	router := mux.NewRouter()
	router.Use(api.withPrincipal)

	router.HandleFunc("/", api.HandleHome).Methods(http.MethodGet)
	router.HandleFunc("/about", api.HandleAbout).Methods(http.MethodGet)
	router.HandleFunc("/register", api.HandleRegister).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/login", api.HandleLogin).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/logout", api.HandleLogout).Methods(http.MethodGet)
	router.HandleFunc("/profile", requireLogin(api.HandleProfile)).Methods(http.MethodGet)

	router.HandleFunc("/create_quiz", requireTeacher(api.HandleCreateQuiz)).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/create_ai_quiz", requireTeacher(api.HandleCreateAIQuiz)).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/join_quiz", api.HandleJoinQuiz).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/take_quiz/{code}", requireLogin(api.HandleTakeQuiz)).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/result/{code}", requireLogin(api.HandleResult)).Methods(http.MethodGet)

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(panicLogger{}),
		handlers.PrintRecoveryStack(true),
	)
	return handlers.CombinedLoggingHandler(accessLog{}, recovery(router))
}

// accessLog forwards gorilla's combined log lines to glog.
type accessLog struct{}

func (accessLog) Write(p []byte) (int, error) {
	glog.Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

type panicLogger struct{}

func (panicLogger) Println(v ...interface{}) {
	glog.Error(v...)
}
