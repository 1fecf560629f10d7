package httpapi

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"classquiz/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"home", "about", "register", "login", "profile",
	"create_quiz", "create_ai_quiz", "join_quiz", "take_quiz", "result",
}

type pageSet struct {
	byName map[string]*template.Template
}

// page is the value every template renders against.
type page struct {
	Title     string
	Principal session.Principal
	Data      any
}

func loadPages() (*pageSet, error) {
	set := &pageSet{byName: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, errors.Wrapf(err, "parse template %s", name)
		}
		set.byName[name] = tmpl
	}
	return set, nil
}

// render executes into a buffer first so a template error never leaves a
// half-written page behind a 200.
func (a *API) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	tmpl, ok := a.pages.byName[name]
	if !ok {
		glog.Errorf("unknown page %q", name)
		writeText(w, http.StatusInternalServerError, internalErrorText)
		return
	}

	principal, _ := session.FromContext(r.Context())
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name+".html", page{Title: title, Principal: principal, Data: data}); err != nil {
		glog.Errorf("render %s: %v", name, err)
		writeText(w, http.StatusInternalServerError, internalErrorText)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
