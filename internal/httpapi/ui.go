package httpapi

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/sirupsen/logrus"
)

//go:embed ui/*.html
var uiEmbedFS embed.FS

var pages = map[string]*template.Template{
	"index": parsePage("ui/index.html"),
	"admin": parsePage("ui/admin.html"),
}

func parsePage(file string) *template.Template {
	return template.Must(template.New("layout.html").ParseFS(uiEmbedFS, "ui/layout.html", file))
}

func (s *Server) registerUI() {
	s.mux.Handle("/{$}", s.protect(http.HandlerFunc(s.handleIndex)))
	s.mux.Handle("/login", s.protect(http.HandlerFunc(s.handleLogin)))
	s.mux.Handle("/logout", s.protect(http.HandlerFunc(s.handleLogout)))
	s.mux.Handle("/admin", s.protect(http.HandlerFunc(s.handleAdmin)))
}

// render buffers the page so a template error never leaves a half-written response.
func render(w http.ResponseWriter, status int, page string, data pageData) {
	var buf bytes.Buffer
	if err := pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		logrus.WithError(err).WithField("page", page).Error("template render failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
