package site

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/manoela-fs/blog/errs"
	templates "github.com/manoela-fs/blog/templates_fancy"
	g "github.com/maragudk/gomponents"
)

// layoutProps builds the data every page shares and consumes pending flashes.
func (s *Server) layoutProps(w http.ResponseWriter, r *http.Request, titleKey string, args ...any) templates.LayoutProps {
	locale := currentLocale(r)
	props := templates.LayoutProps{
		Title:  templates.T(locale, titleKey, args...),
		Locale: locale,
		Path:   r.URL.RequestURI(),
	}
	if user := getSignedInUserOrNil(r); user != nil {
		props.CurrentUserID = user.ID
		props.CurrentUserName = user.Name
	}

	session := s.session(r)
	if flashes := session.Flashes(); len(flashes) > 0 {
		for _, f := range flashes {
			raw, _ := f.(string)
			kind, key, _ := strings.Cut(raw, "|")
			props.Flashes = append(props.Flashes, templates.Flash{Kind: kind, Message: templates.T(locale, key)})
		}
		if err := session.Save(r, w); err != nil {
			log.Printf("Failed to save session: %v", err)
		}
	}
	return props
}

func RenderPage(w http.ResponseWriter, status int, page g.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Render(w); err != nil {
		log.Printf("Page rendering error: %v", err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, messageKey string) {
	props := s.layoutProps(w, r, "error.title")
	RenderPage(w, status, templates.ErrorPage(props, status, templates.T(props.Locale, messageKey)))
}

// handleError maps a service error onto a page.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		s.renderError(w, r, http.StatusNotFound, "flash.not_found")
	case errors.Is(err, errs.ErrPermissionDenied):
		s.renderError(w, r, http.StatusForbidden, "flash.permission_denied")
	default:
		log.Printf("Request %s %s failed: %v", r.Method, r.URL.Path, err)
		s.renderError(w, r, http.StatusInternalServerError, "flash.error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write JSON response: %v", err)
	}
}

func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, to, kind, key string) {
	s.addFlash(w, r, kind, key)
	http.Redirect(w, r, to, http.StatusSeeOther)
}
