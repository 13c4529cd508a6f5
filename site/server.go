// Package site is the HTTP surface of the blog: routes, middleware and the
// glue between form posts and the services.
package site

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/manoela-fs/blog/catalog"
	"github.com/manoela-fs/blog/constants"
	"github.com/manoela-fs/blog/content"
	"github.com/manoela-fs/blog/likes"
	"github.com/manoela-fs/blog/storage"
	"github.com/manoela-fs/blog/users"
)

type Server struct {
	Users    *users.Service
	Posts    *content.Store
	Catalog  *catalog.Catalog
	Likes    *likes.Ledger
	Files    *storage.FileStore
	Sessions *sessions.CookieStore

	MaxUploadBytes int64
	SecureCookies  bool
}

// NewSessionStore returns the cookie store holding the active locale and flash messages.
func NewSessionStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Routes mounts every page of the site on r.
func (s *Server) Routes(r chi.Router) {
	r.Use(s.TryPutUserInContextMiddleware)
	r.Use(s.LocaleMiddleware)

	r.Get("/", s.Feed)
	r.HandleFunc("/login", s.UserSignIn)
	r.HandleFunc("/register", s.UserSignUp)
	r.Post("/logout", s.UserLogout)

	r.Get("/post/feed", s.Feed)
	r.Get("/post/{postID}", s.PublicViewPost)
	r.Post("/post/{postID}/curtir", s.ToggleLike)

	r.Group(func(r chi.Router) {
		r.Use(s.AuthProtectedMiddleware)

		r.HandleFunc("/post/create", s.CreatePost)
		r.HandleFunc("/post/{postID}/edit", s.EditPost)
		r.Post("/post/{postID}/delete", s.DeletePost)

		r.HandleFunc("/usuario/edit", s.EditProfile)
		r.Get("/usuario/atividade", s.Activity)
	})

	r.Get("/usuario/{userID}", s.PublicViewUser)

	fileServer := http.StripPrefix(strings.TrimSuffix(constants.UPLOADS_URL_PREFIX, "/"), http.FileServer(http.Dir(s.Files.Dir())))
	r.Handle(constants.UPLOADS_URL_PREFIX+"*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// no directory listings
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		fileServer.ServeHTTP(w, r)
	}))
}
