package site

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/manoela-fs/blog/constants"
	"github.com/manoela-fs/blog/database"
	"github.com/manoela-fs/blog/locales"
)

type contextKey string

const (
	authenticatedUserKey = contextKey("authenticated_user")
	localeKey            = contextKey("locale")
)

func getSignedInUserOrNil(r *http.Request) *database.User {
	user, _ := r.Context().Value(authenticatedUserKey).(*database.User)
	return user
}

func getSignedInUserOrFail(r *http.Request) *database.User {
	user := getSignedInUserOrNil(r)
	if user == nil {
		panic("expected user to be signed in but it wasn't")
	}
	return user
}

func viewerID(r *http.Request) string {
	if u := getSignedInUserOrNil(r); u != nil {
		return u.ID
	}
	return ""
}

func currentLocale(r *http.Request) string {
	if l, ok := r.Context().Value(localeKey).(string); ok {
		return l
	}
	return locales.Default
}

func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   constants.SESSION_TOKEN_COOKIE,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

func (s *Server) TryPutUserInContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(constants.SESSION_TOKEN_COOKIE)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.Users.UserBySession(r.Context(), cookie.Value)
		if err != nil {
			// Clear the invalid cookie
			clearAuthCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), authenticatedUserKey, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) AuthProtectedMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if getSignedInUserOrNil(r) == nil {
			s.addFlash(w, r, constants.FLASH_ERROR, "flash.login_required")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LocaleMiddleware resolves the display locale: an explicit ?lang= (which is
// remembered in the session), then the session, then the signed-in user's
// preference, then Accept-Language.
func (s *Server) LocaleMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := s.session(r)
		locale := ""

		if requested := r.URL.Query().Get(constants.LOCALE_QUERY_PARAM); requested != "" {
			if normalized, ok := locales.Normalize(requested); ok {
				locale = normalized
				session.Values[constants.SESSION_LOCALE_KEY] = normalized
				if err := session.Save(r, w); err != nil {
					log.Printf("Failed to save session: %v", err)
				}
			}
		}
		if locale == "" {
			if stored, ok := session.Values[constants.SESSION_LOCALE_KEY].(string); ok && locales.IsSupported(stored) {
				locale = stored
			}
		}
		if locale == "" {
			if user := getSignedInUserOrNil(r); user != nil && locales.IsSupported(user.Locale) {
				locale = user.Locale
			}
		}
		if locale == "" {
			locale = locales.Negotiate(r.Header.Get("Accept-Language"))
		}

		ctx := context.WithValue(r.Context(), localeKey, locale)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// session never fails: a cookie that no longer decodes yields a fresh session.
func (s *Server) session(r *http.Request) *sessions.Session {
	session, err := s.Sessions.Get(r, constants.SESSION_NAME)
	if err != nil {
		log.Printf("Discarding unreadable session: %v", err)
	}
	return session
}

func (s *Server) setSessionLocale(w http.ResponseWriter, r *http.Request, locale string) {
	session := s.session(r)
	session.Values[constants.SESSION_LOCALE_KEY] = locale
	if err := session.Save(r, w); err != nil {
		log.Printf("Failed to save session: %v", err)
	}
}

func (s *Server) addFlash(w http.ResponseWriter, r *http.Request, kind, key string) {
	session := s.session(r)
	session.AddFlash(kind + "|" + key)
	if err := session.Save(r, w); err != nil {
		log.Printf("Failed to save flash: %v", err)
	}
}
