// Package web serves the three navigable views (signup, login, list) and a
// websocket stream that hosts one client shell per connection.
//
// Route guard: the list view and every mutation route require an
// authenticated principal. The guard runs on every request - a cleared or
// stale cookie redirects to /login on the very next navigation.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"github.com/mkarlsen/tidelist/internal/identity"
	"github.com/mkarlsen/tidelist/internal/store"
	"github.com/mkarlsen/tidelist/internal/todo"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	cookieName   = "tidelist"
	principalKey = "principal_id"
)

type contextKey int

const principalContextKey contextKey = 0

// Server wires the store, the identity service and the cookie session
// layer into an http.Handler.
type Server struct {
	store   *store.Store
	ident   *identity.Service
	cookies *sessions.CookieStore
	logger  *slog.Logger
	tmpl    *template.Template
}

// New creates a Server. sessionKey signs the session cookie.
func New(st *store.Store, ident *identity.Service, sessionKey []byte, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	cookies := sessions.NewCookieStore(sessionKey)
	cookies.Options.HttpOnly = true
	cookies.Options.SameSite = http.SameSiteLaxMode

	return &Server{
		store:   st,
		ident:   ident,
		cookies: cookies,
		logger:  logger,
		tmpl:    tmpl,
	}, nil
}

// Router builds the route table. Public routes (signup, login) are always
// reachable; everything else sits behind the auth guard.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/signup", s.showSignup).Methods(http.MethodGet)
	r.HandleFunc("/signup", s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/login", s.showLogin).Methods(http.MethodGet)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	protected := r.PathPrefix("/").Subrouter()
	protected.Use(s.requireAuth)
	protected.HandleFunc("/ws", s.handleSocket).Methods(http.MethodGet)
	protected.HandleFunc("/items", s.handleAdd).Methods(http.MethodPost)
	protected.HandleFunc("/items/{id}/toggle", s.handleToggle).Methods(http.MethodPost)
	protected.HandleFunc("/items/{id}/delete", s.handleDelete).Methods(http.MethodPost)
	protected.HandleFunc("/", s.showList).Methods(http.MethodGet)

	return r
}

// requireAuth is the view router's guard: no principal, no protected view.
// It resolves the cookie's principal id against the identity service on
// every request, so a deleted account is locked out immediately, not at
// cookie expiry.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.principalID(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		p, err := s.ident.Resume(r.Context(), id)
		if err != nil {
			s.clearPrincipal(w, r)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), principalContextKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// principalFrom returns the guard-resolved principal for the request.
func principalFrom(r *http.Request) todo.Principal {
	p, _ := r.Context().Value(principalContextKey).(todo.Principal)
	return p
}

func (s *Server) principalID(r *http.Request) (string, bool) {
	session, err := s.cookies.Get(r, cookieName)
	if err != nil {
		return "", false
	}
	id, ok := session.Values[principalKey].(string)
	return id, ok && id != ""
}

func (s *Server) setPrincipal(w http.ResponseWriter, r *http.Request, id string) {
	session, _ := s.cookies.Get(r, cookieName)
	session.Values[principalKey] = id
	if err := session.Save(r, w); err != nil {
		s.logger.Error("saving session cookie failed", "error", err)
	}
}

func (s *Server) clearPrincipal(w http.ResponseWriter, r *http.Request) {
	session, _ := s.cookies.Get(r, cookieName)
	delete(session.Values, principalKey)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		s.logger.Error("clearing session cookie failed", "error", err)
	}
}

// flash stores a transient message shown once on the next list render.
func (s *Server) flash(w http.ResponseWriter, r *http.Request, msg string) {
	session, _ := s.cookies.Get(r, cookieName)
	session.AddFlash(msg)
	if err := session.Save(r, w); err != nil {
		s.logger.Error("saving flash failed", "error", err)
	}
}

func (s *Server) takeFlashes(w http.ResponseWriter, r *http.Request) []string {
	session, _ := s.cookies.Get(r, cookieName)
	raw := session.Flashes()
	if len(raw) > 0 {
		if err := session.Save(r, w); err != nil {
			s.logger.Error("clearing flashes failed", "error", err)
		}
	}
	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if m, ok := f.(string); ok {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template render failed", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// authMessage converts an identity failure into the user-facing string the
// form displays. Anything that is not an AuthError gets the generic text.
func authMessage(err error) string {
	var ae *identity.AuthError
	if errors.As(err, &ae) {
		return ae.Message()
	}
	return "Something went wrong. Please try again."
}
