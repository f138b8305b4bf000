package web

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/mkarlsen/tidelist/internal/todo"
)

type authPage struct {
	Email string
	Error string
}

type listPage struct {
	Email   string
	Items   []todo.Item
	Filter  string
	Flashes []string
}

func (s *Server) showSignup(w http.ResponseWriter, r *http.Request) {
	s.render(w, "signup.html", authPage{})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")
	confirm := r.FormValue("confirm")

	// password-mismatch is a validation error: it belongs to this form and
	// never reaches the identity service.
	if password != confirm {
		s.render(w, "signup.html", authPage{Email: email, Error: "Passwords do not match."})
		return
	}

	p, err := s.ident.CreateAccount(r.Context(), email, password)
	if err != nil {
		s.render(w, "signup.html", authPage{Email: email, Error: authMessage(err)})
		return
	}

	s.setPrincipal(w, r, p.ID)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) showLogin(w http.ResponseWriter, r *http.Request) {
	s.render(w, "login.html", authPage{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	p, err := s.ident.VerifyCredentials(r.Context(), email, password)
	if err != nil {
		s.render(w, "login.html", authPage{Email: email, Error: authMessage(err)})
		return
	}

	s.setPrincipal(w, r, p.ID)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.ident.EndSession(r.Context()); err != nil {
		// Collaborator-side failure is logged, never blocking: the local
		// session ends regardless.
		s.logger.Error("identity end-session failed", "error", err)
	}
	s.clearPrincipal(w, r)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) showList(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	mode, err := todo.ParseFilterMode(r.URL.Query().Get("filter"))
	if err != nil {
		mode = todo.FilterAll
	}

	items, err := s.store.ItemsByOwner(r.Context(), p.ID)
	if err != nil {
		s.logger.Error("listing items failed", "owner", p.ID, "error", err)
		items = nil
	}

	s.render(w, "list.html", listPage{
		Email:   p.Email,
		Items:   todo.Visible(items, mode),
		Filter:  mode.String(),
		Flashes: s.takeFlashes(w, r),
	})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	text, err := todo.CleanText(r.FormValue("text"))
	if err != nil {
		// Empty text is a no-op: nothing is written, the form just says so.
		s.flash(w, r, "Item text can't be empty.")
		s.redirectToList(w, r)
		return
	}

	if _, err := s.store.InsertItem(r.Context(), p.ID, text); err != nil {
		s.logger.Error("add item failed", "owner", p.ID, "error", err)
		s.flash(w, r, "Couldn't add the item. Please try again.")
	}
	s.redirectToList(w, r)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	id := mux.Vars(r)["id"]

	if err := s.store.ToggleItem(r.Context(), p.ID, id); err != nil {
		s.logger.Error("toggle item failed", "owner", p.ID, "item", id, "error", err)
		s.flash(w, r, "Couldn't update the item. Please try again.")
	}
	s.redirectToList(w, r)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	id := mux.Vars(r)["id"]

	if err := s.store.DeleteItem(r.Context(), p.ID, id); err != nil {
		s.logger.Error("delete item failed", "owner", p.ID, "item", id, "error", err)
		s.flash(w, r, "Couldn't delete the item. Please try again.")
	}
	s.redirectToList(w, r)
}

// redirectToList sends the client back to the list view, preserving the
// active filter carried in the form.
func (s *Server) redirectToList(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if f := r.FormValue("filter"); f != "" {
		target = "/?filter=" + url.QueryEscape(f)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
