package chi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/domain/user"
	"github.com/swapcycle/swapcycle/internal/logger"
)

type protectedKey struct{}

// RequireSession redirects anonymous visitors to the login page, keeping the
// requested URL in ?next=. Requests it lets through are marked protected.
func RequireSession(sessions SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sessions.Current().IsAuthenticated() {
				http.Redirect(w, r, loginURL(r), http.StatusSeeOther)
				return
			}
			ctx := context.WithValue(r.Context(), protectedKey{}, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// isProtected reports whether r passed RequireSession.
func isProtected(r *http.Request) bool {
	v, _ := r.Context().Value(protectedKey{}).(bool)
	return v
}

func loginURL(r *http.Request) string {
	target := r.URL.RequestURI()
	if r.Method != http.MethodGet {
		target = r.URL.Path
	}
	return "/login?next=" + url.QueryEscape(target)
}

// safeNext accepts only local absolute paths as redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/search"
	}
	return next
}

type authPage struct {
	Next  string
	Email string
	Form  user.Registration
}

func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	if s.sessions.Current().IsAuthenticated() {
		http.Redirect(w, r, safeNext(r.URL.Query().Get("next")), http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login", "Sign in", authPage{Next: r.URL.Query().Get("next")})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, domain.NewFieldError("form", "could not be read"))
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	next := r.PostForm.Get("next")

	if err := s.sessions.Authenticate(r.Context(), email, r.PostForm.Get("password")); err != nil {
		msg := "Invalid email or password."
		if !errors.Is(err, domain.ErrUnauthorized) {
			msg = s.viewFor(err).Message
		}
		logger.FromContextOr(r.Context(), s.logger).Info("login failed", zap.Error(err))
		s.renderWithFlash(w, r, http.StatusUnauthorized, "login", "Sign in",
			authPage{Next: next, Email: email}, &flash{Level: flashError, Message: msg})
		return
	}

	setFlash(w, flashSuccess, "Welcome back!")
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

func (s *Server) registerForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register", "Create account", authPage{Next: r.URL.Query().Get("next")})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, domain.NewFieldError("form", "could not be read"))
		return
	}
	reg := user.Registration{
		Email:     strings.TrimSpace(r.PostForm.Get("email")),
		Username:  strings.TrimSpace(r.PostForm.Get("username")),
		Password:  r.PostForm.Get("password"),
		Name:      strings.TrimSpace(r.PostForm.Get("name")),
		Surname:   strings.TrimSpace(r.PostForm.Get("surname")),
		Address:   strings.TrimSpace(r.PostForm.Get("address")),
		BirthDate: r.PostForm.Get("birth_date"),
	}
	if r.PostForm.Get("password") != r.PostForm.Get("confirm_password") {
		s.renderWithFlash(w, r, http.StatusBadRequest, "register", "Create account",
			authPage{Form: reg}, &flash{Level: flashError, Message: "Passwords do not match."})
		return
	}

	if err := s.sessions.Register(r.Context(), reg); err != nil {
		v := s.viewFor(err)
		reg.Password = ""
		s.renderWithFlash(w, r, v.Status, "register", "Create account",
			authPage{Form: reg}, &flash{Level: flashError, Message: v.Message})
		return
	}

	setFlash(w, flashSuccess, "Your account is ready.")
	http.Redirect(w, r, safeNext(r.PostForm.Get("next")), http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(r.Context())
	setFlash(w, flashInfo, "You have been signed out.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
