package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-art-booking/internal/http/middleware"
	"github.com/tbourn/go-art-booking/internal/services"
)

const (
	msgBadCredentials = "Invalid username/email or password."
	msgEmailTaken     = "Email is already registered."
	msgSignedUp       = "Account created successfully! Please log in."
	msgLoggedOut      = "You have been logged out successfully."
	msgTooManyTries   = "Too many attempts. Please wait a moment and try again."
)

// LoginPage renders the login form. Signed-in users are sent home.
func (h *Handlers) LoginPage(c *gin.Context) {
	if u := middleware.CurrentUser(c); u != nil {
		redirect(c, homeFor(u))
		return
	}
	h.page(c, http.StatusOK, "login.html", "Log in", gin.H{"Username": ""})
}

// Login authenticates by username or email, starts a session and routes
// administrators to the dashboard and customers to the gallery.
func (h *Handlers) Login(c *gin.Context) {
	if u := middleware.CurrentUser(c); u != nil {
		redirect(c, homeFor(u))
		return
	}
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	u, err := h.accounts.Login(c.Request.Context(), username, password)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			middleware.AddFlash(c, middleware.FlashError, msgBadCredentials)
			h.page(c, http.StatusUnauthorized, "login.html", "Log in", gin.H{"Username": username})
			return
		}
		h.handleError(c, err)
		return
	}

	token, err := h.sessions.Issue(u.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.cookie.Set(c, token)
	middleware.SetCurrentUser(c, u)
	middleware.LoggerFrom(c).Info().Uint("user_id", u.ID).Msg("signed in")

	middleware.AddFlash(c, middleware.FlashSuccess, "Welcome back, "+u.DisplayName()+"!")
	redirect(c, homeFor(u))
}

// signupForm is the signup form echoed back on errors. Passwords are never
// echoed.
type signupForm struct {
	FullName string
	Email    string
}

// SignupPage renders the signup form. Signed-in users go to the gallery.
func (h *Handlers) SignupPage(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		redirect(c, pathGallery)
		return
	}
	h.page(c, http.StatusOK, "signup.html", "Sign up", gin.H{
		"Form":   signupForm{},
		"Errors": map[string]string{},
	})
}

// Signup creates a customer account and sends the user to the login page.
// It does not sign the new account in.
func (h *Handlers) Signup(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		redirect(c, pathGallery)
		return
	}
	var in services.SignupInput
	if err := c.ShouldBind(&in); err != nil {
		middleware.AddFlash(c, middleware.FlashError, "All fields are required.")
		h.signupError(c, http.StatusBadRequest, in, nil)
		return
	}

	_, err := h.accounts.Signup(c.Request.Context(), in)
	var ve *services.ValidationError
	switch {
	case err == nil:
		middleware.AddFlash(c, middleware.FlashSuccess, msgSignedUp)
		redirect(c, pathLogin)
	case errors.As(err, &ve):
		middleware.AddFlash(c, middleware.FlashError, ve.Message())
		h.signupError(c, http.StatusBadRequest, in, ve.Fields)
	case errors.Is(err, services.ErrConflict):
		middleware.AddFlash(c, middleware.FlashError, msgEmailTaken)
		h.signupError(c, http.StatusConflict, in, nil)
	default:
		h.handleError(c, err)
	}
}

func (h *Handlers) signupError(c *gin.Context, status int, in services.SignupInput, fields map[string]string) {
	if fields == nil {
		fields = map[string]string{}
	}
	h.page(c, status, "signup.html", "Sign up", gin.H{
		"Form":   signupForm{FullName: in.FullName, Email: in.Email},
		"Errors": fields,
	})
}

// Logout ends the session.
func (h *Handlers) Logout(c *gin.Context) {
	h.cookie.Clear(c)
	middleware.SetCurrentUser(c, nil)
	middleware.AddFlash(c, middleware.FlashInfo, msgLoggedOut)
	redirect(c, pathLogin)
}

// Root ends any session and sends the visitor to the login page.
func (h *Handlers) Root(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		h.cookie.Clear(c)
		middleware.SetCurrentUser(c, nil)
	}
	redirect(c, pathLogin)
}

// RateLimited is the HTML response for throttled login and signup attempts.
func (h *Handlers) RateLimited(c *gin.Context) {
	middleware.AddFlash(c, middleware.FlashError, msgTooManyTries)
	redirect(c, c.Request.URL.Path)
}
