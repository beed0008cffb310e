// Package handler provides the server-rendered page handlers.
package handler

import (
	"errors"
	"net/http"

	"livepoll/internal/services"
	livepoll_errors "livepoll/pkg/errors"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles signup, login, and logout pages.
type AuthHandler struct {
	auth         *services.AuthService
	cookieName   string
	cookieMaxAge int
}

func NewAuthHandler(auth *services.AuthService, cookieName string, cookieMaxAge int) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		cookieName:   cookieName,
		cookieMaxAge: cookieMaxAge,
	}
}

// Landing renders the unauthenticated landing page. Authenticated users are
// redirected to the dashboard before this runs.
func (h *AuthHandler) Landing(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{})
}

// LoginForm renders the login page.
func (h *AuthHandler) LoginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{"ErrorMessage": nil})
}

// Login processes the login form. Unknown username and wrong password
// produce the identical message.
func (h *AuthHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	_, token, err := h.auth.Login(c.Request.Context(), username, password)
	if err != nil {
		if errors.Is(err, livepoll_errors.ErrInvalidCredentials) {
			c.HTML(http.StatusOK, "login.html", gin.H{"ErrorMessage": "Invalid username or password"})
			return
		}
		c.HTML(http.StatusOK, "login.html", gin.H{"ErrorMessage": "Error logging in"})
		return
	}

	h.setSessionCookie(c, token)
	c.Redirect(http.StatusFound, "/dashboard")
}

// SignupForm renders the signup page.
func (h *AuthHandler) SignupForm(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", gin.H{"ErrorMessage": nil})
}

// Signup processes the signup form and logs the new user in.
func (h *AuthHandler) Signup(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	_, token, err := h.auth.Signup(c.Request.Context(), username, password)
	if err != nil {
		if errors.Is(err, livepoll_errors.ErrAlreadyExists) {
			c.HTML(http.StatusOK, "signup.html", gin.H{"ErrorMessage": "Username already taken"})
			return
		}
		if errors.Is(err, livepoll_errors.ErrInvalidInput) {
			c.HTML(http.StatusOK, "signup.html", gin.H{"ErrorMessage": "Username and password are required"})
			return
		}
		c.HTML(http.StatusOK, "signup.html", gin.H{"ErrorMessage": "Error signing up, please try again"})
		return
	}

	h.setSessionCookie(c, token)
	c.Redirect(http.StatusFound, "/dashboard")
}

// Logout destroys the session and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(h.cookieName); err == nil && token != "" {
		_ = h.auth.Logout(c.Request.Context(), token)
	}
	c.SetCookie(h.cookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(h.cookieName, token, h.cookieMaxAge, "/", "", false, true)
}
