package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roamnest/roamnest-backend/auth"
)

type AuthHandler struct {
	client auth.AuthClient
}

func NewAuthHandler(client auth.AuthClient) *AuthHandler {
	return &AuthHandler{client: client}
}

// Register wires the signup/login/logout routes for one role group, e.g.
// /api/travelers or /api/owners.
func (h *AuthHandler) Register(rg *gin.RouterGroup, role auth.Role) {
	rg.POST("/signup", h.signup(role))
	rg.POST("/login", h.login(role))
	rg.POST("/logout", SessionAuth(h.client), h.logout)
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) signup(role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signupRequest

		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse JSON body"})
			return
		}

		account, err := h.client.Signup(c.Request.Context(), role, req.Name, req.Email, req.Password)

		if err != nil {
			writeAuthError(c, err, "failed to sign up")
			return
		}

		c.JSON(http.StatusCreated, account)
	}
}

func (h *AuthHandler) login(role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest

		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse JSON body"})
			return
		}

		token, account, err := h.client.Login(c.Request.Context(), role, req.Email, req.Password)

		if err != nil {
			writeAuthError(c, err, "failed to log in")
			return
		}

		c.JSON(http.StatusOK, gin.H{"sessionToken": token, "account": account})
	}
}

func (h *AuthHandler) logout(c *gin.Context) {
	token := c.MustGet("sessionToken").(string)

	if err := h.client.Logout(c.Request.Context(), token); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log out"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func writeAuthError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrPasswordTooShort):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
