package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gophercalc/internal/app"
	"gophercalc/internal/transport/http/middleware"
	"gophercalc/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

// RegisterRequest caps the password at 72 bytes, the longest input
// bcrypt hashes.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email,max=128"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest uses pointers so a missing field is a validation error
// while an empty string still reaches the credential check and earns a
// 401 like any other bad credential.
type LoginRequest struct {
	Username *string `json:"username" binding:"required"`
	Password *string `json:"password" binding:"required"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), app.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		RemoteIP: c.ClientIP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUsernameExists):
			response.Detail(c, http.StatusBadRequest, "Username already registered")
		case errors.Is(err, app.ErrEmailExists):
			response.Detail(c, http.StatusBadRequest, "Email already registered")
		case errors.Is(err, app.ErrInvalidInput):
			response.ValidationDetail(c, response.FieldError{
				Loc:  []string{"body"},
				Msg:  "invalid registration payload",
				Type: "value_error",
			})
		default:
			response.Detail(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	response.AuthSuccess(c, http.StatusCreated, "Registration successful", result.User, result.Token)
}

// Login accepts a username or an email in the username field.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), app.LoginInput{
		Identifier: *req.Username,
		Password:   *req.Password,
		RemoteIP:   c.ClientIP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidCredential):
			response.Detail(c, http.StatusUnauthorized, "Invalid username or password")
		case errors.Is(err, app.ErrInactiveAccount):
			response.Detail(c, http.StatusForbidden, "User account is inactive")
		default:
			response.Detail(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	response.AuthSuccess(c, http.StatusOK, "Login successful", result.User, result.Token)
}

// Me returns the account the presented token resolves to.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Detail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	c.JSON(http.StatusOK, user)
}
