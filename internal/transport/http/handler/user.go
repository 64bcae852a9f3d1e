package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"gophercalc/internal/app"
	"gophercalc/internal/model"
	"gophercalc/internal/transport/http/response"
)

type UserHandler struct {
	userService *app.UserService
}

// UpdateUserRequest treats absent and empty fields the same: both mean
// keep the stored value.
type UpdateUserRequest struct {
	Username string `json:"username" binding:"omitempty,min=3,max=50"`
	Email    string `json:"email" binding:"omitempty,email,max=128"`
	Password string `json:"password" binding:"omitempty,min=8,max=72"`
}

func NewUserHandler(userService *app.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) List(c *gin.Context) {
	skip, ok := queryInt(c, "skip", 0)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 100)
	if !ok {
		return
	}

	users, err := h.userService.List(c.Request.Context(), skip, limit)
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, app.ErrUserNotFound) {
			response.Detail(c, http.StatusNotFound, "User not found")
			return
		}
		response.Detail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, app.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUserNotFound):
			response.Detail(c, http.StatusNotFound, "User not found")
		case errors.Is(err, app.ErrUsernameExists):
			response.Detail(c, http.StatusBadRequest, "Username already taken")
		case errors.Is(err, app.ErrEmailExists):
			response.Detail(c, http.StatusBadRequest, "Email already taken")
		case errors.Is(err, app.ErrInvalidInput):
			response.ValidationDetail(c, response.FieldError{
				Loc:  []string{"body", "password"},
				Msg:  "ensure this value has at least 8 characters",
				Type: "value_error.any_str.min_length",
			})
		default:
			response.Detail(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	username, err := h.userService.Delete(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, app.ErrUserNotFound) {
			response.Detail(c, http.StatusNotFound, "User not found")
			return
		}
		response.Detail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	response.Message(c, fmt.Sprintf("User '%s' deleted successfully", username))
}
