package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"gophercalc/internal/model"
)

// ErrorBody is the one-line error shape every non-validation failure
// uses: {"detail": "..."}.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// FieldError is one entry in a 422 validation response. Loc names the
// request section and field that failed.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func Detail(c *gin.Context, status int, detail string) {
	c.JSON(status, ErrorBody{Detail: detail})
}

// ValidationFailed renders a binding error as a 422 with one entry per
// failing field. Errors that are not field level (unreadable JSON,
// wrong types) become a single body-scoped entry.
func ValidationFailed(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		ValidationDetail(c, FieldError{
			Loc:  []string{"body"},
			Msg:  "invalid request body",
			Type: "value_error.jsondecode",
		})
		return
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Loc:  []string{"body", fe.Field()},
			Msg:  validationMessage(fe),
			Type: validationType(fe),
		})
	}
	ValidationDetail(c, fields...)
}

// ValidationDetail writes prebuilt 422 entries, for checks that only
// run after binding succeeded.
func ValidationDetail(c *gin.Context, fields ...FieldError) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": fields})
}

func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// AuthSuccess is the shared registration and login payload: the user,
// a fresh access token and the scheme it should be presented with.
func AuthSuccess(c *gin.Context, status int, message string, user *model.User, token string) {
	c.JSON(status, gin.H{
		"message":      message,
		"user":         user,
		"access_token": token,
		"token_type":   "bearer",
	})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "value is not a valid email address"
	case "min":
		return fmt.Sprintf("ensure this value has at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("ensure this value has at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("value is not a valid operation type; permitted: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func validationType(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value_error.missing"
	case "email":
		return "value_error.email"
	case "min":
		return "value_error.any_str.min_length"
	case "max":
		return "value_error.any_str.max_length"
	case "oneof":
		return "type_error.enum"
	default:
		return "value_error"
	}
}
