package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"gophercalc/internal/transport/http/response"
)

// queryInt reads an optional integer query parameter. A value that is
// present but not an integer writes a 422 and reports false.
func queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		response.ValidationDetail(c, response.FieldError{
			Loc:  []string{"query", name},
			Msg:  "value is not a valid integer",
			Type: "type_error.integer",
		})
		return 0, false
	}
	return v, true
}

// pathID reads a numeric path parameter, writing a 422 when it does
// not parse.
func pathID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		response.ValidationDetail(c, response.FieldError{
			Loc:  []string{"path", name},
			Msg:  "value is not a valid integer",
			Type: "type_error.integer",
		})
		return 0, false
	}
	return uint(v), true
}
