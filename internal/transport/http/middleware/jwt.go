package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gophercalc/internal/app"
	"gophercalc/internal/model"
	"gophercalc/internal/observability"
	"gophercalc/internal/transport/http/response"
)

const ContextUserKey = "currentUser"

// AuthJWT guards a route. The header itself failing to parse is a 403;
// a well-formed bearer token that does not verify, or whose subject no
// longer exists, is a 401 with a WWW-Authenticate challenge. The user
// is loaded from the database on every request, so revoked accounts
// lose access as soon as the row is gone.
func AuthJWT(auth *app.AuthService, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		scheme, credentials, _ := strings.Cut(authHeader, " ")
		credentials = strings.TrimSpace(credentials)

		if authHeader == "" || scheme == "" || credentials == "" {
			response.Detail(c, http.StatusForbidden, "Not authenticated")
			c.Abort()
			return
		}
		if !strings.EqualFold(scheme, "Bearer") {
			response.Detail(c, http.StatusForbidden, "Invalid authentication credentials")
			c.Abort()
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), credentials)
		if err != nil {
			if errors.Is(err, app.ErrInvalidToken) {
				metrics.TokenVerificationsTotal.WithLabelValues("failure").Inc()
				c.Header("WWW-Authenticate", "Bearer")
				response.Detail(c, http.StatusUnauthorized, "Could not validate credentials")
				c.Abort()
				return
			}
			response.Detail(c, http.StatusInternalServerError, "Internal server error")
			c.Abort()
			return
		}

		metrics.TokenVerificationsTotal.WithLabelValues("success").Inc()
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user a guard stored on the context.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}
