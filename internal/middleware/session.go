package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arjunalabs/arjuna-backend/internal/response"
	"github.com/arjunalabs/arjuna-backend/internal/service"
)

// CheckSingleDeviceSession validates the JWT's JTI against the active login
// recorded in Redis. If the JTI doesn't match, a newer login replaced this
// one and the request is rejected.
func CheckSingleDeviceSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := authService.ValidateLogin(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
