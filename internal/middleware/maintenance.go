package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-registration-api/internal/models"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
	"github.com/noah-isme/uni-registration-api/pkg/response"
)

// SettingsReader loads the current system settings.
type SettingsReader interface {
	Get(ctx context.Context) (*models.SystemSettings, error)
}

// Maintenance rejects writes from non-admins while maintenance mode is on.
// Reads stay available. Must run after JWT.
func Maintenance(settings SettingsReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if claims := Claims(c); claims != nil && claims.Role == models.RoleAdmin {
			c.Next()
			return
		}
		current, err := settings.Get(c.Request.Context())
		if err == nil && current.MaintenanceMode {
			msg := appErrors.ErrMaintenance.Message
			if current.SystemMessage != "" {
				msg = current.SystemMessage
			}
			response.Error(c, appErrors.Clone(appErrors.ErrMaintenance, msg))
			c.Abort()
			return
		}
		c.Next()
	}
}
