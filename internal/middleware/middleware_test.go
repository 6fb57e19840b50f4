package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-registration-api/internal/models"
	"github.com/noah-isme/uni-registration-api/internal/service"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
)

type staticValidator map[string]*models.JWTClaims

func (v staticValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type staticSettings struct{ settings models.SystemSettings }

func (s staticSettings) Get(ctx context.Context) (*models.SystemSettings, error) {
	return &s.settings, nil
}

var tokens = staticValidator{
	"student-token": {UserID: "stu", Role: models.RoleStudent},
	"admin-token":   {UserID: "adm", Role: models.RoleAdmin},
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/x", append(handlers, ok)...)
	r.POST("/x", append(handlers, ok)...)
	return r
}

func do(r http.Handler, method, target, token string) int {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestJWT(t *testing.T) {
	r := newRouter(JWT(tokens))
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/x", ""))
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/x", "bogus"))
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x", "student-token"))
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x?token=student-token", ""))
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/x?token=student-token", ""))
}

func TestRequireRoles(t *testing.T) {
	r := newRouter(JWT(tokens), RequireStaff())
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/x", "student-token"))
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x", "admin-token"))
}

func TestMaintenanceBlocksStudentWrites(t *testing.T) {
	settings := staticSettings{models.SystemSettings{MaintenanceMode: true, SystemMessage: "Back at noon"}}
	r := newRouter(JWT(tokens), Maintenance(settings))

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x", "student-token"))
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodPost, "/x", "student-token"))
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/x", "admin-token"))

	open := newRouter(JWT(tokens), Maintenance(staticSettings{}))
	assert.Equal(t, http.StatusOK, do(open, http.MethodPost, "/x", "student-token"))
}

func TestResponseMetaCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var got map[string]interface{}
	r.GET("/x", ResponseMeta(), func(c *gin.Context) {
		MarkCacheHit(c, true)
		got = Meta(c)
		c.Status(http.StatusOK)
	})
	do(r, http.MethodGet, "/x", "")
	assert.Equal(t, true, got["cache_hit"])
	assert.Contains(t, got, "processing_time_ms")
	assert.NotContains(t, got, "started_at")
}

func TestMetricsSkipsScrapes(t *testing.T) {
	metrics := service.NewMetricsService()
	r := newRouter(Metrics(metrics, "/metrics"))
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, http.MethodGet, "/x", "")
	do(r, http.MethodGet, "/metrics", "")
	do(r, http.MethodGet, "/missing", "")

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	paths := map[string]bool{}
	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "path" {
					paths[label.GetValue()] = true
				}
			}
		}
	}
	assert.True(t, paths["/x"])
	assert.True(t, paths["unmatched"])
	assert.False(t, paths["/metrics"])
}
