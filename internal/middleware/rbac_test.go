package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/uniport-dev/uni-portal-api/internal/models"
)

func rbacRouter(claims *models.JWTClaims, guard gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/resource/:id", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
	}, guard, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRBACMissingClaims(t *testing.T) {
	r := rbacRouter(nil, RequireRoles(models.RoleAdmin))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/resource/1", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRBACForbiddenRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}
	r := rbacRouter(claims, RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/resource/1", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRBACAllowedRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}
	r := rbacRouter(claims, RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/resource/1", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRBACSelfAccess(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}
	r := rbacRouter(claims, RBAC(string(models.RoleAdmin), "SELF"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/resource/u1", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/resource/u2", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}
