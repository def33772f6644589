package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRequireToken_AllowsValidBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m, _ := NewManager("secret", time.Hour)
	tok, err := m.Issue(time.Now(), "ops", RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := gin.New()
	r.GET("/x", RequireToken(m), func(c *gin.Context) {
		role, err := Role(c.Request.Context())
		if err != nil || role != RoleAdmin {
			t.Fatalf("expected admin role in context, got %q (%v)", role, err)
		}
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRequireToken_MissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m, _ := NewManager("secret", time.Hour)
	r := gin.New()
	r.GET("/x", RequireToken(m), func(c *gin.Context) { c.Status(200) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 401 {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireRole_ViewerDeniedAdminRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m, _ := NewManager("secret", time.Hour)
	tok, err := m.Issue(time.Now(), "ops", RoleViewer)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := gin.New()
	r.POST("/x", RequireToken(m), RequireRole(RoleAdmin), func(c *gin.Context) { c.Status(200) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)
	if w.Code != 403 {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
