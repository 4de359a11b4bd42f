package admin

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	"github.com/noirrs/v3/internal/metrics"
)

func newAdminRouter(t *testing.T) (*gin.Engine, *Admin) {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "admin.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := metrics.NewStore(db)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	a, err := New(store, "owner", "hunter2")
	if err != nil {
		t.Fatalf("admin.New: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.LoadHTMLGlob(filepath.Join("..", "..", "templates", "*"))
	a.Register(r)
	return r, a
}

func TestDashboardRequiresAuth(t *testing.T) {
	r, _ := newAdminRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302 redirect", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/admin/login" {
		t.Errorf("redirect = %q, want /admin/login", loc)
	}
}

func TestLoginAndStats(t *testing.T) {
	r, a := newAdminRouter(t)

	form := url.Values{"username": {"owner"}, "password": {"hunter2"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("login status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/admin/dashboard" {
		t.Errorf("redirect = %q, want /admin/dashboard", loc)
	}

	statsReq := httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil)
	statsReq.AddCookie(&http.Cookie{Name: "admin_token", Value: a.token})
	sw := httptest.NewRecorder()
	r.ServeHTTP(sw, statsReq)

	if sw.Code != http.StatusOK {
		t.Fatalf("stats status = %d, want 200", sw.Code)
	}
	if !strings.Contains(sw.Body.String(), "total_visitors") {
		t.Errorf("stats body = %s", sw.Body.String())
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r, _ := newAdminRouter(t)

	form := url.Values{"username": {"owner"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestStaleTokenRejected(t *testing.T) {
	r, _ := newAdminRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "admin_token", Value: "stale-from-previous-process"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Errorf("status = %d, want redirect for a stale token", w.Code)
	}
}
