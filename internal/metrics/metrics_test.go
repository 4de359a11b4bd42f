package metrics

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "metrics.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestHashIP(t *testing.T) {
	store := newTestStore(t)

	a1 := store.HashIP("203.0.113.9")
	a2 := store.HashIP("203.0.113.9")
	b := store.HashIP("198.51.100.7")

	if a1 != a2 {
		t.Error("same IP hashed to different values within one process")
	}
	if a1 == b {
		t.Error("different IPs hashed to the same value")
	}
	if len(a1) != 16 {
		t.Errorf("hash length = %d, want 16", len(a1))
	}
	if a1 == "203.0.113.9" {
		t.Error("raw IP leaked through the hash")
	}
}

func TestRecordAndStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	visits := []struct{ ip, path string }{
		{"203.0.113.9", "/"},
		{"203.0.113.9", "/sections/projects"},
		{"203.0.113.9", "/sections/projects"},
		{"198.51.100.7", "/sections/education"},
	}
	for _, v := range visits {
		if err := store.Record(ctx, v.ip, "UA", v.path); err != nil {
			t.Fatalf("Record(%s): %v", v.path, err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalVisitors != 4 {
		t.Errorf("TotalVisitors = %d, want 4", stats.TotalVisitors)
	}
	if stats.UniqueVisitors != 2 {
		t.Errorf("UniqueVisitors = %d, want 2", stats.UniqueVisitors)
	}
	if stats.VisitorsThisWeek != 4 {
		t.Errorf("VisitorsThisWeek = %d, want 4", stats.VisitorsThisWeek)
	}
	if len(stats.TopSections) == 0 {
		t.Fatal("TopSections is empty")
	}
	if top := stats.TopSections[0]; top.Section != "projects" || top.Count != 2 {
		t.Errorf("top section = %+v, want projects x2", top)
	}
	if len(stats.RecentVisitors) != 4 {
		t.Errorf("RecentVisitors = %d rows, want 4", len(stats.RecentVisitors))
	}
}

func TestCleanupOld(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, "203.0.113.9", "UA", "/"); err != nil {
		t.Fatal(err)
	}
	// Backdate one row past the retention window.
	old := time.Now().UTC().Add(-13 * 30 * 24 * time.Hour)
	if _, err := store.db.Exec(
		`INSERT INTO visitors (hashed_ip, user_agent, path, timestamp) VALUES (?, ?, ?, ?)`,
		store.HashIP("198.51.100.7"), "UA", "/", old,
	); err != nil {
		t.Fatal(err)
	}

	deleted, err := store.CleanupOld(ctx)
	if err != nil {
		t.Fatalf("CleanupOld: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalVisitors != 1 {
		t.Errorf("TotalVisitors after cleanup = %d, want 1", stats.TotalVisitors)
	}
}

func TestMiddlewareSkips(t *testing.T) {
	store := newTestStore(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(store))
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.GET("/", ok)
	r.GET("/static/app.js", ok)
	r.GET("/api/track", ok)
	r.GET("/admin/dashboard", ok)

	serve := func(path string, dnt bool) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if dnt {
			req.Header.Set("DNT", "1")
		}
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	serve("/", false)
	serve("/static/app.js", false)
	serve("/api/track", false)
	serve("/admin/dashboard", false)
	serve("/", true) // Do Not Track

	// Recording is async; give the goroutine a moment.
	deadline := time.Now().Add(2 * time.Second)
	for {
		stats, err := store.Stats(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if stats.TotalVisitors == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("TotalVisitors = %d, want exactly 1 (only the plain page hit)", stats.TotalVisitors)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Settle and confirm none of the skipped paths recorded late.
	time.Sleep(100 * time.Millisecond)
	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalVisitors != 1 {
		t.Errorf("TotalVisitors = %d after settle, want 1", stats.TotalVisitors)
	}
}
