// Package metrics keeps a privacy-conscious local record of page hits:
// hashed IPs only, DNT honored by the middleware, rows older than the
// retention window deleted. It backs the admin dashboard and is fully
// separate from the Telegram relay pipeline, which persists nothing.
package metrics

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const retention = 12 * 30 * 24 * time.Hour // ~12 months

// VisitorRow is one recorded page hit.
type VisitorRow struct {
	ID        int       `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// SectionCount is an aggregate of section-fragment hits.
type SectionCount struct {
	Section string `json:"section"`
	Count   int64  `json:"count"`
}

// Stats is the admin dashboard aggregate.
type Stats struct {
	TotalVisitors    int64          `json:"total_visitors"`
	UniqueVisitors   int64          `json:"unique_visitors"`
	VisitorsToday    int64          `json:"visitors_today"`
	VisitorsThisWeek int64          `json:"visitors_this_week"`
	TopSections      []SectionCount `json:"top_sections"`
	RecentVisitors   []VisitorRow   `json:"recent_visitors"`
}

// Store records and aggregates page hits in sqlite. The hashing salt
// is minted per process, so hashes are consistent within a run but
// cannot be joined across restarts.
type Store struct {
	db   *sql.DB
	salt string
}

func NewStore(db *sql.DB) (*Store, error) {
	const schema = `
	CREATE TABLE IF NOT EXISTS visitors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hashed_ip TEXT NOT NULL,
		user_agent TEXT,
		path TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create visitors table: %w", err)
	}

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate hashing salt: %w", err)
	}

	return &Store{db: db, salt: hex.EncodeToString(salt)}, nil
}

// HashIP produces a short, consistent-per-process token for an IP.
func (s *Store) HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + s.salt))
	return hex.EncodeToString(sum[:])[:16]
}

func (s *Store) Record(ctx context.Context, ip, userAgent, path string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visitors (hashed_ip, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?)
	`, s.HashIP(ip), userAgent, path, time.Now().UTC())
	return err
}

// CleanupOld removes rows past the retention window and returns how
// many were deleted.
func (s *Store) CleanupOld(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM visitors WHERE timestamp < ?`, time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	now := time.Now().UTC()

	queries := []struct {
		dst  *int64
		q    string
		args []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`,
			[]any{now.Truncate(24 * time.Hour)}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`,
			[]any{now.Add(-7 * 24 * time.Hour)}},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.q, q.args...).Scan(q.dst); err != nil {
			return nil, err
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, COUNT(*) AS hits FROM visitors
		WHERE path LIKE '/sections/%'
		GROUP BY path ORDER BY hits DESC LIMIT 10
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var sc SectionCount
		if err := rows.Scan(&sc.Section, &sc.Count); err != nil {
			continue
		}
		sc.Section = strings.TrimPrefix(sc.Section, "/sections/")
		stats.TopSections = append(stats.TopSections, sc)
	}

	recent, err := s.db.QueryContext(ctx, `
		SELECT id, hashed_ip, user_agent, path, timestamp
		FROM visitors ORDER BY timestamp DESC LIMIT 50
	`)
	if err != nil {
		return nil, err
	}
	defer recent.Close()
	for recent.Next() {
		var v VisitorRow
		if err := recent.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Timestamp); err != nil {
			continue
		}
		stats.RecentVisitors = append(stats.RecentVisitors, v)
	}

	return stats, nil
}

// RecentVisitors returns up to limit rows, newest first.
func (s *Store) RecentVisitors(ctx context.Context, limit int) ([]VisitorRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hashed_ip, user_agent, path, timestamp
		FROM visitors ORDER BY timestamp DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VisitorRow
	for rows.Next() {
		var v VisitorRow
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Timestamp); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Middleware records page hits in the background. Static assets, admin
// pages, beacons and Do-Not-Track visitors are skipped.
func Middleware(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/static/") ||
			strings.HasPrefix(path, "/admin") ||
			strings.HasPrefix(path, "/api/") ||
			strings.HasPrefix(path, "/favicon") ||
			path == "/health" {
			c.Next()
			return
		}
		if c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		ip := c.ClientIP()
		ua := c.Request.UserAgent()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Record(ctx, ip, ua, path); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("metrics: record visit failed")
			}
		}()
		c.Next()
	}
}
