package site

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Data is the remote portfolio payload (data.json).
type Data struct {
	Projects []Project `json:"projects"`
	Works    []Work    `json:"works"`
}

type Project struct {
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Status      string `json:"status"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Image       string `json:"image,omitempty"`
}

type Work struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
	Logo        string `json:"logo,omitempty"`
}

// Loader fetches data.json and caches it in sqlite. Freshness is
// best-effort: a fetch failure serves the stale cached copy, and an
// empty cache serves the built-in fallback. The page never errors on a
// dead upstream.
type Loader struct {
	db     *sql.DB
	url    string
	ttl    time.Duration
	client *http.Client
}

func NewLoader(db *sql.DB, url string, ttl time.Duration) (*Loader, error) {
	const schema = `
	CREATE TABLE IF NOT EXISTS portfolio_cache (
		url TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		fetched_at DATETIME NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create portfolio_cache table: %w", err)
	}
	return &Loader{
		db:     db,
		url:    url,
		ttl:    ttl,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Get returns portfolio data: fresh cache, then remote, then stale
// cache, then the built-in fallback.
func (l *Loader) Get(ctx context.Context) Data {
	payload, fetchedAt, err := l.cached(ctx)
	if err == nil && time.Since(fetchedAt) < l.ttl {
		if data, ok := decode(payload); ok {
			return data
		}
	}

	if remote, raw, ferr := l.fetch(ctx); ferr == nil {
		if serr := l.store(ctx, raw); serr != nil {
			log.Warn().Err(serr).Msg("site: cache portfolio data failed")
		}
		return remote
	} else {
		log.Warn().Err(ferr).Str("url", l.url).Msg("site: portfolio fetch failed")
	}

	if err == nil {
		if data, ok := decode(payload); ok {
			log.Info().Time("fetched_at", fetchedAt).Msg("site: serving stale portfolio data")
			return data
		}
	}
	return fallbackData
}

func (l *Loader) cached(ctx context.Context) ([]byte, time.Time, error) {
	var payload []byte
	var fetchedAt time.Time
	err := l.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM portfolio_cache WHERE url = ?`, l.url,
	).Scan(&payload, &fetchedAt)
	return payload, fetchedAt, err
}

func (l *Loader) store(ctx context.Context, payload []byte) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO portfolio_cache (url, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at
	`, l.url, payload, time.Now().UTC())
	return err
}

func (l *Loader) fetch(ctx context.Context) (Data, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return Data{}, nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return Data{}, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Data{}, nil, fmt.Errorf("data fetch: status %d", resp.StatusCode)
	}

	var data Data
	raw := json.RawMessage{}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&raw); err != nil {
		return Data{}, nil, fmt.Errorf("data fetch: decode: %w", err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, nil, fmt.Errorf("data fetch: parse: %w", err)
	}
	return data, raw, nil
}

func decode(payload []byte) (Data, bool) {
	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return Data{}, false
	}
	return data, true
}
