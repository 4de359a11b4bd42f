// Package collector assembles a best-effort TrackingEvent per page
// load or section navigation and delivers it to the local relay
// endpoint. Delivery is fire-and-forget: it runs on a background
// goroutine, never delays the page response, and swallows every
// failure after logging it.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/noirrs/v3/internal/detect"
	"github.com/noirrs/v3/internal/event"
	"github.com/noirrs/v3/internal/geo"
)

const (
	visitorCookie  = "visitor_id"
	viewportCookie = "viewport"
	themeCookie    = "theme"
	timezoneCookie = "tz"
	connCookie     = "conn"

	deliverTimeout = 8 * time.Second
)

// Collector builds and ships tracking beacons.
type Collector struct {
	beaconURL string
	chain     *geo.Chain
	client    *http.Client
}

// New returns a collector posting to beaconURL (the local /api/track
// endpoint). chain may be nil; geo then always resolves to Unknown.
func New(beaconURL string, chain *geo.Chain) *Collector {
	return &Collector{
		beaconURL: beaconURL,
		chain:     chain,
		client:    &http.Client{Timeout: deliverTimeout},
	}
}

// TrackSection reports whether a section navigation should produce a
// beacon. The default section is rendered on every page load, so
// tracking it would duplicate the page_load event.
func TrackSection(name string) bool {
	return event.ValidSection(name) && name != event.DefaultSection
}

// PageLoad tracks one page_load event per request to the index page.
func (col *Collector) PageLoad() gin.HandlerFunc {
	return func(c *gin.Context) {
		visitorID := ensureVisitorID(c)
		ev := col.buildEvent(c, visitorID, event.TypePageLoad, "")
		ip := c.ClientIP()
		go col.deliver(ev, ip, true)
		c.Next()
	}
}

// SectionView tracks section navigations, skipping the default section
// and anything outside the fixed section set. Section views never
// re-resolve geolocation; they carry the Unknown location.
func (col *Collector) SectionView() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if TrackSection(name) {
			visitorID := ensureVisitorID(c)
			ev := col.buildEvent(c, visitorID, event.TypeSectionView, name)
			go col.deliver(ev, "", false)
		}
		c.Next()
	}
}

// ensureVisitorID returns the session token from the visitor cookie,
// minting one (session-scoped, not persisted across browser restarts)
// when the cookie is absent.
func ensureVisitorID(c *gin.Context) string {
	if id, err := c.Cookie(visitorCookie); err == nil && id != "" {
		return id
	}
	id := event.NewVisitorID()
	c.SetCookie(visitorCookie, id, 0, "/", "", false, true)
	return id
}

// buildEvent captures every request-derived signal synchronously, so
// the delivery goroutine never touches the gin context.
func (col *Collector) buildEvent(c *gin.Context, visitorID, eventType, section string) event.TrackingEvent {
	ua := c.Request.UserAgent()
	d := detect.Classify(ua)
	width, height := viewport(c)

	theme, _ := c.Cookie(themeCookie)
	tz := cookieOr(c, timezoneCookie, "Unknown")
	conn := cookieOr(c, connCookie, "Unknown")

	host := c.Request.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}

	referrer := c.Request.Referer()
	if referrer == "" {
		referrer = "Direct"
	}

	unknown := geo.Unknown()
	return event.TrackingEvent{
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		UserAgent:      ua,
		Language:       language(c.GetHeader("Accept-Language")),
		Timezone:       tz,
		Country:        unknown.Country,
		City:           unknown.City,
		ScreenWidth:    width,
		ScreenHeight:   height,
		DeviceType:     d.DeviceType,
		DeviceName:     d.DeviceName,
		BrowserName:    d.BrowserName,
		BrowserVersion: d.BrowserVersion,
		OS:             d.OS,
		ConnectionType: conn,
		Referrer:       referrer,
		IsDarkMode:     theme == "dark",
		VisitedDomain:  host,
		VisitedURL:     scheme + "://" + c.Request.Host + c.Request.URL.Path,
		VisitorID:      visitorID,
		EventType:      eventType,
		SectionName:    section,
	}
}

// deliver resolves geolocation (page_load only) and posts the event to
// the relay. Every failure is logged and dropped.
func (col *Collector) deliver(ev event.TrackingEvent, ip string, resolveGeo bool) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	if resolveGeo {
		loc := col.chain.Resolve(ctx, ip)
		ev.Country = loc.Country
		ev.City = loc.City
		ev.Latitude = loc.Latitude
		ev.Longitude = loc.Longitude
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("collector: marshal event")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, col.beaconURL, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Msg("collector: build beacon request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := col.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("collector: beacon delivery failed")
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("collector: beacon rejected")
		return
	}
	log.Debug().
		Str("event_type", ev.EventType).
		Str("visitor_id", ev.VisitorID).
		Msg("collector: beacon delivered")
}

func cookieOr(c *gin.Context, name, fallback string) string {
	if v, err := c.Cookie(name); err == nil && v != "" {
		return v
	}
	return fallback
}

// viewport parses the "WxH" cookie set by the page script.
func viewport(c *gin.Context) (int, int) {
	raw, err := c.Cookie(viewportCookie)
	if err != nil {
		return 0, 0
	}
	parts := strings.SplitN(raw, "x", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	w, errW := strconv.Atoi(parts[0])
	h, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil {
		return 0, 0
	}
	return w, h
}

// language extracts the preferred tag from an Accept-Language header.
func language(header string) string {
	if header == "" {
		return "Unknown"
	}
	first := strings.SplitN(header, ",", 2)[0]
	return strings.TrimSpace(strings.SplitN(first, ";", 2)[0])
}
