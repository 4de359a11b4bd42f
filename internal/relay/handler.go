// Package relay receives TrackingEvent beacons, validates them, and
// forwards a formatted notification to a Telegram chat. Downstream
// failures are logged and masked: the caller sees success for any
// input that passes field validation.
package relay

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/noirrs/v3/internal/event"
)

// Handler is the /api/track endpoint. A nil notifier means the
// Telegram credentials are not configured; the forward step is then
// skipped and the endpoint still reports success.
type Handler struct {
	notifier Notifier
}

func NewHandler(n Notifier) *Handler {
	return &Handler{notifier: n}
}

// Track validates one event and forwards it. Policy is
// await-and-report: the response is written after the outbound send
// completes (bounded by the sender's client timeout), and a send
// failure is still reported to the caller as success.
func (h *Handler) Track(c *gin.Context) {
	var ev event.TrackingEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		log.Warn().Err(err).Msg("track: invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if ev.Timestamp == "" || ev.UserAgent == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	if h.notifier == nil {
		log.Warn().Msg("track: telegram credentials missing, skipping forward")
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Demographics tracked"})
		return
	}

	text := FormatMessage(ev)
	if err := h.notifier.Notify(text); err != nil {
		log.Error().
			Err(err).
			Str("event_type", orDefault(ev.EventType, event.TypePageLoad)).
			Str("visitor_id", ev.VisitorID).
			Msg("track: telegram send failed")
	} else {
		log.Info().
			Str("event_type", orDefault(ev.EventType, event.TypePageLoad)).
			Str("visitor_id", ev.VisitorID).
			Msg("track: notification sent")
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Demographics tracked"})
}
