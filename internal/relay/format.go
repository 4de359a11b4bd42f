package relay

import (
	"fmt"
	"time"

	"github.com/noirrs/v3/internal/event"
)

func deviceEmoji(deviceType string) string {
	switch deviceType {
	case "mobile":
		return "📱"
	case "tablet":
		return "📊"
	default:
		return "🖥️"
	}
}

func themeEmoji(dark bool) string {
	if dark {
		return "🌙"
	}
	return "☀️"
}

func themeLabel(dark bool) string {
	if dark {
		return "Dark"
	}
	return "Light"
}

// localTimestamp renders an RFC3339 instant the way a chat client
// would show it. Unparseable input passes through verbatim.
func localTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Format("1/2/2006, 3:04:05 PM")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// FormatMessage renders the Telegram notification text for one event.
// Section views get the compact template, everything else the full
// demographic dump.
func FormatMessage(ev event.TrackingEvent) string {
	if ev.EventType == event.TypeSectionView && ev.SectionName != "" {
		return formatSectionView(ev)
	}
	return formatPageLoad(ev)
}

func formatSectionView(ev event.TrackingEvent) string {
	return fmt.Sprintf(`%s <b>Section Navigation</b>

🆔 <b>Visitor:</b> <code>%s</code>
📌 <b>Section:</b> %s
%s <b>Device:</b> %s
🌐 <b>Browser:</b> %s %s
💻 <b>OS:</b> %s
%s <b>Theme:</b> %s
⌚ <b>Time:</b> %s`,
		event.SectionIcon(ev.SectionName),
		ev.VisitorID,
		event.SectionLabel(ev.SectionName),
		deviceEmoji(ev.DeviceType),
		orDefault(ev.DeviceName, "Unknown Device"),
		orDefault(ev.BrowserName, "Unknown"), ev.BrowserVersion,
		orDefault(ev.OS, "Unknown"),
		themeEmoji(ev.IsDarkMode),
		themeLabel(ev.IsDarkMode),
		localTimestamp(ev.Timestamp),
	)
}

func formatPageLoad(ev event.TrackingEvent) string {
	envEmoji, envLabel := "🚀", "Production"
	if ev.VisitedDomain == "localhost" {
		envEmoji, envLabel = "🧪", "Development"
	}

	return fmt.Sprintf(`%s <b>New Visitor</b>

🆔 <b>Visitor ID:</b> <code>%s</code>

%s <b>Environment:</b> %s
📍 <b>Domain:</b> %s

📍 <b>Location:</b> %s, %s
   Coordinates: %.2f°, %.2f°

📱 <b>Device:</b> %s
💻 <b>OS:</b> %s
🌐 <b>Browser:</b> %s %s
📶 <b>Connection:</b> %s
📏 <b>Screen Size:</b> %dx%d

%s <b>Theme:</b> %s Mode
🗣 <b>Language:</b> %s
⏰ <b>Timezone:</b> %s

🔗 <b>Referrer:</b> %s
🌍 <b>Visited URL:</b> %s
⌚ <b>Timestamp:</b> %s`,
		deviceEmoji(ev.DeviceType),
		ev.VisitorID,
		envEmoji, envLabel,
		orDefault(ev.VisitedDomain, "Unknown"),
		orDefault(ev.City, "Unknown"), orDefault(ev.Country, "Unknown"),
		ev.Latitude, ev.Longitude,
		orDefault(ev.DeviceName, "Unknown Device"),
		orDefault(ev.OS, "Unknown"),
		orDefault(ev.BrowserName, "Unknown"), ev.BrowserVersion,
		orDefault(ev.ConnectionType, "Unknown"),
		ev.ScreenWidth, ev.ScreenHeight,
		themeEmoji(ev.IsDarkMode),
		themeLabel(ev.IsDarkMode),
		orDefault(ev.Language, "Unknown"),
		orDefault(ev.Timezone, "Unknown"),
		orDefault(ev.Referrer, "Direct"),
		orDefault(ev.VisitedURL, "Unknown"),
		localTimestamp(ev.Timestamp),
	)
}
