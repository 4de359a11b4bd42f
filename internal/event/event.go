package event

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event types carried in TrackingEvent.EventType.
const (
	TypePageLoad    = "page_load"
	TypeSectionView = "section_view"
)

// DefaultSection is rendered inline on every page load, so tracking it
// as a section view would guarantee a duplicate beacon per visit.
const DefaultSection = "skills"

var sections = []string{"skills", "education", "experience", "projects", "resume"}

var sectionIcons = map[string]string{
	"education":  "🎓",
	"experience": "💼",
	"projects":   "🚀",
	"resume":     "📄",
}

// TrackingEvent is a single best-effort beacon about one page load or
// section navigation. Every field except Timestamp and UserAgent is
// optional; consumers substitute display defaults for what's missing.
type TrackingEvent struct {
	Timestamp      string  `json:"timestamp"`
	UserAgent      string  `json:"userAgent"`
	Language       string  `json:"language"`
	Timezone       string  `json:"timezone"`
	Country        string  `json:"country"`
	City           string  `json:"city"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	ScreenWidth    int     `json:"screenWidth"`
	ScreenHeight   int     `json:"screenHeight"`
	DeviceType     string  `json:"deviceType"`
	DeviceName     string  `json:"deviceName"`
	BrowserName    string  `json:"browserName"`
	BrowserVersion string  `json:"browserVersion"`
	OS             string  `json:"os"`
	ConnectionType string  `json:"connectionType"`
	Referrer       string  `json:"referrer"`
	IsDarkMode     bool    `json:"isDarkMode"`
	VisitedDomain  string  `json:"visitedDomain"`
	VisitedURL     string  `json:"visitedUrl"`
	VisitorID      string  `json:"visitorId"`
	EventType      string  `json:"eventType,omitempty"`
	SectionName    string  `json:"sectionName,omitempty"`
}

// Sections returns the fixed set of section identifiers, default first.
func Sections() []string {
	out := make([]string, len(sections))
	copy(out, sections)
	return out
}

// ValidSection reports whether name is one of the fixed section identifiers.
func ValidSection(name string) bool {
	for _, s := range sections {
		if s == name {
			return true
		}
	}
	return false
}

// SectionIcon returns the emoji marker for a section, with a generic
// pin for anything unrecognized.
func SectionIcon(name string) string {
	if icon, ok := sectionIcons[name]; ok {
		return icon
	}
	return "📍"
}

// SectionLabel is the display label for a section identifier.
func SectionLabel(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// NewVisitorID mints a session token. Tokens are opaque, live for one
// browser session, and are never required to be globally unique.
func NewVisitorID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("v_%d_%s", time.Now().UnixMilli(), suffix)
}
