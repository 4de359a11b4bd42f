// Package detect classifies a raw User-Agent string into best-effort
// device, browser and OS labels. Detection never fails: every branch
// bottoms out in an "Unknown" fallback.
package detect

import (
	"regexp"

	"github.com/mssola/useragent"
)

// Device type labels.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceUnknown = "unknown"
)

const UnknownDevice = "Unknown Device"

var (
	tabletRe  = regexp.MustCompile(`(?i)ipad|tablet`)
	mobileRe  = regexp.MustCompile(`(?i)mobile|iphone|ipod|blackberry|iemobile|opera mini`)
	androidRe = regexp.MustCompile(`(?i)android`)
)

type namePattern struct {
	re    *regexp.Regexp
	label string
}

// Checked in order; first match wins. Android vendor models before the
// generic Android bucket, Windows versions before plain Windows.
var namePatterns = []namePattern{
	{regexp.MustCompile(`(?i)iPhone`), "iPhone"},
	{regexp.MustCompile(`(?i)iPad`), "iPad"},
	{regexp.MustCompile(`(?i)SM-G|Galaxy`), "Samsung Galaxy"},
	{regexp.MustCompile(`(?i)Pixel`), "Google Pixel"},
	{regexp.MustCompile(`(?i)OnePlus`), "OnePlus"},
	{regexp.MustCompile(`(?i)Xiaomi|Redmi`), "Xiaomi"},
	{regexp.MustCompile(`(?i)Android`), "Android Device"},
	{regexp.MustCompile(`(?i)Windows NT 10\.0`), "Windows 10/11"},
	{regexp.MustCompile(`(?i)Windows NT 6\.3`), "Windows 8.1"},
	{regexp.MustCompile(`(?i)Windows|Win32`), "Windows"},
	{regexp.MustCompile(`(?i)Linux`), "Linux"},
	{regexp.MustCompile(`(?i)Firefox`), "Linux/Firefox"},
}

var (
	iosRe    = regexp.MustCompile(`(?i)iPhone|iPad`)
	macRe    = regexp.MustCompile(`(?i)MacOS|Macintosh`)
	safariRe = regexp.MustCompile(`(?i)Safari`)
	chromeRe = regexp.MustCompile(`(?i)Chrome`)
	edgeRe   = regexp.MustCompile(`(?i)Edge|Chromium`)
)

// Result holds the classified signals for one User-Agent string.
type Result struct {
	DeviceType     string
	DeviceName     string
	BrowserName    string
	BrowserVersion string
	OS             string
}

// Classify parses ua into device, browser and OS labels.
func Classify(ua string) Result {
	if ua == "" {
		return Result{
			DeviceType:     DeviceUnknown,
			DeviceName:     UnknownDevice,
			BrowserName:    "Unknown",
			BrowserVersion: "",
			OS:             "Unknown",
		}
	}

	r := Result{
		DeviceType: deviceType(ua),
		DeviceName: deviceName(ua),
	}

	parsed := useragent.New(ua)
	r.BrowserName, r.BrowserVersion = parsed.Browser()
	if r.BrowserName == "" {
		r.BrowserName = "Unknown"
	}
	r.OS = parsed.OS()
	if r.OS == "" {
		r.OS = "Unknown"
	}
	return r
}

func deviceType(ua string) string {
	switch {
	case tabletRe.MatchString(ua):
		return DeviceTablet
	case mobileRe.MatchString(ua):
		return DeviceMobile
	case androidRe.MatchString(ua):
		// Android without a "Mobile" token is a tablet form factor.
		return DeviceTablet
	default:
		return DeviceDesktop
	}
}

func deviceName(ua string) string {
	// Mac needs a browser-aware special case before the generic table.
	if !iosRe.MatchString(ua) && macRe.MatchString(ua) {
		if safariRe.MatchString(ua) && !chromeRe.MatchString(ua) {
			return "Mac (Safari)"
		}
		return "Mac"
	}
	for _, p := range namePatterns {
		if p.re.MatchString(ua) {
			return p.label
		}
	}
	if chromeRe.MatchString(ua) && !edgeRe.MatchString(ua) {
		return "Chrome OS"
	}
	return UnknownDevice
}
