package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/oschwald/geoip2-golang"
)

// Default endpoints for the public lookup services. Tests point these
// constructors at httptest servers instead.
const (
	IPAPICoURL  = "https://ipapi.co"
	IPAPIComURL = "http://ip-api.com"
	IPWhoIsURL  = "https://ipwho.is"
)

const lookupTimeout = 3 * time.Second

func lookupClient() *http.Client {
	return &http.Client{Timeout: lookupTimeout}
}

func fetchJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// IPAPICo queries ipapi.co (GET /{ip}/json/).
type IPAPICo struct {
	baseURL string
	client  *http.Client
}

func NewIPAPICo(baseURL string) *IPAPICo {
	if baseURL == "" {
		baseURL = IPAPICoURL
	}
	return &IPAPICo{baseURL: baseURL, client: lookupClient()}
}

func (p *IPAPICo) Name() string { return "ipapi.co" }

func (p *IPAPICo) Lookup(ctx context.Context, ip string) (Location, error) {
	var body struct {
		CountryName string  `json:"country_name"`
		City        string  `json:"city"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		Error       bool    `json:"error"`
		Reason      string  `json:"reason"`
	}
	url := fmt.Sprintf("%s/%s/json/", p.baseURL, ip)
	if err := fetchJSON(ctx, p.client, url, &body); err != nil {
		return Location{}, err
	}
	if body.Error {
		return Location{}, fmt.Errorf("ipapi.co: %s", body.Reason)
	}
	return Location{
		Country:   body.CountryName,
		City:      body.City,
		Latitude:  body.Latitude,
		Longitude: body.Longitude,
	}, nil
}

// IPAPICom queries ip-api.com (GET /json/{ip}).
type IPAPICom struct {
	baseURL string
	client  *http.Client
}

func NewIPAPICom(baseURL string) *IPAPICom {
	if baseURL == "" {
		baseURL = IPAPIComURL
	}
	return &IPAPICom{baseURL: baseURL, client: lookupClient()}
}

func (p *IPAPICom) Name() string { return "ip-api.com" }

func (p *IPAPICom) Lookup(ctx context.Context, ip string) (Location, error) {
	var body struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Country string  `json:"country"`
		City    string  `json:"city"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	url := fmt.Sprintf("%s/json/%s", p.baseURL, ip)
	if err := fetchJSON(ctx, p.client, url, &body); err != nil {
		return Location{}, err
	}
	if body.Status != "success" {
		return Location{}, fmt.Errorf("ip-api.com: %s", body.Message)
	}
	return Location{
		Country:   body.Country,
		City:      body.City,
		Latitude:  body.Lat,
		Longitude: body.Lon,
	}, nil
}

// IPWhoIs queries ipwho.is (GET /{ip}).
type IPWhoIs struct {
	baseURL string
	client  *http.Client
}

func NewIPWhoIs(baseURL string) *IPWhoIs {
	if baseURL == "" {
		baseURL = IPWhoIsURL
	}
	return &IPWhoIs{baseURL: baseURL, client: lookupClient()}
}

func (p *IPWhoIs) Name() string { return "ipwho.is" }

func (p *IPWhoIs) Lookup(ctx context.Context, ip string) (Location, error) {
	var body struct {
		Success   bool    `json:"success"`
		Message   string  `json:"message"`
		Country   string  `json:"country"`
		City      string  `json:"city"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	url := fmt.Sprintf("%s/%s", p.baseURL, ip)
	if err := fetchJSON(ctx, p.client, url, &body); err != nil {
		return Location{}, err
	}
	if !body.Success {
		return Location{}, fmt.Errorf("ipwho.is: %s", body.Message)
	}
	return Location{
		Country:   body.Country,
		City:      body.City,
		Latitude:  body.Latitude,
		Longitude: body.Longitude,
	}, nil
}

// MaxMind resolves from a local GeoLite2/GeoIP2 City database. It is
// placed ahead of the network providers when a database is configured.
type MaxMind struct {
	reader *geoip2.Reader
}

func NewMaxMind(path string) (*MaxMind, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geo database %s: %w", path, err)
	}
	return &MaxMind{reader: reader}, nil
}

func (p *MaxMind) Name() string { return "maxmind" }

func (p *MaxMind) Lookup(_ context.Context, ip string) (Location, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Location{}, fmt.Errorf("invalid ip %q", ip)
	}
	record, err := p.reader.City(parsed)
	if err != nil {
		return Location{}, err
	}
	loc := Location{
		Latitude:  record.Location.Latitude,
		Longitude: record.Location.Longitude,
	}
	if name, ok := record.Country.Names["en"]; ok && name != "" {
		loc.Country = name
	} else {
		loc.Country = record.Country.IsoCode
	}
	loc.City = record.City.Names["en"]
	return loc, nil
}

func (p *MaxMind) Close() error {
	return p.reader.Close()
}
