// Package geo resolves a coarse location for an IP address through an
// ordered chain of lookup providers. Resolution is best-effort: the
// first provider returning a well-formed location wins, and when every
// provider fails the caller gets the Unknown location instead of an
// error.
package geo

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Location is a coarse, best-effort position.
type Location struct {
	Country   string  `json:"country"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Unknown is the fallback location used when every lookup fails.
func Unknown() Location {
	return Location{Country: "Unknown", City: "Unknown"}
}

// WellFormed reports whether a lookup result is usable. A usable
// location carries both a country and a city.
func (l Location) WellFormed() bool {
	return l.Country != "" && l.City != ""
}

// Provider is one independent location source.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, ip string) (Location, error)
}

// Chain tries providers in fixed priority order.
type Chain struct {
	providers []Provider
}

func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Resolve returns the first well-formed location, or Unknown when the
// whole chain fails. Failures are logged at debug level only; no
// lookup error ever reaches the caller.
func (c *Chain) Resolve(ctx context.Context, ip string) Location {
	if c == nil {
		return Unknown()
	}
	for _, p := range c.providers {
		loc, err := p.Lookup(ctx, ip)
		if err != nil {
			log.Debug().Str("provider", p.Name()).Str("ip", ip).Err(err).Msg("geo lookup failed")
			continue
		}
		if !loc.WellFormed() {
			log.Debug().Str("provider", p.Name()).Str("ip", ip).Msg("geo lookup returned incomplete location")
			continue
		}
		return loc
	}
	return Unknown()
}
