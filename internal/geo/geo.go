package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/twmccart/watchface1/internal/weather"
)

// DefaultTimeout bounds a single position lookup.
const DefaultTimeout = 10 * time.Second

// ErrGeolocation is returned when no position could be obtained.
var ErrGeolocation = errors.New("geolocation unavailable")

// Locator resolves the position weather is fetched for.
type Locator interface {
	Locate(ctx context.Context) (weather.Coordinates, error)
}

// Geocoder resolves a configured place to coordinates with the Google
// Geocoding API. Each Locate is a single attempt.
type Geocoder struct {
	address geocoder.Address
	lookup  func(geocoder.Address) (geocoder.Location, error)
}

var apiKeyOnce sync.Once

// NewGeocoder returns a Geocoder for city/country. The geocoder library
// keeps its API key in a package variable, so only the first key set wins.
func NewGeocoder(apiKey, city, country string) (*Geocoder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: geocoder api key is not configured", ErrGeolocation)
	}
	if strings.TrimSpace(city) == "" {
		return nil, fmt.Errorf("%w: no city configured", ErrGeolocation)
	}

	apiKeyOnce.Do(func() { geocoder.ApiKey = apiKey })

	return &Geocoder{
		address: geocoder.Address{City: city, Country: country},
		lookup:  geocoder.Geocoding,
	}, nil
}

type lookupResult struct {
	loc geocoder.Location
	err error
}

// Locate performs one lookup. The geocoder call is not context-aware, so it
// runs on its own goroutine and is abandoned when ctx is done.
func (g *Geocoder) Locate(ctx context.Context) (weather.Coordinates, error) {
	ch := make(chan lookupResult, 1)
	go func() {
		loc, err := g.lookup(g.address)
		ch <- lookupResult{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return weather.Coordinates{}, fmt.Errorf("%w: %v", ErrGeolocation, ctx.Err())
	case res := <-ch:
		if res.err != nil {
			return weather.Coordinates{}, fmt.Errorf("%w: %v", ErrGeolocation, res.err)
		}
		return weather.Coordinates{Lat: res.loc.Latitude, Lon: res.loc.Longitude}, nil
	}
}
