// README: Forward geocoding of free-text pickup locations via Google Maps.
package geocode

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"foodbridge/internal/types"
)

var ErrNoResult = errors.New("no geocoding result")

// Geocoder resolves a postal-style address into coordinates. It is an
// optional collaborator: the inventory service accepts a nil geocoder and
// leaves coordinate-less listings as they arrive.
type Geocoder struct {
	client *maps.Client
}

func New(apiKey string) (*Geocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &Geocoder{client: client}, nil
}

func (g *Geocoder) Geocode(ctx context.Context, address string) (types.Point, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return types.Point{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	if len(results) == 0 {
		return types.Point{}, ErrNoResult
	}
	loc := results[0].Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
