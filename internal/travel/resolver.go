package travel

import (
	"context"
	"log"

	"traffic/models"
	"traffic/pkg/geocode"
)

// Geocoder is the contract for the address/position collaborator.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]geocode.Result, error)
	Reverse(ctx context.Context, pos models.Coordinates) (string, error)
}

// Resolver fills in whichever of a location's address or position is
// missing using the other.
type Resolver struct {
	geocoder Geocoder
}

func NewResolver(geocoder Geocoder) *Resolver {
	return &Resolver{geocoder: geocoder}
}

// Resolve completes loc using the geocoder, disambiguating multiple
// forward-geocoding hits by proximity to ref. When both fields are already
// present it is a no-op returning true. On any failure it returns false
// and leaves the record unchanged; there is no retry.
func (r *Resolver) Resolve(ctx context.Context, loc *models.Location, ref models.Coordinates) bool {
	switch {
	case loc.HasPosition() && loc.Address != "":
		return true

	case loc.HasPosition():
		address, err := r.geocoder.Reverse(ctx, *loc.Position)
		if err != nil {
			log.Printf("Reverse geocode for %q failed: %v", loc.Name, err)
			return false
		}
		loc.Address = address
		return true

	case loc.Address != "":
		results, err := r.geocoder.Search(ctx, loc.Address)
		if err != nil {
			log.Printf("Geocode of %q failed: %v", loc.Address, err)
			return false
		}
		best := nearest(results, ref)
		loc.Position = &models.Coordinates{Lat: best.Position.Lat, Lon: best.Position.Lon}
		return true

	default:
		// Neither field present; nothing to resolve from.
		return false
	}
}

// nearest picks the candidate closest to the reference position.
func nearest(results []geocode.Result, ref models.Coordinates) geocode.Result {
	best := results[0]
	bestDist := ref.DistanceTo(best.Position)
	for _, candidate := range results[1:] {
		if d := ref.DistanceTo(candidate.Position); d < bestDist {
			best = candidate
			bestDist = d
		}
	}
	return best
}
