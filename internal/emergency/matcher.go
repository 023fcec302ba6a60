// Package emergency matches roadside requests with the providers that can reach them.
package emergency

import (
	"sort"

	"github.com/ukydev/mashinman/internal/geo"
	"github.com/ukydev/mashinman/internal/models"
)

// DefaultSearchRadiusKm applies when a requester does not choose a radius.
const DefaultSearchRadiusKm = 10.0

// SearchRadius returns r, or the default when r is not positive.
func SearchRadius(r float64) float64 {
	if r <= 0 {
		return DefaultSearchRadiusKm
	}
	return r
}

// FindNearby returns the active providers whose distance from origin is within
// both radiusKm and the provider's own service radius. Providers without a
// recorded location are skipped. The result is in input order.
func FindNearby(origin models.Location, radiusKm float64, providers []models.Provider) []models.ProviderMatch {
	matches := make([]models.ProviderMatch, 0)
	for _, p := range providers {
		if !p.IsActive || p.Location == nil {
			continue
		}
		d := geo.Distance(origin, *p.Location)
		if d <= min(radiusKm, p.ServiceRadius) {
			matches = append(matches, models.ProviderMatch{Provider: p, DistanceKm: d})
		}
	}
	return matches
}

// SortByDistance orders matches nearest first.
func SortByDistance(matches []models.ProviderMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})
}

// FilterByServiceType keeps providers offering serviceType. An empty type keeps all.
func FilterByServiceType(providers []models.Provider, serviceType string) []models.Provider {
	if serviceType == "" {
		return providers
	}
	out := make([]models.Provider, 0, len(providers))
	for _, p := range providers {
		for _, t := range p.ServiceTypes {
			if t == serviceType {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// ProviderIDs returns the hex IDs of the matched providers.
func ProviderIDs(matches []models.ProviderMatch) []string {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID.Hex())
	}
	return ids
}
