package emergency

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/mashinman/internal/geo"
	"github.com/ukydev/mashinman/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var origin = models.Location{Lat: 35.7000, Lon: 51.4000}

// northOf places a point km kilometers due north of origin.
func northOf(km float64) *models.Location {
	kmPerDegree := geo.EarthRadiusKm * math.Pi / 180
	return &models.Location{Lat: origin.Lat + km/kmPerDegree, Lon: origin.Lon}
}

func provider(name string, km, radius float64) models.Provider {
	return models.Provider{
		ID:            primitive.NewObjectID(),
		Name:          name,
		Location:      northOf(km),
		ServiceRadius: radius,
		IsActive:      true,
	}
}

func names(matches []models.ProviderMatch) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Name)
	}
	return out
}

func TestFindNearby_SearchRadiusBinds(t *testing.T) {
	providers := []models.Provider{
		provider("near", 5, 20),
		provider("far", 15, 20),
	}

	matches := FindNearby(origin, 10, providers)
	require.Len(t, matches, 1)
	assert.Equal(t, "near", matches[0].Name)
	assert.InDelta(t, 5, matches[0].DistanceKm, 0.01)
}

func TestFindNearby_ProviderRadiusBinds(t *testing.T) {
	providers := []models.Provider{
		provider("near-small-area", 5, 3),
		provider("far", 15, 20),
	}

	assert.Empty(t, FindNearby(origin, 10, providers))
}

func TestFindNearby_Eligibility(t *testing.T) {
	inactive := provider("inactive", 1, 20)
	inactive.IsActive = false
	noLocation := provider("no-location", 1, 20)
	noLocation.Location = nil
	colocated := provider("colocated", 0, 1)

	matches := FindNearby(origin, 10, []models.Provider{inactive, noLocation, colocated})
	assert.Equal(t, []string{"colocated"}, names(matches))
	assert.InDelta(t, 0, matches[0].DistanceKm, 1e-9)
}

func TestFindNearby_RadiusEdges(t *testing.T) {
	p := provider("edge", 0, 10)
	p.Location = &models.Location{Lat: origin.Lat, Lon: origin.Lon}
	d := 10.0
	matches := FindNearby(origin, d, []models.Provider{p})
	assert.Len(t, matches, 1)

	p.Location = northOf(d - 0.001)
	assert.Len(t, FindNearby(origin, d, []models.Provider{p}), 1)
	assert.Empty(t, FindNearby(origin, d-0.01, []models.Provider{p}))
}

func TestFindNearby_Antipodal(t *testing.T) {
	p := provider("other side", 0, 30000)
	p.Location = &models.Location{Lat: -origin.Lat, Lon: origin.Lon - 180}
	assert.Empty(t, FindNearby(origin, 100, []models.Provider{p}))
	assert.Len(t, FindNearby(origin, 30000, []models.Provider{p}), 1)
}

func TestFindNearby_EmptyInput(t *testing.T) {
	matches := FindNearby(origin, 10, nil)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestSortByDistance(t *testing.T) {
	matches := FindNearby(origin, 50, []models.Provider{
		provider("b", 8, 50),
		provider("a", 2, 50),
		provider("c", 30, 50),
	})
	SortByDistance(matches)
	assert.Equal(t, []string{"a", "b", "c"}, names(matches))
}

func TestFilterByServiceType(t *testing.T) {
	tow := provider("tow", 1, 10)
	tow.ServiceTypes = []string{"towing"}
	battery := provider("battery", 1, 10)
	battery.ServiceTypes = []string{"battery", "fuel"}

	all := []models.Provider{tow, battery}
	assert.Len(t, FilterByServiceType(all, ""), 2)

	got := FilterByServiceType(all, "fuel")
	assert.Len(t, got, 1)
	assert.Equal(t, "battery", got[0].Name)
}

func TestSearchRadius(t *testing.T) {
	assert.Equal(t, DefaultSearchRadiusKm, SearchRadius(0))
	assert.Equal(t, DefaultSearchRadiusKm, SearchRadius(-3))
	assert.Equal(t, 25.0, SearchRadius(25))
}

func TestProviderIDs(t *testing.T) {
	p := provider("x", 1, 10)
	ids := ProviderIDs([]models.ProviderMatch{{Provider: p}})
	assert.Equal(t, []string{p.ID.Hex()}, ids)
}
