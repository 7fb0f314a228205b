package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repair-match-api/internal/geo"
	"github.com/repair-match-api/internal/repository"
)

// requestOrigin is a fixed reference point (Bengaluru)
var requestOrigin = geo.Point{Latitude: 12.9716, Longitude: 77.5946}

// offsetKmNorth returns a point roughly km kilometers north of origin.
// One degree of latitude is ~111.19 km.
func offsetKmNorth(origin geo.Point, km float64) geo.Point {
	return geo.Point{Latitude: origin.Latitude + km/111.19, Longitude: origin.Longitude}
}

func TestRankCandidatesSortedByDistance(t *testing.T) {
	rows := []repository.CandidateRow{
		{ProviderID: "p-far", Name: "Far", Latitude: offsetKmNorth(requestOrigin, 8).Latitude, Longitude: requestOrigin.Longitude, ServiceRadiusKm: 10},
		{ProviderID: "p-near", Name: "Near", Latitude: offsetKmNorth(requestOrigin, 2).Latitude, Longitude: requestOrigin.Longitude, ServiceRadiusKm: 10},
		{ProviderID: "p-mid", Name: "Mid", Latitude: offsetKmNorth(requestOrigin, 5).Latitude, Longitude: requestOrigin.Longitude, ServiceRadiusKm: 10},
	}

	ranked := RankCandidates(rows, requestOrigin)

	require.Len(t, ranked, 3)
	assert.Equal(t, "p-near", ranked[0].ProviderID)
	assert.Equal(t, "p-mid", ranked[1].ProviderID)
	assert.Equal(t, "p-far", ranked[2].ProviderID)

	for i := 1; i < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i-1].DistanceKm, ranked[i].DistanceKm)
	}
	for _, c := range ranked {
		assert.LessOrEqual(t, c.DistanceKm, c.ServiceRadiusKm)
	}
}

func TestRankCandidatesExcludesOutOfRange(t *testing.T) {
	rows := []repository.CandidateRow{
		{ProviderID: "p-out", Latitude: offsetKmNorth(requestOrigin, 15).Latitude, Longitude: requestOrigin.Longitude, ServiceRadiusKm: 10},
		{ProviderID: "p-in", Latitude: offsetKmNorth(requestOrigin, 3).Latitude, Longitude: requestOrigin.Longitude, ServiceRadiusKm: 10},
	}

	ranked := RankCandidates(rows, requestOrigin)

	require.Len(t, ranked, 1)
	assert.Equal(t, "p-in", ranked[0].ProviderID)
}

func TestRankCandidatesRadiusBoundaryInclusive(t *testing.T) {
	loc := offsetKmNorth(requestOrigin, 7)
	exact := geo.Distance(loc, requestOrigin)

	rows := []repository.CandidateRow{
		{ProviderID: "p-edge", Latitude: loc.Latitude, Longitude: loc.Longitude, ServiceRadiusKm: exact},
	}

	ranked := RankCandidates(rows, requestOrigin)

	require.Len(t, ranked, 1, "a provider exactly at the radius edge is eligible")
	assert.Equal(t, "p-edge", ranked[0].ProviderID)
}

func TestRankCandidatesEqualDistanceTiebreakByID(t *testing.T) {
	loc := offsetKmNorth(requestOrigin, 4)

	rows := []repository.CandidateRow{
		{ProviderID: "p-bravo", Latitude: loc.Latitude, Longitude: loc.Longitude, ServiceRadiusKm: 10},
		{ProviderID: "p-alpha", Latitude: loc.Latitude, Longitude: loc.Longitude, ServiceRadiusKm: 10},
	}

	ranked := RankCandidates(rows, requestOrigin)

	require.Len(t, ranked, 2)
	assert.Equal(t, "p-alpha", ranked[0].ProviderID)
	assert.Equal(t, "p-bravo", ranked[1].ProviderID)
}

func TestRankCandidatesEmptyInput(t *testing.T) {
	assert.Empty(t, RankCandidates(nil, requestOrigin))
}
