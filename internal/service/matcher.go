package service

import (
	"sort"

	"github.com/repair-match-api/internal/geo"
	"github.com/repair-match-api/internal/repository"
)

// Candidate represents a provider eligible for assignment to a request
type Candidate struct {
	ProviderID      string    `json:"provider_id"`
	Name            string    `json:"name"`
	Location        geo.Point `json:"location"`
	ServiceRadiusKm float64   `json:"service_radius_km"`
	DistanceKm      float64   `json:"distance_km"`
}

// RankCandidates filters candidate rows to those whose service radius covers
// the distance to origin (the boundary is inclusive, so a provider exactly at
// the radius edge qualifies) and sorts them nearest first. Equal distances
// are broken by ascending provider ID, making the ordering total and the
// selection deterministic regardless of fetch order.
func RankCandidates(rows []repository.CandidateRow, origin geo.Point) []Candidate {
	eligible := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		loc := geo.Point{Latitude: row.Latitude, Longitude: row.Longitude}
		distance := geo.Distance(loc, origin)
		if distance > row.ServiceRadiusKm {
			continue
		}
		eligible = append(eligible, Candidate{
			ProviderID:      row.ProviderID,
			Name:            row.Name,
			Location:        loc,
			ServiceRadiusKm: row.ServiceRadiusKm,
			DistanceKm:      distance,
		})
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].DistanceKm != eligible[j].DistanceKm {
			return eligible[i].DistanceKm < eligible[j].DistanceKm
		}
		return eligible[i].ProviderID < eligible[j].ProviderID
	})

	return eligible
}
