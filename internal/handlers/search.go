package handlers

import (
	"context"
	"sort"

	"github.com/mra-2007/TransitTrack/internal/models"
)

// Sort orders accepted by route search
const (
	SortDeparture = "departure"
	SortArrival   = "arrival"
	SortName      = "name"
)

// RouteQuery is a parsed route search
type RouteQuery struct {
	From    string
	To      string
	BusType models.BusType
	Sort    string
}

// expandLocation returns the location id together with its direct children, so a search
// from a city also finds routes that start at one of its stops
func expandLocation(ctx context.Context, repo LocationRepository, id string) (map[string]bool, error) {
	set := map[string]bool{id: true}
	children, err := repo.GetLocationsByParent(ctx, &id)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		set[c.ID] = true
	}
	return set, nil
}

// searchRoutes collects routes touching q.From (or its children) and, when q.To is set,
// keeps those whose opposite endpoint is q.To (or one of its children). Either travel
// direction matches.
func searchRoutes(ctx context.Context, repo LocationRepository, q RouteQuery) ([]models.RouteWithLocations, error) {
	fromSet, err := expandLocation(ctx, repo, q.From)
	if err != nil {
		return nil, err
	}

	var toSet map[string]bool
	if q.To != "" {
		if toSet, err = expandLocation(ctx, repo, q.To); err != nil {
			return nil, err
		}
	}

	// Iterate the from-set in a stable order so results are deterministic
	fromIDs := make([]string, 0, len(fromSet))
	for id := range fromSet {
		fromIDs = append(fromIDs, id)
	}
	sort.Strings(fromIDs)

	seen := make(map[string]bool)
	results := make([]models.RouteWithLocations, 0)
	for _, id := range fromIDs {
		routes, err := repo.GetRoutesByLocation(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, rw := range routes {
			if seen[rw.ID] {
				continue
			}
			if !matchesQuery(rw, q, fromSet, toSet) {
				continue
			}
			seen[rw.ID] = true
			results = append(results, rw)
		}
	}

	sortRoutes(results, q.Sort)
	return results, nil
}

func matchesQuery(rw models.RouteWithLocations, q RouteQuery, fromSet, toSet map[string]bool) bool {
	if q.BusType != "" && rw.BusType != q.BusType {
		return false
	}
	if toSet == nil {
		return true
	}
	forward := fromSet[rw.StartLocationID] && toSet[rw.EndLocationID]
	backward := fromSet[rw.EndLocationID] && toSet[rw.StartLocationID]
	return forward || backward
}

// sortRoutes orders by the display time strings; "HH:MM" compares correctly as text
func sortRoutes(routes []models.RouteWithLocations, order string) {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		switch order {
		case SortArrival:
			if a.EndTime != b.EndTime {
				return a.EndTime < b.EndTime
			}
		case SortName:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		default:
			if a.StartTime != b.StartTime {
				return a.StartTime < b.StartTime
			}
		}
		return a.Name < b.Name
	})
}
