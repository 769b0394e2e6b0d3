// Package seed loads a YAML dataset of locations, routes, buses and schedules into a
// transport store. Entities refer to each other by file-local keys which are swapped for
// store-assigned ids on import.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mra-2007/TransitTrack/internal/models"
	"github.com/mra-2007/TransitTrack/internal/repository"
)

//go:embed default.yml
var defaultDataset []byte

// Dataset is the root of a seed file
type Dataset struct {
	Locations []Location `yaml:"locations"`
	Routes    []Route    `yaml:"routes"`
	Buses     []Bus      `yaml:"buses"`
	Schedules []Schedule `yaml:"schedules"`
}

// Location may nest its children; a nested child's parent is implied
type Location struct {
	Key          string              `yaml:"key"`
	Name         string              `yaml:"name"`
	Type         models.LocationType `yaml:"type"`
	Parent       string              `yaml:"parent,omitempty"`
	SubLocations []Location          `yaml:"subLocations,omitempty"`
}

type Route struct {
	Key       string         `yaml:"key"`
	Name      string         `yaml:"name"`
	Start     string         `yaml:"start"`
	End       string         `yaml:"end"`
	BusType   models.BusType `yaml:"busType"`
	StartTime string         `yaml:"startTime"`
	EndTime   string         `yaml:"endTime"`
}

type Bus struct {
	Route     string           `yaml:"route"`
	BusNumber string           `yaml:"busNumber"`
	Status    models.BusStatus `yaml:"status"`
	Latitude  *string          `yaml:"latitude,omitempty"`
	Longitude *string          `yaml:"longitude,omitempty"`
}

type Schedule struct {
	Route            string                `yaml:"route"`
	DepartureTime    string                `yaml:"departureTime"`
	EstimatedArrival *string               `yaml:"estimatedArrival,omitempty"`
	ActualArrival    *string               `yaml:"actualArrival,omitempty"`
	Status           models.ScheduleStatus `yaml:"status"`
}

// Result maps seed keys to the ids the store generated. The counts include entries
// without a key.
type Result struct {
	Locations map[string]string
	Routes    map[string]string

	LocationCount int
	RouteCount    int
	Buses         int
	Schedules     int
}

// Parse decodes a YAML dataset
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}
	return &ds, nil
}

// Default returns the embedded demo dataset
func Default() (*Dataset, error) {
	return Parse(defaultDataset)
}

// Load reads a dataset from path, or the embedded default when path is empty
func Load(path string) (*Dataset, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Apply inserts the dataset in dependency order: locations (parents first), routes, buses,
// schedules. A reference that matches no key is passed through as a raw id, which the store
// accepts without checking.
func Apply(ctx context.Context, store repository.Store, ds *Dataset) (*Result, error) {
	res := &Result{
		Locations: make(map[string]string),
		Routes:    make(map[string]string),
	}

	for _, loc := range ds.Locations {
		if err := applyLocation(ctx, store, loc, nil, res); err != nil {
			return nil, err
		}
	}

	for _, r := range ds.Routes {
		insert := models.InsertRoute{
			Name:            r.Name,
			StartLocationID: resolve(res.Locations, r.Start),
			EndLocationID:   resolve(res.Locations, r.End),
			BusType:         r.BusType,
			StartTime:       r.StartTime,
			EndTime:         r.EndTime,
		}
		if err := insert.Validate(); err != nil {
			return nil, fmt.Errorf("route %q: %w", r.Key, err)
		}
		route, err := store.CreateRoute(ctx, insert)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", r.Key, err)
		}
		res.RouteCount++
		if r.Key != "" {
			res.Routes[r.Key] = route.ID
		}
	}

	for _, b := range ds.Buses {
		insert := models.InsertBus{
			RouteID:          resolve(res.Routes, b.Route),
			BusNumber:        b.BusNumber,
			CurrentLatitude:  b.Latitude,
			CurrentLongitude: b.Longitude,
			Status:           b.Status,
		}
		if err := insert.Validate(); err != nil {
			return nil, fmt.Errorf("bus %q: %w", b.BusNumber, err)
		}
		if _, err := store.CreateBus(ctx, insert); err != nil {
			return nil, fmt.Errorf("bus %q: %w", b.BusNumber, err)
		}
		res.Buses++
	}

	for _, s := range ds.Schedules {
		insert := models.InsertSchedule{
			RouteID:          resolve(res.Routes, s.Route),
			DepartureTime:    s.DepartureTime,
			EstimatedArrival: s.EstimatedArrival,
			ActualArrival:    s.ActualArrival,
			Status:           s.Status,
		}
		if err := insert.Validate(); err != nil {
			return nil, fmt.Errorf("schedule %s@%s: %w", s.Route, s.DepartureTime, err)
		}
		if _, err := store.CreateSchedule(ctx, insert); err != nil {
			return nil, fmt.Errorf("schedule %s@%s: %w", s.Route, s.DepartureTime, err)
		}
		res.Schedules++
	}

	zap.S().Infof("Seeded %d locations, %d routes, %d buses, %d schedules",
		res.LocationCount, res.RouteCount, res.Buses, res.Schedules)
	return res, nil
}

func applyLocation(ctx context.Context, store repository.Store, loc Location, parentID *string, res *Result) error {
	insert := models.InsertLocation{
		Name:             loc.Name,
		Type:             loc.Type,
		ParentLocationID: parentID,
	}
	if parentID == nil && loc.Parent != "" {
		p := resolve(res.Locations, loc.Parent)
		insert.ParentLocationID = &p
	}
	if err := insert.Validate(); err != nil {
		return fmt.Errorf("location %q: %w", loc.Key, err)
	}

	created, err := store.CreateLocation(ctx, insert)
	if err != nil {
		return fmt.Errorf("location %q: %w", loc.Key, err)
	}
	res.LocationCount++
	if loc.Key != "" {
		res.Locations[loc.Key] = created.ID
	}

	for _, child := range loc.SubLocations {
		if err := applyLocation(ctx, store, child, &created.ID, res); err != nil {
			return err
		}
	}
	return nil
}

func resolve(keys map[string]string, ref string) string {
	if id, ok := keys[ref]; ok {
		return id
	}
	return ref
}
