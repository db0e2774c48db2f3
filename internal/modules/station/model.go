// README: Station catalog entities. Stations are loaded once and read-only afterwards.
package station

import (
	"context"

	"travellite/internal/types"
)

type Type string

const (
	TypeRailway Type = "railway"
	TypeAirport Type = "airport"
)

func (t Type) Valid() bool {
	return t == TypeRailway || t == TypeAirport
}

type OperatingHours struct {
	Open  string `json:"open" yaml:"open"`
	Close string `json:"close" yaml:"close"`
}

type Station struct {
	ID             types.ID            `json:"id" yaml:"id"`
	Code           string              `json:"code" yaml:"code"`
	Name           string              `json:"name" yaml:"name"`
	City           string              `json:"city" yaml:"city"`
	Type           Type                `json:"type" yaml:"type"`
	Coordinates    types.GeoCoordinate `json:"coordinates" yaml:"coordinates"`
	OperatingHours OperatingHours      `json:"operating_hours" yaml:"operating_hours"`
	// Popularity is the seeded baseline; live booking counts are added on top.
	Popularity int64 `json:"popularity" yaml:"popularity"`
}

type NearbyStation struct {
	Station
	DistanceKm float64 `json:"distance_km"`
}

// Catalog is the read-only lookup consumed by pricing and the booking lifecycle.
type Catalog interface {
	Lookup(ctx context.Context, id types.ID) (Station, error)
	Search(ctx context.Context, query string, t Type, limit int) ([]Station, error)
	ListPopular(ctx context.Context, t Type, limit int) ([]Station, error)
}

// Source is a backing store for station records.
type Source interface {
	Get(ctx context.Context, id types.ID) (Station, error)
	List(ctx context.Context, t Type) ([]Station, error)
}

const DefaultLimit = 10
