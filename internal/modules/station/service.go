// README: Station catalog service: lookup, search, popular and nearby listings.
package station

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"

	"travellite/internal/modules/location"
	"travellite/internal/types"
)

var ErrNotFound = types.NotFound("station not found")

// Ranker supplies live popularity counts. It is optional.
type Ranker interface {
	Record(ctx context.Context, id types.ID) error
	Scores(ctx context.Context) (map[types.ID]int64, error)
}

type Service struct {
	source Source
	ranker Ranker
}

func NewService(source Source, ranker Ranker) *Service {
	return &Service{source: source, ranker: ranker}
}

var _ Catalog = (*Service)(nil)

func (s *Service) Lookup(ctx context.Context, id types.ID) (Station, error) {
	if id == "" {
		return Station{}, types.Validation("station_id", "station id is required")
	}
	return s.source.Get(ctx, id)
}

// Search matches query case-insensitively against name, code and city.
func (s *Service) Search(ctx context.Context, query string, t Type, limit int) ([]Station, error) {
	if t != "" && !t.Valid() {
		return nil, types.Validation("type", "station type must be railway or airport")
	}
	all, err := s.source.List(ctx, t)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	limit = normalizeLimit(limit)

	out := make([]Station, 0, limit)
	for _, st := range all {
		if q != "" &&
			!strings.Contains(strings.ToLower(st.Name), q) &&
			!strings.Contains(strings.ToLower(st.Code), q) &&
			!strings.Contains(strings.ToLower(st.City), q) {
			continue
		}
		out = append(out, st)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// ListPopular orders stations by seeded popularity plus live booking counts, descending.
func (s *Service) ListPopular(ctx context.Context, t Type, limit int) ([]Station, error) {
	if t != "" && !t.Valid() {
		return nil, types.Validation("type", "station type must be railway or airport")
	}
	all, err := s.source.List(ctx, t)
	if err != nil {
		return nil, err
	}
	if s.ranker != nil {
		scores, err := s.ranker.Scores(ctx)
		if err != nil {
			log.Printf("[STATION] action=popular msg=ranker unavailable, using seed popularity: %v", err)
		}
		for i := range all {
			all[i].Popularity += scores[all[i].ID]
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Popularity > all[j].Popularity })

	limit = normalizeLimit(limit)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Nearby lists stations within radiusKm of origin, closest first.
func (s *Service) Nearby(ctx context.Context, origin types.GeoCoordinate, radiusKm float64, limit int) ([]NearbyStation, error) {
	if err := location.Validate(origin); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		return nil, types.Validation("radius_km", "radius must be positive")
	}
	all, err := s.source.List(ctx, "")
	if err != nil {
		return nil, err
	}
	var out []NearbyStation
	for _, st := range all {
		d, err := location.Distance(origin, st.Coordinates)
		if err != nil {
			return nil, err
		}
		if d <= radiusKm {
			out = append(out, NearbyStation{Station: st, DistanceKm: location.RoundKm(d)})
		}
	}
	location.SortByDistance(out, func(n NearbyStation) float64 { return n.DistanceKm })

	limit = normalizeLimit(limit)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecordBooking bumps live popularity for both ends of a route. Failures are
// logged only; popularity is advisory.
func (s *Service) RecordBooking(ctx context.Context, ids ...types.ID) {
	if s.ranker == nil {
		return
	}
	for _, id := range ids {
		if err := s.ranker.Record(ctx, id); err != nil {
			log.Printf("[STATION] action=record_popularity station_id=%s msg=%v", id, err)
		}
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, types.ErrNotFound)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > 100 {
		return 100
	}
	return limit
}
