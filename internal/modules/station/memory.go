// README: In-memory station source seeded from a YAML file.
package station

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"travellite/internal/modules/location"
	"travellite/internal/types"
)

type MemoryStore struct {
	byID    map[types.ID]Station
	ordered []Station
}

type seedFile struct {
	Stations []Station `yaml:"stations"`
}

// LoadYAML reads a station seed file of the form `stations: [...]`.
func LoadYAML(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read station seed %s: %w", path, err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse station seed %s: %w", path, err)
	}
	return NewMemoryStore(f.Stations)
}

func NewMemoryStore(stations []Station) (*MemoryStore, error) {
	s := &MemoryStore{byID: make(map[types.ID]Station, len(stations))}
	for _, st := range stations {
		if st.ID == "" {
			return nil, fmt.Errorf("station %q has no id", st.Name)
		}
		if !st.Type.Valid() {
			return nil, fmt.Errorf("station %s has unknown type %q", st.ID, st.Type)
		}
		if err := location.Validate(st.Coordinates); err != nil {
			return nil, fmt.Errorf("station %s: %w", st.ID, err)
		}
		if _, dup := s.byID[st.ID]; dup {
			return nil, fmt.Errorf("duplicate station id %s", st.ID)
		}
		s.byID[st.ID] = st
		s.ordered = append(s.ordered, st)
	}
	sort.SliceStable(s.ordered, func(i, j int) bool { return s.ordered[i].Name < s.ordered[j].Name })
	return s, nil
}

func (s *MemoryStore) Get(_ context.Context, id types.ID) (Station, error) {
	st, ok := s.byID[id]
	if !ok {
		return Station{}, ErrNotFound
	}
	return st, nil
}

func (s *MemoryStore) List(_ context.Context, t Type) ([]Station, error) {
	out := make([]Station, 0, len(s.ordered))
	for _, st := range s.ordered {
		if t == "" || st.Type == t {
			out = append(out, st)
		}
	}
	return out, nil
}
