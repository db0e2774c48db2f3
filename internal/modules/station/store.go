// README: Station source backed by PostgreSQL.
package station

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"travellite/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const stationColumns = `id, code, name, city, type, latitude, longitude, open_time, close_time, popularity`

func (s *Store) Get(ctx context.Context, id types.ID) (Station, error) {
	row := s.db.QueryRow(ctx, `SELECT `+stationColumns+` FROM stations WHERE id = $1`, string(id))
	st, err := scanStation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Station{}, ErrNotFound
	}
	return st, err
}

func (s *Store) List(ctx context.Context, t Type) ([]Station, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+stationColumns+`
		FROM stations
		WHERE $1 = '' OR type = $1
		ORDER BY name`, string(t),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Station
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Upsert seeds or refreshes a station row.
func (s *Store) Upsert(ctx context.Context, st Station) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO stations (`+stationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code,
			name = EXCLUDED.name,
			city = EXCLUDED.city,
			type = EXCLUDED.type,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			open_time = EXCLUDED.open_time,
			close_time = EXCLUDED.close_time,
			popularity = EXCLUDED.popularity`,
		string(st.ID), st.Code, st.Name, st.City, string(st.Type),
		st.Coordinates.Latitude, st.Coordinates.Longitude,
		st.OperatingHours.Open, st.OperatingHours.Close, st.Popularity,
	)
	return err
}

func scanStation(row pgx.Row) (Station, error) {
	var st Station
	var id, typ string
	err := row.Scan(
		&id, &st.Code, &st.Name, &st.City, &typ,
		&st.Coordinates.Latitude, &st.Coordinates.Longitude,
		&st.OperatingHours.Open, &st.OperatingHours.Close, &st.Popularity,
	)
	if err != nil {
		return Station{}, err
	}
	st.ID = types.ID(id)
	st.Type = Type(typ)
	return st, nil
}
