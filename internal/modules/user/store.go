// README: User directory store backed by PostgreSQL (read-only for this core).
package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"foodbridge/internal/types"
)

var ErrNotFound = errors.New("user not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, id types.ID) (*User, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, email, name, role,
               COALESCE(home_lat, 0), COALESCE(home_lon, 0),
               COALESCE(availability_time_from::text, ''), COALESCE(availability_time_to::text, '')
        FROM users
        WHERE id = $1`, int64(id),
	)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Home.Lat, &u.Home.Lng, &u.AvailableFrom, &u.AvailableTo)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindByRole(ctx context.Context, role string) ([]User, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, email, name, role,
               COALESCE(home_lat, 0), COALESCE(home_lon, 0),
               COALESCE(availability_time_from::text, ''), COALESCE(availability_time_to::text, '')
        FROM users
        WHERE role = $1`, role,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Home.Lat, &u.Home.Lng, &u.AvailableFrom, &u.AvailableTo); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
