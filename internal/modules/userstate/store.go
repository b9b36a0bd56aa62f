// README: User state store backed by PostgreSQL (get/upsert of the last search).
package userstate

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"concierge/internal/types"
)

var ErrNotFound = errors.New("user state not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Save upserts the record. Concurrent writers race benignly: the row holds
// "most recent", not an aggregate, so last-write-wins is the contract.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	var email *string
	if rec.LastEmail != nil && *rec.LastEmail != "" {
		email = rec.LastEmail
	}
	_, err := s.db.Exec(ctx, `
        INSERT INTO user_last_search (user_id, last_location, last_cuisine, last_email, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id)
        DO UPDATE SET last_location = EXCLUDED.last_location,
                      last_cuisine  = EXCLUDED.last_cuisine,
                      last_email    = EXCLUDED.last_email,
                      updated_at    = EXCLUDED.updated_at`,
		string(rec.UserID), rec.LastLocation, rec.LastCuisine, email, rec.UpdatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, userID types.ID) (*Record, error) {
	row := s.db.QueryRow(ctx, `
        SELECT user_id, last_location, last_cuisine, last_email, updated_at
        FROM user_last_search
        WHERE user_id = $1`, string(userID),
	)

	var rec Record
	var email sql.NullString
	err := row.Scan(&rec.UserID, &rec.LastLocation, &rec.LastCuisine, &email, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if email.Valid {
		rec.LastEmail = &email.String
	}
	return &rec, nil
}
