// README: Catalog store backed by PostgreSQL; documents kept in the provider's typed encoding.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// batchGetLimit caps one bulk lookup, matching the upstream store's batch API.
const batchGetLimit = 100

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// BatchGet fetches and decodes the entries for the given IDs. Unknown IDs are
// silently skipped; result order follows the input order. At most
// batchGetLimit keys are looked up per call.
func (s *Store) BatchGet(ctx context.Context, ids []string) ([]Restaurant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > batchGetLimit {
		ids = ids[:batchGetLimit]
	}

	rows, err := s.db.Query(ctx, `
        SELECT business_id, doc
        FROM restaurants
        WHERE business_id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog batch get: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]Restaurant, len(ids))
	for rows.Next() {
		var id string
		var doc map[string]json.RawMessage
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("catalog scan: %w", err)
		}
		byID[id] = fromAttrs(id, decodeAttrMap(doc))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Restaurant, 0, len(byID))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// Put upserts one provider document. Loader path only.
func (s *Store) Put(ctx context.Context, id, cuisine string, doc json.RawMessage) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO restaurants (business_id, cuisine, doc, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (business_id)
        DO UPDATE SET cuisine = EXCLUDED.cuisine, doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		id, cuisine, doc, time.Now().UTC(),
	)
	return err
}

// All streams every entry's ID, cuisine, and raw doc to fn. Loader path only.
func (s *Store) All(ctx context.Context, fn func(id, cuisine string, doc json.RawMessage) error) error {
	rows, err := s.db.Query(ctx, `SELECT business_id, cuisine, doc FROM restaurants`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, cuisine string
		var doc json.RawMessage
		if err := rows.Scan(&id, &cuisine, &doc); err != nil {
			return err
		}
		if err := fn(id, cuisine, doc); err != nil {
			return err
		}
	}
	return rows.Err()
}
