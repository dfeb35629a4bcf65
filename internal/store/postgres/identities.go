package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/smartcam/internal/store"
)

// IdentityRepository persists per-session face identities with their
// descriptors as pgvector columns.
type IdentityRepository struct {
	pool *Pool
}

// NewIdentityRepository creates a new PostgreSQL identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// Save upserts one identity and returns its row id.
func (r *IdentityRepository) Save(ctx context.Context, identity store.StoredIdentity) (int64, error) {
	if len(identity.Descriptor) == 0 {
		return 0, fmt.Errorf("identity %d has no descriptor", identity.TrackID)
	}

	query := `
		INSERT INTO identities (session_id, track_id, name, descriptor, first_seen, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, track_id) DO UPDATE SET
			name = EXCLUDED.name,
			descriptor = EXCLUDED.descriptor,
			last_seen = EXCLUDED.last_seen
		RETURNING id
	`

	vec := pgvector.NewVector(identity.Descriptor)
	var id int64
	err := r.pool.QueryRow(ctx, query,
		identity.SessionID,
		identity.TrackID,
		identity.Name,
		vec,
		identity.FirstSeen,
		identity.LastSeen,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save identity: %w", err)
	}
	return id, nil
}

// LoadAll returns every stored identity, used to rebuild the in-memory
// gallery on startup.
func (r *IdentityRepository) LoadAll(ctx context.Context) ([]store.StoredIdentity, error) {
	query := `
		SELECT id, session_id, track_id, name, descriptor, first_seen, last_seen
		FROM identities
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load identities: %w", err)
	}
	defer rows.Close()

	var out []store.StoredIdentity
	for rows.Next() {
		var identity store.StoredIdentity
		var vec pgvector.Vector
		if err := rows.Scan(
			&identity.ID,
			&identity.SessionID,
			&identity.TrackID,
			&identity.Name,
			&vec,
			&identity.FirstSeen,
			&identity.LastSeen,
		); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identity.Descriptor = vec.Slice()
		out = append(out, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return out, nil
}

// Nearest returns up to k identities closest to the descriptor by cosine
// distance. It is the database fallback for gallery lookups and the source
// of truth when the in-memory index has not been built.
func (r *IdentityRepository) Nearest(ctx context.Context, descriptor []float32, k int) ([]store.Match, error) {
	if k <= 0 {
		k = 5
	}

	query := `
		SELECT id, session_id, track_id, name, descriptor, first_seen, last_seen,
		       descriptor <=> $1 AS distance
		FROM identities
		ORDER BY descriptor <=> $1
		LIMIT $2
	`

	vec := pgvector.NewVector(descriptor)
	rows, err := r.pool.Query(ctx, query, vec, k)
	if err != nil {
		return nil, fmt.Errorf("nearest identities: %w", err)
	}
	defer rows.Close()

	var out []store.Match
	for rows.Next() {
		var m store.Match
		var dvec pgvector.Vector
		if err := rows.Scan(
			&m.Identity.ID,
			&m.Identity.SessionID,
			&m.Identity.TrackID,
			&m.Identity.Name,
			&dvec,
			&m.Identity.FirstSeen,
			&m.Identity.LastSeen,
			&m.Distance,
		); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.Identity.Descriptor = dvec.Slice()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return out, nil
}

// SetName updates the stored name for an identity row.
func (r *IdentityRepository) SetName(ctx context.Context, id int64, name string) error {
	_, err := r.pool.Exec(ctx, "UPDATE identities SET name = $1 WHERE id = $2", name, id)
	if err != nil {
		return fmt.Errorf("set identity name: %w", err)
	}
	return nil
}
