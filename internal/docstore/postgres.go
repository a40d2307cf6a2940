package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores documents as JSONB rows keyed by path.
//
// Schema:
//
//	CREATE TABLE documents (
//	    path       text PRIMARY KEY,
//	    doc        jsonb NOT NULL,
//	    updated_at timestamptz NOT NULL
//	);
//
// Merge-upsert maps onto jsonb concatenation, which is shallow per-field
// last-write-wins, matching the Store contract.
type Postgres struct {
	db *pgxpool.Pool

	notifier notifier
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Get(ctx context.Context, path string) (Document, error) {
	const q = `SELECT doc FROM documents WHERE path = $1`

	var raw []byte
	if err := p.db.QueryRow(ctx, q, path).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *Postgres) ListCollection(ctx context.Context, path string) ([]Entry, error) {
	// Direct children only: one extra segment past the collection prefix.
	const q = `SELECT path, doc FROM documents
	           WHERE path LIKE $1 || '/%' AND path NOT LIKE $1 || '/%/%'
	           ORDER BY path`

	rows, err := p.db.Query(ctx, q, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var raw []byte
		if err := rows.Scan(&e.Path, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &e.Doc); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) UpsertMerge(ctx context.Context, path string, fields Document) error {
	const q = `INSERT INTO documents (path, doc, updated_at)
	           VALUES ($1, $2, $3)
	           ON CONFLICT (path)
	           DO UPDATE SET doc = documents.doc || EXCLUDED.doc, updated_at = EXCLUDED.updated_at`

	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if _, err := p.db.Exec(ctx, q, path, raw, time.Now().UTC()); err != nil {
		return err
	}

	// Change fan-out is local to this process; concurrent writers on other
	// instances are not observed, which matches the accepted multi-device
	// semantics of the progress subsystem.
	p.notifier.notify(ctx, p, path)
	return nil
}

func (p *Postgres) Subscribe(path string, fn func(entries []Entry)) (cancel func()) {
	return p.notifier.subscribe(path, fn)
}
