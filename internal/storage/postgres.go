package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CrsiX/WebsiteCrawler/internal/domain"
)

// RecordStore keeps one row per mirrored resource in PostgreSQL, so
// large mirror runs can be inspected and diffed afterwards. Optional;
// enabled by setting POSTGRES_URL.
//
// Expected schema:
//
//	CREATE TABLE mirrored_resources (
//	    url          TEXT PRIMARY KEY,
//	    content_kind TEXT NOT NULL,
//	    status       TEXT NOT NULL,
//	    local_path   TEXT,
//	    size_bytes   BIGINT,
//	    title        TEXT,
//	    fail_reason  TEXT,
//	    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type RecordStore struct {
	db *pgxpool.Pool
}

// NewRecordStore connects to the database.
func NewRecordStore(ctx context.Context, connStr string) (*RecordStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &RecordStore{db: db}, nil
}

func (s *RecordStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *RecordStore) Close() {
	s.db.Close()
}

// SaveResource upserts the record for one resource.
func (s *RecordStore) SaveResource(ctx context.Context, res *domain.Resource) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO mirrored_resources (url, content_kind, status, local_path, size_bytes, title, fail_reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (url) DO UPDATE SET
		   content_kind = EXCLUDED.content_kind,
		   status       = EXCLUDED.status,
		   local_path   = EXCLUDED.local_path,
		   size_bytes   = EXCLUDED.size_bytes,
		   title        = EXCLUDED.title,
		   fail_reason  = EXCLUDED.fail_reason,
		   updated_at   = NOW()`,
		res.URL.String(), res.Kind.String(), string(res.Status),
		res.LocalPath, res.Size, res.Title, res.FailReason,
	)
	if err != nil {
		return fmt.Errorf("saving resource record: %w", err)
	}
	return nil
}

// ResourceStatus fetches the stored status for one URL.
func (s *RecordStore) ResourceStatus(ctx context.Context, url string) (string, error) {
	var status string
	err := s.db.QueryRow(ctx,
		`SELECT status FROM mirrored_resources WHERE url = $1`, url,
	).Scan(&status)
	if err != nil {
		return "", err
	}
	return status, nil
}
