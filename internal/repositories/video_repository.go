package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reelgen/internal/models"
	"reelgen/internal/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS videos (
	id          TEXT PRIMARY KEY,
	job_id      TEXT NOT NULL,
	provider    TEXT NOT NULL,
	object_key  TEXT NOT NULL,
	mime        TEXT NOT NULL,
	size_bytes  BIGINT NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at  TIMESTAMPTZ
)`

// VideoRepository stores video records in PostgreSQL. Deletes are soft.
type VideoRepository struct {
	db *pgxpool.Pool
}

func NewVideoRepository(db *pgxpool.Pool) *VideoRepository {
	return &VideoRepository{db: db}
}

// EnsureSchema creates the videos table when it does not exist.
func (r *VideoRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return errors.WrapWithCode(err, errors.CodeUnavailable, "videos.schema", "failed to create videos table")
	}
	return nil
}

func (r *VideoRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *VideoRepository) Create(ctx context.Context, v *models.Video) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO videos (id, job_id, provider, object_key, mime, size_bytes)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, v.ID, v.JobID, v.Provider, v.ObjectKey, v.Mime, v.SizeBytes).Scan(&v.CreatedAt)
	if err != nil {
		if sqlState(err) == sqlStateUniqueViolation {
			return errors.Validation("video already exists").WithField("video_id", v.ID)
		}
		return r.wrap(err, "videos.create")
	}
	return nil
}

// List returns the newest videos first.
func (r *VideoRepository) List(ctx context.Context, limit int) ([]models.Video, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, job_id, provider, object_key, mime, size_bytes, created_at
		FROM videos
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, r.wrap(err, "videos.list")
	}
	defer rows.Close()

	out := make([]models.Video, 0)
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.JobID, &v.Provider, &v.ObjectKey, &v.Mime, &v.SizeBytes, &v.CreatedAt); err != nil {
			return nil, r.wrap(err, "videos.list")
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrap(err, "videos.list")
	}
	return out, nil
}

func (r *VideoRepository) Get(ctx context.Context, id string) (*models.Video, error) {
	var v models.Video
	err := r.db.QueryRow(ctx, `
		SELECT id, job_id, provider, object_key, mime, size_bytes, created_at
		FROM videos
		WHERE id=$1 AND deleted_at IS NULL
	`, id).Scan(&v.ID, &v.JobID, &v.Provider, &v.ObjectKey, &v.Mime, &v.SizeBytes, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("video", id)
		}
		return nil, r.wrap(err, "videos.get")
	}
	return &v, nil
}

func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE videos
		SET deleted_at=now()
		WHERE id=$1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return r.wrap(err, "videos.delete")
	}
	if cmd.RowsAffected() == 0 {
		return errors.NotFound("video", id)
	}
	return nil
}

func (r *VideoRepository) wrap(err error, op string) error {
	if sqlState(err) == sqlStateUndefinedTable {
		return errors.WrapWithCode(err, errors.CodeUnavailable, op, "videos table is missing")
	}
	return errors.Wrap(err, op, "database error")
}
