package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidbrowse/backend/internal/db"
	"github.com/vidbrowse/backend/internal/models"
)

// markTables maps a MarkSet to its table. Sets come from the two
// package constants only; the map keeps SQL free of interpolated input.
var markTables = map[MarkSet]string{
	MarkFavorites: "favorites",
	MarkDislikes:  "dislikes",
}

func markTable(set MarkSet) (string, error) {
	table, ok := markTables[set]
	if !ok {
		return "", fmt.Errorf("unknown mark set %q", set)
	}
	return table, nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for catalog records.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// ListAll returns every record, missing ones included, in id order.
// Id order is discovery order because identifiers are monotonic.
func (r *PostgresVideoRepository) ListAll(ctx context.Context) ([]models.VideoRecord, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, filename, dir_path, size_bytes, duration_seconds, has_thumbnail, missing, created_at
        FROM videos
        ORDER BY id
    `)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var records []models.VideoRecord
	for rows.Next() {
		var rec models.VideoRecord
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.DirPath, &rec.SizeBytes, &rec.DurationSecs, &rec.HasThumbnail, &rec.Missing, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return records, nil
}

// Save upserts the full record row.
func (r *PostgresVideoRepository) Save(ctx context.Context, record models.VideoRecord) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, filename, dir_path, size_bytes, duration_seconds, has_thumbnail, missing, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (id)
        DO UPDATE SET filename = EXCLUDED.filename,
                      dir_path = EXCLUDED.dir_path,
                      size_bytes = EXCLUDED.size_bytes,
                      duration_seconds = EXCLUDED.duration_seconds,
                      has_thumbnail = EXCLUDED.has_thumbnail,
                      missing = EXCLUDED.missing
    `, record.ID, record.Filename, record.DirPath, record.SizeBytes, record.DurationSecs, record.HasThumbnail, record.Missing, record.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("upsert video: %w", err)
	}

	return nil
}

// Delete removes a record row permanently.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresMarkRepository provides PostgreSQL-backed persistence for
// favorite and dislike marks.
type PostgresMarkRepository struct {
	pool db.Pool
}

// NewPostgresMarkRepository constructs a mark repository backed by PostgreSQL.
func NewPostgresMarkRepository(pool db.Pool) *PostgresMarkRepository {
	return &PostgresMarkRepository{pool: pool}
}

// Add inserts a mark; adding an existing mark is a no-op.
func (r *PostgresMarkRepository) Add(ctx context.Context, set MarkSet, entry models.MarkEntry) error {
	table, err := markTable(set)
	if err != nil {
		return err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, fmt.Sprintf(`
        INSERT INTO %s (user_id, video_id, created_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, video_id) DO NOTHING
    `, table), entry.UserID, entry.VideoID, entry.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("insert %s mark: %w", table, err)
	}

	return nil
}

// Remove deletes a mark; removing an absent mark is a no-op.
func (r *PostgresMarkRepository) Remove(ctx context.Context, set MarkSet, userID string, videoID int64) error {
	table, err := markTable(set)
	if err != nil {
		return err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, fmt.Sprintf(`
        DELETE FROM %s WHERE user_id = $1 AND video_id = $2
    `, table), userID, videoID); err != nil {
		return fmt.Errorf("delete %s mark: %w", table, err)
	}

	return nil
}

// IsMarked reports whether the (user, video) pair is in the set.
func (r *PostgresMarkRepository) IsMarked(ctx context.Context, set MarkSet, userID string, videoID int64) (bool, error) {
	table, err := markTable(set)
	if err != nil {
		return false, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	row := conn.QueryRow(ctx, fmt.Sprintf(`
        SELECT EXISTS (SELECT 1 FROM %s WHERE user_id = $1 AND video_id = $2)
    `, table), userID, videoID)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s mark: %w", table, err)
	}

	return exists, nil
}

// ListForUser returns the user's marks ordered by created_at ascending.
func (r *PostgresMarkRepository) ListForUser(ctx context.Context, set MarkSet, userID string) ([]models.MarkEntry, error) {
	table, err := markTable(set)
	if err != nil {
		return nil, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, fmt.Sprintf(`
        SELECT user_id, video_id, created_at
        FROM %s
        WHERE user_id = $1
        ORDER BY created_at, video_id
    `, table), userID)
	if err != nil {
		return nil, fmt.Errorf("query %s marks: %w", table, err)
	}
	defer rows.Close()

	var entries []models.MarkEntry
	for rows.Next() {
		var entry models.MarkEntry
		if err := rows.Scan(&entry.UserID, &entry.VideoID, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s mark: %w", table, err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s marks: %w", table, err)
	}

	return entries, nil
}

// PurgeVideo removes every mark referencing the video from both sets.
func (r *PostgresMarkRepository) PurgeVideo(ctx context.Context, videoID int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	for _, table := range markTables {
		if _, err := conn.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE video_id = $1`, table), videoID); err != nil {
			return fmt.Errorf("purge %s marks: %w", table, err)
		}
	}

	return nil
}

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, password_hash, is_admin, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, user.ID, user.Username, user.Password, user.IsAdmin, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByUsername fetches a user by their login name.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, `
        SELECT id, username, password_hash, is_admin, created_at, updated_at
        FROM users
        WHERE username = $1
    `, username)
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `
        SELECT id, username, password_hash, is_admin, created_at, updated_at
        FROM users
        WHERE id = $1
    `, id)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query, arg string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var user models.User
	row := conn.QueryRow(ctx, query, arg)
	if err := row.Scan(&user.ID, &user.Username, &user.Password, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}

	return user, nil
}

// Update modifies an existing user record.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET username = $2, password_hash = $3, is_admin = $4, updated_at = $5
        WHERE id = $1
    `, user.ID, user.Username, user.Password, user.IsAdmin, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
var _ MarkRepository = (*PostgresMarkRepository)(nil)
var _ UserRepository = (*PostgresUserRepository)(nil)
