// Package repository persists finalized-video metadata and operation
// logs. Task progress deliberately never lands here; the status endpoint
// infers it from object storage instead.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNoToken = errors.New("no refresh token stored for user")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertFinalVideo records a video selected for publishing. Re-running
// the upload for the same key updates the title and description.
func (r *Repository) InsertFinalVideo(ctx context.Context, videoKey, userID, title, description string) error {
	query := `
		INSERT INTO final_videos (video_key, user_id, title, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (video_key)
		DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description
	`
	if _, err := r.pool.Exec(ctx, query, videoKey, userID, title, description); err != nil {
		return fmt.Errorf("failed to insert final video: %w", err)
	}
	return nil
}

// MarkYouTubeUploaded stamps the hosted video id onto the record.
func (r *Repository) MarkYouTubeUploaded(ctx context.Context, videoKey, youtubeID string) error {
	query := `UPDATE final_videos SET youtube_id = $1, uploaded_at = NOW() WHERE video_key = $2`
	if _, err := r.pool.Exec(ctx, query, youtubeID, videoKey); err != nil {
		return fmt.Errorf("failed to mark video uploaded: %w", err)
	}
	return nil
}

// InsertOperationLog appends an audit row for operator follow-up.
func (r *Repository) InsertOperationLog(ctx context.Context, userID, logType, status, videoKey, message string) error {
	query := `
		INSERT INTO operation_logs (id, user_id, log_type, status, video_key, message)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.pool.Exec(ctx, query, uuid.New(), userID, logType, status, videoKey, message); err != nil {
		return fmt.Errorf("failed to insert operation log: %w", err)
	}
	return nil
}

// RefreshToken returns the stored OAuth refresh token for a user and
// provider, written by the auth server during login.
func (r *Repository) RefreshToken(ctx context.Context, userID, provider string) (string, error) {
	var token string
	query := `SELECT refresh_token FROM oauth_tokens WHERE user_id = $1 AND provider = $2`
	err := r.pool.QueryRow(ctx, query, userID, provider).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to load refresh token: %w", err)
	}
	return token, nil
}
