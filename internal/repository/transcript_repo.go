package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ghostwriter-backend/internal/models"
)

var ErrTranscriptNotFound = errors.New("transcript not found")

type TranscriptRepo struct {
	pool *pgxpool.Pool
}

func NewTranscriptRepo(pool *pgxpool.Pool) *TranscriptRepo {
	return &TranscriptRepo{pool: pool}
}

func (r *TranscriptRepo) Get(ctx context.Context, videoID string) (*models.TranscriptRecord, error) {
	rec := &models.TranscriptRecord{}
	query := `SELECT video_id, transcript, title, style_tag, updated_at FROM transcripts WHERE video_id = $1`

	err := r.pool.QueryRow(ctx, query, videoID).Scan(
		&rec.VideoID, &rec.Transcript, &rec.Title, &rec.StyleTag, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTranscriptNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Upsert overwrites any existing record for the video. Transcripts are
// deterministic per video, so last-write-wins is acceptable.
func (r *TranscriptRepo) Upsert(ctx context.Context, rec *models.TranscriptRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO transcripts (video_id, transcript, title, style_tag, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (video_id) DO UPDATE
		SET transcript = EXCLUDED.transcript,
		    title = COALESCE(EXCLUDED.title, transcripts.title),
		    style_tag = COALESCE(EXCLUDED.style_tag, transcripts.style_tag),
		    updated_at = NOW()
	`, rec.VideoID, rec.Transcript, rec.Title, rec.StyleTag)
	return err
}
