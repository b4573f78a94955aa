package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"ghostwriter-backend/internal/models"
	"ghostwriter-backend/internal/repository"
	"ghostwriter-backend/internal/worker"
)

const transcriptCacheTTL = 7 * 24 * time.Hour

// Narrow interfaces so tests can substitute fakes for the external pieces.

type videoSource interface {
	GetVideoMeta(ctx context.Context, videoID string) (*VideoMeta, error)
	DownloadAudio(ctx context.Context, videoID string, maxBytes int64) (*AudioFile, error)
}

type audioTranscriber interface {
	TranscribeFile(ctx context.Context, audioPath, mimeType string) (string, error)
}

type transcriptStore interface {
	Get(ctx context.Context, videoID string) (*models.TranscriptRecord, error)
	Upsert(ctx context.Context, rec *models.TranscriptRecord) error
}

type taskSubmitter interface {
	Submit(task worker.Task)
}

// TranscriptService turns a YouTube URL into primary-speaker transcript
// text: resolve → cache read → duration gate → audio download →
// diarized transcription → background cache write.
type TranscriptService struct {
	youtube     videoSource
	transcriber audioTranscriber
	store       transcriptStore
	cache       *redis.Client
	writer      taskSubmitter
	notifier    *StatusNotifier

	maxDuration time.Duration
	maxBytes    int64
	logger      zerolog.Logger
}

func NewTranscriptService(
	youtube videoSource,
	transcriber audioTranscriber,
	store transcriptStore,
	cache *redis.Client,
	writer taskSubmitter,
	notifier *StatusNotifier,
	maxDurationMin int,
	maxBytes int64,
	logger zerolog.Logger,
) *TranscriptService {
	return &TranscriptService{
		youtube:     youtube,
		transcriber: transcriber,
		store:       store,
		cache:       cache,
		writer:      writer,
		notifier:    notifier,
		maxDuration: time.Duration(maxDurationMin) * time.Minute,
		maxBytes:    maxBytes,
		logger:      logger,
	}
}

// Fetch returns the transcript for the video referenced by rawURL,
// serving from cache when possible. Cache-backend failures degrade to a
// miss, never to a request failure.
func (s *TranscriptService) Fetch(ctx context.Context, rawURL string, userID uuid.UUID, requestID string) (string, error) {
	videoID, err := ResolveVideoID(rawURL)
	if err != nil {
		return "", err
	}

	logger := s.logger.With().Str("video_id", videoID).Logger()

	if cached, ok := s.cacheRead(ctx, videoID, logger); ok {
		logger.Info().Msg("transcript served from cache")
		return cached, nil
	}

	s.notifier.Publish(ctx, userID, requestID, 1, "Fetching Transcript")

	transcript, title, err := s.acquire(ctx, videoID, logger)
	if err != nil {
		return "", err
	}

	// Fire-and-forget: a failed write is logged by the worker, the user
	// still gets their transcript.
	rec := &models.TranscriptRecord{VideoID: videoID, Transcript: transcript}
	if title != "" {
		rec.Title = &title
	}
	s.writer.Submit(worker.Task{
		Name: "transcript-cache-write:" + videoID,
		Run: func(taskCtx context.Context) error {
			return s.cacheWrite(taskCtx, rec)
		},
	})

	return transcript, nil
}

// acquire runs the duration-gated download-and-transcribe path. The temp
// audio file is removed on every exit, success or failure.
func (s *TranscriptService) acquire(ctx context.Context, videoID string, logger zerolog.Logger) (transcript, title string, err error) {
	metaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	meta, err := s.youtube.GetVideoMeta(metaCtx, videoID)
	if err != nil {
		return "", "", err
	}

	if meta.Duration > s.maxDuration {
		logger.Warn().Dur("duration", meta.Duration).Msg("video rejected by duration ceiling")
		return "", "", fmt.Errorf("%w: video is %s, ceiling is %s",
			ErrVideoTooLong, meta.Duration.Round(time.Second), s.maxDuration)
	}

	dlCtx, cancelDL := context.WithTimeout(ctx, 2*time.Minute)
	defer cancelDL()

	audio, err := s.youtube.DownloadAudio(dlCtx, videoID, s.maxBytes)
	if err != nil {
		return "", "", err
	}
	defer audio.Cleanup()

	transcript, err = s.transcriber.TranscribeFile(ctx, audio.Path, audio.MimeType)
	if err != nil {
		return "", "", err
	}

	logger.Info().Int("chars", len(transcript)).Msg("transcript acquired")
	return transcript, meta.Title, nil
}

// cacheRead checks Redis first, then the durable store. Either backend
// failing is a miss.
func (s *TranscriptService) cacheRead(ctx context.Context, videoID string, logger zerolog.Logger) (string, bool) {
	if s.cache != nil {
		val, err := s.cache.Get(ctx, "transcript:"+videoID).Result()
		if err == nil && val != "" {
			return val, true
		}
		if err != nil && err != redis.Nil {
			logger.Warn().Err(err).Msg("redis cache read failed, treating as miss")
		}
	}

	if s.store != nil {
		rec, err := s.store.Get(ctx, videoID)
		if err == nil && rec.Transcript != "" {
			return rec.Transcript, true
		}
		if err != nil && !errors.Is(err, repository.ErrTranscriptNotFound) {
			logger.Warn().Err(err).Msg("transcript store read failed, treating as miss")
		}
	}

	return "", false
}

func (s *TranscriptService) cacheWrite(ctx context.Context, rec *models.TranscriptRecord) error {
	if s.cache != nil {
		if err := s.cache.Set(ctx, "transcript:"+rec.VideoID, rec.Transcript, transcriptCacheTTL).Err(); err != nil {
			s.logger.Warn().Err(err).Str("video_id", rec.VideoID).Msg("redis cache write failed")
		}
	}
	if s.store == nil {
		return nil
	}
	return s.store.Upsert(ctx, rec)
}
