package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	yt "github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog"
)

// The 11-character token appears in a different position per URL family:
// watch URLs carry it in the v= query param, short links and embed/shorts
// URLs carry it in the path.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/(?:watch\?v=|embed/|shorts/)|youtu\.be/)([\w-]{11})`),
	regexp.MustCompile(`youtube\.com/watch\?(?:[^#&]*&)*v=([\w-]{11})`),
}

// ResolveVideoID extracts the canonical video identifier from any of the
// supported URL shapes. Pure function, no I/O.
func ResolveVideoID(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(rawURL); len(m) == 2 {
			return m[1], nil
		}
	}
	return "", ErrVideoNotFound
}

// VideoMeta is the slice of upstream metadata the pipeline needs before
// committing to a download.
type VideoMeta struct {
	ID       string
	Title    string
	Duration time.Duration
}

// AudioFile is a downloaded audio track in a scoped temp location.
// Cleanup must be called on every exit path.
type AudioFile struct {
	Path     string
	MimeType string
}

func (a *AudioFile) Cleanup() {
	if a.Path != "" {
		os.Remove(a.Path)
	}
}

type YouTubeService struct {
	client  *yt.Client
	tempDir string
	logger  zerolog.Logger
}

func NewYouTubeService(tempDir string, logger zerolog.Logger) *YouTubeService {
	return &YouTubeService{
		client:  &yt.Client{},
		tempDir: tempDir,
		logger:  logger,
	}
}

// GetVideoMeta fetches title and duration without touching any stream, so
// the duration ceiling can reject a video before bytes move.
func (s *YouTubeService) GetVideoMeta(ctx context.Context, videoID string) (*VideoMeta, error) {
	video, err := s.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	return &VideoMeta{
		ID:       videoID,
		Title:    video.Title,
		Duration: video.Duration,
	}, nil
}

// DownloadAudio writes the best audio-only stream to a temp file bounded
// by maxBytes. The caller owns cleanup of the returned file.
func (s *YouTubeService) DownloadAudio(ctx context.Context, videoID string, maxBytes int64) (*AudioFile, error) {
	video, err := s.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return nil, fmt.Errorf("%w: no audio formats available", ErrDownloadFailed)
	}

	best := formats[0]
	for _, f := range formats {
		if f.Bitrate > best.Bitrate {
			best = f
		}
	}

	stream, _, err := s.client.GetStreamContext(ctx, video, &best)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open audio stream: %v", ErrDownloadFailed, err)
	}
	defer stream.Close()

	tmp, err := os.CreateTemp(s.tempDir, "audio_*.m4a")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create temp file: %v", ErrDownloadFailed, err)
	}

	written, err := io.Copy(tmp, io.LimitReader(stream, maxBytes+1))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("%w: failed to read audio stream: %v", ErrDownloadFailed, err)
	}
	if written > maxBytes {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("%w: audio stream exceeds %d MB limit", ErrDownloadFailed, maxBytes/(1024*1024))
	}

	mimeType := strings.TrimSpace(strings.Split(best.MimeType, ";")[0])
	if mimeType == "" {
		mimeType = "audio/mp4"
	}

	s.logger.Debug().
		Str("video_id", videoID).
		Int64("bytes", written).
		Str("mime_type", mimeType).
		Msg("audio downloaded")

	return &AudioFile{Path: tmp.Name(), MimeType: mimeType}, nil
}
