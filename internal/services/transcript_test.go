package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ghostwriter-backend/internal/models"
	"ghostwriter-backend/internal/repository"
	"ghostwriter-backend/internal/worker"
)

type fakeVideoSource struct {
	meta        *VideoMeta
	metaErr     error
	audio       *AudioFile
	downloadErr error

	metaCalls     int
	downloadCalls int
}

func (f *fakeVideoSource) GetVideoMeta(ctx context.Context, videoID string) (*VideoMeta, error) {
	f.metaCalls++
	return f.meta, f.metaErr
}

func (f *fakeVideoSource) DownloadAudio(ctx context.Context, videoID string, maxBytes int64) (*AudioFile, error) {
	f.downloadCalls++
	return f.audio, f.downloadErr
}

type fakeTranscriber struct {
	transcript string
	err        error
	calls      int
}

func (f *fakeTranscriber) TranscribeFile(ctx context.Context, audioPath, mimeType string) (string, error) {
	f.calls++
	return f.transcript, f.err
}

type fakeTranscriptStore struct {
	mu      sync.Mutex
	records map[string]*models.TranscriptRecord
	getErr  error
}

func newFakeTranscriptStore() *fakeTranscriptStore {
	return &fakeTranscriptStore{records: make(map[string]*models.TranscriptRecord)}
}

func (f *fakeTranscriptStore) Get(ctx context.Context, videoID string) (*models.TranscriptRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[videoID]
	if !ok {
		return nil, repository.ErrTranscriptNotFound
	}
	return rec, nil
}

func (f *fakeTranscriptStore) Upsert(ctx context.Context, rec *models.TranscriptRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.VideoID] = rec
	return nil
}

// syncSubmitter runs queued tasks inline so tests can observe the write.
type syncSubmitter struct {
	tasks []string
}

func (s *syncSubmitter) Submit(task worker.Task) {
	s.tasks = append(s.tasks, task.Name)
	task.Run(context.Background())
}

func newTestTranscriptService(source *fakeVideoSource, transcriber *fakeTranscriber, store *fakeTranscriptStore, submitter *syncSubmitter) *TranscriptService {
	return NewTranscriptService(source, transcriber, store, nil, submitter, nil, 45, 50*1024*1024, zerolog.Nop())
}

func TestFetch_AcquiresAndCaches(t *testing.T) {
	source := &fakeVideoSource{
		meta:  &VideoMeta{ID: "dQw4w9WgXcQ", Title: "Founder Talk", Duration: 20 * time.Minute},
		audio: &AudioFile{Path: "", MimeType: "audio/mp4"},
	}
	transcriber := &fakeTranscriber{transcript: "Ownership is everything."}
	store := newFakeTranscriptStore()
	submitter := &syncSubmitter{}

	svc := newTestTranscriptService(source, transcriber, store, submitter)

	got, err := svc.Fetch(context.Background(), "https://youtu.be/dQw4w9WgXcQ", uuid.New(), "req-1")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if got != "Ownership is everything." {
		t.Errorf("Fetch = %q", got)
	}
	if len(submitter.tasks) != 1 {
		t.Fatalf("expected 1 background write, got %d", len(submitter.tasks))
	}

	rec, err := store.Get(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("store should hold the transcript: %v", err)
	}
	if rec.Transcript != "Ownership is everything." {
		t.Errorf("stored transcript = %q", rec.Transcript)
	}
	if rec.Title == nil || *rec.Title != "Founder Talk" {
		t.Errorf("stored title = %v, want Founder Talk", rec.Title)
	}
}

func TestFetch_CacheHitSkipsAcquisition(t *testing.T) {
	source := &fakeVideoSource{}
	transcriber := &fakeTranscriber{}
	store := newFakeTranscriptStore()
	store.records["dQw4w9WgXcQ"] = &models.TranscriptRecord{
		VideoID:    "dQw4w9WgXcQ",
		Transcript: "cached text",
	}
	submitter := &syncSubmitter{}

	svc := newTestTranscriptService(source, transcriber, store, submitter)

	got, err := svc.Fetch(context.Background(), "https://youtu.be/dQw4w9WgXcQ", uuid.New(), "req-1")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if got != "cached text" {
		t.Errorf("Fetch = %q, want cached text", got)
	}
	if source.metaCalls != 0 || source.downloadCalls != 0 || transcriber.calls != 0 {
		t.Error("cache hit must not touch the acquisition pipeline")
	}
	if len(submitter.tasks) != 0 {
		t.Error("cache hit must not queue a background write")
	}
}

func TestFetch_DurationGateBlocksDownload(t *testing.T) {
	source := &fakeVideoSource{
		meta: &VideoMeta{ID: "dQw4w9WgXcQ", Duration: 90 * time.Minute},
	}
	transcriber := &fakeTranscriber{}
	store := newFakeTranscriptStore()
	submitter := &syncSubmitter{}

	svc := newTestTranscriptService(source, transcriber, store, submitter)

	_, err := svc.Fetch(context.Background(), "https://youtu.be/dQw4w9WgXcQ", uuid.New(), "req-1")
	if !errors.Is(err, ErrVideoTooLong) {
		t.Fatalf("Fetch = %v, want ErrVideoTooLong", err)
	}
	if source.downloadCalls != 0 {
		t.Error("rejected video must never be downloaded")
	}
	if transcriber.calls != 0 {
		t.Error("rejected video must never be transcribed")
	}
}

func TestFetch_InvalidURL(t *testing.T) {
	svc := newTestTranscriptService(&fakeVideoSource{}, &fakeTranscriber{}, newFakeTranscriptStore(), &syncSubmitter{})

	_, err := svc.Fetch(context.Background(), "https://example.com/nope", uuid.New(), "req-1")
	if !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("Fetch = %v, want ErrVideoNotFound", err)
	}
}

func TestFetch_StoreFailureDegradesToMiss(t *testing.T) {
	source := &fakeVideoSource{
		meta:  &VideoMeta{ID: "dQw4w9WgXcQ", Duration: 10 * time.Minute},
		audio: &AudioFile{MimeType: "audio/mp4"},
	}
	transcriber := &fakeTranscriber{transcript: "fresh text"}
	store := newFakeTranscriptStore()
	store.getErr = errors.New("connection refused")
	submitter := &syncSubmitter{}

	svc := newTestTranscriptService(source, transcriber, store, submitter)

	got, err := svc.Fetch(context.Background(), "https://youtu.be/dQw4w9WgXcQ", uuid.New(), "req-1")
	if err != nil {
		t.Fatalf("store failure must not fail the request: %v", err)
	}
	if got != "fresh text" {
		t.Errorf("Fetch = %q, want fresh text", got)
	}
}
