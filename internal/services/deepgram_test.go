package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func utterance(speaker int, text string) deepgramUtterance {
	return deepgramUtterance{Speaker: speaker, Transcript: text}
}

func TestPrimaryTranscript_FirstSpeakerWins(t *testing.T) {
	var resp deepgramResponse
	resp.Results.Utterances = []deepgramUtterance{
		utterance(0, "Welcome to the show."),
		utterance(1, "Thanks for having me."),
		utterance(0, "Let's get started."),
		utterance(1, "Ownership is everything."),
	}

	got := primaryTranscript(&resp)
	want := "Welcome to the show. Let's get started."
	if got != want {
		t.Errorf("primaryTranscript = %q, want %q", got, want)
	}
}

func TestPrimaryTranscript_SingleSpeaker(t *testing.T) {
	var resp deepgramResponse
	resp.Results.Utterances = []deepgramUtterance{
		utterance(0, "First thought."),
		utterance(0, "  Second thought.  "),
		utterance(0, ""),
	}

	got := primaryTranscript(&resp)
	want := "First thought. Second thought."
	if got != want {
		t.Errorf("primaryTranscript = %q, want %q", got, want)
	}
}

func TestPrimaryTranscript_FlatFallback(t *testing.T) {
	raw := `{"results":{"channels":[{"alternatives":[{"transcript":"  flat channel text  "}]}],"utterances":[]}}`
	var resp deepgramResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("failed to unmarshal fixture: %v", err)
	}

	got := primaryTranscript(&resp)
	if got != "flat channel text" {
		t.Errorf("primaryTranscript = %q, want flat channel fallback", got)
	}
}

func TestPrimaryTranscript_Empty(t *testing.T) {
	var resp deepgramResponse
	if got := primaryTranscript(&resp); got != "" {
		t.Errorf("primaryTranscript on empty response = %q, want empty", got)
	}
}

func writeTempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.m4a")
	if err := os.WriteFile(path, []byte("fake audio bytes"), 0o644); err != nil {
		t.Fatalf("failed to write temp audio: %v", err)
	}
	return path
}

func TestTranscribeFile_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token test-key" {
			t.Errorf("Authorization header = %q", got)
		}
		if got := r.URL.Query().Get("diarize"); got != "true" {
			t.Errorf("diarize param = %q, want true", got)
		}
		if got := r.URL.Query().Get("utterances"); got != "true" {
			t.Errorf("utterances param = %q, want true", got)
		}

		var resp deepgramResponse
		resp.Results.Utterances = []deepgramUtterance{
			utterance(0, "Hello."),
			utterance(1, "Hi there."),
			utterance(0, "Let me tell you a story."),
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := NewDeepgramService("test-key", zerolog.Nop())
	svc.baseURL = server.URL

	got, err := svc.TranscribeFile(context.Background(), writeTempAudio(t), "audio/mp4")
	if err != nil {
		t.Fatalf("TranscribeFile returned error: %v", err)
	}
	want := "Hello. Let me tell you a story."
	if got != want {
		t.Errorf("TranscribeFile = %q, want %q", got, want)
	}
}

func TestTranscribeFile_NoSpeech(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(deepgramResponse{})
	}))
	defer server.Close()

	svc := NewDeepgramService("test-key", zerolog.Nop())
	svc.baseURL = server.URL

	_, err := svc.TranscribeFile(context.Background(), writeTempAudio(t), "audio/mp4")
	if !errors.Is(err, ErrNoSpeech) {
		t.Errorf("TranscribeFile = %v, want ErrNoSpeech", err)
	}
}

func TestTranscribeFile_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(deepgramError{ErrCode: "Bad Request", ErrMsg: "unsupported encoding"})
	}))
	defer server.Close()

	svc := NewDeepgramService("test-key", zerolog.Nop())
	svc.baseURL = server.URL

	_, err := svc.TranscribeFile(context.Background(), writeTempAudio(t), "audio/mp4")
	if err == nil {
		t.Fatal("TranscribeFile should fail on upstream error")
	}
}
