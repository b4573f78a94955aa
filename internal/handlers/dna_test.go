package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"ghostwriter-backend/internal/models"
	"ghostwriter-backend/internal/services"
)

type fakeProfiler struct {
	profile *models.StyleProfile
	err     error
	calls   int
}

func (f *fakeProfiler) Profile(ctx context.Context, posts []string) (*models.StyleProfile, error) {
	f.calls++
	return f.profile, f.err
}

func postDNA(h *DNAHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dna", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Profile(rr, req)
	return rr
}

func TestDNA_ReturnsProfile(t *testing.T) {
	profiler := &fakeProfiler{profile: &models.StyleProfile{Tone: "cold"}}
	h := NewDNAHandler(profiler, services.NewSampleExtractor(), t.TempDir(), zerolog.Nop())

	rr := postDNA(h, `{"posts": ["You are the bottleneck."]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp models.ProfileResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.VoiceJSON == nil || resp.VoiceJSON.Tone != "cold" {
		t.Errorf("voiceJson = %+v, want tone cold", resp.VoiceJSON)
	}
}

func TestDNA_EmptySamplesSkipProfiler(t *testing.T) {
	profiler := &fakeProfiler{}
	h := NewDNAHandler(profiler, services.NewSampleExtractor(), t.TempDir(), zerolog.Nop())

	tests := []struct {
		name string
		body string
	}{
		{"no posts", `{"posts": []}`},
		{"blank posts", `{"posts": ["   ", ""]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := postDNA(h, tc.body)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rr.Code)
			}

			var resp models.ProfileResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.VoiceJSON != nil {
				t.Errorf("voiceJson = %+v, want null", resp.VoiceJSON)
			}
		})
	}
	if profiler.calls != 0 {
		t.Errorf("profiler called %d times for empty samples, want 0", profiler.calls)
	}
}

func TestDNA_UpstreamFailureIs502(t *testing.T) {
	profiler := &fakeProfiler{err: fmt.Errorf("%w: upstream unreachable", services.ErrProfilingFailed)}
	h := NewDNAHandler(profiler, services.NewSampleExtractor(), t.TempDir(), zerolog.Nop())

	rr := postDNA(h, `{"posts": ["You are the bottleneck."]}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	if resp.Error.Code != "PROFILING_FAILED" {
		t.Errorf("error code = %q, want PROFILING_FAILED", resp.Error.Code)
	}
}

func TestDNA_InvalidBody(t *testing.T) {
	h := NewDNAHandler(&fakeProfiler{}, services.NewSampleExtractor(), t.TempDir(), zerolog.Nop())

	rr := postDNA(h, `{not json`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}
