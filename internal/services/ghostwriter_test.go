package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"ghostwriter-backend/internal/models"
)

type fakeStreamer struct {
	deltas      []string
	err         error
	gotSystem   string
	gotUser     string
	gotTemp     float64
	streamCalls int
}

func (f *fakeStreamer) Stream(ctx context.Context, system, user string, temperature float64, onDelta func(string) error) error {
	f.streamCalls++
	f.gotSystem = system
	f.gotUser = user
	f.gotTemp = temperature
	for _, d := range f.deltas {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return f.err
}

func newTestGhostwriter(streamer chatStreamer) *GhostwriterService {
	return &GhostwriterService{
		streamer:  streamer,
		audiences: DefaultAudienceProfiles(),
		logger:    zerolog.Nop(),
	}
}

func TestGenerate_RelaysStream(t *testing.T) {
	streamer := &fakeStreamer{deltas: []string{"You built a job", ", not a business.", " Fix the system."}}
	svc := newTestGhostwriter(streamer)

	var out bytes.Buffer
	flushes := 0
	err := svc.Generate(context.Background(), GenerationRequest{
		Transcript: "Talk about delegation.",
		Audience:   "solopreneur",
	}, &out, func() { flushes++ })

	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	want := "You built a job, not a business. Fix the system."
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if flushes == 0 {
		t.Error("expected at least one flush")
	}
}

func TestGenerate_StreamErrorIsTerminalFailure(t *testing.T) {
	streamer := &fakeStreamer{deltas: []string{"partial "}, err: errors.New("upstream reset")}
	svc := newTestGhostwriter(streamer)

	var out bytes.Buffer
	err := svc.Generate(context.Background(), GenerationRequest{Transcript: "x"}, &out, nil)
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("Generate = %v, want ErrGenerationFailed", err)
	}
}

func TestGenerate_AudiencePromptContents(t *testing.T) {
	streamer := &fakeStreamer{deltas: []string{"done"}}
	svc := newTestGhostwriter(streamer)

	voice := &models.StyleProfile{
		Tone:           "cold",
		ForbiddenWords: []string{"synergy", "journey"},
	}

	err := svc.Generate(context.Background(), GenerationRequest{
		Transcript:   "Interview about pricing.",
		VoiceProfile: voice,
		Audience:     "agency_owner",
	}, &bytes.Buffer{}, nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if !strings.Contains(streamer.gotSystem, "Systems Architect") {
		t.Error("system prompt missing audience label")
	}
	if !strings.Contains(streamer.gotSystem, "synergy, journey") {
		t.Error("system prompt missing voice forbidden words")
	}
	if !strings.Contains(streamer.gotUser, "Interview about pricing.") {
		t.Error("user prompt missing transcript")
	}
	if !strings.Contains(streamer.gotUser, `"tone":"cold"`) {
		t.Error("user prompt missing voice DNA JSON")
	}
	if streamer.gotTemp != 0.8 {
		t.Errorf("temperature = %v, want the agency_owner setting", streamer.gotTemp)
	}
}

func TestGenerate_UnknownAudienceFallsBack(t *testing.T) {
	streamer := &fakeStreamer{deltas: []string{"done"}}
	svc := newTestGhostwriter(streamer)

	err := svc.Generate(context.Background(), GenerationRequest{
		Transcript: "x",
		Audience:   "astronaut",
	}, &bytes.Buffer{}, nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	def := DefaultAudienceProfiles()[DefaultAudience]
	if !strings.Contains(streamer.gotSystem, def.Label) {
		t.Errorf("unknown audience should fall back to %s", def.Label)
	}
}

func TestGenerate_NoVoiceProfileUsesDefaultDNA(t *testing.T) {
	streamer := &fakeStreamer{deltas: []string{"done"}}
	svc := newTestGhostwriter(streamer)

	if err := svc.Generate(context.Background(), GenerationRequest{Transcript: "x"}, &bytes.Buffer{}, nil); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !strings.Contains(streamer.gotUser, "Ownership is the law.") {
		t.Error("user prompt missing default voice DNA")
	}
}

func TestPrefixTrimmer_StripsLeadingLabel(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   string
	}{
		{"post label", []string{"Post: You are", " not a founder. You run errands for your business."}, "You are not a founder. You run errands for your business."},
		{"here is label", []string{"Here is the manifesto you asked for, delivered cold."}, "the manifesto you asked for, delivered cold."},
		{"no label", []string{"You are not a founder. You are the bottleneck."}, "You are not a founder. You are the bottleneck."},
		{"short stream", []string{"Post: Done."}, "Done."},
		{"label split across chunks", []string{"Po", "st: You own nothing until the system runs without you."}, "You own nothing until the system runs without you."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			trimmer := newPrefixTrimmer(&out)
			for _, c := range tc.chunks {
				if _, err := trimmer.Write([]byte(c)); err != nil {
					t.Fatalf("Write returned error: %v", err)
				}
			}
			if err := trimmer.Finish(); err != nil {
				t.Fatalf("Finish returned error: %v", err)
			}
			if out.String() != tc.want {
				t.Errorf("output = %q, want %q", out.String(), tc.want)
			}
		})
	}
}
