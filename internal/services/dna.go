package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"

	"ghostwriter-backend/internal/models"
)

const profilerCallTimeout = time.Minute

const profilerInstruction = `You are a linguistic profiler for a CEO.
Analyze the writing style and return ONLY a JSON object with:
"sentenceStructure", "hookPattern", "forbiddenWords", "tone", "formatting".
"forbiddenWords" must be an array of strings; the others are strings.`

type generativeModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// StyleProfiler derives a voice-DNA profile from raw writing samples with
// a single non-streaming, JSON-constrained model call.
type StyleProfiler struct {
	model    generativeModel
	maxChars int
	logger   zerolog.Logger
}

func NewStyleProfiler(client *genai.Client, modelName string, maxChars int, logger zerolog.Logger) *StyleProfiler {
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.3)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(profilerInstruction)},
	}

	return &StyleProfiler{
		model:    model,
		maxChars: maxChars,
		logger:   logger,
	}
}

// CombineSamples joins posts and truncates to the input cap. The cap
// bounds model cost and latency; nothing beyond it is ever sent upstream.
// The cut backs off to a rune boundary so the payload stays valid UTF-8.
func CombineSamples(posts []string, maxChars int) string {
	combined := strings.TrimSpace(strings.Join(posts, "\n\n"))
	if maxChars > 0 && len(combined) > maxChars {
		cut := maxChars
		for cut > 0 && !utf8.RuneStart(combined[cut]) {
			cut--
		}
		combined = combined[:cut]
	}
	return combined
}

// Profile analyzes the writing samples and returns the structured style
// profile. Malformed model output is ErrProfilingFailed, never a silently
// empty profile.
func (s *StyleProfiler) Profile(ctx context.Context, posts []string) (*models.StyleProfile, error) {
	combined := CombineSamples(posts, s.maxChars)
	if combined == "" {
		return nil, fmt.Errorf("%w: no sample text provided", ErrProfilingFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, profilerCallTimeout)
	defer cancel()

	resp, err := s.model.GenerateContent(ctx, genai.Text("Analyze this writing style: "+combined))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfilingFailed, err)
	}

	raw := extractText(resp)
	raw = stripJSONFences(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: model returned no output", ErrProfilingFailed)
	}

	profile, err := decodeStyleProfile(raw)
	if err != nil {
		s.logger.Error().Err(err).Str("output", truncateForLog(raw)).Msg("profiler returned malformed JSON")
		return nil, fmt.Errorf("%w: %v", ErrProfilingFailed, err)
	}

	s.logger.Info().Int("sample_chars", len(combined)).Msg("style profile extracted")
	return profile, nil
}

// decodeStyleProfile tolerates forbiddenWords arriving either as an array
// or a comma-separated string; everything else is strict.
func decodeStyleProfile(raw string) (*models.StyleProfile, error) {
	var loose struct {
		SentenceStructure string          `json:"sentenceStructure"`
		HookPattern       string          `json:"hookPattern"`
		ForbiddenWords    json.RawMessage `json:"forbiddenWords"`
		Tone              string          `json:"tone"`
		Formatting        string          `json:"formatting"`
	}
	if err := json.Unmarshal([]byte(raw), &loose); err != nil {
		return nil, err
	}

	profile := &models.StyleProfile{
		SentenceStructure: loose.SentenceStructure,
		HookPattern:       loose.HookPattern,
		Tone:              loose.Tone,
		Formatting:        loose.Formatting,
	}

	if len(loose.ForbiddenWords) > 0 {
		var words []string
		if err := json.Unmarshal(loose.ForbiddenWords, &words); err == nil {
			profile.ForbiddenWords = words
		} else {
			var single string
			if err := json.Unmarshal(loose.ForbiddenWords, &single); err != nil {
				return nil, fmt.Errorf("forbiddenWords is neither array nor string")
			}
			for _, w := range strings.Split(single, ",") {
				if w = strings.TrimSpace(w); w != "" {
					profile.ForbiddenWords = append(profile.ForbiddenWords, w)
				}
			}
		}
	}

	return profile, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncateForLog(s string) string {
	if len(s) > 300 {
		return s[:300]
	}
	return s
}
