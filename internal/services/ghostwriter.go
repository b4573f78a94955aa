package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"ghostwriter-backend/internal/models"
)

// GenerationRequest is the ephemeral input of one generation run.
type GenerationRequest struct {
	Transcript   string
	VoiceProfile *models.StyleProfile
	Audience     string
}

// chatStreamer is the one suspendable operation in the system: it pushes
// deltas to onDelta as they arrive from the model.
type chatStreamer interface {
	Stream(ctx context.Context, system, user string, temperature float64, onDelta func(string) error) error
}

// openaiStreamer drives Gemini through its OpenAI-compatible endpoint.
type openaiStreamer struct {
	client *openai.Client
	model  openai.ChatModel
}

func newOpenAIStreamer(apiKey, baseURL, model string) *openaiStreamer {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)
	return &openaiStreamer{
		client: &client,
		model:  openai.ChatModel(model),
	}
}

func (o *openaiStreamer) Stream(ctx context.Context, system, user string, temperature float64, onDelta func(string) error) error {
	stream := o.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(5000),
	})
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := onDelta(delta); err != nil {
			return err
		}
	}

	return stream.Err()
}

// GhostwriterService composes transcript, voice DNA, and audience rules
// into one streaming generation call and relays tokens to the caller.
type GhostwriterService struct {
	streamer  chatStreamer
	audiences map[string]AudienceProfile
	logger    zerolog.Logger
}

func NewGhostwriterService(apiKey, baseURL, model string, audiences map[string]AudienceProfile, logger zerolog.Logger) *GhostwriterService {
	return &GhostwriterService{
		streamer:  newOpenAIStreamer(apiKey, baseURL, model),
		audiences: audiences,
		logger:    logger,
	}
}

// Generate runs one streaming generation and forwards tokens to out as
// they arrive, flushing after each write. A nil return means the stream
// reached its terminal end; anything else (upstream error, client
// disconnect) means the run must not be settled.
func (s *GhostwriterService) Generate(ctx context.Context, req GenerationRequest, out io.Writer, flush func()) error {
	profile, ok := s.audiences[strings.ToLower(req.Audience)]
	if !ok {
		profile = s.audiences[DefaultAudience]
	}

	system := buildSystemPrompt(profile, req.VoiceProfile)
	user := buildUserPrompt(req.Transcript, req.VoiceProfile)

	trimmer := newPrefixTrimmer(out)
	err := s.streamer.Stream(ctx, system, user, profile.Temperature, func(delta string) error {
		if _, werr := trimmer.Write([]byte(delta)); werr != nil {
			return werr
		}
		if flush != nil {
			flush()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if ferr := trimmer.Finish(); ferr != nil {
		return fmt.Errorf("%w: %v", ErrGenerationFailed, ferr)
	}
	if flush != nil {
		flush()
	}

	s.logger.Info().Str("audience", profile.Label).Msg("generation stream completed")
	return nil
}

func buildSystemPrompt(profile AudienceProfile, voice *models.StyleProfile) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("You are a $100M Founder writing a manifesto for a %s.\n", profile.Label))
	b.WriteString("TONE: Clinical, cold, and declarative. You state laws of physics, not advice.\n\n")

	b.WriteString("STRICT AUDIENCE RULES:\n")
	b.WriteString(fmt.Sprintf("1. FOCUS: %s\n", profile.Focus))
	b.WriteString(fmt.Sprintf("2. REQUIRED TERMINOLOGY: %s\n", profile.RequiredLexicon))
	forbidden := profile.Forbidden
	if voice != nil && len(voice.ForbiddenWords) > 0 {
		forbidden = forbidden + " Also forbidden per the author's voice: " + strings.Join(voice.ForbiddenWords, ", ") + "."
	}
	b.WriteString(fmt.Sprintf("3. FORBIDDEN FOR THIS AUDIENCE: %s\n\n", forbidden))

	b.WriteString(`GLOBAL OPERATIONAL LAWS:
- Use Second Person ("You") exclusively.
- No academic transitions (moreover, consequently, therefore).
- No soft words (success, prosperity, financial freedom, journey).
- The first sentence must be a direct confrontation of a structural failure.
- Use dense, logical, and sophisticated sentence structures.
- Structure: open with a hook, ground it in context, deliver the lesson, land a punchline.
- Target length 180 to 220 words. When you reach the bound, finish the current sentence and stop. Never cut mid-sentence.
`)

	return b.String()
}

func buildUserPrompt(transcript string, voice *models.StyleProfile) string {
	dnaContext := "Ownership is the law."
	if voice != nil {
		if data, err := json.Marshal(voice); err == nil {
			dnaContext = string(data)
		}
	}

	var b strings.Builder
	b.WriteString("TRANSCRIPT DATA: ")
	b.WriteString(transcript)
	b.WriteString("\nVOICE DNA PROFILE: ")
	b.WriteString(dnaContext)
	b.WriteString("\n\nTASK: Write a 180 - 220-word LinkedIn manifesto. End with a cold, definitive period.")
	return b.String()
}

var leadingLabelRe = regexp.MustCompile(`(?i)^\s*(Post:|Manifesto:|LinkedIn Post:|Here is)\s*`)

// prefixTrimmer buffers the first few bytes of the stream so a leading
// "Post:"-style label can be stripped before anything reaches the client;
// once the head is inspected, everything passes straight through.
type prefixTrimmer struct {
	out     io.Writer
	head    []byte
	started bool
}

const prefixInspectLen = 24

func newPrefixTrimmer(out io.Writer) *prefixTrimmer {
	return &prefixTrimmer{out: out}
}

func (t *prefixTrimmer) Write(p []byte) (int, error) {
	if t.started {
		_, err := t.out.Write(p)
		return len(p), err
	}

	t.head = append(t.head, p...)
	if len(t.head) < prefixInspectLen {
		return len(p), nil
	}
	return len(p), t.release()
}

// Finish flushes whatever is still buffered; needed when the whole
// stream was shorter than the inspection window.
func (t *prefixTrimmer) Finish() error {
	if t.started {
		return nil
	}
	return t.release()
}

func (t *prefixTrimmer) release() error {
	cleaned := leadingLabelRe.ReplaceAll(t.head, nil)
	t.started = true
	t.head = nil
	_, err := t.out.Write(cleaned)
	return err
}
