package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const deepgramListenURL = "https://api.deepgram.com/v1/listen"

// DeepgramService drives the prerecorded transcription API. Deepgram is a
// plain authenticated REST endpoint: one POST with the audio body and
// query-string options, one JSON response.
type DeepgramService struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewDeepgramService(apiKey string, logger zerolog.Logger) *DeepgramService {
	return &DeepgramService{
		apiKey:     apiKey,
		baseURL:    deepgramListenURL,
		model:      "nova-2",
		httpClient: &http.Client{Timeout: 3 * time.Minute},
		logger:     logger,
	}
}

type deepgramUtterance struct {
	Speaker    int     `json:"speaker"`
	Transcript string  `json:"transcript"`
	Start      float64 `json:"start"`
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
		Utterances []deepgramUtterance `json:"utterances"`
	} `json:"results"`
}

type deepgramError struct {
	ErrCode string `json:"err_code"`
	ErrMsg  string `json:"err_msg"`
}

// TranscribeFile submits the audio file for diarized transcription and
// returns the primary speaker's text.
func (s *DeepgramService) TranscribeFile(ctx context.Context, audioPath, mimeType string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	q := url.Values{}
	q.Set("model", s.model)
	q.Set("smart_format", "true")
	q.Set("diarize", "true")
	q.Set("punctuate", "true")
	q.Set("utterances", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"?"+q.Encode(), f)
	if err != nil {
		return "", fmt.Errorf("failed to build transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+s.apiKey)
	req.Header.Set("Content-Type", mimeType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read transcription response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var dgErr deepgramError
		if json.Unmarshal(body, &dgErr) == nil && dgErr.ErrMsg != "" {
			return "", fmt.Errorf("transcription service error: %s", dgErr.ErrMsg)
		}
		return "", fmt.Errorf("transcription service returned status %d", resp.StatusCode)
	}

	var parsed deepgramResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse transcription response: %w", err)
	}

	transcript := primaryTranscript(&parsed)
	if transcript == "" {
		return "", ErrNoSpeech
	}

	s.logger.Debug().
		Int("utterances", len(parsed.Results.Utterances)).
		Int("chars", len(transcript)).
		Msg("transcription complete")

	return transcript, nil
}

// primaryTranscript keeps only the speaker of the first utterance,
// concatenated in original order. Source videos are typically
// single-subject interviews or monologues, so this keeps interviewer and
// co-host speech out of the style analysis. When diarization yields
// nothing (silent or instrumental audio), fall back to the flat
// transcript of the first channel.
//
// The selection policy lives entirely in this function; a largest-total-
// speaking-time heuristic would slot in here without touching callers.
func primaryTranscript(resp *deepgramResponse) string {
	utterances := resp.Results.Utterances
	if len(utterances) > 0 {
		primary := utterances[0].Speaker
		var b strings.Builder
		for _, u := range utterances {
			if u.Speaker != primary {
				continue
			}
			text := strings.TrimSpace(u.Transcript)
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString(" ")
			}
			b.WriteString(text)
		}
		if b.Len() > 0 {
			return b.String()
		}
	}

	// Flat fallback: first channel, first alternative.
	channels := resp.Results.Channels
	if len(channels) > 0 && len(channels[0].Alternatives) > 0 {
		return strings.TrimSpace(channels[0].Alternatives[0].Transcript)
	}
	return ""
}
