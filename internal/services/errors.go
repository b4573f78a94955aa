package services

import "errors"

// Pipeline sentinels. Handlers map these onto the HTTP contract: the
// first two are client errors (fix your input), the rest are upstream or
// authorization failures.
var (
	ErrVideoNotFound       = errors.New("no recognizable video ID in URL")
	ErrVideoTooLong        = errors.New("video exceeds the duration ceiling")
	ErrDownloadFailed      = errors.New("audio extraction failed")
	ErrNoSpeech            = errors.New("no speech detected in audio")
	ErrProfilingFailed     = errors.New("style profiling failed")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrUserNotFound        = errors.New("user not found")
	ErrGenerationFailed    = errors.New("generation failed")
)
