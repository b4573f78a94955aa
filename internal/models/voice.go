package models

// StyleProfile is the "voice DNA" derived from a user's writing samples.
// Field names match the JSON the profiler model is instructed to return.
type StyleProfile struct {
	SentenceStructure string   `json:"sentenceStructure"`
	HookPattern       string   `json:"hookPattern"`
	ForbiddenWords    []string `json:"forbiddenWords"`
	Tone              string   `json:"tone"`
	Formatting        string   `json:"formatting"`
}

type ProfileRequest struct {
	Posts []string `json:"posts"`
}

type ProfileResponse struct {
	VoiceJSON *StyleProfile `json:"voiceJson"`
}

type GhostwriteRequest struct {
	Prompt       string        `json:"prompt"`
	VoiceProfile *StyleProfile `json:"voiceProfile"`
	Audience     string        `json:"audience"`
	UserID       string        `json:"userId"`
}

type CreditsResponse struct {
	Credits int    `json:"credits"`
	Role    string `json:"role"`
}
