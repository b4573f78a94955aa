package models

import "time"

// TranscriptRecord is the durable cache entry for one YouTube video.
// Transcripts are shared across users: the same video always yields the
// same text, so last-write-wins on upsert is fine.
type TranscriptRecord struct {
	VideoID    string    `json:"video_id"`
	Transcript string    `json:"transcript"`
	Title      *string   `json:"title"`
	StyleTag   *string   `json:"style_tag"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type TranscriptRequest struct {
	URL string `json:"url"`
}

type TranscriptResponse struct {
	Transcript string `json:"transcript"`
}
