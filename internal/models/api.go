package models

import "github.com/google/uuid"

type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WebSocket message types

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// StatusUpdate is pushed to the requesting user's WebSocket while the
// pipeline moves through its stages.
type StatusUpdate struct {
	RequestID string    `json:"request_id"`
	UserID    uuid.UUID `json:"-"`
	Step      int       `json:"step"`
	StepName  string    `json:"step_name"`
}
