package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"ghostwriter-backend/internal/models"
)

// StatusNotifier pushes pipeline progress to the requesting user's
// WebSocket via Redis pub/sub. It is strictly best-effort: a failed
// publish never affects the pipeline.
type StatusNotifier struct {
	redis  *redis.Client
	logger zerolog.Logger
}

func NewStatusNotifier(redisClient *redis.Client, logger zerolog.Logger) *StatusNotifier {
	return &StatusNotifier{redis: redisClient, logger: logger}
}

func (n *StatusNotifier) Publish(ctx context.Context, userID uuid.UUID, requestID string, step int, stepName string) {
	if n == nil || n.redis == nil {
		return
	}

	msg := models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			RequestID: requestID,
			Step:      step,
			StepName:  stepName,
		},
	}

	data, _ := json.Marshal(msg)
	channel := fmt.Sprintf("user_updates:%s", userID.String())
	if err := n.redis.Publish(ctx, channel, string(data)).Err(); err != nil {
		n.logger.Debug().Err(err).Str("channel", channel).Msg("status publish failed")
	}
}
