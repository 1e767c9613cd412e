package llm

import (
	"context"

	"github.com/yoockh/voicechat/internal/models"
)

// Provider sends message to the model with history as prior conversation
// and returns the reply text.
type Provider interface {
	Chat(ctx context.Context, history []models.Turn, message string) (string, error)
	Close() error
}
