package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/yoockh/voicechat/internal/models"
)

// GeminiAPI talks to generativelanguage.googleapis.com with an API key.
type GeminiAPI struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiAPI(ctx context.Context, apiKey, modelName string) (*GeminiAPI, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	c, err := genai.NewClient(ctx,
		option.WithAPIKey(apiKey),
		option.WithEndpoint("generativelanguage.googleapis.com"),
	)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = DefaultModel
	}
	return &GeminiAPI{client: c, model: c.GenerativeModel(modelName)}, nil
}

func (g *GeminiAPI) Close() error { return g.client.Close() }

func (g *GeminiAPI) Chat(ctx context.Context, history []models.Turn, message string) (string, error) {
	cs := g.model.StartChat()
	cs.History = make([]*genai.Content, 0, len(history))
	for _, t := range history {
		cs.History = append(cs.History, &genai.Content{
			Role:  string(t.Role),
			Parts: []genai.Part{genai.Text(t.Text)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("model returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("model returned no text")
	}
	return sb.String(), nil
}
