package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
)

const (
	BackendGeminiAPI = "gemini-api"
	BackendVertex    = "vertex"

	DefaultModel = "gemini-1.5-flash"
)

type Settings struct {
	Backend        string
	APIKey         string
	Model          string
	VertexProject  string
	VertexLocation string
}

// New builds the provider selected by s.Backend. Vertex uses opts for
// credentials; the API-key backend ignores them.
func New(ctx context.Context, s Settings, opts ...option.ClientOption) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s.Backend)) {
	case "", BackendGeminiAPI:
		g, err := NewGeminiAPI(ctx, s.APIKey, s.Model)
		if err != nil {
			return nil, err
		}
		return g, nil
	case BackendVertex:
		if s.VertexProject == "" {
			return nil, fmt.Errorf("vertex backend requires a project id")
		}
		v, err := NewVertexGemini(ctx, s.VertexProject, s.VertexLocation, s.Model, opts...)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown llm backend: %s", s.Backend)
	}
}
