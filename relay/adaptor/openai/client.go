package openai

import (
	openaisdk "github.com/sashabaranov/go-openai"

	"github.com/dealmate/agent-backend/common/client"
)

// NewClient builds an SDK client that shares the process-wide upstream HTTP client.
func NewClient(apiKey, baseURL string) *openaisdk.Client {
	cfg := openaisdk.DefaultConfig(apiKey)
	cfg.BaseURL = NormalizeBaseURL(baseURL)
	if client.HTTPClient != nil {
		cfg.HTTPClient = client.HTTPClient
	}
	return openaisdk.NewClientWithConfig(cfg)
}
