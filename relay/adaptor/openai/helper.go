package openai

import (
	"strings"
)

const defaultBaseURL = "https://api.openai.com/v1"

// NormalizeBaseURL returns the API root the SDK expects, which ends in /v1.
// Bases that already carry the version segment are kept as they are.
func NormalizeBaseURL(baseURL string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return defaultBaseURL
	}
	if strings.HasSuffix(trimmed, "/v1") {
		return trimmed
	}
	return trimmed + "/v1"
}
