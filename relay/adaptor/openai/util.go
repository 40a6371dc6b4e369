package openai

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	openaisdk "github.com/sashabaranov/go-openai"
)

// StatusCodeFromError extracts the upstream HTTP status from an SDK error.
// Errors that never reached the API map to 502.
func StatusCodeFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var apiErr *openaisdk.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openaisdk.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return reqErr.HTTPStatusCode
	}
	return http.StatusBadGateway
}

// ErrorCode returns the provider error code carried by an SDK error, if any.
func ErrorCode(err error) string {
	var apiErr *openaisdk.APIError
	if !errors.As(err, &apiErr) {
		return ""
	}
	if code, ok := apiErr.Code.(string); ok && code != "" {
		return code
	}
	return apiErr.Type
}
