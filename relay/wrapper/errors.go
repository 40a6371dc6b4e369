package wrapper

import (
	"fmt"

	"github.com/Laisky/errors/v2"
)

// ErrStreamConsumed is yielded when a streaming response is ranged over a second time.
var ErrStreamConsumed = errors.New("stream already consumed, make a new call to stream again")

// ProviderError reports a non-success status returned by the provider.
type ProviderError struct {
	RequestID  string
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("Request id: %s,\nStatus code: %d,\nError code: %s,\nError message: %s.",
		e.RequestID, e.StatusCode, e.Code, e.Message)
}
