package helper

import (
	"fmt"

	"github.com/dealmate/agent-backend/common/random"
)

// RequestIdKey is both the gin context key and the response header carrying the request id.
const RequestIdKey = "X-Dealmate-Request-Id"

// GenRequestID returns a sortable, mostly unique id for the current request.
func GenRequestID() string {
	return GetTimeString() + random.GetRandomNumberString(8)
}

// MessageWithRequestId appends the request id so clients can quote it when reporting issues.
func MessageWithRequestId(message string, id string) string {
	if id == "" {
		return message
	}
	return fmt.Sprintf("%s (request id: %s)", message, id)
}
