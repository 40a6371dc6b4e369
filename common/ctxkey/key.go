package ctxkey

const (
	// RequestId is the per-request unique identifier.
	// Set in: middleware.RequestId. Read in: controllers when rendering errors.
	RequestId = "X-Dealmate-Request-Id"

	// DealId is the deal the request works on, when the body names one.
	// Set in: controllers after decoding the body. Read in: logging.
	DealId = "deal_id"

	// Provider is the name of the chat wrapper serving the request ("openai", "dashscope").
	// Set in: controllers before dispatch. Read in: middleware metrics labels.
	Provider = "provider"
)
