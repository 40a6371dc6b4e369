package config

import (
	"strings"

	"github.com/dealmate/agent-backend/common/env"
)

var (
	// ServerPort overrides the --port flag when running inside container or PaaS environments.
	ServerPort = strings.TrimSpace(env.String("PORT", ""))
	// GinMode allows forcing Gin into release mode (or other modes) without recompiling.
	GinMode = strings.TrimSpace(env.String("GIN_MODE", ""))

	// DebugEnabled toggles verbose structured logging when DEBUG=true.
	DebugEnabled = env.Bool("DEBUG", false)

	// ShutdownTimeoutSec specifies the graceful shutdown timeout (seconds) for the HTTP server.
	ShutdownTimeoutSec = env.Int("SHUTDOWN_TIMEOUT", 60)

	// RelayTimeout bounds upstream HTTP requests (seconds) before aborting them. Zero disables the bound.
	RelayTimeout = env.Int("RELAY_TIMEOUT", 0)
	// RelayProxy provides an HTTP proxy for outbound requests to upstream providers.
	RelayProxy = env.String("RELAY_PROXY", "")

	// UserContentRequestTimeout limits fetch time (seconds) for user-supplied files referenced by URL.
	UserContentRequestTimeout = env.Int("USER_CONTENT_REQUEST_TIMEOUT", 30)
	// MaxUploadSizeMB caps the size of audio and spreadsheet payloads, whether inlined or fetched.
	MaxUploadSizeMB = func() int {
		v := env.Int("MAX_UPLOAD_SIZE_MB", 25)
		if v <= 0 {
			panic("MAX_UPLOAD_SIZE_MB must be positive")
		}
		return v
	}()

	// CorsAllowOrigins lists the origins allowed to call the API from a browser.
	CorsAllowOrigins = env.StringList("CORS_ALLOW_ORIGINS", []string{"*"})

	// EnablePrometheusMetrics exposes the /metrics endpoint for Prometheus scrapers when true.
	EnablePrometheusMetrics = env.Bool("ENABLE_PROMETHEUS_METRICS", true)

	// OnlyOneLogFile writes every log line into a single file instead of one file per day.
	OnlyOneLogFile = env.Bool("ONLY_ONE_LOG_FILE", false)

	// LogRetentionDays determines how many days logs are kept before the retention worker purges them (0 disables cleanup).
	LogRetentionDays = func() int {
		v := env.Int("LOG_RETENTION_DAYS", 0)
		if v < 0 {
			return 0
		}
		return v
	}()

	// LogPushAPI defines the webhook endpoint for escalated log alerts.
	LogPushAPI = env.String("LOG_PUSH_API", "")
	// LogPushType labels outbound log alerts so downstream processors can route them.
	LogPushType = env.String("LOG_PUSH_TYPE", "")
	// LogPushToken authenticates outbound log alert requests.
	LogPushToken = env.String("LOG_PUSH_TOKEN", "")
)

// Provider settings
var (
	// AgentProvider selects the chat wrapper used by /run-agent and /memo ("openai" or "dashscope").
	AgentProvider = strings.ToLower(strings.TrimSpace(env.String("AGENT_PROVIDER", "openai")))
	// AgentTemperature is the default sampling temperature for agent and memo calls.
	AgentTemperature = env.Float64("AGENT_TEMPERATURE", 0.4)

	// OpenAIAPIKey authenticates calls to the OpenAI API.
	OpenAIAPIKey = env.String("OPENAI_API_KEY", "")
	// OpenAIBaseURL points the OpenAI client at a compatible endpoint; empty keeps the SDK default.
	OpenAIBaseURL = strings.TrimSuffix(strings.TrimSpace(env.String("OPENAI_BASE_URL", "")), "/")
	// OpenAIChatModel is the chat model used by the OpenAI wrapper.
	OpenAIChatModel = env.String("OPENAI_CHAT_MODEL", "gpt-4")
	// OpenAITranscribeModel is the speech-to-text model used by /transcribe.
	OpenAITranscribeModel = env.String("OPENAI_TRANSCRIBE_MODEL", "whisper-1")

	// DashScopeAPIKey authenticates calls to the DashScope generation API.
	DashScopeAPIKey = env.String("DASHSCOPE_API_KEY", "")
	// DashScopeBaseURL is the DashScope API root.
	DashScopeBaseURL = strings.TrimSuffix(strings.TrimSpace(env.String("DASHSCOPE_BASE_URL", "https://dashscope.aliyuncs.com")), "/")
	// DashScopeModel is the generation model used by the async DashScope wrapper.
	DashScopeModel = env.String("DASHSCOPE_MODEL", "qwen-max")

	// MemoMaxContextTokens truncates memo source material beyond this many tokens.
	MemoMaxContextTokens = env.Int("MEMO_MAX_CONTEXT_TOKENS", 6000)
	// MemoSectionConcurrency bounds how many memo sections are drafted in parallel.
	MemoSectionConcurrency = func() int {
		v := env.Int("MEMO_SECTION_CONCURRENCY", 3)
		if v < 1 {
			return 1
		}
		return v
	}()
)

var (
	// ApproximateTokenEnabled toggles approximate token counting instead of loading tiktoken encoders.
	ApproximateTokenEnabled = env.Bool("APPROXIMATE_TOKEN_ENABLED", false)
)
