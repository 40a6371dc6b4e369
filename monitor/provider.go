package monitor

import (
	"net/http"
	"strings"

	"github.com/Laisky/zap"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dealmate/agent-backend/common/logger"
)

var providerFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "dealmate",
	Name:      "provider_failures_total",
	Help:      "Non-success statuses reported by upstream providers.",
}, []string{"provider", "status", "code"})

func init() {
	prometheus.MustRegister(providerFailures)
}

var credentialErrorCodes = []string{
	"invalidapikey",
	"invalid_api_key",
	"accessdenied",
	"access_denied",
	"unauthorized",
	"insufficient_quota",
	"arrearage",
}

// IsCredentialFailure reports whether a provider failure means the configured
// key is unusable, as opposed to a problem with this one request.
func IsCredentialFailure(statusCode int, code string) bool {
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		return true
	}
	lower := strings.ToLower(code)
	for _, c := range credentialErrorCodes {
		if strings.Contains(lower, c) {
			return true
		}
	}
	return false
}

// ReportProviderFailure counts a non-success provider status. Credential failures
// are logged at error level so that the alert pusher picks them up.
func ReportProviderFailure(provider string, statusCode int, code, message string) {
	providerFailures.WithLabelValues(provider, StatusLabel(statusCode), code).Inc()

	fields := []zap.Field{
		zap.String("provider", provider),
		zap.Int("status_code", statusCode),
		zap.String("code", code),
		zap.String("message", message),
	}
	if IsCredentialFailure(statusCode, code) {
		logger.Logger.Error("provider rejected configured credentials", fields...)
		return
	}
	logger.Logger.Warn("provider returned non-success status", fields...)
}
