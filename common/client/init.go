package client

import (
	"net/http"
	"net/url"
	"time"

	"github.com/Laisky/zap"

	"github.com/dealmate/agent-backend/common/config"
	"github.com/dealmate/agent-backend/common/logger"
)

// HTTPClient talks to upstream LLM providers. Streaming responses can be long-lived,
// so it is only bounded when RELAY_TIMEOUT is set.
var HTTPClient *http.Client

// UserContentRequestHTTPClient fetches user-supplied files referenced by URL.
var UserContentRequestHTTPClient *http.Client

func init() {
	Init()
}

// Init (re)builds the shared clients from the current configuration.
func Init() {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.RelayProxy != "" {
		proxyURL, err := url.Parse(config.RelayProxy)
		if err != nil {
			logger.Logger.Fatal("invalid RELAY_PROXY", zap.String("proxy", config.RelayProxy), zap.Error(err))
		}
		logger.Logger.Info("using relay proxy", zap.String("proxy", proxyURL.Host))
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	HTTPClient = &http.Client{Transport: transport}
	if config.RelayTimeout > 0 {
		HTTPClient.Timeout = time.Duration(config.RelayTimeout) * time.Second
	}

	UserContentRequestHTTPClient = &http.Client{
		Timeout: time.Duration(config.UserContentRequestTimeout) * time.Second,
	}
}
