package wrapper

import (
	"maps"
	"slices"
	"sync"

	"github.com/Laisky/errors/v2"

	"github.com/dealmate/agent-backend/common/config"
	"github.com/dealmate/agent-backend/monitor"
	openaiadaptor "github.com/dealmate/agent-backend/relay/adaptor/openai"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]ChatWrapper{}

	builders = map[string]func() ChatWrapper{
		monitor.ProviderOpenAI: func() ChatWrapper {
			return NewOpenAIChatWrapper(config.OpenAIChatModel,
				openaiadaptor.NewClient(config.OpenAIAPIKey, config.OpenAIBaseURL),
				defaultOptions())
		},
		monitor.ProviderDashScope: func() ChatWrapper {
			return NewAsyncDashScopeChatWrapper(config.DashScopeModel, config.DashScopeAPIKey,
				WithDefaultOptions(defaultOptions()))
		},
	}
)

func defaultOptions() GenerateOptions {
	return GenerateOptions{Temperature: Float64(config.AgentTemperature)}
}

// Register makes w available under name, replacing any earlier wrapper.
func Register(name string, w ChatWrapper) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = w
}

// Unregister drops the wrapper registered under name. Built-in providers are
// rebuilt from config on the next lookup.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, name)
}

// GetChatWrapper returns the wrapper registered under name, building the
// built-in providers from config on first use.
func GetChatWrapper(name string) (ChatWrapper, error) {
	registryMu.RLock()
	w, ok := registry[name]
	registryMu.RUnlock()
	if ok {
		return w, nil
	}

	build, ok := builders[name]
	if !ok {
		return nil, errors.Errorf("unknown chat provider %q, expect one of %v", name, Providers())
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if w, ok = registry[name]; ok {
		return w, nil
	}
	w = build()
	registry[name] = w
	return w, nil
}

// Default returns the wrapper selected by AGENT_PROVIDER.
func Default() (ChatWrapper, error) {
	return GetChatWrapper(config.AgentProvider)
}

// Providers lists every name GetChatWrapper can resolve.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make(map[string]struct{}, len(builders)+len(registry))
	for name := range builders {
		names[name] = struct{}{}
	}
	for name := range registry {
		names[name] = struct{}{}
	}
	return slices.Sorted(maps.Keys(names))
}
