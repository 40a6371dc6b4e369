package openai

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/dealmate/agent-backend/common/config"
	"github.com/dealmate/agent-backend/common/logger"
)

// approximateTokenRatio is the tokens-per-byte estimate used when encoders are disabled.
const approximateTokenRatio = 0.38

var (
	tokenEncoderMu      sync.RWMutex
	tokenEncoderMap     = map[string]*tiktoken.Tiktoken{}
	defaultTokenEncoder *tiktoken.Tiktoken
)

// InitTokenEncoders loads the encoders of the configured chat model up front.
// Set APPROXIMATE_TOKEN_ENABLED in offline environments to skip it.
func InitTokenEncoders() {
	if config.ApproximateTokenEnabled {
		logger.Logger.Info("approximate token counting enabled, skip loading token encoders")
		return
	}

	gpt4TokenEncoder, err := tiktoken.EncodingForModel("gpt-4")
	if err != nil {
		panic(fmt.Sprintf("failed to get gpt-4 token encoder: %s, "+
			"if you are using in offline environment, please set TIKTOKEN_CACHE_DIR to use exsited files", err.Error()))
	}

	tokenEncoderMu.Lock()
	defaultTokenEncoder = gpt4TokenEncoder
	tokenEncoderMap["gpt-4"] = gpt4TokenEncoder
	tokenEncoderMu.Unlock()

	getTokenEncoder(config.OpenAIChatModel)
}

func getTokenEncoder(model string) *tiktoken.Tiktoken {
	tokenEncoderMu.RLock()
	tokenEncoder, ok := tokenEncoderMap[model]
	tokenEncoderMu.RUnlock()
	if ok {
		return tokenEncoder
	}

	tokenEncoder, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// models unknown to tiktoken, e.g. qwen-*, are counted with the gpt-4 encoding
		tokenEncoder, err = tiktoken.EncodingForModel("gpt-4")
		if err != nil {
			return nil
		}
	}

	tokenEncoderMu.Lock()
	tokenEncoderMap[model] = tokenEncoder
	if defaultTokenEncoder == nil {
		defaultTokenEncoder = tokenEncoder
	}
	tokenEncoderMu.Unlock()
	return tokenEncoder
}

// CountTokenText counts the tokens text takes for model.
func CountTokenText(text string, model string) int {
	if config.ApproximateTokenEnabled {
		return int(float64(len(text)) * approximateTokenRatio)
	}
	tokenEncoder := getTokenEncoder(model)
	if tokenEncoder == nil {
		return int(float64(len(text)) * approximateTokenRatio)
	}
	return len(tokenEncoder.Encode(text, nil, nil))
}

// TruncateTokenText cuts text down to at most maxTokens tokens for model.
// The second return value reports whether anything was cut.
func TruncateTokenText(text string, model string, maxTokens int) (string, bool) {
	if maxTokens <= 0 || text == "" {
		return text, false
	}

	var tokenEncoder *tiktoken.Tiktoken
	if !config.ApproximateTokenEnabled {
		tokenEncoder = getTokenEncoder(model)
	}
	if tokenEncoder == nil {
		maxBytes := int(float64(maxTokens) / approximateTokenRatio)
		if len(text) <= maxBytes {
			return text, false
		}
		cut := text[:maxBytes]
		for len(cut) > 0 && !utf8.ValidString(cut) {
			cut = cut[:len(cut)-1]
		}
		return strings.TrimSpace(cut), true
	}

	tokens := tokenEncoder.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, false
	}
	return strings.ToValidUTF8(tokenEncoder.Decode(tokens[:maxTokens]), ""), true
}
