package wrapper

import (
	"context"
	"io"
	"iter"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	openaisdk "github.com/sashabaranov/go-openai"

	"github.com/dealmate/agent-backend/monitor"
	openaiadaptor "github.com/dealmate/agent-backend/relay/adaptor/openai"
	"github.com/dealmate/agent-backend/relay/model"
)

// OpenAIChatWrapper calls the chat completions API synchronously. It shares the
// calling convention of AsyncDashScopeChatWrapper so either can back a route.
type OpenAIChatWrapper struct {
	model    string
	client   *openaisdk.Client
	defaults GenerateOptions
}

func NewOpenAIChatWrapper(modelName string, client *openaisdk.Client, defaults GenerateOptions) *OpenAIChatWrapper {
	return &OpenAIChatWrapper{
		model:    modelName,
		client:   client,
		defaults: defaults,
	}
}

func (w *OpenAIChatWrapper) ModelName() string {
	return w.model
}

func (w *OpenAIChatWrapper) Call(ctx context.Context,
	messages []model.Message, stream bool, opts GenerateOptions) (*model.ModelResponse, error) {
	if err := model.ValidateMessages(messages); err != nil {
		return nil, errors.Wrap(err, "invalid messages")
	}

	merged, err := w.defaults.Merge(opts)
	if err != nil {
		return nil, err
	}
	req := w.buildRequest(ctx, messages, merged)

	if stream {
		req.Stream = true
		return &model.ModelResponse{Stream: w.streamResponse(ctx, req)}, nil
	}

	start := time.Now()
	resp, err := w.client.CreateChatCompletion(ctx, req)
	monitor.RecordProviderRequest(monitor.ProviderOpenAI, w.model, false,
		monitor.StatusLabel(openaiadaptor.StatusCodeFromError(err)), time.Since(start))
	if err != nil {
		return nil, w.wrapError(err)
	}
	monitor.RecordTokenUsage(monitor.ProviderOpenAI, w.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	if len(resp.Choices) == 0 {
		return nil, errors.Errorf("openai response %s has no choices", resp.ID)
	}
	return &model.ModelResponse{Text: resp.Choices[0].Message.Content, Raw: resp}, nil
}

func (w *OpenAIChatWrapper) buildRequest(ctx context.Context,
	messages []model.Message, opts GenerateOptions) openaisdk.ChatCompletionRequest {
	req := openaisdk.ChatCompletionRequest{
		Model:    w.model,
		Messages: make([]openaisdk.ChatCompletionMessage, 0, len(messages)),
		Stop:     slices.Clone(opts.Stop),
		Seed:     opts.Seed,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openaisdk.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	if opts.Temperature != nil {
		req.Temperature = float32(*opts.Temperature)
	}
	if opts.TopP != nil {
		req.TopP = float32(*opts.TopP)
	}
	if opts.MaxTokens != nil {
		req.MaxTokens = *opts.MaxTokens
	}
	if opts.PresencePenalty != nil {
		req.PresencePenalty = float32(*opts.PresencePenalty)
	}

	if opts.TopK != nil || opts.RepetitionPenalty != nil || opts.EnableSearch != nil || len(opts.Extra) > 0 {
		gmw.GetLogger(ctx).Debug("openai chat ignores options without a chat completions field",
			zap.String("model", w.model),
			zap.Int("extra_keys", len(opts.Extra)))
	}
	return req
}

func (w *OpenAIChatWrapper) streamResponse(ctx context.Context,
	req openaisdk.ChatCompletionRequest) iter.Seq2[*model.ModelResponse, error] {
	var consumed atomic.Bool

	return func(yield func(*model.ModelResponse, error) bool) {
		if !consumed.CompareAndSwap(false, true) {
			yield(nil, ErrStreamConsumed)
			return
		}

		start := time.Now()
		stream, err := w.client.CreateChatCompletionStream(ctx, req)
		monitor.RecordProviderRequest(monitor.ProviderOpenAI, w.model, true,
			monitor.StatusLabel(openaiadaptor.StatusCodeFromError(err)), time.Since(start))
		if err != nil {
			yield(nil, w.wrapError(err))
			return
		}
		defer stream.Close()

		var text strings.Builder
		for {
			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, w.wrapError(err))
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}

			text.WriteString(chunk.Choices[0].Delta.Content)
			if !yield(&model.ModelResponse{Text: text.String(), Raw: chunk}, nil) {
				return
			}
		}
	}
}

// wrapError turns API errors into ProviderError so both wrappers report failures alike.
func (w *OpenAIChatWrapper) wrapError(err error) error {
	var apiErr *openaisdk.APIError
	if !errors.As(err, &apiErr) {
		return errors.Wrap(err, "openai chat completion")
	}

	code := openaiadaptor.ErrorCode(err)
	monitor.ReportProviderFailure(monitor.ProviderOpenAI, apiErr.HTTPStatusCode, code, apiErr.Message)
	return &ProviderError{
		StatusCode: apiErr.HTTPStatusCode,
		Code:       code,
		Message:    apiErr.Message,
	}
}
