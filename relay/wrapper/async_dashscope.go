package wrapper

import (
	"context"
	"io"
	"iter"
	"strings"
	"sync/atomic"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/dealmate/agent-backend/common/config"
	"github.com/dealmate/agent-backend/common/logger"
	"github.com/dealmate/agent-backend/monitor"
	"github.com/dealmate/agent-backend/relay/adaptor/dashscope"
	"github.com/dealmate/agent-backend/relay/model"
)

// AsyncGenerator is the asynchronous provider behind AsyncDashScopeChatWrapper.
// *dashscope.Client implements it.
type AsyncGenerator interface {
	Call(ctx context.Context, req *dashscope.GenerationRequest) (*dashscope.GenerationResponse, error)
	Stream(ctx context.Context, req *dashscope.GenerationRequest) (dashscope.ChunkIterator, error)
}

// AsyncDashScopeChatWrapper drives the asynchronous DashScope API from
// synchronous call sites. Every call runs on a private Loop that is closed
// before the call, or its stream, is done.
type AsyncDashScopeChatWrapper struct {
	model     string
	generator AsyncGenerator
	defaults  GenerateOptions
	newLoop   LoopFactory
}

type AsyncDashScopeOption func(*AsyncDashScopeChatWrapper)

// WithGenerator replaces the HTTP client with another provider implementation.
func WithGenerator(g AsyncGenerator) AsyncDashScopeOption {
	return func(w *AsyncDashScopeChatWrapper) {
		w.generator = g
	}
}

// WithLoopFactory changes how the per-call loop is created.
func WithLoopFactory(f LoopFactory) AsyncDashScopeOption {
	return func(w *AsyncDashScopeChatWrapper) {
		w.newLoop = f
	}
}

// WithDefaultOptions sets the options every call starts from.
func WithDefaultOptions(opts GenerateOptions) AsyncDashScopeOption {
	return func(w *AsyncDashScopeChatWrapper) {
		w.defaults = opts
	}
}

func NewAsyncDashScopeChatWrapper(modelName, apiKey string, opts ...AsyncDashScopeOption) *AsyncDashScopeChatWrapper {
	w := &AsyncDashScopeChatWrapper{
		model:   modelName,
		newLoop: NewLoop,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.generator == nil {
		w.generator = dashscope.NewClient(config.DashScopeBaseURL, apiKey)
	}
	return w
}

func (w *AsyncDashScopeChatWrapper) ModelName() string {
	return w.model
}

func (w *AsyncDashScopeChatWrapper) Call(ctx context.Context,
	messages []model.Message, stream bool, opts GenerateOptions) (*model.ModelResponse, error) {
	if err := model.ValidateMessages(messages); err != nil {
		return nil, errors.Wrap(err, "invalid messages")
	}

	req, err := w.buildRequest(messages, stream, opts)
	if err != nil {
		return nil, err
	}

	if stream {
		return &model.ModelResponse{Stream: w.streamResponse(ctx, req)}, nil
	}
	return w.callOnce(ctx, req)
}

func (w *AsyncDashScopeChatWrapper) buildRequest(messages []model.Message,
	stream bool, opts GenerateOptions) (*dashscope.GenerationRequest, error) {
	merged, err := w.defaults.Merge(opts)
	if err != nil {
		return nil, err
	}

	params := merged.dashScopeParameters()
	params.ResultFormat = dashscope.ResultFormatMessage
	if stream {
		params.IncrementalOutput = true
	}

	return &dashscope.GenerationRequest{
		Model:      w.model,
		Input:      dashscope.Input{Messages: messages},
		Parameters: params,
		Stream:     stream,
	}, nil
}

func (w *AsyncDashScopeChatWrapper) callOnce(ctx context.Context, req *dashscope.GenerationRequest) (*model.ModelResponse, error) {
	loop := w.newLoop(ctx)
	defer loop.Close()

	var resp *dashscope.GenerationResponse
	err := loop.RunUntilComplete(func(ctx context.Context) error {
		var err error
		resp, err = w.generator.Call(ctx, req)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "dashscope generation")
	}
	if resp == nil {
		return nil, errors.New("dashscope returned an empty response")
	}
	if err = checkStatus(resp); err != nil {
		return nil, err
	}

	w.recordUsage(resp.Usage.ToModelUsage())

	text, err := resp.Content()
	if err != nil {
		return nil, err
	}
	return &model.ModelResponse{Text: text, Raw: resp}, nil
}

// streamResponse defers all provider work to the first pull, so an unconsumed
// stream owns nothing.
func (w *AsyncDashScopeChatWrapper) streamResponse(ctx context.Context,
	req *dashscope.GenerationRequest) iter.Seq2[*model.ModelResponse, error] {
	var consumed atomic.Bool

	return func(yield func(*model.ModelResponse, error) bool) {
		if !consumed.CompareAndSwap(false, true) {
			yield(nil, ErrStreamConsumed)
			return
		}

		loop := w.newLoop(ctx)
		defer loop.Close()

		var chunks dashscope.ChunkIterator
		err := loop.RunUntilComplete(func(ctx context.Context) error {
			var err error
			chunks, err = w.generator.Stream(ctx, req)
			return err
		})
		if err != nil {
			yield(nil, errors.Wrap(err, "start dashscope stream"))
			return
		}
		defer chunks.Close()

		var (
			text  strings.Builder
			usage model.Usage
		)
		for {
			var chunk *dashscope.GenerationResponse
			err = loop.RunUntilComplete(func(ctx context.Context) error {
				var err error
				chunk, err = chunks.Next(ctx)
				return err
			})
			if errors.Is(err, io.EOF) {
				w.recordUsage(usage)
				return
			}
			if err != nil {
				yield(nil, errors.Wrap(err, "read dashscope stream"))
				return
			}
			if err = checkStatus(chunk); err != nil {
				yield(nil, err)
				return
			}

			// every chunk reports the usage so far
			usage = chunk.Usage.ToModelUsage()
			text.WriteString(chunk.Delta())
			if !yield(&model.ModelResponse{Text: text.String(), Raw: chunk}, nil) {
				logger.Logger.Debug("dashscope stream abandoned by consumer",
					zap.String("request_id", chunk.RequestID))
				return
			}
		}
	}
}

func (w *AsyncDashScopeChatWrapper) recordUsage(usage model.Usage) {
	monitor.RecordTokenUsage(monitor.ProviderDashScope, w.model, usage.PromptTokens, usage.CompletionTokens)
}

func checkStatus(resp *dashscope.GenerationResponse) error {
	if resp.OK() {
		return nil
	}

	monitor.ReportProviderFailure(monitor.ProviderDashScope, resp.StatusCode, resp.Code, resp.Message)
	return &ProviderError{
		RequestID:  resp.RequestID,
		StatusCode: resp.StatusCode,
		Code:       resp.Code,
		Message:    resp.Message,
	}
}
