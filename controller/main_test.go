package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/dealmate/agent-backend/common/config"
	"github.com/dealmate/agent-backend/common/logger"
	"github.com/dealmate/agent-backend/middleware"
	"github.com/dealmate/agent-backend/relay/model"
	"github.com/dealmate/agent-backend/relay/wrapper"
)

const fakeProvider = "fake"

func init() {
	gin.SetMode(gin.TestMode)
	// keep token counting offline
	config.ApproximateTokenEnabled = true
}

type fakeCall struct {
	messages []model.Message
	stream   bool
	opts     wrapper.GenerateOptions
}

// fakeChat records every call and answers with reply.
type fakeChat struct {
	mu    sync.Mutex
	calls []fakeCall
	reply func(messages []model.Message, stream bool) (*model.ModelResponse, error)
}

func (f *fakeChat) ModelName() string { return "fake-model" }

func (f *fakeChat) Call(_ context.Context, messages []model.Message,
	stream bool, opts wrapper.GenerateOptions) (*model.ModelResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{messages: messages, stream: stream, opts: opts})
	f.mu.Unlock()
	return f.reply(messages, stream)
}

func (f *fakeChat) Calls() []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeCall(nil), f.calls...)
}

// useFakeChat makes f the wrapper behind AGENT_PROVIDER for the rest of the test.
func useFakeChat(t *testing.T, reply func([]model.Message, bool) (*model.ModelResponse, error)) *fakeChat {
	t.Helper()
	f := &fakeChat{reply: reply}

	original := config.AgentProvider
	config.AgentProvider = fakeProvider
	wrapper.Register(fakeProvider, f)
	t.Cleanup(func() {
		wrapper.Unregister(fakeProvider)
		config.AgentProvider = original
	})
	return f
}

func textReply(text string) func([]model.Message, bool) (*model.ModelResponse, error) {
	return func([]model.Message, bool) (*model.ModelResponse, error) {
		return &model.ModelResponse{Text: text}, nil
	}
}

// streamReply yields each snapshot in turn, then err if it is not nil.
func streamReply(err error, snapshots ...string) func([]model.Message, bool) (*model.ModelResponse, error) {
	return func([]model.Message, bool) (*model.ModelResponse, error) {
		var seq iter.Seq2[*model.ModelResponse, error] = func(yield func(*model.ModelResponse, error) bool) {
			for _, s := range snapshots {
				if !yield(&model.ModelResponse{Text: s, Raw: s}, nil) {
					return
				}
			}
			if err != nil {
				yield(nil, err)
			}
		}
		return &model.ModelResponse{Stream: seq}, nil
	}
}

func newTestEngine() *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		gmw.SetLogger(c, logger.Logger)
		c.Next()
	}, middleware.RequestId())
	r.GET("/", GetRoot)
	r.GET("/status", GetStatus)
	r.POST("/run-agent", RunAgent)
	r.POST("/transcribe", Transcribe)
	r.POST("/parse_xlsx", ParseXLSX)
	r.POST("/memo", DraftMemo)
	return r
}

func postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	switch v := body.(type) {
	case string:
		payload = []byte(v)
	default:
		var err error
		payload, err = json.Marshal(v)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newTestEngine().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

// sseData returns the data lines of every event named name, in order.
func sseData(body, name string) []string {
	var out []string
	for _, block := range strings.Split(body, "\n\n") {
		var event, data string
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data = strings.TrimPrefix(line, "data:")
			}
		}
		if event == name {
			out = append(out, data)
		}
	}
	return out
}
