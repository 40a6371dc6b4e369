package wrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"

	openaiadaptor "github.com/dealmate/agent-backend/relay/adaptor/openai"
	"github.com/dealmate/agent-backend/relay/model"
)

func newOpenAITestWrapper(t *testing.T, handler http.HandlerFunc) (*OpenAIChatWrapper, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := openaiadaptor.NewClient("sk-test", srv.URL)
	return NewOpenAIChatWrapper("gpt-4", client, GenerateOptions{Temperature: Float64(0.4)}), &hits
}

func TestOpenAIChatCallReturnsCompletion(t *testing.T) {
	w, hits := newOpenAITestWrapper(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "gpt-4", body["model"])
		require.InDelta(t, 0.4, body["temperature"], 1e-6)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","model":"gpt-4",`+
			`"choices":[{"index":0,"message":{"role":"assistant","content":"hi there"},"finish_reason":"stop"}]}`)
	})

	resp, err := w.Call(context.Background(), helloMessages(), false, GenerateOptions{})
	require.NoError(t, err)
	require.Equal(t, "hi there", resp.Text)
	require.NotNil(t, resp.Raw)
	require.EqualValues(t, 1, hits.Load())
}

func TestOpenAIChatRejectsInvalidMessagesBeforeDispatch(t *testing.T) {
	w, hits := newOpenAITestWrapper(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := w.Call(context.Background(), []model.Message{{Role: model.RoleUser, Content: "hi"}, {Content: "hello"}}, false, GenerateOptions{})
	require.ErrorIs(t, err, model.ErrInvalidMessage)
	_, err = w.Call(context.Background(), []model.Message{{Content: "hello"}}, true, GenerateOptions{})
	require.ErrorIs(t, err, model.ErrInvalidMessage)
	require.Zero(t, hits.Load())
}

func TestOpenAIChatStreamYieldsCumulativeText(t *testing.T) {
	w, hits := newOpenAITestWrapper(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, true, body["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range []string{"Hi", " there"} {
			_, _ = fmt.Fprintf(w, "data: {\"id\":\"chatcmpl-2\",\"object\":\"chat.completion.chunk\","+
				"\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", delta)
		}
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	})

	resp, err := w.Call(context.Background(), helloMessages(), true, GenerateOptions{})
	require.NoError(t, err)
	require.Zero(t, hits.Load())

	var texts []string
	for chunk, err := range resp.Stream {
		require.NoError(t, err)
		texts = append(texts, chunk.Text)
	}
	require.Equal(t, []string{"Hi", "Hi there"}, texts)

	_, err = resp.Collect()
	require.ErrorIs(t, err, ErrStreamConsumed)
	require.EqualValues(t, 1, hits.Load())
}

func TestOpenAIChatProviderError(t *testing.T) {
	w, _ := newOpenAITestWrapper(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
	})

	for _, stream := range []bool{false, true} {
		resp, err := w.Call(context.Background(), helloMessages(), stream, GenerateOptions{})
		if stream {
			require.NoError(t, err)
			_, err = resp.Collect()
		}

		var providerErr *ProviderError
		require.True(t, errors.As(err, &providerErr), "stream=%v: %v", stream, err)
		require.Equal(t, http.StatusUnauthorized, providerErr.StatusCode)
		require.Equal(t, "invalid_api_key", providerErr.Code)
		require.Contains(t, err.Error(), "Incorrect API key provided")
	}
}
