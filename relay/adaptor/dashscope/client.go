package dashscope

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v5"
	"github.com/Laisky/zap"

	"github.com/dealmate/agent-backend/common/client"
	"github.com/dealmate/agent-backend/common/logger"
	"github.com/dealmate/agent-backend/monitor"
)

const generationPath = "/api/v1/services/aigc/text-generation/generation"

// maxErrorBodyBytes bounds how much of an undecodable error body is kept as the message.
const maxErrorBodyBytes = 2048

// Client calls the DashScope generation API over HTTP.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient returns a client that shares the process-wide upstream HTTP client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: client.HTTPClient,
	}
}

func (c *Client) GetRequestURL() string {
	return c.BaseURL + generationPath
}

func (c *Client) newRequest(ctx context.Context, req *GenerationRequest) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "marshal dashscope request")
	}

	httpReq, err := gutils.NewReusableRequest(ctx, http.MethodPost, c.GetRequestURL(), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "new request failed")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	if req.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
		httpReq.Header.Set("X-DashScope-SSE", "enable")
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}
	return httpReq, nil
}

func (c *Client) do(req *http.Request, modelName string, stream bool) (*http.Response, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = client.HTTPClient
	}

	logger.Logger.Debug("sending request to dashscope",
		zap.String("url", req.URL.String()),
		zap.String("model", modelName),
		zap.Bool("stream", stream))

	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		monitor.RecordProviderRequest(monitor.ProviderDashScope, modelName, stream, "transport_error", time.Since(start))
		logger.Logger.Error("dashscope request failed",
			zap.Error(err),
			zap.String("url", req.URL.String()),
			zap.String("model", modelName))
		return nil, errors.Wrap(err, "do request failed")
	}
	monitor.RecordProviderRequest(monitor.ProviderDashScope, modelName, stream, monitor.StatusLabel(resp.StatusCode), time.Since(start))
	return resp, nil
}

// Call performs one non-streaming generation.
//
// A non-2xx HTTP status is not an error here: the decoded body is returned with
// StatusCode set so that callers can report the provider's own code and message.
func (c *Client) Call(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error) {
	if req.Stream {
		return nil, errors.New("Call does not stream, use Stream instead")
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(httpReq, req.Model, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read dashscope response")
	}

	return decodeResponse(resp.StatusCode, resp.Header, body)
}

// Stream starts a streaming generation and returns the chunk iterator.
// The caller owns the returned stream and must Close it.
func (c *Client) Stream(ctx context.Context, req *GenerationRequest) (ChunkIterator, error) {
	streamReq := *req
	streamReq.Stream = true
	streamReq.Parameters.IncrementalOutput = true

	httpReq, err := c.newRequest(ctx, &streamReq)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(httpReq, req.Model, true)
	if err != nil {
		return nil, err
	}

	// errors, and gateways that ignore the SSE header, answer with a plain JSON body
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "read dashscope response")
		}
		single, err := decodeResponse(resp.StatusCode, resp.Header, body)
		if err != nil {
			return nil, err
		}
		return newSingleChunkStream(single), nil
	}

	return newChunkStream(ctx, resp.Body), nil
}

func decodeResponse(statusCode int, header http.Header, body []byte) (*GenerationResponse, error) {
	out := new(GenerationResponse)
	if err := json.Unmarshal(body, out); err != nil {
		if statusCode == http.StatusOK {
			return nil, errors.Wrap(err, "unmarshal dashscope response")
		}
		out.Message = string(body[:min(len(body), maxErrorBodyBytes)])
	}
	out.StatusCode = statusCode
	if out.RequestID == "" {
		out.RequestID = header.Get("X-Request-Id")
	}
	return out, nil
}
