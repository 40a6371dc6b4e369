package dashscope

import (
	"encoding/json"
	"net/http"

	"github.com/Laisky/errors/v2"

	"github.com/dealmate/agent-backend/relay/model"
)

// ResultFormatMessage asks DashScope to return choices[].message instead of a bare output.text.
const ResultFormatMessage = "message"

type Input struct {
	Messages []model.Message `json:"messages"`
}

// Parameters are the generation knobs sent under "parameters".
// Extra carries provider options without a named field; named fields win on conflict.
type Parameters struct {
	ResultFormat      string   `json:"result_format,omitempty"`
	IncrementalOutput bool     `json:"incremental_output,omitempty"`
	Temperature       *float64 `json:"temperature,omitempty"`
	TopP              *float64 `json:"top_p,omitempty"`
	TopK              *int     `json:"top_k,omitempty"`
	MaxTokens         *int     `json:"max_tokens,omitempty"`
	Seed              *int     `json:"seed,omitempty"`
	RepetitionPenalty *float64 `json:"repetition_penalty,omitempty"`
	PresencePenalty   *float64 `json:"presence_penalty,omitempty"`
	Stop              []string `json:"stop,omitempty"`
	EnableSearch      *bool    `json:"enable_search,omitempty"`

	Extra map[string]any `json:"-"`
}

func (p Parameters) MarshalJSON() ([]byte, error) {
	type alias Parameters
	named, err := json.Marshal(alias(p))
	if err != nil {
		return nil, errors.Wrap(err, "marshal parameters")
	}
	if len(p.Extra) == 0 {
		return named, nil
	}

	merged := make(map[string]any, len(p.Extra)+4)
	for k, v := range p.Extra {
		merged[k] = v
	}
	var fields map[string]any
	if err = json.Unmarshal(named, &fields); err != nil {
		return nil, errors.Wrap(err, "unmarshal named parameters")
	}
	for k, v := range fields {
		merged[k] = v
	}

	return json.Marshal(merged)
}

// GenerationRequest is the body of a text-generation call.
type GenerationRequest struct {
	Model      string     `json:"model"`
	Input      Input      `json:"input"`
	Parameters Parameters `json:"parameters"`
	// Stream selects the SSE endpoint behaviour; it travels as a header, not in the body.
	Stream bool `json:"-"`
}

type Choice struct {
	FinishReason string        `json:"finish_reason"`
	Message      model.Message `json:"message"`
}

type Output struct {
	Text         string   `json:"text,omitempty"`
	FinishReason string   `json:"finish_reason,omitempty"`
	Choices      []Choice `json:"choices,omitempty"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// GenerationResponse is one full response, or one chunk of a stream.
// StatusCode is taken from the HTTP status (or the SSE status line), never from the body.
type GenerationResponse struct {
	StatusCode int    `json:"status_code"`
	RequestID  string `json:"request_id"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	Output     Output `json:"output"`
	Usage      Usage  `json:"usage"`
}

// OK reports whether the provider accepted the request.
func (r *GenerationResponse) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Content returns the message content of the first choice.
func (r *GenerationResponse) Content() (string, error) {
	if len(r.Output.Choices) == 0 {
		if r.Output.Text != "" {
			return r.Output.Text, nil
		}
		return "", errors.Errorf("dashscope response %s has no choices", r.RequestID)
	}
	return r.Output.Choices[0].Message.Content, nil
}

// Delta returns the incremental content of a streamed chunk. Chunks that carry
// no content, such as a trailing usage report, yield "".
func (r *GenerationResponse) Delta() string {
	if len(r.Output.Choices) == 0 {
		return r.Output.Text
	}
	return r.Output.Choices[0].Message.Content
}

func (u Usage) ToModelUsage() model.Usage {
	total := u.TotalTokens
	if total == 0 {
		total = u.InputTokens + u.OutputTokens
	}
	return model.Usage{
		PromptTokens:     u.InputTokens,
		CompletionTokens: u.OutputTokens,
		TotalTokens:      total,
	}
}
