package dto

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// UnknownDealID stands in when the request names no deal.
const UnknownDealID = "unknown"

type RunAgentResponse struct {
	Status      string `json:"status"`
	DealID      string `json:"deal_id"`
	AgentOutput string `json:"agent_output"`
}

// AgentStreamEvent is the payload of one "message" event of a streamed /run-agent.
// AgentOutput is cumulative.
type AgentStreamEvent struct {
	DealID      string `json:"deal_id"`
	AgentOutput string `json:"agent_output"`
}

type TranscribeResponse struct {
	Status          string   `json:"status"`
	DealID          string   `json:"deal_id"`
	Transcript      string   `json:"transcript"`
	Language        string   `json:"language,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
}

type Sheet struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
	// Truncated is set when rows beyond max_rows were dropped.
	Truncated bool `json:"truncated,omitempty"`
}

type ParseXLSXResponse struct {
	Status string  `json:"status"`
	DealID string  `json:"deal_id"`
	Sheets []Sheet `json:"sheets"`
}

type MemoSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type MemoResponse struct {
	Status   string        `json:"status"`
	DealID   string        `json:"deal_id"`
	Memo     string        `json:"memo"`
	Sections []MemoSection `json:"sections,omitempty"`
	// ContextTruncated is set when the source material was cut to fit the model context.
	ContextTruncated bool `json:"context_truncated,omitempty"`
}

// MemoStreamEvent is the payload of one "message" event of a streamed /memo. Memo is cumulative.
type MemoStreamEvent struct {
	DealID string `json:"deal_id"`
	Memo   string `json:"memo"`
}

// DealIDOrUnknown returns id, or UnknownDealID when it is empty.
func DealIDOrUnknown(id string) string {
	if id == "" {
		return UnknownDealID
	}
	return id
}
