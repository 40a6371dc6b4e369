package dto

// RunAgentRequest is the body of POST /run-agent.
//
// Messages stays undecoded so that its shape can be checked the same way any
// other dynamically typed input is.
type RunAgentRequest struct {
	Prompt      string   `json:"prompt"`
	DealID      string   `json:"deal_id"`
	Messages    any      `json:"messages,omitempty"`
	Stream      bool     `json:"stream"`
	Temperature *float64 `json:"temperature,omitempty" binding:"omitempty,gte=0,lte=2"`
}

// TranscribeRequest is the body of POST /transcribe. Exactly one audio source is expected.
type TranscribeRequest struct {
	AudioURL    string `json:"audio_url"`
	AudioBase64 string `json:"audio_base64"`
	Filename    string `json:"filename"`
	Language    string `json:"language"`
	Prompt      string `json:"prompt"`
	DealID      string `json:"deal_id"`
}

// ParseXLSXRequest is the body of POST /parse_xlsx.
type ParseXLSXRequest struct {
	FileURL    string `json:"file_url"`
	FileBase64 string `json:"file_base64"`
	DealID     string `json:"deal_id"`
	Sheet      string `json:"sheet"`
	MaxRows    int    `json:"max_rows" binding:"gte=0"`
}

// MemoRequest is the body of POST /memo.
type MemoRequest struct {
	DealID      string   `json:"deal_id"`
	CompanyName string   `json:"company_name"`
	Notes       string   `json:"notes"`
	Transcript  string   `json:"transcript"`
	Financials  string   `json:"financials"`
	Sections    []string `json:"sections"`
	Stream      bool     `json:"stream"`
}
