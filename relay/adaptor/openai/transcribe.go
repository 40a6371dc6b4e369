package openai

import (
	"bytes"
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	openaisdk "github.com/sashabaranov/go-openai"

	"github.com/dealmate/agent-backend/monitor"
)

// TranscribeRequest is one audio file to turn into text.
type TranscribeRequest struct {
	Model    string
	Filename string
	Audio    []byte
	Language string
	Prompt   string
}

// Transcription is the text of an audio file and, when the API reports it, its length.
type Transcription struct {
	Text     string
	Language string
	Duration float64
}

// Transcribe sends the audio to the speech-to-text endpoint in verbose mode so
// that the duration comes back with the text.
func Transcribe(ctx context.Context, c *openaisdk.Client, req TranscribeRequest) (*Transcription, error) {
	lg := gmw.GetLogger(ctx)
	if len(req.Audio) == 0 {
		return nil, errors.New("audio is empty")
	}

	start := time.Now()
	resp, err := c.CreateTranscription(ctx, openaisdk.AudioRequest{
		Model:    req.Model,
		FilePath: req.Filename,
		Reader:   bytes.NewReader(req.Audio),
		Prompt:   req.Prompt,
		Language: req.Language,
		Format:   openaisdk.AudioResponseFormatVerboseJSON,
	})
	monitor.RecordProviderRequest(monitor.ProviderOpenAI, req.Model, false,
		monitor.StatusLabel(StatusCodeFromError(err)), time.Since(start))
	if err != nil {
		return nil, errors.Wrap(err, "create transcription")
	}

	lg.Debug("transcription finished",
		zap.String("model", req.Model),
		zap.String("filename", req.Filename),
		zap.Float64("duration", resp.Duration))
	return &Transcription{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
	}, nil
}
