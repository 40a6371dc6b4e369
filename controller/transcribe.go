package controller

import (
	"net/http"
	"path/filepath"

	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/dealmate/agent-backend/common/config"
	"github.com/dealmate/agent-backend/common/ctxkey"
	"github.com/dealmate/agent-backend/common/helper"
	"github.com/dealmate/agent-backend/dto"
	"github.com/dealmate/agent-backend/middleware"
	"github.com/dealmate/agent-backend/monitor"
	openaiadaptor "github.com/dealmate/agent-backend/relay/adaptor/openai"
)

const defaultAudioFilename = "audio.mp3"

// Transcribe turns a call recording into text with the speech-to-text model.
func Transcribe(c *gin.Context) {
	lg := gmw.GetLogger(c)
	ctx := gmw.Ctx(c)

	var req dto.TranscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, err)
		return
	}
	if req.AudioURL == "" && req.AudioBase64 == "" {
		middleware.AbortWithMissing(c, http.StatusBadRequest, "Missing audio")
		return
	}

	dealID := dto.DealIDOrUnknown(req.DealID)
	c.Set(ctxkey.DealId, dealID)
	c.Set(ctxkey.Provider, monitor.ProviderOpenAI)

	audio, err := loadUserContent(ctx, req.AudioURL, req.AudioBase64)
	if err != nil {
		middleware.AbortWithError(c, uploadErrorStatus(err), err)
		return
	}

	filename := req.Filename
	if filename == "" {
		filename = filenameFromURL(req.AudioURL, defaultAudioFilename)
	}
	filename = filepath.Base(filename)

	result, err := openaiadaptor.Transcribe(ctx,
		openaiadaptor.NewClient(config.OpenAIAPIKey, config.OpenAIBaseURL),
		openaiadaptor.TranscribeRequest{
			Model:    config.OpenAITranscribeModel,
			Filename: filename,
			Audio:    audio,
			Language: req.Language,
			Prompt:   req.Prompt,
		})
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadGateway, err)
		return
	}

	out := dto.TranscribeResponse{
		Status:     dto.StatusOK,
		DealID:     dealID,
		Transcript: result.Text,
		Language:   result.Language,
	}
	duration := result.Duration
	if duration <= 0 {
		if duration, err = helper.ProbeAudioDuration(ctx, filename, audio); err != nil {
			lg.Debug("probe audio duration", zap.Error(err), zap.String("filename", filename))
		}
	}
	if duration > 0 {
		out.DurationSeconds = &duration
	}

	c.JSON(http.StatusOK, out)
}
