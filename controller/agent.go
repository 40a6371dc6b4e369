package controller

import (
	"net/http"
	"strings"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/dealmate/agent-backend/common/config"
	"github.com/dealmate/agent-backend/common/ctxkey"
	"github.com/dealmate/agent-backend/dto"
	"github.com/dealmate/agent-backend/middleware"
	"github.com/dealmate/agent-backend/relay/model"
	"github.com/dealmate/agent-backend/relay/prompt"
	"github.com/dealmate/agent-backend/relay/wrapper"
)

// RunAgent answers one due-diligence question with the configured chat wrapper.
func RunAgent(c *gin.Context) {
	lg := gmw.GetLogger(c)

	var req dto.RunAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, errors.Wrap(err, "invalid request body"))
		return
	}
	if strings.TrimSpace(req.Prompt) == "" && req.Messages == nil {
		middleware.AbortWithMissing(c, http.StatusBadRequest, "Missing prompt")
		return
	}

	messages, err := agentMessages(req)
	if err != nil {
		abortWithCallError(c, err)
		return
	}
	if len(messages) == 0 {
		middleware.AbortWithMissing(c, http.StatusBadRequest, "Missing prompt")
		return
	}

	dealID := dto.DealIDOrUnknown(req.DealID)
	c.Set(ctxkey.DealId, dealID)

	chat, err := wrapper.Default()
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.Set(ctxkey.Provider, config.AgentProvider)

	lg.Debug("run agent",
		zap.String("deal_id", dealID),
		zap.String("model", chat.ModelName()),
		zap.Int("messages", len(messages)),
		zap.Bool("stream", req.Stream))

	resp, err := chat.Call(gmw.Ctx(c), messages, req.Stream, wrapper.GenerateOptions{Temperature: req.Temperature})
	if err != nil {
		abortWithCallError(c, err)
		return
	}

	if resp.IsStream() {
		streamSnapshots(c, resp, func(text string) any {
			return dto.AgentStreamEvent{DealID: dealID, AgentOutput: text}
		})
		return
	}

	c.JSON(http.StatusOK, dto.RunAgentResponse{
		Status:      dto.StatusOK,
		DealID:      dealID,
		AgentOutput: resp.Text,
	})
}

// agentMessages builds the conversation: any prior messages from the body,
// followed by the prompt wrapped in the due-diligence framing.
func agentMessages(req dto.RunAgentRequest) ([]model.Message, error) {
	var history []model.Message
	if req.Messages != nil {
		var err error
		if history, err = model.ParseMessages(req.Messages); err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(req.Prompt) == "" {
		return history, nil
	}

	framed, err := prompt.AgentMessages(req.Prompt)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return framed, nil
	}

	// keep the system framing first, then the history, then the new question
	messages := make([]model.Message, 0, len(history)+len(framed))
	messages = append(messages, framed[0])
	messages = append(messages, history...)
	messages = append(messages, framed[1:]...)
	return messages, nil
}
