package controller

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/dealmate/agent-backend/common/config"
	"github.com/dealmate/agent-backend/common/ctxkey"
	"github.com/dealmate/agent-backend/dto"
	"github.com/dealmate/agent-backend/middleware"
	openaiadaptor "github.com/dealmate/agent-backend/relay/adaptor/openai"
	"github.com/dealmate/agent-backend/relay/prompt"
	"github.com/dealmate/agent-backend/relay/wrapper"
)

// DraftMemo drafts an investment committee memo from diligence material.
//
// Without sections the memo is drafted in one call, which may stream. With
// sections every section is drafted by its own call, concurrently, and the
// results are joined in the requested order.
func DraftMemo(c *gin.Context) {
	lg := gmw.GetLogger(c)
	ctx := gmw.Ctx(c)

	var req dto.MemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, err)
		return
	}

	mc := prompt.MemoContext{
		DealID:      dto.DealIDOrUnknown(req.DealID),
		CompanyName: strings.TrimSpace(req.CompanyName),
		Notes:       req.Notes,
		Transcript:  req.Transcript,
		Financials:  req.Financials,
	}
	if mc.Empty() {
		middleware.AbortWithMissing(c, http.StatusBadRequest, "Missing memo input")
		return
	}
	c.Set(ctxkey.DealId, mc.DealID)

	chat, err := wrapper.Default()
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.Set(ctxkey.Provider, config.AgentProvider)

	mc, truncated := fitMemoContext(mc, chat.ModelName(), config.MemoMaxContextTokens)
	if truncated {
		lg.Info("memo material truncated to fit the context budget",
			zap.String("deal_id", mc.DealID),
			zap.Int("max_tokens", config.MemoMaxContextTokens))
	}

	sections := memoSections(req.Sections)
	if len(sections) > 0 {
		if req.Stream {
			lg.Debug("sectioned memo is not streamed", zap.Int("sections", len(sections)))
		}
		drafted, err := draftSections(ctx, chat, mc, sections)
		if err != nil {
			abortWithCallError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.MemoResponse{
			Status:           dto.StatusOK,
			DealID:           mc.DealID,
			Memo:             joinSections(drafted),
			Sections:         drafted,
			ContextTruncated: truncated,
		})
		return
	}

	messages, err := prompt.MemoMessages(mc)
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, err)
		return
	}
	resp, err := chat.Call(ctx, messages, req.Stream, wrapper.GenerateOptions{})
	if err != nil {
		abortWithCallError(c, err)
		return
	}

	if resp.IsStream() {
		streamSnapshots(c, resp, func(text string) any {
			return dto.MemoStreamEvent{DealID: mc.DealID, Memo: text}
		})
		return
	}

	c.JSON(http.StatusOK, dto.MemoResponse{
		Status:           dto.StatusOK,
		DealID:           mc.DealID,
		Memo:             strings.TrimSpace(resp.Text),
		ContextTruncated: truncated,
	})
}

// memoSections drops blank and repeated titles, keeping the first occurrence.
func memoSections(titles []string) []string {
	out := make([]string, 0, len(titles))
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" || slices.Contains(out, title) {
			continue
		}
		out = append(out, title)
	}
	return out
}

func draftSections(ctx context.Context, chat wrapper.ChatWrapper,
	mc prompt.MemoContext, titles []string) ([]dto.MemoSection, error) {
	drafted := make([]dto.MemoSection, len(titles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.MemoSectionConcurrency)
	for i, title := range titles {
		g.Go(func() error {
			messages, err := prompt.MemoSectionMessages(mc, title)
			if err != nil {
				return err
			}
			resp, err := chat.Call(gctx, messages, false, wrapper.GenerateOptions{})
			if err != nil {
				return errors.Wrapf(err, "draft section %q", title)
			}
			drafted[i] = dto.MemoSection{Title: title, Content: strings.TrimSpace(resp.Text)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return drafted, nil
}

func joinSections(sections []dto.MemoSection) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, fmt.Sprintf("## %s\n\n%s", s.Title, s.Content))
	}
	return strings.Join(parts, "\n\n")
}

// fitMemoContext shares maxTokens between the material fields. Fields smaller
// than their share keep all of their text and leave the rest to the others.
func fitMemoContext(mc prompt.MemoContext, modelName string, maxTokens int) (prompt.MemoContext, bool) {
	if maxTokens <= 0 {
		return mc, false
	}

	type field struct {
		text   *string
		tokens int
	}
	var fields []field
	for _, text := range []*string{&mc.Notes, &mc.Transcript, &mc.Financials} {
		if *text != "" {
			fields = append(fields, field{text: text, tokens: openaiadaptor.CountTokenText(*text, modelName)})
		}
	}
	slices.SortStableFunc(fields, func(a, b field) int { return a.tokens - b.tokens })

	truncated := false
	remaining := maxTokens
	for i, f := range fields {
		share := remaining / (len(fields) - i)
		if f.tokens <= share {
			remaining -= f.tokens
			continue
		}
		if share == 0 {
			// budget smaller than the field count
			*f.text = ""
			truncated = true
			continue
		}

		var cut bool
		*f.text, cut = openaiadaptor.TruncateTokenText(*f.text, modelName, share)
		truncated = truncated || cut
		remaining -= share
	}
	return mc, truncated
}
