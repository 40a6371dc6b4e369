package prompt

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/cbroglie/mustache"

	"github.com/dealmate/agent-backend/relay/model"
)

const (
	// AgentSystemPrompt opens every due-diligence prompt.
	AgentSystemPrompt = "You are a due diligence analyst. Respond concisely with investor-relevant insights."
	// AgentRolePrompt is the system message sent alongside the rendered prompt.
	AgentRolePrompt = "You are a helpful M&A diligence assistant."
	// MemoRolePrompt is the system message of memo drafting calls.
	MemoRolePrompt = "You are an M&A analyst drafting investment committee memos. Write clear, factual prose."
)

func init() {
	mustache.AllowMissingVariables = false
}

// fsPartialProvider resolves partials next to the template that includes them.
type fsPartialProvider struct {
	fs     fs.ReadFileFS
	prefix string
}

func (p *fsPartialProvider) Get(name string) (string, error) {
	templateBytes, err := p.fs.ReadFile(fmt.Sprintf("prompts/%s%s.mustache", p.prefix, name))
	if err != nil {
		return "", err
	}
	return string(templateBytes), nil
}

func panicParseMustache(fileSystem fs.ReadFileFS, templateName string) *mustache.Template {
	templateBytes, err := fileSystem.ReadFile(fmt.Sprintf("prompts/%s.mustache", templateName))
	if err != nil {
		panic(err)
	}

	prefix := templateName[:strings.LastIndex(templateName, "/")+1]
	template, err := mustache.ParseStringPartials(string(templateBytes),
		&fsPartialProvider{fs: fileSystem, prefix: prefix})
	if err != nil {
		panic(err)
	}
	return template
}

//go:embed prompts/*
var promptsFS embed.FS

var (
	agentTemplate       = panicParseMustache(promptsFS, "agent")
	memoFullTemplate    = panicParseMustache(promptsFS, "memo/full")
	memoSectionTemplate = panicParseMustache(promptsFS, "memo/section")
)

func render(template *mustache.Template, data any) (string, error) {
	result, err := template.Render(data)
	if err != nil {
		return "", errors.Wrap(err, "render prompt")
	}
	return strings.TrimRight(result, "\n"), nil
}

// AgentPrompt wraps the user's question in the due-diligence framing.
func AgentPrompt(userPrompt string) (string, error) {
	return render(agentTemplate, struct {
		SystemPrompt string
		Prompt       string
	}{
		SystemPrompt: AgentSystemPrompt,
		Prompt:       userPrompt,
	})
}

// AgentMessages builds the conversation sent for one /run-agent question.
func AgentMessages(userPrompt string) ([]model.Message, error) {
	finalPrompt, err := AgentPrompt(userPrompt)
	if err != nil {
		return nil, err
	}
	return []model.Message{
		{Role: model.RoleSystem, Content: AgentRolePrompt},
		{Role: model.RoleUser, Content: finalPrompt},
	}, nil
}

// MemoContext is the diligence material a memo is drafted from.
type MemoContext struct {
	DealID      string
	CompanyName string
	Notes       string
	Transcript  string
	Financials  string
}

// Empty reports whether there is no material to draft from.
func (c MemoContext) Empty() bool {
	return strings.TrimSpace(c.Notes) == "" &&
		strings.TrimSpace(c.Transcript) == "" &&
		strings.TrimSpace(c.Financials) == ""
}

// MemoMessages builds the conversation that drafts a whole memo in one call.
func MemoMessages(c MemoContext) ([]model.Message, error) {
	content, err := render(memoFullTemplate, c)
	if err != nil {
		return nil, err
	}
	return []model.Message{
		{Role: model.RoleSystem, Content: MemoRolePrompt},
		{Role: model.RoleUser, Content: content},
	}, nil
}

// MemoSectionMessages builds the conversation that drafts one memo section.
func MemoSectionMessages(c MemoContext, section string) ([]model.Message, error) {
	if strings.TrimSpace(section) == "" {
		return nil, errors.New("memo section title is empty")
	}

	content, err := render(memoSectionTemplate, struct {
		MemoContext
		Section string
	}{
		MemoContext: c,
		Section:     section,
	})
	if err != nil {
		return nil, err
	}
	return []model.Message{
		{Role: model.RoleSystem, Content: MemoRolePrompt},
		{Role: model.RoleUser, Content: content},
	}, nil
}
