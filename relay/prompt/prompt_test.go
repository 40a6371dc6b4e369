package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealmate/agent-backend/relay/model"
)

func TestAgentPrompt(t *testing.T) {
	got, err := AgentPrompt("What are the key risks of <Acme> & co?")
	require.NoError(t, err)
	assert.Equal(t, "You are a due diligence analyst. Respond concisely with investor-relevant insights."+
		"\n\nUser: What are the key risks of <Acme> & co?\nAI:", got)
}

func TestAgentMessages(t *testing.T) {
	messages, err := AgentMessages("Summarise the deal")
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, model.Message{Role: model.RoleSystem, Content: "You are a helpful M&A diligence assistant."}, messages[0])
	assert.Equal(t, model.RoleUser, messages[1].Role)
	assert.True(t, strings.HasSuffix(messages[1].Content, "User: Summarise the deal\nAI:"))
	require.NoError(t, model.ValidateMessages(messages))
}

func TestMemoMessagesIncludesOnlyGivenMaterial(t *testing.T) {
	messages, err := MemoMessages(MemoContext{
		DealID:      "deal-42",
		CompanyName: "Acme Corp",
		Notes:       "Founder-led, 40% recurring revenue.",
	})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, MemoRolePrompt, messages[0].Content)

	content := messages[1].Content
	assert.Contains(t, content, "Company: Acme Corp")
	assert.Contains(t, content, "Deal id: deal-42")
	assert.Contains(t, content, "Analyst notes:\nFounder-led, 40% recurring revenue.")
	assert.NotContains(t, content, "Management call transcript")
	assert.NotContains(t, content, "Financials:")
}

func TestMemoMessagesWithoutCompany(t *testing.T) {
	messages, err := MemoMessages(MemoContext{DealID: "unknown", Financials: "FY24 revenue 12m"})
	require.NoError(t, err)
	assert.Contains(t, messages[1].Content, "Company: not named")
	assert.Contains(t, messages[1].Content, "Financials:\nFY24 revenue 12m")
}

func TestMemoSectionMessages(t *testing.T) {
	c := MemoContext{DealID: "deal-1", CompanyName: "Acme", Transcript: "CEO: we grew 20%"}

	messages, err := MemoSectionMessages(c, "Key Risks")
	require.NoError(t, err)
	assert.Contains(t, messages[1].Content, `Draft only the "Key Risks" section`)
	assert.Contains(t, messages[1].Content, "Management call transcript:\nCEO: we grew 20%")

	_, err = MemoSectionMessages(c, "  ")
	require.Error(t, err)
}

func TestMemoContextEmpty(t *testing.T) {
	assert.True(t, MemoContext{DealID: "x", CompanyName: "Acme"}.Empty())
	assert.False(t, MemoContext{Notes: "n"}.Empty())
}
