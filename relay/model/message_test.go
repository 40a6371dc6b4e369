package model

import (
	"encoding/json"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestParseMessages(t *testing.T) {
	msgs, err := ParseMessages(decode(t, `[{"role":"user","content":"hello"},{"role":"assistant","content":"hi","name":"x"}]`))
	require.NoError(t, err)
	require.Equal(t, []Message{{Role: "user", Content: "hello"}, {Role: "assistant", Content: "hi"}}, msgs)
}

func TestParseMessagesKeepsEmptyValues(t *testing.T) {
	msgs, err := ParseMessages(decode(t, `[{"role":"user","content":"hello"},{"role":"assistant","content":""}]`))
	require.NoError(t, err)
	require.Equal(t, []Message{{Role: "user", Content: "hello"}, {Role: "assistant", Content: ""}}, msgs)

	msgs, err = ParseMessages(decode(t, `[{"role":"","content":"hi"}]`))
	require.NoError(t, err)
	require.Equal(t, []Message{{Content: "hi"}}, msgs)
}

func TestParseMessagesRejectsNonList(t *testing.T) {
	for _, raw := range []string{`{"role":"user","content":"hello"}`, `"hello"`, `null`, `3`} {
		_, err := ParseMessages(decode(t, raw))
		require.Error(t, err, raw)
		require.True(t, errors.Is(err, ErrMessagesType), "raw=%s err=%v", raw, err)
	}
}

func TestParseMessagesRejectsMissingFields(t *testing.T) {
	cases := map[string]string{
		"missing content": `[{"role":"user"}]`,
		"missing role":    `[{"role":"user","content":"a"},{"content":"b"}]`,
		"non object":      `["hello"]`,
		"non string":      `[{"role":"user","content":42}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMessages(decode(t, raw))
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidMessage), "err=%v", err)
		})
	}
}

func TestValidateMessages(t *testing.T) {
	require.NoError(t, ValidateMessages(nil))
	require.NoError(t, ValidateMessages([]Message{{Role: RoleUser, Content: "hello"}}))
	require.NoError(t, ValidateMessages([]Message{{Role: RoleUser, Content: "hello"}, {Role: RoleAssistant}}))

	err := ValidateMessages([]Message{{Role: RoleUser, Content: "hello"}, {Content: "hi"}})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidMessage))
	require.Contains(t, err.Error(), "message 1")
}

func TestModelResponseCollect(t *testing.T) {
	plain := &ModelResponse{Text: "done"}
	got, err := plain.Collect()
	require.NoError(t, err)
	require.Same(t, plain, got)

	streamed := &ModelResponse{Stream: func(yield func(*ModelResponse, error) bool) {
		for _, text := range []string{"Hi", "Hi there"} {
			if !yield(&ModelResponse{Text: text}, nil) {
				return
			}
		}
	}}
	require.True(t, streamed.IsStream())
	got, err = streamed.Collect()
	require.NoError(t, err)
	require.Equal(t, "Hi there", got.Text)

	failing := &ModelResponse{Stream: func(yield func(*ModelResponse, error) bool) {
		if !yield(&ModelResponse{Text: "partial"}, nil) {
			return
		}
		yield(nil, errors.New("boom"))
	}}
	got, err = failing.Collect()
	require.EqualError(t, err, "boom")
	require.Equal(t, "partial", got.Text)
}
