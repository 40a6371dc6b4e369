package model

import (
	"fmt"

	"github.com/Laisky/errors/v2"
	"github.com/go-playground/validator/v10"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrMessagesType is returned when the messages container is not a list.
	ErrMessagesType = errors.New("messages field expected type list")
	// ErrInvalidMessage is returned when any message lacks a role or content.
	ErrInvalidMessage = errors.New("each message in the messages list must contain a role and content")
)

var messageValidator = validator.New(validator.WithRequiredStructEnabled())

// Message is one chat turn sent to a provider.
type Message struct {
	Role    string `json:"role" validate:"required"`
	Content string `json:"content"`
}

// ValidateMessages rejects the whole list if any message has no role.
// Empty content is allowed.
func ValidateMessages(messages []Message) error {
	for i := range messages {
		if err := messageValidator.Struct(messages[i]); err != nil {
			return errors.Wrapf(ErrInvalidMessage, "message %d: %s", i, err.Error())
		}
	}
	return nil
}

// ParseMessages converts a decoded JSON value into messages.
//
// raw must be a list, and every element an object that carries both "role" and
// "content" keys with string values. The values themselves may be empty.
func ParseMessages(raw any) ([]Message, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, errors.Wrapf(ErrMessagesType, "got %s instead", typeName(raw))
	}

	messages := make([]Message, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidMessage, "message %d is %s, not an object", i, typeName(item))
		}
		role, hasRole := obj["role"].(string)
		content, hasContent := obj["content"].(string)
		if !hasRole || !hasContent {
			return nil, errors.Wrapf(ErrInvalidMessage, "message %d", i)
		}
		messages = append(messages, Message{Role: role, Content: content})
	}

	return messages, nil
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
