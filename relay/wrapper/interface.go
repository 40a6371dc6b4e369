package wrapper

import (
	"context"

	"github.com/dealmate/agent-backend/relay/model"
)

// ChatWrapper is the calling convention every chat model wrapper implements.
//
// With stream false the returned response carries the full completion. With
// stream true it carries a lazy, single-pass Stream of cumulative snapshots.
// Invalid messages fail before any request leaves the process.
type ChatWrapper interface {
	Call(ctx context.Context, messages []model.Message, stream bool, opts GenerateOptions) (*model.ModelResponse, error)
	ModelName() string
}
