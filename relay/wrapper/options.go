package wrapper

import (
	"maps"

	"github.com/Laisky/errors/v2"
	"github.com/jinzhu/copier"

	"github.com/dealmate/agent-backend/relay/adaptor/dashscope"
)

// GenerateOptions are the sampling knobs a caller may set per call.
// Nil fields are unset. Extra carries provider options that have no named field.
type GenerateOptions struct {
	Temperature       *float64
	TopP              *float64
	TopK              *int
	MaxTokens         *int
	Seed              *int
	RepetitionPenalty *float64
	PresencePenalty   *float64
	Stop              []string
	EnableSearch      *bool

	Extra map[string]any `copier:"-"`
}

// reservedOptionKeys are protocol fields owned by the wrapper itself.
var reservedOptionKeys = []string{
	"model",
	"messages",
	"input",
	"result_format",
	"incremental_output",
	"stream",
}

// Merge returns a copy of o overridden by every field set in overrides.
// Extra maps are merged key by key, overrides winning.
func (o GenerateOptions) Merge(overrides GenerateOptions) (GenerateOptions, error) {
	opt := copier.Option{IgnoreEmpty: true, DeepCopy: true}

	// copy into fresh pointers first so that overriding never writes through to o
	var merged GenerateOptions
	if err := copier.CopyWithOption(&merged, &o, opt); err != nil {
		return GenerateOptions{}, errors.Wrap(err, "copy default options")
	}
	if err := copier.CopyWithOption(&merged, &overrides, opt); err != nil {
		return GenerateOptions{}, errors.Wrap(err, "merge generate options")
	}

	if len(o.Extra) > 0 || len(overrides.Extra) > 0 {
		merged.Extra = make(map[string]any, len(o.Extra)+len(overrides.Extra))
		maps.Copy(merged.Extra, o.Extra)
		maps.Copy(merged.Extra, overrides.Extra)
	}
	return merged, nil
}

// Float64 returns a pointer to v, for filling GenerateOptions literals.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// dashScopeParameters maps options onto the request parameters, dropping any
// Extra key that would shadow a protocol field.
func (o GenerateOptions) dashScopeParameters() dashscope.Parameters {
	params := dashscope.Parameters{
		Temperature:       o.Temperature,
		TopP:              o.TopP,
		TopK:              o.TopK,
		MaxTokens:         o.MaxTokens,
		Seed:              o.Seed,
		RepetitionPenalty: o.RepetitionPenalty,
		PresencePenalty:   o.PresencePenalty,
		Stop:              o.Stop,
		EnableSearch:      o.EnableSearch,
	}
	if len(o.Extra) > 0 {
		params.Extra = maps.Clone(o.Extra)
		for _, k := range reservedOptionKeys {
			delete(params.Extra, k)
		}
	}
	return params
}
