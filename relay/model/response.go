package model

import "iter"

// ModelResponse is what a chat wrapper hands back to its caller.
//
// Without streaming, Text holds the full completion and Raw the provider payload.
// With streaming, Stream is set instead: every element it yields carries the
// cumulative text so far and the raw chunk that produced it. Stream can be
// ranged over once.
type ModelResponse struct {
	Text   string
	Raw    any
	Stream iter.Seq2[*ModelResponse, error]
}

// IsStream reports whether the response must be consumed through Stream.
func (r *ModelResponse) IsStream() bool {
	return r != nil && r.Stream != nil
}

// Collect drains a streaming response and returns its final snapshot.
// Non-streaming responses are returned unchanged.
func (r *ModelResponse) Collect() (*ModelResponse, error) {
	if !r.IsStream() {
		return r, nil
	}

	last := &ModelResponse{}
	for chunk, err := range r.Stream {
		if err != nil {
			return last, err
		}
		last = chunk
	}
	return last, nil
}
