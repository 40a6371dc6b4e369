package dashscope

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/Laisky/errors/v2"
)

const (
	sseDataPrefix   = "data:"
	sseStatusPrefix = ":HTTP_STATUS/"
	sseEventPrefix  = "event:"
	sseMaxLineBytes = 1024 * 1024
)

// ChunkIterator yields the chunks of one streaming generation.
type ChunkIterator interface {
	// Next returns io.EOF once the provider has finished.
	Next(ctx context.Context) (*GenerationResponse, error)
	Close() error
}

type streamEvent struct {
	resp *GenerationResponse
	err  error
}

// ChunkStream is the asynchronous side of a streaming generation: a reader
// goroutine decodes SSE events into chunks while the consumer pulls them with Next.
type ChunkStream struct {
	events chan streamEvent
	cancel context.CancelFunc
	body   io.Closer
	done   chan struct{}

	closeOnce sync.Once
}

func newChunkStream(ctx context.Context, body io.ReadCloser) *ChunkStream {
	readCtx, cancel := context.WithCancel(ctx)
	s := &ChunkStream{
		events: make(chan streamEvent),
		cancel: cancel,
		body:   body,
		done:   make(chan struct{}),
	}
	go s.read(readCtx, body)
	return s
}

// newSingleChunkStream yields resp as the only chunk and then ends.
func newSingleChunkStream(resp *GenerationResponse) *ChunkStream {
	s := &ChunkStream{
		events: make(chan streamEvent, 1),
		cancel: func() {},
		done:   make(chan struct{}),
	}
	s.events <- streamEvent{resp: resp}
	close(s.events)
	close(s.done)
	return s
}

func (s *ChunkStream) read(ctx context.Context, body io.Reader) {
	defer close(s.done)
	defer close(s.events)

	emit := func(ev streamEvent) bool {
		select {
		case s.events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), sseMaxLineBytes)
	scanner.Split(bufio.ScanLines)

	status := http.StatusOK
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case line == "":
			status = http.StatusOK
		case strings.HasPrefix(line, sseStatusPrefix):
			if code, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, sseStatusPrefix))); err == nil {
				status = code
			}
		case strings.HasPrefix(line, sseEventPrefix):
			if strings.TrimSpace(strings.TrimPrefix(line, sseEventPrefix)) == "error" && status == http.StatusOK {
				status = http.StatusInternalServerError
			}
		case strings.HasPrefix(line, sseDataPrefix):
			data := strings.TrimSpace(strings.TrimPrefix(line, sseDataPrefix))
			if data == "" || data == "[DONE]" {
				continue
			}
			chunk := new(GenerationResponse)
			if err := json.Unmarshal([]byte(data), chunk); err != nil {
				emit(streamEvent{err: errors.Wrapf(err, "unmarshal dashscope chunk %q", data)})
				return
			}
			chunk.StatusCode = status
			if !emit(streamEvent{resp: chunk}) {
				return
			}
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		emit(streamEvent{err: errors.Wrap(err, "read dashscope stream")})
	}
}

// Next blocks until the next chunk arrives. It returns io.EOF once the stream is exhausted.
func (s *ChunkStream) Next(ctx context.Context) (*GenerationResponse, error) {
	select {
	case ev, ok := <-s.events:
		if !ok {
			return nil, io.EOF
		}
		if ev.err != nil {
			return nil, ev.err
		}
		return ev.resp, nil
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "wait for dashscope chunk")
	}
}

// Close stops the reader goroutine and releases the response body. It is safe to call more than once.
func (s *ChunkStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		if s.body != nil {
			err = s.body.Close()
		}
		<-s.done
	})
	return err
}
