package wrapper

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"

	"github.com/dealmate/agent-backend/common/random"
	"github.com/dealmate/agent-backend/monitor"
)

// ErrLoopClosed is returned when work is submitted to a loop that was already closed.
var ErrLoopClosed = errors.New("loop is closed")

// Loop runs provider work for exactly one wrapper call.
//
// Tasks run one at a time on the loop's own goroutine, and RunUntilComplete
// blocks the caller until the submitted task returns. The context handed to a
// task is cancelled once the loop is closed.
type Loop interface {
	RunUntilComplete(task func(ctx context.Context) error) error
	Close() error
}

// LoopFactory creates the private loop of one call.
type LoopFactory func(ctx context.Context) Loop

type loopTask struct {
	fn     func(ctx context.Context) error
	result chan error
}

type eventLoop struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	tasks  chan loopTask
	quit   chan struct{}
	done   chan struct{}

	closed    atomic.Bool
	closeOnce sync.Once
}

// NewLoop starts a loop whose tasks inherit values and cancellation from ctx.
func NewLoop(ctx context.Context) Loop {
	loopCtx, cancel := context.WithCancel(ctx)
	l := &eventLoop{
		id:     random.GetUUID(),
		ctx:    loopCtx,
		cancel: cancel,
		tasks:  make(chan loopTask),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	monitor.LoopOpened()
	go l.run()
	return l
}

func (l *eventLoop) run() {
	defer close(l.done)
	for {
		select {
		case t := <-l.tasks:
			t.result <- l.runTask(t.fn)
		case <-l.quit:
			return
		}
	}
}

func (l *eventLoop) runTask(fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			gmw.GetLogger(l.ctx).Error("loop task panicked",
				zap.String("loop_id", l.id), zap.Any("panic", r))
			err = errors.Errorf("panic in loop task: %s", fmt.Sprint(r))
		}
	}()
	return fn(l.ctx)
}

func (l *eventLoop) RunUntilComplete(task func(ctx context.Context) error) error {
	if l.closed.Load() {
		return ErrLoopClosed
	}

	result := make(chan error, 1)
	select {
	case l.tasks <- loopTask{fn: task, result: result}:
	case <-l.quit:
		return ErrLoopClosed
	}
	return <-result
}

// Close cancels the loop context and waits for the running task, if any, to return.
func (l *eventLoop) Close() error {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		l.cancel()
		close(l.quit)
		<-l.done
		monitor.LoopClosed()
	})
	return nil
}
