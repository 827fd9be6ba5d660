package process

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tauraamui/yuvcapture/pkg/capture"
	"github.com/tauraamui/yuvcapture/pkg/log"
	"github.com/tauraamui/yuvcapture/pkg/video/videoframe"
)

var Timestamp = func() time.Time {
	return time.Now()
}

type FrameReader interface {
	Topic() string
	Read(context.Context) (videoframe.Raw, error)
}

type Handler interface {
	OnFrame(videoframe.Raw, time.Time) (capture.Status, error)
}

// CaptureProcess is a Process which also reports when the capture has ended
// on its own, either by completing or by failing.
type CaptureProcess interface {
	Process
	Finished() <-chan interface{}
	Err() error
}

func NewCaptureProcess(feed FrameReader, handler Handler) CaptureProcess {
	return &captureProcess{
		feed:     feed,
		handler:  handler,
		finished: make(chan interface{}),
	}
}

type captureProcess struct {
	feed      FrameReader
	handler   Handler
	proc      Process
	mu        sync.Mutex
	err       error
	finished  chan interface{}
	closeOnce sync.Once
}

func (proc *captureProcess) Setup() Process {
	proc.proc = New(Settings{
		WaitForShutdownMsg: fmt.Sprintf("Stopping capture from topic [%s]...", proc.feed.Topic()),
		Process:            proc.dispatch,
	}).Setup()
	return proc
}

func (proc *captureProcess) Start() {
	if proc.proc == nil {
		proc.Setup()
	}
	proc.proc.Start()
}

func (proc *captureProcess) Stop() {
	if proc.proc != nil {
		proc.proc.Stop()
	}
}

func (proc *captureProcess) Wait() {
	if proc.proc != nil {
		proc.proc.Wait()
	}
}

func (proc *captureProcess) Finished() <-chan interface{} {
	return proc.finished
}

func (proc *captureProcess) Err() error {
	proc.mu.Lock()
	defer proc.mu.Unlock()
	return proc.err
}

func (proc *captureProcess) dispatch(ctx context.Context) []chan interface{} {
	stopping := make(chan interface{})
	go func() {
		defer close(stopping)
		proc.run(ctx)
	}()
	return []chan interface{}{stopping}
}

// run is the only caller of OnFrame, so frame deliveries never overlap.
func (proc *captureProcess) run(ctx context.Context) {
	for {
		frame, err := proc.feed.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Debug("Read from topic [%s] ended by stop: %v", proc.feed.Topic(), err)
				return
			}
			proc.finish(err)
			return
		}

		status, err := proc.handler.OnFrame(frame, Timestamp())
		if err != nil {
			proc.finish(err)
			return
		}

		if status == capture.Done {
			proc.finish(nil)
			return
		}
	}
}

func (proc *captureProcess) finish(err error) {
	proc.closeOnce.Do(func() {
		if err != nil {
			log.Error("Capture from topic [%s] failed: %v", proc.feed.Topic(), err)
		}
		proc.mu.Lock()
		proc.err = err
		proc.mu.Unlock()
		close(proc.finished)
	})
}
