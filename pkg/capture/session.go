package capture

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tauraamui/xerror"
	"github.com/tauraamui/yuvcapture/pkg/configdef"
	"github.com/tauraamui/yuvcapture/pkg/log"
	"github.com/tauraamui/yuvcapture/pkg/video/videoconv"
	"github.com/tauraamui/yuvcapture/pkg/video/videoframe"
	"github.com/tauraamui/yuvcapture/pkg/video/yuvfile"
)

type Status int

const (
	Accepting Status = iota
	Done
)

func (s Status) String() string {
	switch s {
	case Accepting:
		return "ACCEPTING"
	case Done:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Session throttles frames into a single yuv420 output file until its frame
// budget is spent.
type Session struct {
	uuid      string
	target    int
	dims      videoframe.Dimensions
	interval  time.Duration
	converter videoconv.Converter

	mu           sync.Mutex
	out          yuvfile.File
	written      int
	lastAccepted time.Time
	done         bool
}

// Open creates the output file under the configured results root before
// anything subscribes to the feed.
func Open(values configdef.Values, converter videoconv.Converter) (*Session, error) {
	if err := values.RunValidate(); err != nil {
		return nil, err
	}

	root := values.ResultsRoot
	if len(root) == 0 {
		root = configdef.DefaultResultsRoot
	}

	out, err := yuvfile.Create(root, values.Dimensions())
	if err != nil {
		return nil, xerror.Errorf("%w: %v", ErrResource, err)
	}
	log.Info("Opened \"%s\" for writing.", out.Path())

	return NewSession(values, converter, out)
}

func NewSession(values configdef.Values, converter videoconv.Converter, out yuvfile.File) (*Session, error) {
	if err := values.RunValidate(); err != nil {
		return nil, err
	}

	if out == nil {
		return nil, xerror.Errorf("%w: no output file", ErrResource)
	}

	if converter == nil {
		converter = videoconv.Default()
	}

	return &Session{
		uuid:      uuid.NewString(),
		target:    values.FrameCount,
		dims:      values.Dimensions(),
		interval:  values.FrameInterval(),
		converter: converter,
		out:       out,
	}, nil
}

// OnFrame gates, converts and appends one arriving frame. It must not be
// called concurrently with itself.
func (s *Session) OnFrame(frame videoframe.Raw, arrival time.Time) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return Done, nil
	}

	if s.written < s.target && Accept(s.lastAccepted, arrival, s.interval) {
		if err := s.accept(frame, arrival); err != nil {
			return Accepting, err
		}
	}

	return s.checkCompletion()
}

func (s *Session) accept(frame videoframe.Raw, arrival time.Time) error {
	encoded, err := s.converter.Convert(frame, s.dims)
	if err != nil {
		return xerror.Errorf("%w: %v", ErrConversion, err)
	}

	if err := s.out.Write(encoded); err != nil {
		return xerror.Errorf("%w: %v", ErrResource, err)
	}

	s.written++
	s.lastAccepted = arrival
	log.Info("Saved frame %d of %d", s.written, s.target)
	return nil
}

func (s *Session) checkCompletion() (Status, error) {
	if s.written < s.target {
		return Accepting, nil
	}

	s.done = true
	log.Info("Finished saving video. Closing file.")
	if err := s.out.Close(); err != nil {
		return Done, xerror.Errorf("%w: unable to close %s: %v", ErrResource, s.out.Path(), err)
	}
	return Done, nil
}

// Close releases the output file without completing the session. Calling it
// more than once, or after completion, does nothing.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.out.IsClosed() {
		return nil
	}

	log.Warn("Closing output file early: %s (%d of %d frames saved)", s.out.Path(), s.written, s.target)
	if err := s.out.Close(); err != nil {
		return xerror.Errorf("%w: unable to close %s: %v", ErrResource, s.out.Path(), err)
	}
	return nil
}

func (s *Session) UUID() string {
	return s.uuid
}

func (s *Session) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

func (s *Session) Target() int {
	return s.target
}

func (s *Session) Path() string {
	return s.out.Path()
}

func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
