package capture_test

import (
	"errors"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/tauraamui/yuvcapture/internal/videotest"
	"github.com/tauraamui/yuvcapture/pkg/capture"
	"github.com/tauraamui/yuvcapture/pkg/configdef"
	"github.com/tauraamui/yuvcapture/pkg/log"
	"github.com/tauraamui/yuvcapture/pkg/video/videoconv"
	"github.com/tauraamui/yuvcapture/pkg/video/videoframe"
	"github.com/tauraamui/yuvcapture/pkg/video/yuvfile"
)

type testFile struct {
	dims       videoframe.Dimensions
	frames     [][]byte
	closeCount int
	onWriteErr error
	onCloseErr error
}

func (tf *testFile) Path() string                      { return "Results/20211027/output_video_4x4_yuv420.yuv" }
func (tf *testFile) Dimensions() videoframe.Dimensions { return tf.dims }
func (tf *testFile) IsClosed() bool                    { return tf.closeCount > 0 }

func (tf *testFile) Write(data []byte) error {
	if tf.closeCount > 0 {
		return errors.New("write after close")
	}
	if tf.onWriteErr != nil {
		return tf.onWriteErr
	}
	tf.frames = append(tf.frames, data)
	return nil
}

func (tf *testFile) Close() error {
	tf.closeCount++
	return tf.onCloseErr
}

// tagConverter encodes each frame as a buffer filled with the frame's first
// byte, so tests can tell written frames apart.
type tagConverter struct {
	onConvertErr error
}

func (tc tagConverter) Convert(frame videoframe.Raw, dims videoframe.Dimensions) ([]byte, error) {
	if tc.onConvertErr != nil {
		return nil, tc.onConvertErr
	}
	out := make([]byte, dims.I420Size())
	for i := range out {
		out[i] = frame.Data[0]
	}
	return out, nil
}

func values(frameCount, fps int) configdef.Values {
	return configdef.Values{FrameCount: frameCount, Width: 4, Height: 4, FPS: fps}
}

func newTestSession(t *testing.T, vals configdef.Values, conv videoconv.Converter) (*capture.Session, *testFile) {
	t.Helper()
	out := &testFile{dims: vals.Dimensions()}
	session, err := capture.NewSession(vals, conv, out)
	if err != nil {
		t.Fatalf("unable to create session: %v", err)
	}
	return session, out
}

func tagged(tag byte) videoframe.Raw {
	return videotest.SolidFrame(2, 2, tag, tag, tag)
}

func TestNewSessionRejectsInvalidValues(t *testing.T) {
	is := is.New(t)
	_, err := capture.NewSession(values(0, 1), tagConverter{}, &testFile{})
	is.True(errors.Is(err, configdef.ErrInvalidConfig))
}

func TestNewSessionRequiresOutput(t *testing.T) {
	is := is.New(t)
	_, err := capture.NewSession(values(1, 1), tagConverter{}, nil)
	is.True(errors.Is(err, capture.ErrResource))
}

func TestOnFrameDropsFramesInsideInterval(t *testing.T) {
	is := is.New(t)
	defer log.Silence()()
	session, out := newTestSession(t, values(3, 1), tagConverter{})

	start := time.Unix(1000, 0)
	status, err := session.OnFrame(tagged(1), start)
	is.NoErr(err)
	is.Equal(status, capture.Accepting)

	status, err = session.OnFrame(tagged(2), start.Add(500*time.Millisecond))
	is.NoErr(err)
	is.Equal(status, capture.Accepting)

	is.Equal(session.Written(), 1)
	is.Equal(len(out.frames), 1)
	is.Equal(out.frames[0][0], byte(1))
}

func TestOnFrameAcceptsOneFramePerSecondFromFasterFeed(t *testing.T) {
	is := is.New(t)
	defer log.Silence()()
	session, out := newTestSession(t, values(3, 1), tagConverter{})

	start := time.Unix(1000, 0)
	var accepted []time.Duration
	var status capture.Status
	var err error
	for i := 0; i <= 15; i++ {
		offset := time.Duration(i) * 200 * time.Millisecond
		before := session.Written()
		status, err = session.OnFrame(tagged(byte(i)), start.Add(offset))
		is.NoErr(err)
		if session.Written() > before {
			accepted = append(accepted, offset)
		}
		if status == capture.Done {
			break
		}
	}

	is.Equal(status, capture.Done)
	is.Equal(accepted, []time.Duration{0, time.Second, 2 * time.Second})
	is.Equal(len(out.frames), 3)
	is.Equal(out.frames[0][0], byte(0))
	is.Equal(out.frames[1][0], byte(5))
	is.Equal(out.frames[2][0], byte(10))
	is.Equal(out.closeCount, 1)

	size := 0
	for _, f := range out.frames {
		size += len(f)
	}
	is.Equal(size, 72)
}

func TestOnFrameAfterDoneIsNoOp(t *testing.T) {
	is := is.New(t)
	defer log.Silence()()
	session, out := newTestSession(t, values(1, 1), tagConverter{})

	status, err := session.OnFrame(tagged(1), time.Unix(1000, 0))
	is.NoErr(err)
	is.Equal(status, capture.Done)
	is.True(session.Done())

	for i := 0; i < 3; i++ {
		status, err = session.OnFrame(tagged(2), time.Unix(int64(2000+i*10), 0))
		is.NoErr(err)
		is.Equal(status, capture.Done)
	}

	is.Equal(len(out.frames), 1)
	is.Equal(out.closeCount, 1)
	is.NoErr(session.Close())
	is.Equal(out.closeCount, 1)
}

func TestOnFrameConversionFailureIsFatalAndUncounted(t *testing.T) {
	is := is.New(t)
	defer log.Silence()()
	session, out := newTestSession(t, values(2, 1), tagConverter{onConvertErr: errors.New("malformed frame")})

	status, err := session.OnFrame(tagged(1), time.Unix(1000, 0))
	is.True(errors.Is(err, capture.ErrConversion))
	is.Equal(err.Error(), "conversion error: malformed frame")
	is.Equal(status, capture.Accepting)
	is.Equal(session.Written(), 0)
	is.Equal(len(out.frames), 0)
}

func TestOnFrameWriteFailureIsResourceError(t *testing.T) {
	is := is.New(t)
	defer log.Silence()()
	session, err := capture.NewSession(values(2, 1), tagConverter{}, &testFile{onWriteErr: errors.New("disk full")})
	is.NoErr(err)

	_, err = session.OnFrame(tagged(1), time.Unix(1000, 0))
	is.True(errors.Is(err, capture.ErrResource))
	is.Equal(err.Error(), "resource error: disk full")
	is.Equal(session.Written(), 0)
}

func TestOnFrameCloseFailureAtCompletion(t *testing.T) {
	is := is.New(t)
	defer log.Silence()()
	session, err := capture.NewSession(values(1, 1), tagConverter{}, &testFile{onCloseErr: errors.New("io error")})
	is.NoErr(err)

	status, err := session.OnFrame(tagged(1), time.Unix(1000, 0))
	is.Equal(status, capture.Done)
	is.True(errors.Is(err, capture.ErrResource))
}

func TestCloseIsIdempotent(t *testing.T) {
	is := is.New(t)
	defer log.Silence()()
	session, out := newTestSession(t, values(5, 1), tagConverter{})

	is.NoErr(session.Close())
	is.NoErr(session.Close())
	is.Equal(out.closeCount, 1)
	is.True(!session.Done())
}

func TestOnFrameRandomArrivalsHoldInvariants(t *testing.T) {
	is := is.New(t)
	defer log.Silence()()
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		target := 1 + rng.Intn(10)
		fps := 1 + rng.Intn(30)
		session, out := newTestSession(t, values(target, fps), tagConverter{})
		interval := time.Second / time.Duration(fps)

		now := time.Unix(5000, 0)
		var acceptedAt []time.Time
		var acceptedTags []byte
		for i := 0; i < 200; i++ {
			now = now.Add(time.Duration(rng.Intn(int(interval))) + time.Millisecond)
			tag := byte(i)
			before := session.Written()
			_, err := session.OnFrame(tagged(tag), now)
			is.NoErr(err)
			if session.Written() > before {
				acceptedAt = append(acceptedAt, now)
				acceptedTags = append(acceptedTags, tag)
			}
			is.True(session.Written() <= target)
		}

		for i := 1; i < len(acceptedAt); i++ {
			is.True(acceptedAt[i].Sub(acceptedAt[i-1]) >= interval)
		}
		is.Equal(len(out.frames), len(acceptedTags))
		for i, f := range out.frames {
			is.Equal(f[0], acceptedTags[i])
		}
	}
}

func TestOpenWritesExactFileSizeOnCompletion(t *testing.T) {
	is := is.New(t)
	defer log.Silence()()

	resetTimestamp := overloadTimestamp(time.Date(2021, 10, 27, 12, 0, 0, 0, time.UTC))
	defer resetTimestamp()

	vals := values(3, 10)
	vals.ResultsRoot = t.TempDir()
	session, err := capture.Open(vals, videoconv.Native())
	is.NoErr(err)
	is.Equal(session.Path(), yuvfile.PathFor(vals.ResultsRoot, vals.Dimensions(), time.Date(2021, 10, 27, 0, 0, 0, 0, time.UTC)))

	start := time.Unix(1000, 0)
	var status capture.Status
	for i := 0; status != capture.Done; i++ {
		status, err = session.OnFrame(videotest.GradientFrame(8, 6), start.Add(time.Duration(i)*100*time.Millisecond))
		is.NoErr(err)
	}

	info, err := os.Stat(session.Path())
	is.NoErr(err)
	is.Equal(info.Size(), int64(3*24))
}

func TestOpenFailsWhenResultsRootIsUnusable(t *testing.T) {
	is := is.New(t)
	defer log.Silence()()

	root := t.TempDir() + "/blocked"
	is.NoErr(os.WriteFile(root, []byte("not a dir"), 0644))

	vals := values(3, 10)
	vals.ResultsRoot = root
	session, err := capture.Open(vals, videoconv.Native())
	is.True(session == nil)
	is.True(errors.Is(err, capture.ErrResource))
}

func overloadTimestamp(ts time.Time) func() {
	timestamp := yuvfile.Timestamp
	yuvfile.Timestamp = func() time.Time { return ts }
	return func() { yuvfile.Timestamp = timestamp }
}
