package videoframe

import "github.com/tauraamui/xerror"

type Dimensions struct {
	W, H int
}

// I420Size is the byte length of one planar YUV 4:2:0 frame.
func (d Dimensions) I420Size() int {
	return d.W*d.H + 2*((d.W/2)*(d.H/2))
}

type Encoding string

const (
	BGR8  Encoding = "bgr8"
	RGB8  Encoding = "rgb8"
	BGRA8 Encoding = "bgra8"
	RGBA8 Encoding = "rgba8"
	MONO8 Encoding = "mono8"
)

// Channels returns the bytes per pixel of a supported encoding, or 0.
func (e Encoding) Channels() int {
	switch e {
	case MONO8:
		return 1
	case BGR8, RGB8:
		return 3
	case BGRA8, RGBA8:
		return 4
	}
	return 0
}

// Raw is a color image as delivered by a feed, at the source's own
// resolution. It is only valid for the duration of one handler call.
type Raw struct {
	Width    int
	Height   int
	Encoding Encoding
	// Step is the row length in bytes, which may include padding.
	Step int
	Data []byte
}

func (r Raw) Dimensions() Dimensions {
	return Dimensions{W: r.Width, H: r.Height}
}

// Validate checks the frame's layout is self consistent.
func (r Raw) Validate() error {
	ch := r.Encoding.Channels()
	if ch == 0 {
		return xerror.Errorf("unsupported frame encoding: %q", string(r.Encoding))
	}
	if r.Width <= 0 || r.Height <= 0 {
		return xerror.Errorf("invalid frame dimensions: %dx%d", r.Width, r.Height)
	}
	if r.Step < r.Width*ch {
		return xerror.Errorf("frame step %d is shorter than a %d pixel %s row", r.Step, r.Width, r.Encoding)
	}
	if len(r.Data) < r.Step*r.Height {
		return xerror.Errorf("frame data holds %d bytes, expected at least %d", len(r.Data), r.Step*r.Height)
	}
	return nil
}
