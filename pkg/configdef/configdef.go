package configdef

import (
	"errors"
	"time"

	"github.com/tauraamui/xerror"
	"github.com/tauraamui/yuvcapture/pkg/video/videoframe"
	"gopkg.in/dealancer/validate.v2"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	DefaultFeedAddress = "ws://localhost:9090"
	DefaultTopic       = "/camera/color/image_raw"
	DefaultResultsRoot = "./Results"
)

type Values struct {
	FrameCount  int `validate:"gte=1"`
	Width       int `validate:"gte=2"`
	Height      int `validate:"gte=2"`
	FPS         int `validate:"gte=1"`
	FeedAddress string
	Topic       string
	Converter   string
	ResultsRoot string
}

func (v Values) Dimensions() videoframe.Dimensions {
	return videoframe.Dimensions{W: v.Width, H: v.Height}
}

// FrameInterval is the minimum gap between two accepted frames.
func (v Values) FrameInterval() time.Duration {
	if v.FPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(v.FPS)
}

func (v Values) RunValidate() error {
	if err := validate.Validate(&v); err != nil {
		return xerror.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if v.Width%2 != 0 || v.Height%2 != 0 {
		return xerror.Errorf("%w: yuv420 width and height must be even, got %dx%d", ErrInvalidConfig, v.Width, v.Height)
	}

	return nil
}
