package videoconv

import (
	"strings"

	"github.com/tauraamui/xerror"
	"github.com/tauraamui/yuvcapture/pkg/video/videoframe"
)

// Converter resizes a raw frame and encodes it as planar YUV 4:2:0.
type Converter interface {
	Convert(videoframe.Raw, videoframe.Dimensions) ([]byte, error)
}

func Default() Converter {
	return OpenCV()
}

func OpenCV() Converter {
	return &openCVConverter{}
}

func Native() Converter {
	return &nativeConverter{}
}

func Resolve(t string) Converter {
	switch strings.ToLower(t) {
	case "native":
		return Native()
	default:
		return Default()
	}
}

func validateTarget(dims videoframe.Dimensions) error {
	if dims.W <= 0 || dims.H <= 0 {
		return xerror.Errorf("invalid target dimensions: %dx%d", dims.W, dims.H)
	}
	if dims.W%2 != 0 || dims.H%2 != 0 {
		return xerror.Errorf("yuv420 target dimensions must be even, got %dx%d", dims.W, dims.H)
	}
	return nil
}

func validate(frame videoframe.Raw, dims videoframe.Dimensions) error {
	if err := validateTarget(dims); err != nil {
		return err
	}
	return frame.Validate()
}

// packRows drops any per row padding beyond the pixel data.
func packRows(frame videoframe.Raw) []byte {
	rowLen := frame.Width * frame.Encoding.Channels()
	if frame.Step == rowLen {
		return frame.Data[:rowLen*frame.Height]
	}
	packed := make([]byte, 0, rowLen*frame.Height)
	for y := 0; y < frame.Height; y++ {
		start := y * frame.Step
		packed = append(packed, frame.Data[start:start+rowLen]...)
	}
	return packed
}
