package videotest

import (
	"github.com/spf13/afero"
	"github.com/tauraamui/yuvcapture/pkg/video/videoframe"
)

// SolidFrame returns a tightly packed frame filled with a single BGR color.
func SolidFrame(w, h int, b, g, r byte) videoframe.Raw {
	data := make([]byte, w*h*3)
	for i := 0; i < len(data); i += 3 {
		data[i], data[i+1], data[i+2] = b, g, r
	}
	return videoframe.Raw{Width: w, Height: h, Encoding: videoframe.BGR8, Step: w * 3, Data: data}
}

// GradientFrame returns a frame whose pixels differ per position, so
// resize or ordering mistakes change the output bytes.
func GradientFrame(w, h int) videoframe.Raw {
	data := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			data[i] = byte(x * 255 / maxInt(w-1, 1))
			data[i+1] = byte(y * 255 / maxInt(h-1, 1))
			data[i+2] = byte((x + y) * 7)
		}
	}
	return videoframe.Raw{Width: w, Height: h, Encoding: videoframe.BGR8, Step: w * 3, Data: data}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// MakeRootPath creates a scratch results root on the given filesystem.
func MakeRootPath(fs afero.Fs) (string, error) {
	return afero.TempDir(fs, "", "yuvcapture")
}
