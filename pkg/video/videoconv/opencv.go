package videoconv

import (
	"image"

	"github.com/tauraamui/xerror"
	"github.com/tauraamui/yuvcapture/pkg/video/videoframe"
	"gocv.io/x/gocv"
)

const (
	colorRGBAToBGR    = gocv.ColorConversionCode(3)   // cv::COLOR_RGBA2BGR
	colorBGRToYUVI420 = gocv.ColorConversionCode(128) // cv::COLOR_BGR2YUV_I420
)

type openCVConverter struct{}

func (c *openCVConverter) Convert(frame videoframe.Raw, dims videoframe.Dimensions) ([]byte, error) {
	if err := validate(frame, dims); err != nil {
		return nil, err
	}

	src, err := newMatFromRaw(frame)
	if err != nil {
		return nil, xerror.Errorf("unable to load frame into OpenCV mat: %w", err)
	}
	defer src.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	toBGR(src, &bgr, frame.Encoding)

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(bgr, &resized, image.Pt(dims.W, dims.H), 0, 0, gocv.InterpolationLinear)

	yuv := gocv.NewMat()
	defer yuv.Close()
	gocv.CvtColor(resized, &yuv, colorBGRToYUVI420)

	out := yuv.ToBytes()
	if len(out) != dims.I420Size() {
		return nil, xerror.Errorf("OpenCV produced %d yuv420 bytes, expected %d", len(out), dims.I420Size())
	}
	return out, nil
}

func newMatFromRaw(frame videoframe.Raw) (gocv.Mat, error) {
	mt := gocv.MatTypeCV8UC3
	switch frame.Encoding.Channels() {
	case 1:
		mt = gocv.MatTypeCV8UC1
	case 4:
		mt = gocv.MatTypeCV8UC4
	}
	return gocv.NewMatFromBytes(frame.Height, frame.Width, mt, packRows(frame))
}

func toBGR(src gocv.Mat, dst *gocv.Mat, enc videoframe.Encoding) {
	switch enc {
	case videoframe.RGB8:
		gocv.CvtColor(src, dst, gocv.ColorBGRToRGB)
	case videoframe.BGRA8:
		gocv.CvtColor(src, dst, gocv.ColorBGRAToBGR)
	case videoframe.RGBA8:
		gocv.CvtColor(src, dst, colorRGBAToBGR)
	case videoframe.MONO8:
		gocv.CvtColor(src, dst, gocv.ColorGrayToBGR)
	default:
		src.CopyTo(dst)
	}
}
