package videoconv

import (
	"image"

	"github.com/tauraamui/yuvcapture/pkg/video/videoframe"
	"golang.org/x/image/draw"
)

type nativeConverter struct{}

func (c *nativeConverter) Convert(frame videoframe.Raw, dims videoframe.Dimensions) ([]byte, error) {
	if err := validate(frame, dims); err != nil {
		return nil, err
	}

	img := toRGBA(frame)
	if frame.Dimensions() != dims {
		scaled := image.NewRGBA(image.Rect(0, 0, dims.W, dims.H))
		draw.BiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = scaled
	}

	return rgbaToI420(img), nil
}

func toRGBA(frame videoframe.Raw) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	ch := frame.Encoding.Channels()
	for y := 0; y < frame.Height; y++ {
		row := frame.Data[y*frame.Step:]
		for x := 0; x < frame.Width; x++ {
			px := row[x*ch:]
			i := img.PixOffset(x, y)
			switch frame.Encoding {
			case videoframe.MONO8:
				img.Pix[i], img.Pix[i+1], img.Pix[i+2] = px[0], px[0], px[0]
			case videoframe.RGB8, videoframe.RGBA8:
				img.Pix[i], img.Pix[i+1], img.Pix[i+2] = px[0], px[1], px[2]
			default:
				img.Pix[i], img.Pix[i+1], img.Pix[i+2] = px[2], px[1], px[0]
			}
			img.Pix[i+3] = 0xFF
		}
	}
	return img
}

// rgbaToI420 uses BT.601 limited range, the same as OpenCV's COLOR_BGR2YUV_I420.
// Chroma is taken from the average of each 2x2 block.
func rgbaToI420(img *image.RGBA) []byte {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	cw, ch := w/2, h/2

	out := make([]byte, videoframe.Dimensions{W: w, H: h}.I420Size())
	yPlane := out[:w*h]
	uPlane := out[w*h : w*h+cw*ch]
	vPlane := out[w*h+cw*ch:]

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			yPlane[y*w+x] = luma(int(img.Pix[i]), int(img.Pix[i+1]), int(img.Pix[i+2]))
		}
	}

	for cy := 0; cy < ch; cy++ {
		for cx := 0; cx < cw; cx++ {
			var r, g, b int
			for _, p := range [4]image.Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
				i := img.PixOffset(cx*2+p.X, cy*2+p.Y)
				r += int(img.Pix[i])
				g += int(img.Pix[i+1])
				b += int(img.Pix[i+2])
			}
			r, g, b = (r+2)/4, (g+2)/4, (b+2)/4
			uPlane[cy*cw+cx] = clamp(((-38*r - 74*g + 112*b + 128) >> 8) + 128)
			vPlane[cy*cw+cx] = clamp(((112*r - 94*g - 18*b + 128) >> 8) + 128)
		}
	}

	return out
}

func luma(r, g, b int) byte {
	return clamp(((66*r + 129*g + 25*b + 128) >> 8) + 16)
}

func clamp(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
