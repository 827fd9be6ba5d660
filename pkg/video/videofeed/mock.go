package videofeed

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"github.com/tauraamui/xerror"
	"github.com/tauraamui/yuvcapture/pkg/video/videoframe"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

const defaultMockFPS = 30

type mockBackend struct{}

func (b *mockBackend) Connect(ctx context.Context, addr, topic string) (Connection, error) {
	fps, err := parseMockFPS(addr)
	if err != nil {
		return nil, err
	}
	return &mockConnection{
		topic:    topic,
		interval: time.Second / time.Duration(fps),
		isOpen:   true,
	}, nil
}

func parseMockFPS(addr string) (int, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return 0, xerror.Errorf("invalid mock feed address: %w", err)
	}

	v := u.Query().Get("fps")
	if len(v) == 0 {
		return defaultMockFPS, nil
	}

	fps, err := strconv.Atoi(v)
	if err != nil || fps <= 0 {
		return 0, xerror.Errorf("invalid mock feed fps: %q", v)
	}
	return fps, nil
}

// mockConnection publishes a synthetic frame stream for running without a
// robot attached, each frame carries the topic name and a sequence number.
type mockConnection struct {
	uuid            string
	topic           string
	interval        time.Duration
	mu              sync.Mutex
	isOpen          bool
	lastPublished   time.Time
	seq             int
	baseFrameCanvas image.Image
}

func (mvc *mockConnection) UUID() string {
	if len(mvc.uuid) == 0 {
		mvc.uuid = uuid.NewString()
	}
	return mvc.uuid
}

func (mvc *mockConnection) Topic() string {
	return mvc.topic
}

func (mvc *mockConnection) Read(ctx context.Context) (videoframe.Raw, error) {
	if !mvc.IsOpen() {
		return videoframe.Raw{}, ErrConnectionClosed
	}

	if !mvc.lastPublished.IsZero() {
		if wait := mvc.interval - time.Since(mvc.lastPublished); wait > 0 {
			select {
			case <-ctx.Done():
				return videoframe.Raw{}, ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	mvc.lastPublished = time.Now()
	mvc.seq++

	if mvc.baseFrameCanvas == nil {
		mvc.baseFrameCanvas = renderBaseFrameCanvas()
	}

	img, err := drawTextLayerOntoBaseFrameClone(mvc.baseFrameCanvas, mvc.topic, mvc.seq)
	if err != nil {
		return videoframe.Raw{}, err
	}

	return rgbaToBGRFrame(img), nil
}

func (mvc *mockConnection) IsOpen() bool {
	mvc.mu.Lock()
	defer mvc.mu.Unlock()
	return mvc.isOpen
}

func (mvc *mockConnection) Close() error {
	mvc.mu.Lock()
	defer mvc.mu.Unlock()
	mvc.isOpen = false
	return nil
}

func rgbaToBGRFrame(img *image.RGBA) videoframe.Raw {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	data := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			data = append(data, img.Pix[i+2], img.Pix[i+1], img.Pix[i])
		}
	}
	return videoframe.Raw{Width: w, Height: h, Encoding: videoframe.BGR8, Step: w * 3, Data: data}
}

func drawTextLayerOntoBaseFrameClone(base image.Image, topic string, seq int) (*image.RGBA, error) {
	baseClone := cloneImage(base)
	lines := []string{
		"YUVCAPTURE_MOCK_FEED",
		topic,
		fmt.Sprintf("frame %d", seq),
		time.Now().Format("15:04:05.000"),
	}
	for i, line := range lines {
		if err := drawText(baseClone, 5, 90+i*150, line); err != nil {
			return nil, xerror.Errorf("unable to draw text onto in-mem image for mock feed: %w", err)
		}
	}
	return baseClone, nil
}

func renderBaseFrameCanvas() image.Image {
	var w, h int = 600, 400
	var hw, hh float64 = float64(w / 2), float64(h / 2)
	r := 200.0
	θ := 2 * math.Pi / 3
	cr := &circle{hw - r*math.Sin(0), hh - r*math.Cos(0), 300}
	cg := &circle{hw - r*math.Sin(θ), hh - r*math.Cos(θ), 300}
	cb := &circle{hw - r*math.Sin(-θ), hh - r*math.Cos(-θ), 300}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			c := color.RGBA{
				cr.Brightness(float64(x), float64(y)),
				cg.Brightness(float64(x), float64(y)),
				cb.Brightness(float64(x), float64(y)),
				255,
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func cloneImage(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

var (
	fontOnce sync.Once
	fontFace *truetype.Font
	fontErr  error
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		fontFace, fontErr = freetype.ParseFont(goregular.TTF)
	})
	return fontFace, fontErr
}

func drawText(canvas *image.RGBA, x, y int, text string) error {
	face, err := loadFont()
	if err != nil {
		return err
	}

	fontDrawer := &font.Drawer{
		Dst: canvas,
		Src: image.White,
		Face: truetype.NewFace(face, &truetype.Options{
			Size:    40,
			Hinting: font.HintingFull,
		}),
	}
	textBounds, _ := fontDrawer.BoundString(text)
	textHeight := textBounds.Max.Y - textBounds.Min.Y
	yPosition := fixed.I((y)-textHeight.Ceil())/2 + fixed.I(textHeight.Ceil())
	fontDrawer.Dot = fixed.Point26_6{
		X: fixed.I(x),
		Y: yPosition,
	}
	fontDrawer.DrawString(text)
	return nil
}

type circle struct {
	X, Y, R float64
}

func (c *circle) Brightness(x, y float64) uint8 {
	var dx, dy float64 = c.X - x, c.Y - y
	d := math.Sqrt(dx*dx+dy*dy) / c.R
	if d > 1 {
		return 0
	}
	return 255
}
