package yuvfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"github.com/tauraamui/xerror"
	"github.com/tauraamui/yuvcapture/pkg/video/videoframe"
)

var fs = afero.NewOsFs()

const DATE_FORMAT = "20060102"

var Timestamp = func() time.Time {
	return time.Now()
}

// File is a headerless stream of concatenated yuv420 frames.
type File interface {
	Path() string
	Dimensions() videoframe.Dimensions
	Write([]byte) error
	IsClosed() bool
	Close() error
}

// PathFor resolves <root>/<YYYYMMDD>/output_video_<w>x<h>_yuv420.yuv.
func PathFor(root string, dims videoframe.Dimensions, ts time.Time) string {
	return filepath.Join(
		root,
		ts.Format(DATE_FORMAT),
		fmt.Sprintf("output_video_%dx%d_yuv420.yuv", dims.W, dims.H),
	)
}

// Create makes the dated directory under root and opens a fresh output file,
// truncating any capture left from an earlier run on the same day.
func Create(root string, dims videoframe.Dimensions) (File, error) {
	path := PathFor(root, dims, Timestamp())
	if err := ensureDirectoryPathExists(filepath.Dir(path)); err != nil {
		return nil, xerror.Errorf("unable to create output directory: %w", err)
	}

	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, xerror.Errorf("unable to create/open file: %w", err)
	}

	return &file{path: path, dims: dims, f: f}, nil
}

func ensureDirectoryPathExists(path string) error {
	err := fs.MkdirAll(path, os.ModePerm|os.ModeDir)
	if err == nil || os.IsExist(err) {
		return nil
	}
	return err
}

type file struct {
	path     string
	dims     videoframe.Dimensions
	mu       sync.Mutex
	isClosed bool
	f        afero.File
}

func (f *file) Path() string {
	return f.path
}

func (f *file) Dimensions() videoframe.Dimensions {
	return f.dims
}

func (f *file) Write(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.isClosed {
		return xerror.Errorf("cannot write frame to closed file: %s", f.path)
	}

	if expected := f.dims.I420Size(); len(data) != expected {
		return xerror.Errorf("frame is %d bytes, %dx%d yuv420 frames are %d", len(data), f.dims.W, f.dims.H, expected)
	}

	bc, err := f.f.Write(data)
	if err != nil {
		return xerror.Errorf("unable to write frame to file: %s: %w", f.path, err)
	}

	if bc != len(data) {
		return xerror.Errorf("unable to write full frame to file: %s: wrote %d of %d bytes", f.path, bc, len(data))
	}

	return nil
}

func (f *file) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isClosed
}

// Close releases the file handle. Only the first call does any work.
func (f *file) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.isClosed {
		return nil
	}
	f.isClosed = true
	return f.f.Close()
}
