package videofeed

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/tauraamui/yuvcapture/pkg/video/videoframe"
)

var ErrConnectionClosed = errors.New("feed connection is closed")

type Connection interface {
	UUID() string
	Topic() string
	// Read blocks until the next frame on the topic arrives or ctx is done.
	Read(context.Context) (videoframe.Raw, error)
	IsOpen() bool
	Close() error
}

type Backend interface {
	Connect(ctx context.Context, addr, topic string) (Connection, error)
}

func Default() Backend {
	return Rosbridge()
}

func Rosbridge() Backend {
	return &rosbridgeBackend{}
}

func ZMQ() Backend {
	return &zmqBackend{}
}

func Mock() Backend {
	return &mockBackend{}
}

// Resolve picks a backend from the feed address scheme.
func Resolve(addr string) Backend {
	u, err := url.Parse(addr)
	if err != nil {
		return Default()
	}

	switch strings.ToLower(u.Scheme) {
	case "tcp", "ipc", "inproc":
		return ZMQ()
	case "mock":
		return Mock()
	default:
		return Default()
	}
}
