package videofeed

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zmq "github.com/pebbe/zmq4"
	"github.com/tauraamui/xerror"
	"github.com/tauraamui/yuvcapture/pkg/log"
	"github.com/tauraamui/yuvcapture/pkg/video/videoframe"
)

const (
	zmqPollInterval = 100 * time.Millisecond
	// keep the receive queue short, a capture that falls behind should
	// drop stale frames rather than work through a backlog
	zmqReceiveHWM = 2
)

type zmqBackend struct{}

func (b *zmqBackend) Connect(ctx context.Context, addr, topic string) (Connection, error) {
	conn := zmqConnection{topic: topic}
	if err := conn.connect(ctx, addr); err != nil {
		return nil, err
	}
	return &conn, nil
}

// zmqConnection subscribes to multipart [topic, frame] messages, where frame
// is encoded with videoframe.ToBytes.
type zmqConnection struct {
	uuid   string
	topic  string
	mu     sync.Mutex
	isOpen bool
	sock   *zmq.Socket
	poller *zmq.Poller
}

func (c *zmqConnection) connect(ctx context.Context, addr string) error {
	select {
	case <-ctx.Done():
		return xerror.New("connection cancelled")
	default:
	}

	sock, err := zmq.NewSocket(zmq.SUB)
	if err != nil {
		return xerror.Errorf("unable to create zmq socket: %w", err)
	}

	if err := configureSubscriber(sock, addr, c.topic); err != nil {
		sock.Close()
		return err
	}

	c.sock = sock
	c.poller = zmq.NewPoller()
	c.poller.Add(sock, zmq.POLLIN)
	c.isOpen = true
	return nil
}

func configureSubscriber(sock *zmq.Socket, addr, topic string) error {
	if err := sock.SetLinger(0); err != nil {
		return xerror.Errorf("unable to set zmq linger: %w", err)
	}
	if err := sock.SetRcvhwm(zmqReceiveHWM); err != nil {
		return xerror.Errorf("unable to set zmq receive high water mark: %w", err)
	}
	if err := sock.Connect(addr); err != nil {
		return xerror.Errorf("unable to connect to %s: %w", addr, err)
	}
	if err := sock.SetSubscribe(topic); err != nil {
		return xerror.Errorf("unable to subscribe to topic [%s]: %w", topic, err)
	}
	return nil
}

func (c *zmqConnection) UUID() string {
	if len(c.uuid) == 0 {
		c.uuid = uuid.NewString()
	}
	return c.uuid
}

func (c *zmqConnection) Topic() string {
	return c.topic
}

func (c *zmqConnection) Read(ctx context.Context) (videoframe.Raw, error) {
	for {
		select {
		case <-ctx.Done():
			return videoframe.Raw{}, ctx.Err()
		default:
		}

		if !c.IsOpen() {
			return videoframe.Raw{}, ErrConnectionClosed
		}

		polled, err := c.poller.Poll(zmqPollInterval)
		if err != nil {
			return videoframe.Raw{}, xerror.Errorf("unable to poll zmq socket: %w", err)
		}
		if len(polled) == 0 {
			continue
		}

		parts, err := c.sock.RecvMessageBytes(0)
		if err != nil {
			return videoframe.Raw{}, xerror.Errorf("unable to receive from zmq socket: %w", err)
		}

		frame, ok, err := decodeMessage(parts, c.topic)
		if err != nil {
			return videoframe.Raw{}, err
		}
		if ok {
			return frame, nil
		}
	}
}

// decodeMessage skips messages for other topics which share the
// subscription prefix.
func decodeMessage(parts [][]byte, topic string) (videoframe.Raw, bool, error) {
	if len(parts) != 2 {
		log.Debug("Ignoring zmq message with %d parts", len(parts))
		return videoframe.Raw{}, false, nil
	}

	if string(parts[0]) != topic {
		return videoframe.Raw{}, false, nil
	}

	frame, err := videoframe.FromBytes(parts[1])
	if err != nil {
		return videoframe.Raw{}, false, xerror.Errorf("unable to decode frame on topic [%s]: %w", topic, err)
	}
	return frame, true, nil
}

func (c *zmqConnection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isOpen
}

func (c *zmqConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isOpen {
		return nil
	}
	c.isOpen = false
	return c.sock.Close()
}
