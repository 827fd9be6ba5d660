package subscription

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tauraamui/xerror"
	"github.com/tauraamui/yuvcapture/pkg/video/videofeed"
	"github.com/tauraamui/yuvcapture/pkg/video/videoframe"
)

type Subscription interface {
	UUID() string
	Topic() string
	Read(context.Context) (videoframe.Raw, error)
	IsOpen() bool
	IsClosing() bool
	Close() error
}

type subscription struct {
	uuid      string
	topic     string
	mu        sync.Mutex
	isClosing bool
	conn      videofeed.Connection
}

func (s *subscription) UUID() string {
	return s.uuid
}

func (s *subscription) Topic() string {
	return s.topic
}

// Read is not guarded by the mutex so Close can interrupt a blocked read.
func (s *subscription) Read(ctx context.Context) (videoframe.Raw, error) {
	if s.IsClosing() {
		return videoframe.Raw{}, videofeed.ErrConnectionClosed
	}
	frame, err := s.conn.Read(ctx)
	if err != nil {
		return videoframe.Raw{}, xerror.Errorf("unable to read frame from topic [%s]: %w", s.topic, err)
	}
	return frame, nil
}

func (s *subscription) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.IsOpen()
}

func (s *subscription) IsClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isClosing
}

func (s *subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isClosing = true
	return s.conn.Close()
}

func subscribe(ctx context.Context, topic, addr string, backend videofeed.Backend) (Subscription, error) {
	conn, err := backend.Connect(ctx, addr, topic)
	if err != nil {
		return nil, xerror.Errorf("Unable to subscribe to topic [%s]: %w", topic, err)
	}
	return &subscription{
		uuid:  uuid.NewString(),
		topic: topic,
		conn:  conn,
	}, nil
}

func Subscribe(topic, addr string, backend videofeed.Backend) (Subscription, error) {
	return subscribe(context.Background(), topic, addr, backend)
}

func SubscribeWithCancel(cancel context.Context, topic, addr string, backend videofeed.Backend) (Subscription, error) {
	return subscribe(cancel, topic, addr, backend)
}
