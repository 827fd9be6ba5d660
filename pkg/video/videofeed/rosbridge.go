package videofeed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tauraamui/xerror"
	"github.com/tauraamui/yuvcapture/pkg/log"
	"github.com/tauraamui/yuvcapture/pkg/video/videoframe"
)

const imageMsgType = "sensor_msgs/Image"

type rosbridgeOp struct {
	Op          string          `json:"op"`
	ID          string          `json:"id,omitempty"`
	Topic       string          `json:"topic,omitempty"`
	Type        string          `json:"type,omitempty"`
	QueueLength int             `json:"queue_length,omitempty"`
	Msg         json.RawMessage `json:"msg,omitempty"`
}

// imageMsg is the rosbridge JSON form of sensor_msgs/Image, uint8[] data
// arrives base64 encoded.
type imageMsg struct {
	Height      int    `json:"height"`
	Width       int    `json:"width"`
	Encoding    string `json:"encoding"`
	IsBigendian int    `json:"is_bigendian"`
	Step        int    `json:"step"`
	Data        []byte `json:"data"`
}

type rosbridgeBackend struct{}

func (b *rosbridgeBackend) Connect(ctx context.Context, addr, topic string) (Connection, error) {
	conn := rosbridgeConnection{topic: topic}
	if err := conn.connect(ctx, addr); err != nil {
		return nil, err
	}
	return &conn, nil
}

var dialWebsocket = func(ctx context.Context, addr string) (*websocket.Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	return ws, err
}

type rosbridgeConnection struct {
	uuid   string
	topic  string
	mu     sync.Mutex
	isOpen bool
	ws     *websocket.Conn
}

func (c *rosbridgeConnection) connect(ctx context.Context, addr string) error {
	ws, err := dialWebsocket(ctx, addr)
	if err != nil {
		return xerror.Errorf("unable to dial rosbridge at %s: %w", addr, err)
	}
	c.ws = ws

	if err := c.send(rosbridgeOp{
		Op: "subscribe", ID: c.subscriptionID(), Topic: c.topic, Type: imageMsgType, QueueLength: 1,
	}); err != nil {
		ws.Close()
		return xerror.Errorf("unable to subscribe to topic [%s]: %w", c.topic, err)
	}

	c.isOpen = true
	return nil
}

func (c *rosbridgeConnection) subscriptionID() string {
	return "subscribe:" + c.topic + ":" + c.UUID()
}

func (c *rosbridgeConnection) send(op rosbridgeOp) error {
	return c.ws.WriteJSON(op)
}

func (c *rosbridgeConnection) UUID() string {
	if len(c.uuid) == 0 {
		c.uuid = uuid.NewString()
	}
	return c.uuid
}

func (c *rosbridgeConnection) Topic() string {
	return c.topic
}

func (c *rosbridgeConnection) Read(ctx context.Context) (videoframe.Raw, error) {
	if !c.IsOpen() {
		return videoframe.Raw{}, ErrConnectionClosed
	}

	readDone := make(chan struct{})
	defer close(readDone)
	go func() {
		select {
		case <-ctx.Done():
			// unblocks the pending ReadMessage
			c.ws.SetReadDeadline(time.Now()) //nolint
		case <-readDone:
		}
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return videoframe.Raw{}, ctx.Err()
			}
			return videoframe.Raw{}, xerror.Errorf("unable to read from rosbridge connection: %w", err)
		}

		frame, ok, err := decodePublish(data, c.topic)
		if err != nil {
			return videoframe.Raw{}, err
		}
		if ok {
			return frame, nil
		}
	}
}

// decodePublish extracts the image from a publish op on topic. Any other
// op, such as status messages, is reported as not ok.
func decodePublish(data []byte, topic string) (videoframe.Raw, bool, error) {
	var op rosbridgeOp
	if err := json.Unmarshal(data, &op); err != nil {
		return videoframe.Raw{}, false, xerror.Errorf("unable to parse rosbridge message: %w", err)
	}

	if op.Op != "publish" || op.Topic != topic {
		log.Debug("Ignoring rosbridge op [%s] for topic [%s]", op.Op, op.Topic)
		return videoframe.Raw{}, false, nil
	}

	var msg imageMsg
	if err := json.Unmarshal(op.Msg, &msg); err != nil {
		return videoframe.Raw{}, false, xerror.Errorf("unable to parse %s on topic [%s]: %w", imageMsgType, topic, err)
	}

	return videoframe.Raw{
		Width:    msg.Width,
		Height:   msg.Height,
		Encoding: videoframe.Encoding(msg.Encoding),
		Step:     msg.Step,
		Data:     msg.Data,
	}, true, nil
}

func (c *rosbridgeConnection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isOpen
}

func (c *rosbridgeConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isOpen {
		return nil
	}
	c.isOpen = false

	if err := c.send(rosbridgeOp{Op: "unsubscribe", ID: c.subscriptionID(), Topic: c.topic}); err != nil {
		log.Debug("Unable to unsubscribe from topic [%s]: %v", c.topic, err)
	}
	c.ws.WriteControl( //nolint
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.ws.Close()
}
