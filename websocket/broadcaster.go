package websocket

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/lodtree/lod"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const (
	sendChanSize = 8

	ErrTypeEncodeFrame = "encode_frame"
	ErrTypeSendFrame   = "send_frame"
)

// Broadcaster streams frames to connected viewers. Every frame is encoded
// once and queued on each viewer's send channel; viewers that fall behind
// skip frames instead of slowing the update cycle down.
type Broadcaster struct {
	// The endpoint used to label metrics.
	PublicEndpoint string

	viewerIDs sequentialIDGenerator

	mutex   sync.RWMutex
	viewers map[uint32]*viewer
	last    []byte
}

type viewer struct {
	id       uint32
	clientID string
	send     chan []byte
	sent     int
	dropped  int
}

func NewBroadcaster(publicEndpoint string) *Broadcaster {
	return &Broadcaster{
		PublicEndpoint: publicEndpoint,
		viewers:        make(map[uint32]*viewer),
	}
}

// ViewerCount returns the number of connected viewers.
func (b *Broadcaster) ViewerCount() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	return len(b.viewers)
}

// Broadcast queues f for every connected viewer and keeps it as the frame
// sent to viewers that connect later.
func (b *Broadcaster) Broadcast(f lod.Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return errors.New("encoding frame failed").
			WithType(ErrTypeEncodeFrame).
			WithTag("cycle", f.Cycle).
			Wrap(err)
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.last = data
	for _, v := range b.viewers {
		select {
		case v.send <- data:
		default:
			v.dropped++
			instrumentDroppedFrame(b.PublicEndpoint)
		}
	}
	return nil
}

// Handle serves a viewer connection until the viewer goes away. It is meant
// to be used as the handler of a websocket.Server.
func (b *Broadcaster) Handle(conn *websocket.Conn) {
	v := b.register()
	defer b.unregister(v)

	logs.WithTag(logs.ClientIDTag, v.clientID).
		WithTag("viewer_id", v.id).
		WithTag("remote_addr", conn.Request().RemoteAddr).
		Info("new viewer is connected")

	// Viewers never send anything meaningful; reading only detects
	// disconnections.
	disconnected := make(chan error, 1)
	go func() {
		var msg []byte
		for {
			if err := websocket.Message.Receive(conn, &msg); err != nil {
				disconnected <- err
				return
			}
		}
	}()

	for {
		select {
		case err := <-disconnected:
			b.logDisconnect(v, err)
			return

		case data := <-v.send:
			start := time.Now()
			if err := websocket.Message.Send(conn, string(data)); err != nil {
				err = errors.New("sending frame failed").
					WithType(ErrTypeSendFrame).
					Wrap(err)
				instrumentSendError(b.PublicEndpoint, err)
				b.logDisconnect(v, err)
				return
			}
			b.mutex.Lock()
			v.sent++
			b.mutex.Unlock()
			instrumentSentFrame(b.PublicEndpoint, len(data), start)
		}
	}
}

func (b *Broadcaster) register() *viewer {
	v := &viewer{
		id:       b.viewerIDs.New(),
		clientID: uuid.NewString(),
		send:     make(chan []byte, sendChanSize),
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.last != nil {
		v.send <- b.last
	}
	b.viewers[v.id] = v

	instrumentViewerConnected(b.PublicEndpoint)
	return v
}

func (b *Broadcaster) unregister(v *viewer) {
	b.mutex.Lock()
	delete(b.viewers, v.id)
	b.mutex.Unlock()

	b.viewerIDs.Reuse(v.id)
	instrumentViewerDisconnected(b.PublicEndpoint)
}

func (b *Broadcaster) logDisconnect(v *viewer, err error) {
	b.mutex.RLock()
	sent, dropped := v.sent, v.dropped
	b.mutex.RUnlock()

	entry := logs.WithTag(logs.ClientIDTag, v.clientID).
		WithTag("viewer_id", v.id).
		WithTag("frames_sent", sent).
		WithTag("frames_dropped", dropped)

	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		entry.Warn(errors.New("viewer connection failed").Wrap(err))
		return
	}
	entry.Info("viewer disconnected")
}
