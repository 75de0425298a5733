package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

// newTestingEnv starts a websocket server backed by b and returns a function
// that connects new viewers to it.
func newTestingEnv(t *testing.T, b *Broadcaster) func() *websocket.Conn {
	var mutex sync.Mutex
	logger := t.Log

	logs.Encoder = func(v any) ([]byte, error) {
		return json.MarshalIndent(v, "", "  ")
	}
	logs.SetLogger(func(e logs.Entry) {
		mutex.Lock()
		defer mutex.Unlock()

		if logger != nil {
			logger(e)
		}
	})
	errors.Encoder = json.Marshal

	server := httptest.NewServer(websocket.Server{
		Handshake: func(c *websocket.Config, r *http.Request) error {
			return nil
		},
		Handler: b.Handle,
	})

	t.Cleanup(func() {
		server.Close()

		mutex.Lock()
		defer mutex.Unlock()
		logger = nil
	})

	return func() *websocket.Conn {
		conn, err := websocket.Dial(
			strings.ReplaceAll(server.URL, "http://", "ws://"),
			"",
			"http://localhost",
		)
		if err != nil {
			t.Fatalf("error dialing web socket: %s", err)
		}
		t.Cleanup(func() { conn.Close() })
		return conn
	}
}
