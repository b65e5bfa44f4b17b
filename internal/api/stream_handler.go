package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/statushub/statushub/internal/hub"
	"github.com/statushub/statushub/internal/status"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamSendBuffer   = 8
)

// StreamMessage is one frame sent over the WebSocket
type StreamMessage struct {
	Type      string           `json:"type"` // "snapshot" or "error"
	Snapshot  *status.Snapshot `json:"snapshot,omitempty"`
	Error     string           `json:"error,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// StreamHandler upgrades connections to WebSocket and registers each one
// as a hub subscriber for the lifetime of the socket
type StreamHandler struct {
	deps     *Dependencies
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(deps *Dependencies) *StreamHandler {
	return &StreamHandler{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Stream handles GET /api/v1/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.deps.Logger.Error("websocket upgrade failed",
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		return
	}
	defer conn.Close()

	h.deps.Logger.Info("stream subscriber connected", "remote_addr", r.RemoteAddr)

	// The hub delivers on the publish goroutine; decouple it from the
	// socket with a buffered channel so a slow client cannot stall a
	// publish. Frames are dropped when the client falls behind.
	send := make(chan StreamMessage, streamSendBuffer)

	handle := h.deps.Hub.Subscribe(hub.Funcs{
		OnSnapshot: func(snap *status.Snapshot) {
			select {
			case send <- StreamMessage{Type: "snapshot", Snapshot: snap, Timestamp: time.Now()}:
			default:
			}
		},
		OnError: func(err error) {
			select {
			case send <- StreamMessage{Type: "error", Error: err.Error(), Timestamp: time.Now()}:
			default:
			}
		},
	})
	defer h.deps.Hub.Unsubscribe(handle)

	// Reader goroutine: we ignore client frames but need the read loop to
	// notice the peer going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Late subscribers start from the next publish; send the current
	// snapshot up front so the client is not blind until then. lastSeq
	// guards against a publish racing the Subscribe/Current window, which
	// would otherwise hand the client the same snapshot twice.
	var lastSeq uint64
	if snap := h.deps.Aggregator.Current(); snap != nil {
		msg := StreamMessage{Type: "snapshot", Snapshot: snap, Timestamp: time.Now()}
		if err := h.writeMessage(conn, msg); err != nil {
			return
		}
		lastSeq = snap.Sequence
	}

	for {
		select {
		case <-closed:
			h.deps.Logger.Info("stream subscriber disconnected", "remote_addr", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		case msg := <-send:
			if msg.Snapshot != nil {
				if msg.Snapshot.Sequence <= lastSeq {
					continue
				}
				lastSeq = msg.Snapshot.Sequence
			}
			if err := h.writeMessage(conn, msg); err != nil {
				h.deps.Logger.Debug("stream write failed",
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
				return
			}
		}
	}
}

func (h *StreamHandler) writeMessage(conn *websocket.Conn, msg StreamMessage) error {
	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(msg)
}
