package server

import (
	"encoding/binary"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ayusman/morphcloud/internal/morph"
	"github.com/ayusman/morphcloud/internal/status"
)

// DefaultFrameRate is the websocket broadcast rate when none is configured.
const DefaultFrameRate = 30

// frameHeaderSize is the byte length of the header written by EncodeFrame.
const frameHeaderSize = 32

const (
	writeWait  = 5 * time.Second
	sendBuffer = 2
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// statusMessage is sent as a text message whenever the status line changes.
type statusMessage struct {
	Type string `json:"type"`
	status.Status
}

// frameClient is one websocket connection. Only its writer goroutine
// writes to conn.
type frameClient struct {
	id     string
	conn   *websocket.Conn
	frames chan []byte
	status chan status.Status
}

// FrameHub streams morph frames to websocket clients at a fixed rate.
// Frames go out as binary messages (see EncodeFrame) and status changes as
// JSON text messages. A client that falls behind skips frames.
type FrameHub struct {
	engine   Engine
	interval time.Duration

	mu      sync.RWMutex
	clients map[string]*frameClient

	stop     chan struct{}
	stopOnce sync.Once
}

// NewFrameHub creates a hub broadcasting frameRate frames per second and
// starts its broadcaster.
func NewFrameHub(engine Engine, frameRate int) *FrameHub {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	h := &FrameHub{
		engine:   engine,
		interval: time.Second / time.Duration(frameRate),
		clients:  make(map[string]*frameClient),
		stop:     make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *FrameHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	c := &frameClient{
		id:     uuid.New().String(),
		conn:   conn,
		frames: make(chan []byte, sendBuffer),
		status: make(chan status.Status, sendBuffer),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	log.Printf("frame client %s connected", c.id)

	statusCh, unsubscribe := h.engine.Board().Subscribe()
	done := make(chan struct{})
	go h.writeLoop(c, statusCh, done)

	// Reads only detect the close; clients send nothing.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	unsubscribe()
	close(c.frames)
	<-done
	conn.Close()
	log.Printf("frame client %s disconnected", c.id)
}

// writeLoop sends the current status, then frames and status changes until
// the client goes away.
func (h *FrameHub) writeLoop(c *frameClient, statusCh <-chan status.Status, done chan<- struct{}) {
	defer close(done)

	if err := h.writeStatus(c, h.engine.Board().Latest()); err != nil {
		return
	}
	if f := h.engine.Latest(); f != nil {
		if err := h.write(c, websocket.BinaryMessage, EncodeFrame(f)); err != nil {
			return
		}
	}

	for {
		select {
		case msg, ok := <-c.frames:
			if !ok {
				return
			}
			if err := h.write(c, websocket.BinaryMessage, msg); err != nil {
				c.conn.Close()
				return
			}
		case s, ok := <-statusCh:
			if !ok {
				statusCh = nil
				continue
			}
			if err := h.writeStatus(c, s); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

func (h *FrameHub) writeStatus(c *frameClient, s status.Status) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(statusMessage{Type: "status", Status: s})
}

func (h *FrameHub) write(c *frameClient, kind int, msg []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(kind, msg)
}

// broadcast encodes each new frame once and offers it to every client.
func (h *FrameHub) broadcast() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
		}

		if h.Clients() == 0 {
			continue
		}
		f := h.engine.Latest()
		if f == nil || f.Seq == lastSeq {
			continue
		}
		lastSeq = f.Seq
		msg := EncodeFrame(f)

		h.mu.RLock()
		for _, c := range h.clients {
			select {
			case c.frames <- msg:
			default:
			}
		}
		h.mu.RUnlock()
	}
}

// Clients returns the number of connected clients.
func (h *FrameHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops the broadcaster. Connected clients are left to the HTTP
// server's shutdown.
func (h *FrameHub) Close() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// EncodeFrame packs a frame as little-endian binary:
//
//	uint32  seq (low 32 bits)
//	uint32  particle count n
//	float32 blend, size, opacity, rotation x, rotation y
//	uint8   gesture (0 fist, 1 open), then 3 bytes padding
//	float32 positions[3n]
//	float32 colors[3n] (sRGB, 0..1)
func EncodeFrame(f *morph.Frame) []byte {
	n := len(f.Positions)
	buf := make([]byte, frameHeaderSize+n*24)

	le := binary.LittleEndian
	le.PutUint32(buf[0:], uint32(f.Seq))
	le.PutUint32(buf[4:], uint32(n))
	putFloat(buf[8:], f.Blend)
	putFloat(buf[12:], f.Size)
	putFloat(buf[16:], f.Opacity)
	putFloat(buf[20:], f.Rotation.X)
	putFloat(buf[24:], f.Rotation.Y)
	if f.Gesture == morph.Open {
		buf[28] = 1
	}

	pos := buf[frameHeaderSize:]
	col := buf[frameHeaderSize+n*12:]
	for i, p := range f.Positions {
		putFloat(pos[i*12:], p[0])
		putFloat(pos[i*12+4:], p[1])
		putFloat(pos[i*12+8:], p[2])

		c := f.Colors[i]
		putFloat(col[i*12:], c.R)
		putFloat(col[i*12+4:], c.G)
		putFloat(col[i*12+8:], c.B)
	}
	return buf
}

func putFloat(b []byte, v float64) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
}
