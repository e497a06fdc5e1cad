package camera

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/studiolumen/light-puppet/internal/log"
)

// streamReadTimeout bounds how long Read waits for the feed before
// reporting a dropped frame.
const streamReadTimeout = 2 * time.Second

// StreamSource reads JPEG frames from a websocket feed, for example
// another puppet's /ws/camera endpoint. The reader goroutine keeps
// only the latest frame; Read blocks until a fresh one arrives so the
// loop runs at the producer's rate.
type StreamSource struct {
	url string

	ws    *websocket.Conn
	ready chan struct{}

	mu     sync.RWMutex
	latest []byte
	closed bool
}

// NewStream creates a stream source for a ws:// URL.
func NewStream(url string) *StreamSource {
	return &StreamSource{
		url:   url,
		ready: make(chan struct{}, 1),
	}
}

// Start dials the feed and begins buffering frames.
func (s *StreamSource) Start() error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	ws, _, err := dialer.Dial(s.url, nil)
	if err != nil {
		return fmt.Errorf("stream connect failed: %w", err)
	}
	s.ws = ws
	go s.readFrames()

	log.Info("stream connected", "url", s.url)
	return nil
}

func (s *StreamSource) readFrames() {
	for {
		msgType, data, err := s.ws.ReadMessage()
		if err != nil {
			s.mu.RLock()
			closed := s.closed
			s.mu.RUnlock()
			if !closed {
				log.Warn("stream read failed", "url", s.url, "error", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		s.mu.Lock()
		s.latest = data
		s.mu.Unlock()

		select {
		case s.ready <- struct{}{}:
		default:
		}
	}
}

// Read waits for the next frame and decodes it into img.
func (s *StreamSource) Read(img *gocv.Mat) bool {
	select {
	case <-s.ready:
	case <-time.After(streamReadTimeout):
		return false
	}

	s.mu.RLock()
	frame := s.latest
	s.mu.RUnlock()
	if frame == nil {
		return false
	}

	decoded, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return false
	}
	defer decoded.Close()
	if decoded.Empty() {
		return false
	}

	decoded.CopyTo(img)
	return true
}

// Stop closes the feed.
func (s *StreamSource) Stop() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	if s.ws != nil {
		return s.ws.Close()
	}
	return nil
}
