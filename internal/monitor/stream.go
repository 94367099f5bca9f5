package monitor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"sync"

	"github.com/giraffenet/webdesk/internal/logger"
)

// ErrStreamStopped is returned when writing to a stopped stream.
var ErrStreamStopped = errors.New("frame stream stopped")

// FrameStream fans rendered graph frames out to HTTP clients as Motion
// JPEG. Slow clients skip frames instead of blocking the writer.
type FrameStream struct {
	windowID string
	quality  int

	mu      sync.RWMutex
	running bool
	last    []byte
	clients map[chan []byte]struct{}
	frames  uint64
}

// NewFrameStream creates a running stream for a window.
func NewFrameStream(windowID string) *FrameStream {
	return &FrameStream{
		windowID: windowID,
		quality:  85,
		running:  true,
		clients:  make(map[chan []byte]struct{}),
	}
}

// Stop disconnects every client. Later writes fail with ErrStreamStopped.
func (s *FrameStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	for ch := range s.clients {
		close(ch)
	}
	s.clients = make(map[chan []byte]struct{})

	logger.WithWindow("monitor", s.windowID).Debug().Uint64("frames", s.frames).Msg("Frame stream stopped")
}

// IsRunning reports whether the stream accepts frames.
func (s *FrameStream) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Clients returns the number of connected clients.
func (s *FrameStream) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// WriteFrame encodes frame and sends it to every client.
func (s *FrameStream) WriteFrame(frame image.Image) error {
	if !s.IsRunning() {
		return ErrStreamStopped
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, frame, &jpeg.Options{Quality: s.quality}); err != nil {
		return fmt.Errorf("failed to encode JPEG: %w", err)
	}
	data := buf.Bytes()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrStreamStopped
	}
	s.last = data
	s.frames++
	for ch := range s.clients {
		select {
		case ch <- data:
		default:
			// Client is slow, skip this frame
		}
	}
	return nil
}

// subscribe registers a client and primes it with the last frame.
func (s *FrameStream) subscribe() (chan []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil, false
	}
	ch := make(chan []byte, 2)
	if s.last != nil {
		ch <- s.last
	}
	s.clients[ch] = struct{}{}
	return ch, true
}

func (s *FrameStream) unsubscribe(ch chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[ch]; ok {
		delete(s.clients, ch)
		close(ch)
	}
}

// ServeHTTP streams frames until the client disconnects or the stream stops.
func (s *FrameStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ch, ok := s.subscribe()
	if !ok {
		http.Error(w, "stream stopped", http.StatusGone)
		return
	}
	defer s.unsubscribe(ch)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")

	log := logger.WithWindow("monitor", s.windowID)
	log.Debug().Int("clients", s.Clients()).Msg("Graph stream client connected")
	defer log.Debug().Msg("Graph stream client disconnected")

	for {
		select {
		case <-r.Context().Done():
			return
		case data, ok := <-ch:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data)); err != nil {
				return
			}
			if _, err := w.Write(data); err != nil {
				return
			}
			if _, err := fmt.Fprint(w, "\r\n"); err != nil {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}
