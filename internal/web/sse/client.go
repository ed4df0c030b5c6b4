package sse

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client represents a connected SSE client
type Client struct {
	id          string
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates a new SSE client
func NewClient() *Client {
	return &Client{
		id:          uuid.NewString(),
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// Messages returns the formatted events queued for the client.
// The channel is closed when the client is unregistered or the hub shuts down.
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// ServeSSE registers a client on hub and streams its events until either side disconnects.
// snapshot is called after the client has registered, so every later broadcast reaches
// the client and an update is repeated rather than lost. Its events are written after
// the connected event. An error is returned, with nothing written, when the stream
// could not start.
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub, snapshot func() ([]Event, error)) error {
	// Check if SSE is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		return errStreamingUnsupported
	}

	// Create and register client
	client := NewClient()
	if !hub.Register(client) {
		return ErrSessionGone
	}

	// Ensure cleanup on disconnect
	defer hub.Unregister(client)

	initial, err := snapshot()
	if err != nil {
		return err
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// Send initial connection event
	_, _ = w.Write([]byte("event: connected\ndata: {\"status\":\"connected\"}\n\n"))
	for _, ev := range initial {
		_, _ = w.Write(formatSSEMessage(ev.Name, ev.Data))
	}
	flusher.Flush()

	// Create ticker for keepalive
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	// Handle client connection
	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				return nil
			}
			if _, err := w.Write(message); err != nil {
				return nil
			}
			flusher.Flush()

		case <-ticker.C:
			// Send keepalive comment
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return nil
			}
			flusher.Flush()

		case <-r.Context().Done():
			// Client disconnected
			return nil
		}
	}
}
