// Package comms carries encoded log messages between an SDK process and a
// viewer over TCP. Client is the sending half; Server is the receiving half.
//
// The wire format is the logmsg stream format: one stream header per
// connection followed by encoded messages. A connection carries exactly one
// recording.
package comms

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/grafana/dskit/flagext"
	"github.com/sirupsen/logrus"

	"github.com/zrezke/rerun/pkg/logmsg"
	"github.com/zrezke/rerun/pkg/recording"
)

// DefaultViewerAddr is where a locally running viewer listens.
const DefaultViewerAddr = "127.0.0.1:9876"

const (
	defaultFlushBytes    = 1 << 20 // 1 MiB
	defaultFlushInterval = 200 * time.Millisecond
	defaultDialTimeout   = 5 * time.Second
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// Addr is the viewer address to connect to. Defaults to
	// DefaultViewerAddr.
	Addr string

	// FlushBytes is the size of the send buffer. Encoded messages
	// accumulate in the buffer and are flushed to the connection once it
	// fills. Defaults to 1MiB.
	FlushBytes flagext.Bytes

	// FlushInterval bounds how long a message can sit in the send buffer
	// before being flushed regardless of fill. Defaults to 200ms.
	FlushInterval time.Duration

	// DialTimeout bounds the initial connection attempt. Defaults to 5s.
	DialTimeout time.Duration

	// Logger to use. Defaults to the logrus standard logger.
	Logger *logrus.Logger
}

func (cfg *ClientConfig) applyDefaults() {
	if cfg.Addr == "" {
		cfg.Addr = DefaultViewerAddr
	}
	if cfg.FlushBytes == 0 {
		cfg.FlushBytes = defaultFlushBytes
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
}

// Client streams log messages to a viewer. Messages are buffered in memory
// and flushed to the connection when the buffer fills or the flush interval
// elapses, whichever comes first.
//
// Client implements [recording.Sink], so it can be handed to
// [recording.New] directly.
type Client struct {
	logger *logrus.Logger
	quit   chan struct{}
	wg     sync.WaitGroup

	mu     sync.Mutex
	conn   net.Conn
	bw     *bufio.Writer
	enc    *logmsg.Encoder
	track  *BandwidthTracker
	closed bool
}

var _ recording.Sink = (*Client)(nil)

// Dial connects to a viewer and performs the stream handshake. The returned
// Client is safe for use from multiple goroutines.
func Dial(cfg ClientConfig) (*Client, error) {
	cfg.applyDefaults()

	conn, err := net.DialTimeout("tcp", cfg.Addr, cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect to viewer at %s: %w", cfg.Addr, err)
	}

	track := NewBandwidthTracker()
	bw := bufio.NewWriterSize(&countingWriter{w: conn, track: track}, int(cfg.FlushBytes))
	enc := logmsg.NewEncoder(bw)
	if err := enc.WriteStreamHeader(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("write stream header: %w", err)
	}

	c := &Client{
		logger: cfg.Logger,
		quit:   make(chan struct{}),
		conn:   conn,
		bw:     bw,
		enc:    enc,
		track:  track,
	}

	c.wg.Add(1)
	go c.flushLoop(cfg.FlushInterval)

	cfg.Logger.WithField("addr", cfg.Addr).Info("Connected to viewer")
	return c, nil
}

// Send buffers msg for delivery. Send never blocks on the network unless the
// send buffer is full.
func (c *Client) Send(msg logmsg.Msg) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return recording.ErrClosed
	}
	if err := c.enc.Encode(msg); err != nil {
		return fmt.Errorf("send %s message: %w", msg.Kind(), err)
	}
	return nil
}

// Flush forces buffered messages onto the connection.
func (c *Client) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return recording.ErrClosed
	}
	return c.bw.Flush()
}

// BytesPerSecond reports the send rate over the last second.
func (c *Client) BytesPerSecond() float64 { return c.track.Rate() }

// TotalBytes reports the total bytes put on the wire so far.
func (c *Client) TotalBytes() uint64 { return c.track.Total() }

// Close flushes buffered messages and tears down the connection. Close does
// not send a goodbye message on its own; recordings do that before closing
// their sink.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.quit)
	c.wg.Wait()

	// The flush loop is stopped, so the buffer is ours again.
	flushErr := c.bw.Flush()
	closeErr := c.conn.Close()

	c.logger.Debug("Disconnected from viewer")
	return errors.Join(flushErr, closeErr)
}

func (c *Client) flushLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.quit:
			return
		case <-ticker.C:
			if err := c.tick(); err != nil {
				c.logger.WithError(err).Warn("Failed to flush messages to viewer")
				return
			}
		}
	}
}

func (c *Client) tick() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	return c.bw.Flush()
}
