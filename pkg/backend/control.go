package backend

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultControlAddr is where the backend control API listens.
const DefaultControlAddr = "127.0.0.1:9001"

// controlMaxLineSize bounds a single control message on the wire.
const controlMaxLineSize = 1 << 20

// ControlServer serves the control API over TCP. Each line the client sends
// is one JSON control message; each reply is one JSON line back. When a
// client disconnects the store is reset, since a vanished viewer must not
// leave the device running.
type ControlServer struct {
	listener net.Listener
	store    *Store
	logger   *logrus.Logger
	quit     chan struct{}
	wg       sync.WaitGroup

	connMut sync.Mutex
	conns   map[net.Conn]struct{}
}

// NewControlServer listens on addr and applies control messages to store.
// Call Serve to start accepting connections.
func NewControlServer(addr string, store *Store, logger *logrus.Logger) (*ControlServer, error) {
	if store == nil {
		return nil, errors.New("nil store")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	return &ControlServer{
		listener: listener,
		store:    store,
		logger:   logger,
		quit:     make(chan struct{}),
		conns:    make(map[net.Conn]struct{}),
	}, nil
}

// Addr returns the address the server is listening on.
func (s *ControlServer) Addr() net.Addr { return s.listener.Addr() }

// Serve runs the accept loop. It blocks until Stop is called.
func (s *ControlServer) Serve() {
	s.wg.Add(1)
	defer s.wg.Done()

	s.logger.WithField("addr", s.listener.Addr().String()).Info("Control API listening")

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				s.logger.WithError(err).Error("Failed to accept control connection")
				continue
			}
		}

		s.addConn(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.removeConn(conn)
			s.handleConnection(conn)
		}()
	}
}

// Stop closes the listener and all active connections, then waits for the
// connection goroutines to drain.
func (s *ControlServer) Stop() {
	close(s.quit)
	_ = s.listener.Close()

	s.connMut.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.connMut.Unlock()

	s.wg.Wait()
}

func (s *ControlServer) handleConnection(conn net.Conn) {
	defer conn.Close()

	logger := s.logger.WithField("client", conn.RemoteAddr().String())
	logger.Info("Control client connected")

	defer func() {
		logger.Info("Control client disconnected, resetting")
		if err := s.store.Reset(); err != nil {
			logger.WithError(err).Warn("Failed to reset after disconnect")
		}
	}()

	enc := json.NewEncoder(conn)
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), controlMaxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			logger.WithError(err).Warn("Failed to parse control message")
			continue
		}
		logger.WithField("type", msg.Type).Debug("Control message received")

		reply := s.store.Dispatch(msg)
		if err := enc.Encode(reply); err != nil {
			select {
			case <-s.quit:
			default:
				logger.WithError(err).Error("Failed to send control reply")
			}
			return
		}
	}

	if err := scanner.Err(); err != nil {
		select {
		case <-s.quit:
		default:
			logger.WithError(err).Warn("Control connection failed")
		}
	}
}

func (s *ControlServer) addConn(conn net.Conn) {
	s.connMut.Lock()
	defer s.connMut.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *ControlServer) removeConn(conn net.Conn) {
	s.connMut.Lock()
	defer s.connMut.Unlock()
	delete(s.conns, conn)
}
