package comms

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/zrezke/rerun/pkg/logmsg"
)

// Handler consumes messages decoded from a client connection. Remote is the
// client's address, useful for telling concurrent recordings apart. Handlers
// must be safe for concurrent use; the server calls them from one goroutine
// per connection.
type Handler interface {
	HandleMessage(remote string, msg logmsg.Msg)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(remote string, msg logmsg.Msg)

func (f HandlerFunc) HandleMessage(remote string, msg logmsg.Msg) {
	f(remote, msg)
}

// Server accepts viewer connections and feeds decoded log messages to a
// handler. Each connection carries one message stream; the server reads it
// until goodbye, EOF or a decode error.
type Server struct {
	listener net.Listener
	handler  Handler
	logger   *logrus.Logger
	quit     chan struct{}
	wg       sync.WaitGroup

	connMut sync.Mutex
	conns   map[net.Conn]struct{}
}

// NewServer listens on addr. Call Serve to start accepting connections.
func NewServer(addr string, handler Handler, logger *logrus.Logger) (*Server, error) {
	if handler == nil {
		return nil, errors.New("nil handler")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	return &Server{
		listener: listener,
		handler:  handler,
		logger:   logger,
		quit:     make(chan struct{}),
		conns:    make(map[net.Conn]struct{}),
	}, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve runs the accept loop. It blocks until Stop is called, so it is
// usually run on its own goroutine.
func (s *Server) Serve() {
	s.wg.Add(1)
	defer s.wg.Done()

	s.logger.WithField("addr", s.listener.Addr().String()).Info("Listening for SDK connections")

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				s.logger.WithError(err).Error("Failed to accept connection")
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
func (s *Server) Stop() {
	close(s.quit)
	_ = s.listener.Close()

	s.connMut.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.connMut.Unlock()

	s.wg.Wait()
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	logger := s.logger.WithField("client", remote)
	logger.Info("Client connected")

	dec := logmsg.NewDecoder(conn)
	for {
		msg, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			logger.Info("Client disconnected")
			return
		}
		if err != nil {
			select {
			case <-s.quit:
			default:
				logger.WithError(err).Error("Failed to decode message")
			}
			return
		}

		s.handler.HandleMessage(remote, msg)

		if msg.Kind() == logmsg.KindGoodbye {
			logger.Info("Client finished recording")
			return
		}
	}
}

func (s *Server) addConn(conn net.Conn) {
	s.connMut.Lock()
	defer s.connMut.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) removeConn(conn net.Conn) {
	s.connMut.Lock()
	defer s.connMut.Unlock()
	delete(s.conns, conn)
}
