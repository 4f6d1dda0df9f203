package recording

import (
	"errors"
	"sync"

	"github.com/zrezke/rerun/pkg/logmsg"
)

// ErrClosed is returned when sending to a closed sink or recording.
var ErrClosed = errors.New("recording is closed")

// A Sink receives the messages of one recording, in order.
type Sink interface {
	// Send forwards one message. Implementations may buffer; Close flushes.
	Send(msg logmsg.Msg) error
	// Close flushes buffered messages and releases the sink.
	Close() error
}

// BufferedSink keeps messages in memory. It is the default sink of a
// recording; drained messages can be re-sent to another sink or stored in an
// archive.
type BufferedSink struct {
	mu     sync.Mutex
	msgs   []logmsg.Msg
	closed bool
}

// NewBufferedSink returns an empty in-memory sink.
func NewBufferedSink() *BufferedSink {
	return &BufferedSink{}
}

func (s *BufferedSink) Send(msg logmsg.Msg) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *BufferedSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// Messages returns the buffered messages. The returned slice is a copy; the
// sink keeps its contents.
func (s *BufferedSink) Messages() []logmsg.Msg {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]logmsg.Msg, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Drain returns the buffered messages and empties the sink.
func (s *BufferedSink) Drain() []logmsg.Msg {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.msgs
	s.msgs = nil
	return out
}

// MultiSink fans every message out to several sinks, like logging to a file
// while streaming to a live viewer.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink returns a sink forwarding to all given sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (s *MultiSink) Send(msg logmsg.Msg) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Send(msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *MultiSink) Close() error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
