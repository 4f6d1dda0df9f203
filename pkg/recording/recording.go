// Package recording models a live recording: a stream of log messages headed
// for a sink, stamped with the recording's current time points.
//
// A Recording is created against a sink (in-memory buffer, file, live viewer
// connection, or a fan-out of those), immediately announces itself with a
// BeginRecordingMsg, and converts every Log call into an ArrowMsg. Closing
// the recording says goodbye and flushes the sink.
package recording

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zrezke/rerun/pkg/components"
	"github.com/zrezke/rerun/pkg/logmsg"
)

// Options configures a [Recording].
type Options struct {
	// Sink receives the recording's messages. Defaults to a fresh
	// [BufferedSink].
	Sink Sink

	// RecordingID overrides the generated recording ID.
	RecordingID string

	// Now overrides the clock used for log_time stamps.
	Now func() time.Time
}

// A Recording converts logged component data into a message stream. Methods
// on Recording are goroutine safe.
type Recording struct {
	mu     sync.Mutex
	sink   Sink
	info   logmsg.RecordingInfo
	times  logmsg.TimePoint
	now    func() time.Time
	closed bool
}

// New starts a recording for the given application and announces it to the
// sink.
func New(applicationID string, opts Options) (*Recording, error) {
	if applicationID == "" {
		return nil, errors.New("empty application id")
	}

	sink := opts.Sink
	if sink == nil {
		sink = NewBufferedSink()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	recordingID := opts.RecordingID
	if recordingID == "" {
		recordingID = uuid.NewString()
	}

	r := &Recording{
		sink: sink,
		info: logmsg.RecordingInfo{
			ApplicationID: applicationID,
			RecordingID:   recordingID,
			StartedAt:     now().UTC(),
			SDKVersion:    logmsg.SDKVersion,
		},
		times: make(logmsg.TimePoint),
		now:   now,
	}

	begin := &logmsg.BeginRecordingMsg{MsgID: logmsg.NewMsgID(), Info: r.info}
	if err := sink.Send(begin); err != nil {
		return nil, fmt.Errorf("announce recording: %w", err)
	}
	return r, nil
}

// Info returns the recording's identity.
func (r *Recording) Info() logmsg.RecordingInfo {
	return r.info
}

// SetTime sets a wall-clock timeline value stamped on subsequent messages.
// A zero time clears the timeline.
func (r *Recording) SetTime(timeline string, t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tl := logmsg.Timeline{Name: timeline, Type: logmsg.TimeTypeTime}
	if t.IsZero() {
		delete(r.times, tl)
		return
	}
	r.times[tl] = t.UnixNano()
}

// SetSequence sets a sequence timeline value, like a frame number, stamped on
// subsequent messages.
func (r *Recording) SetSequence(timeline string, seq int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.times[logmsg.Timeline{Name: timeline, Type: logmsg.TimeTypeSequence}] = seq
}

// ClearTimeline stops stamping the named timeline.
func (r *Recording) ClearTimeline(timeline string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.times, logmsg.Timeline{Name: timeline, Type: logmsg.TimeTypeTime})
	delete(r.times, logmsg.Timeline{Name: timeline, Type: logmsg.TimeTypeSequence})
}

// Log records component batches under an entity path, stamped with the
// recording's current time points plus log_time.
func (r *Recording) Log(path logmsg.EntityPath, batches ...components.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	tp := r.times.Clone()
	if tp == nil {
		tp = make(logmsg.TimePoint, 1)
	}
	tp[logmsg.LogTimeTimeline()] = r.now().UnixNano()

	msg, err := logmsg.BuildArrowMsg(path, tp, batches...)
	if err != nil {
		return fmt.Errorf("build message for %s: %w", path, err)
	}
	return r.sink.Send(msg)
}

// Close says goodbye and closes the sink. Closing twice is a no-op.
func (r *Recording) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	if err := r.sink.Send(&logmsg.GoodbyeMsg{MsgID: logmsg.NewMsgID()}); err != nil {
		errs = append(errs, fmt.Errorf("send goodbye: %w", err))
	}
	if err := r.sink.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close sink: %w", err))
	}
	return errors.Join(errs...)
}
