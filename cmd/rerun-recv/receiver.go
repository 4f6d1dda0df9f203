package main

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/zrezke/rerun/pkg/comms"
	"github.com/zrezke/rerun/pkg/ipc"
	"github.com/zrezke/rerun/pkg/logmsg"
)

// receiver handles decoded messages from all connected SDKs. Rendering is
// serialized so concurrent recordings do not interleave their tables.
type receiver struct {
	logger *logrus.Logger
	track  *comms.BandwidthTracker

	mu  sync.Mutex
	out io.Writer
}

func newReceiver(logger *logrus.Logger, out io.Writer) *receiver {
	return &receiver{
		logger: logger,
		track:  comms.NewBandwidthTracker(),
		out:    out,
	}
}

func (r *receiver) HandleMessage(remote string, msg logmsg.Msg) {
	switch m := msg.(type) {
	case *logmsg.BeginRecordingMsg:
		r.logger.WithFields(logrus.Fields{
			"client":      remote,
			"application": m.Info.ApplicationID,
			"recording":   m.Info.RecordingID,
			"sdk_version": m.Info.SDKVersion,
		}).Info("Recording started")

	case *logmsg.ArrowMsg:
		r.track.Add(len(m.Payload))
		r.renderArrow(m)

	case *logmsg.GoodbyeMsg:
		r.logger.WithField("client", remote).Info("Recording finished")
	}
}

func (r *receiver) renderArrow(msg *logmsg.ArrowMsg) {
	recs, err := ipc.ReadRecords(msg.Payload)
	if err != nil {
		r.logger.WithError(err).WithField("entity_path", msg.EntityPath.String()).
			Error("Failed to decode record batch")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range recs {
		if err := renderRecord(r.out, msg.EntityPath, msg.TimePoint, rec); err != nil {
			r.logger.WithError(err).Error("Failed to render record batch")
		}
		rec.Release()
	}
}

func (r *receiver) logBandwidth() {
	rate := r.track.Rate()
	if rate == 0 {
		return
	}
	r.logger.WithFields(logrus.Fields{
		"bytes_per_sec": int(rate),
		"total_bytes":   r.track.Total(),
	}).Info("Receiving data")
}
