// Package storage archives finished recordings in object storage.
//
// Archived objects use the recording file format, so a downloaded object is a
// valid .rrd file. Objects are keyed recordings/<application>/<recording>.rrd.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/thanos-io/objstore"
	"golang.org/x/sync/errgroup"

	"github.com/zrezke/rerun/pkg/logmsg"
	"github.com/zrezke/rerun/pkg/recording"
)

// storeConcurrency bounds in-flight uploads of StoreAll.
const storeConcurrency = 4

// Archive stores recordings in an object storage bucket.
type Archive struct {
	bucket      objstore.Bucket
	compression recording.Compression
}

// NewArchive returns an Archive writing to bucket. New objects are
// compressed with the given compression; reads sniff the compression of each
// object, so it can change between objects.
func NewArchive(bucket objstore.Bucket, compression recording.Compression) *Archive {
	return &Archive{
		bucket:      bucket,
		compression: compression,
	}
}

func archivePath(applicationID, recordingID string) string {
	return path.Join("recordings", applicationID, recordingID+".rrd")
}

// Store uploads one recording and returns its object name.
func (a *Archive) Store(ctx context.Context, info logmsg.RecordingInfo, msgs []logmsg.Msg) (string, error) {
	if info.ApplicationID == "" {
		return "", errors.New("empty application id")
	}
	if info.RecordingID == "" {
		return "", errors.New("empty recording id")
	}

	var buf bytes.Buffer
	if err := recording.WriteMessages(&buf, a.compression, msgs); err != nil {
		return "", fmt.Errorf("encode recording %s: %w", info.RecordingID, err)
	}

	name := archivePath(info.ApplicationID, info.RecordingID)
	if err := a.bucket.Upload(ctx, name, bytes.NewReader(buf.Bytes())); err != nil {
		return "", fmt.Errorf("upload recording %s: %w", info.RecordingID, err)
	}
	return name, nil
}

// StoredRecording pairs a recording's identity with its messages.
type StoredRecording struct {
	Info logmsg.RecordingInfo
	Msgs []logmsg.Msg
}

// StoreAll uploads several recordings concurrently and returns their object
// names, in input order.
func (a *Archive) StoreAll(ctx context.Context, recs []StoredRecording) ([]string, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(storeConcurrency)

	names := make([]string, len(recs))
	for i, rec := range recs {
		g.Go(func() error {
			name, err := a.Store(ctx, rec.Info, rec.Msgs)
			if err != nil {
				return err
			}
			names[i] = name
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}

// List returns the object names of an application's stored recordings.
func (a *Archive) List(ctx context.Context, applicationID string) ([]string, error) {
	prefix := path.Join("recordings", applicationID) + "/"

	var names []string
	err := a.bucket.Iter(ctx, prefix, func(name string) error {
		names = append(names, name)
		return nil
	}, objstore.WithRecursiveIter())
	if err != nil {
		return nil, fmt.Errorf("list recordings for %s: %w", applicationID, err)
	}
	return names, nil
}

// Open reads a stored recording back into its messages.
func (a *Archive) Open(ctx context.Context, name string) ([]logmsg.Msg, error) {
	rc, err := a.bucket.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get recording %s: %w", name, err)
	}
	defer rc.Close()

	msgs, err := recording.ReadMessages(rc)
	if err != nil {
		return nil, fmt.Errorf("decode recording %s: %w", name, err)
	}
	return msgs, nil
}

// Delete removes a stored recording.
func (a *Archive) Delete(ctx context.Context, name string) error {
	if err := a.bucket.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete recording %s: %w", name, err)
	}
	return nil
}
