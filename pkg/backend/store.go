// Package backend implements the control plane a viewer uses to drive a
// device: picking a device, configuring its pipeline and subscribing to data
// topics. State lives in a Store; ControlServer exposes it over TCP as
// newline-delimited JSON messages.
package backend

import (
	"sync"
)

// Store holds the control-plane state: the selected device, the active
// pipeline and the set of subscribed topics.
//
// The On* callbacks tie the store to an actual device session. They are
// invoked with the store locked, so they must not call back into the store.
// A nil callback accepts the change without side effects.
type Store struct {
	// OnUpdatePipeline applies a new pipeline to the device. An error
	// rolls the stored pipeline back.
	OnUpdatePipeline func(PipelineConfig) error

	// OnSelectDevice opens the device and returns its description. An
	// error rolls the selection back.
	OnSelectDevice func(deviceID string) (Device, error)

	// OnListDevices enumerates devices available for selection.
	OnListDevices func() []string

	// OnReset tears down the device session.
	OnReset func() error

	mu            sync.Mutex
	subscriptions []Topic
	pipeline      *PipelineConfig
	device        Device
}

// NewStore returns an empty store: no device, no pipeline, no
// subscriptions.
func NewStore() *Store {
	return &Store{}
}

// Subscriptions returns the currently subscribed topics.
func (s *Store) Subscriptions() []Topic {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Topic, len(s.subscriptions))
	copy(out, s.subscriptions)
	return out
}

// SetSubscriptions replaces the subscription set. Duplicates are dropped,
// first occurrence wins.
func (s *Store) SetSubscriptions(topics []Topic) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[Topic]struct{}, len(topics))
	subs := make([]Topic, 0, len(topics))
	for _, t := range topics {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		subs = append(subs, t)
	}
	s.subscriptions = subs
}

// Subscribed reports whether a topic is subscribed.
func (s *Store) Subscribed(topic Topic) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.subscriptions {
		if t == topic {
			return true
		}
	}
	return false
}

// Pipeline returns the active pipeline, if one has been applied.
func (s *Store) Pipeline() (PipelineConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pipeline == nil {
		return PipelineConfig{}, false
	}
	return *s.pipeline, true
}

// UpdatePipeline stores cfg as the active pipeline and applies it through
// OnUpdatePipeline. On failure the previous pipeline is restored.
func (s *Store) UpdatePipeline(cfg PipelineConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.pipeline
	s.pipeline = &cfg
	if s.OnUpdatePipeline != nil {
		if err := s.OnUpdatePipeline(cfg); err != nil {
			s.pipeline = old
			return err
		}
	}
	return nil
}

// Device returns the selected device. The zero Device means none is
// selected.
func (s *Store) Device() Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// SelectDevice makes deviceID the selected device and opens it through
// OnSelectDevice, which may fill in further device details. On failure the
// previous selection is restored.
func (s *Store) SelectDevice(deviceID string) (Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.device
	s.device = Device{ID: deviceID}
	if s.OnSelectDevice != nil {
		device, err := s.OnSelectDevice(deviceID)
		if err != nil {
			s.device = old
			return Device{}, err
		}
		s.device = device
	}
	return s.device, nil
}

// ListDevices enumerates selectable devices through OnListDevices.
func (s *Store) ListDevices() []string {
	s.mu.Lock()
	cb := s.OnListDevices
	s.mu.Unlock()

	if cb == nil {
		return nil
	}
	return cb()
}

// Reset clears all state and tears the device session down through OnReset.
// It is invoked when the controlling viewer goes away.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pipeline = nil
	s.subscriptions = nil
	s.device = Device{}
	if s.OnReset != nil {
		return s.OnReset()
	}
	return nil
}

// Dispatch applies one control message to the store and builds the reply.
// Failed pipeline or device changes reply with an Error telling the viewer
// to fully reset.
func (s *Store) Dispatch(msg Message) Message {
	switch msg.Type {
	case MessageSubscriptions:
		topics, _ := msg.Data.(SubscriptionsData)
		s.SetSubscriptions(topics)
		return NewMessage(SubscriptionsData(s.Subscriptions()))

	case MessagePipeline:
		cfg, ok := msg.Data.(PipelineData)
		if !ok {
			return ErrorMessage(ErrorActionNone, "pipeline message carries no pipeline")
		}
		if err := s.UpdatePipeline(PipelineConfig(cfg)); err != nil {
			return ErrorMessage(ErrorActionFullReset, "update pipeline: %v", err)
		}
		active, _ := s.Pipeline()
		return NewMessage(PipelineData(active))

	case MessageDevices:
		devices := s.ListDevices()
		if devices == nil {
			devices = []string{}
		}
		return NewMessage(DevicesData(devices))

	case MessageDevice:
		data, ok := msg.Data.(DeviceData)
		if !ok || data.ID == "" {
			return ErrorMessage(ErrorActionNone, "device message carries no device id")
		}
		device, err := s.SelectDevice(data.ID)
		if err != nil {
			return ErrorMessage(ErrorActionFullReset, "select device %s: %v", data.ID, err)
		}
		return NewMessage(DeviceData(device))

	default:
		return ErrorMessage(ErrorActionNone, "unexpected %s message", msg.Type)
	}
}
