package backend

import (
	"encoding/json"
	"fmt"
)

// MessageType tags a control message.
type MessageType string

const (
	MessageSubscriptions MessageType = "Subscriptions"
	MessagePipeline      MessageType = "Pipeline"
	MessageDevices       MessageType = "Devices"
	MessageDevice        MessageType = "Device"
	MessageError         MessageType = "Error"
)

// ErrorAction tells the viewer how to react to an error.
type ErrorAction string

const (
	ErrorActionNone      ErrorAction = "None"
	ErrorActionFullReset ErrorAction = "FullReset"
)

// Device identifies a connected device.
type Device struct {
	ID string `json:"id"`
}

// MessageData is the payload of a control message. The concrete type is
// determined by the message type tag.
type MessageData interface {
	messageType() MessageType
}

// SubscriptionsData lists subscribed topics.
type SubscriptionsData []Topic

// DevicesData lists the ids of devices available for selection.
type DevicesData []string

// DeviceData describes a single device.
type DeviceData Device

// PipelineData carries a pipeline configuration.
type PipelineData PipelineConfig

// ErrorData reports a failure and the recovery action the viewer should
// take.
type ErrorData struct {
	Action  ErrorAction `json:"action"`
	Message string      `json:"message"`
}

func (SubscriptionsData) messageType() MessageType { return MessageSubscriptions }
func (DevicesData) messageType() MessageType       { return MessageDevices }
func (DeviceData) messageType() MessageType        { return MessageDevice }
func (PipelineData) messageType() MessageType      { return MessagePipeline }
func (ErrorData) messageType() MessageType         { return MessageError }

// Message is one control exchange between the viewer and the backend. It
// encodes as {"type": ..., "data": ...}.
type Message struct {
	Type MessageType
	Data MessageData
}

// NewMessage builds a message with the type tag matching data.
func NewMessage(data MessageData) Message {
	return Message{Type: data.messageType(), Data: data}
}

// ErrorMessage builds an Error reply.
func ErrorMessage(action ErrorAction, format string, args ...any) Message {
	return NewMessage(ErrorData{
		Action:  action,
		Message: fmt.Sprintf(format, args...),
	})
}

func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type MessageType `json:"type"`
		Data MessageData `json:"data"`
	}{Type: m.Type, Data: m.Data})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type MessageType     `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type == "" {
		return fmt.Errorf("control message missing type")
	}

	payload := unwrapData(raw.Data, raw.Type)

	m.Type = raw.Type
	m.Data = nil
	if len(payload) == 0 || string(payload) == "null" {
		return nil
	}

	switch raw.Type {
	case MessageSubscriptions:
		var d SubscriptionsData
		if err := json.Unmarshal(payload, &d); err != nil {
			return fmt.Errorf("decode subscriptions: %w", err)
		}
		m.Data = d
	case MessageDevices:
		var d DevicesData
		if err := json.Unmarshal(payload, &d); err != nil {
			return fmt.Errorf("decode device list: %w", err)
		}
		m.Data = d
	case MessageDevice:
		var d DeviceData
		if err := json.Unmarshal(payload, &d); err != nil {
			return fmt.Errorf("decode device: %w", err)
		}
		m.Data = d
	case MessagePipeline:
		var d PipelineData
		if err := json.Unmarshal(payload, &d); err != nil {
			return fmt.Errorf("decode pipeline: %w", err)
		}
		m.Data = d
	case MessageError:
		var d ErrorData
		if err := json.Unmarshal(payload, &d); err != nil {
			return fmt.Errorf("decode error message: %w", err)
		}
		m.Data = d
	default:
		return fmt.Errorf("unknown control message type %q", raw.Type)
	}
	return nil
}

// unwrapData peels the externally tagged payload form some clients send,
// e.g. {"Pipeline": {...}} instead of the bare {...}.
func unwrapData(data json.RawMessage, typ MessageType) json.RawMessage {
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return data
	}
	if inner, ok := wrapped[string(typ)]; ok && len(wrapped) == 1 {
		return inner
	}
	return data
}
