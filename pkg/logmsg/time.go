package logmsg

import (
	"encoding/json"
	"fmt"
	"sort"
)

// TimeType says how a timeline's int64 values are interpreted.
type TimeType int8

const (
	// TimeTypeTime is nanoseconds since the Unix epoch.
	TimeTypeTime TimeType = iota + 1
	// TimeTypeSequence is a monotonically increasing counter, like a frame
	// number.
	TimeTypeSequence
)

func (t TimeType) String() string {
	switch t {
	case TimeTypeTime:
		return "time"
	case TimeTypeSequence:
		return "sequence"
	default:
		return fmt.Sprintf("timetype(%d)", int8(t))
	}
}

// MarshalJSON encodes the time type as its string name.
func (t TimeType) MarshalJSON() ([]byte, error) {
	switch t {
	case TimeTypeTime, TimeTypeSequence:
		return json.Marshal(t.String())
	default:
		return nil, fmt.Errorf("unknown time type %d", int8(t))
	}
}

// UnmarshalJSON decodes a time type from its string name.
func (t *TimeType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "time":
		*t = TimeTypeTime
	case "sequence":
		*t = TimeTypeSequence
	default:
		return fmt.Errorf("unknown time type %q", s)
	}
	return nil
}

// Timeline names an axis that messages are ordered along.
type Timeline struct {
	Name string
	Type TimeType
}

// LogTimeTimeline is the wall-clock timeline every message is stamped with.
func LogTimeTimeline() Timeline {
	return Timeline{Name: "log_time", Type: TimeTypeTime}
}

// TimePoint is a set of (timeline, value) pairs attached to a message.
type TimePoint map[Timeline]int64

// Clone returns a copy of the time point that can be mutated independently.
func (tp TimePoint) Clone() TimePoint {
	if tp == nil {
		return nil
	}
	out := make(TimePoint, len(tp))
	for tl, v := range tp {
		out[tl] = v
	}
	return out
}

// timePointEntry is the JSON shape of one (timeline, value) pair.
type timePointEntry struct {
	Timeline string   `json:"timeline"`
	Type     TimeType `json:"type"`
	Value    int64    `json:"value"`
}

// MarshalJSON encodes the time point as a list of entries sorted by timeline
// name, so identical time points encode identically.
func (tp TimePoint) MarshalJSON() ([]byte, error) {
	entries := make([]timePointEntry, 0, len(tp))
	for tl, v := range tp {
		entries = append(entries, timePointEntry{Timeline: tl.Name, Type: tl.Type, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Timeline < entries[j].Timeline })
	return json.Marshal(entries)
}

// UnmarshalJSON decodes a time point from its list form.
func (tp *TimePoint) UnmarshalJSON(data []byte) error {
	var entries []timePointEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	out := make(TimePoint, len(entries))
	for _, e := range entries {
		out[Timeline{Name: e.Timeline, Type: e.Type}] = e.Value
	}
	*tp = out
	return nil
}
