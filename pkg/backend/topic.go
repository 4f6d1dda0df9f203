package backend

import (
	"encoding/json"
	"fmt"
)

// Topic identifies a stream of data a viewer can subscribe to.
type Topic int

const (
	TopicColorImage Topic = iota
	TopicLeftMono
	TopicRightMono
	TopicDepthImage
	TopicPinholeCamera
	TopicRectangle
	TopicRectangles
	TopicImuData
)

var topicNames = [...]string{
	TopicColorImage:    "ColorImage",
	TopicLeftMono:      "LeftMono",
	TopicRightMono:     "RightMono",
	TopicDepthImage:    "DepthImage",
	TopicPinholeCamera: "PinholeCamera",
	TopicRectangle:     "Rectangle",
	TopicRectangles:    "Rectangles",
	TopicImuData:       "ImuData",
}

// AllTopics returns every subscribable topic.
func AllTopics() []Topic {
	all := make([]Topic, len(topicNames))
	for i := range topicNames {
		all[i] = Topic(i)
	}
	return all
}

func (t Topic) String() string {
	if t < 0 || int(t) >= len(topicNames) {
		return fmt.Sprintf("Topic(%d)", int(t))
	}
	return topicNames[t]
}

// ParseTopic resolves a topic by name.
func ParseTopic(name string) (Topic, error) {
	for i, n := range topicNames {
		if n == name {
			return Topic(i), nil
		}
	}
	return 0, fmt.Errorf("unknown topic %q", name)
}

// TopicFromID resolves a topic by numeric id.
func TopicFromID(id int) (Topic, error) {
	if id < 0 || id >= len(topicNames) {
		return 0, fmt.Errorf("unknown topic id %d", id)
	}
	return Topic(id), nil
}

// MarshalJSON encodes the topic as its name.
func (t Topic) MarshalJSON() ([]byte, error) {
	if t < 0 || int(t) >= len(topicNames) {
		return nil, fmt.Errorf("unknown topic id %d", int(t))
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts either a topic name or a numeric id.
func (t *Topic) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := ParseTopic(name)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}

	var id int
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("topic must be a name or a numeric id: %s", data)
	}
	parsed, err := TopicFromID(id)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
