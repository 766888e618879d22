package pubsub

import (
	"context"
	"encoding/json"

	"github.com/xhedwig/ofdp-sdg/pkg/topology"
)

// Topics
const (
	TopicSchedule = "schedule" // one event per finished probing round
	TopicTopology = "topology" // topology loads and changes
)

// Event types
const (
	EventRoundCompleted  = "round_completed"
	EventTopologyLoaded  = "topology_loaded"
	EventTopologyChanged = "topology_changed"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // Per topic, for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data any) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// TopologyData is the payload of topology events
type TopologyData struct {
	Hash     string        `json:"hash"`
	Switches int           `json:"switches"`
	Links    int           `json:"links"`
	Source   string        `json:"source,omitempty"`
	Diff     topology.Diff `json:"diff"`
}

// NewTopologyData summarizes a snapshot and the diff that produced it
func NewTopologyData(snap *topology.Snapshot, diff topology.Diff, source string) TopologyData {
	return TopologyData{
		Hash:     snap.Hash(),
		Switches: snap.NodeCount(),
		Links:    snap.LinkCount(),
		Source:   source,
		Diff:     diff,
	}
}

// ConfigureDefaultTopics sets up buffering for the controller's topics:
// late schedule subscribers get the latest round, topology subscribers the
// recent change history
func ConfigureDefaultTopics(p *SSEPublisher) {
	p.ConfigureTopic(TopicSchedule, TopicConfig{BufferSize: 1})
	p.ConfigureTopic(TopicTopology, TopicConfig{BufferSize: 16, ReplayAll: true})
}
