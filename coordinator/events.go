package coordinator

import "context"

// Round life-cycle topics, published relative to the configured base
// topic. Edge participants subscribe to these to follow a session
// without polling.
const (
	roundStartTopic = "fl/rounds/start"
	roundPhaseTopic = "fl/rounds/phase"
	roundNextTopic  = "fl/rounds/next"
	roundAbortTopic = "fl/rounds/abort"
)

// publishEvent is best effort. Event delivery never gates a state
// transition that already committed to storage.
func (svc *service) publishEvent(ctx context.Context, topic string, msg map[string]any) {
	if svc.publisher == nil {
		return
	}

	if svc.baseTopic != "" {
		topic = svc.baseTopic + "/" + topic
	}

	_ = svc.publisher.Publish(ctx, topic, msg)
}
