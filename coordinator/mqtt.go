package coordinator

import (
	"context"
	"fmt"

	"github.com/absmach/fusion/pkg/errors"
	"github.com/absmach/fusion/pkg/mqtt"
)

// ParticipantJoinTopic carries join announcements from edge clients.
// A join message names the session and the participant requesting
// admission; admission itself still runs through AddParticipant with
// the session's allow-list and deadlines.
const ParticipantJoinTopic = "fl/participants/join"

func (svc *service) Subscribe(ctx context.Context) error {
	if svc.publisher == nil {
		return nil
	}

	topic := ParticipantJoinTopic
	if svc.baseTopic != "" {
		topic = svc.baseTopic + "/" + topic
	}

	return svc.publisher.Subscribe(ctx, topic, svc.handleJoin(ctx))
}

func (svc *service) handleJoin(ctx context.Context) mqtt.Handler {
	return func(_ string, msg map[string]any) error {
		sessionID, ok := msg["session_id"].(string)
		if !ok || sessionID == "" {
			return fmt.Errorf("%w: session_id missing from join message", errors.ErrInvalidData)
		}
		participantID, ok := msg["participant_id"].(string)
		if !ok || participantID == "" {
			return fmt.Errorf("%w: participant_id missing from join message", errors.ErrInvalidData)
		}

		_, err := svc.AddParticipant(ctx, sessionID, participantID)

		return err
	}
}
