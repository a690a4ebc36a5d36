package relay

import (
	"github.com/katsudaichi/ant-app/pkg/protocol"
)

// broadcast fans an event out to the members of a room. The event is
// encoded once and queued per recipient; a recipient whose buffer is full
// or whose connection is gone is silently skipped. Delivery is
// fire-and-forget: the origin is never told about skipped recipients.
//
// Ordering: each origin's events are queued from its own read loop, and
// each recipient drains its buffer with a single write loop, so events
// from one origin arrive at each recipient in the order sent. There is no
// ordering guarantee across different origins.
func (r *Relay) broadcast(projectID string, origin *Session, includeSelf bool, typ protocol.EventType, payload any) int {
	data, err := protocol.Encode(typ, "", payload)
	if err != nil {
		r.logger.Error("broadcast encode failed", "event", string(typ), "error", err)
		return 0
	}

	delivered := 0
	for _, member := range r.registry.MembersOf(projectID) {
		if !includeSelf && origin != nil && member.ID == origin.ID {
			continue
		}
		if err := member.Send(data); err != nil {
			r.stats.eventsDropped.Add(1)
			r.metrics.BroadcastDropped()
			r.logger.Debug("broadcast skipped recipient",
				"event", string(typ),
				"recipient", member.ID,
				"reason", err)
			continue
		}
		delivered++
	}

	r.metrics.EventBroadcast(string(typ), delivered)
	return delivered
}

func (r *Relay) broadcastPeerJoined(projectID string, s *Session) {
	r.broadcast(projectID, s, false, protocol.EventPeerJoined, &protocol.PeerJoined{
		UserID:   s.UserID,
		UserName: s.UserName,
	})
}

func (r *Relay) broadcastPeerLeft(projectID string, s *Session) {
	r.broadcast(projectID, s, false, protocol.EventPeerLeft, &protocol.PeerLeft{
		UserID: s.UserID,
	})
}

// sendAck confirms a request back to its originator, correlated by the
// client-supplied request id.
func (r *Relay) sendAck(s *Session, requestID string, ack *protocol.Ack) {
	data, err := protocol.Encode(protocol.EventAck, requestID, ack)
	if err != nil {
		r.logger.Error("ack encode failed", "error", err)
		return
	}
	if err := s.Send(data); err != nil {
		r.logger.Debug("ack dropped", "session_id", s.ID, "reason", err)
	}
}

// sendError reports a rejected or failed event back to its originator.
func (r *Relay) sendError(s *Session, requestID string, code protocol.ErrorCode, message string) {
	data, err := protocol.Encode(protocol.EventError, requestID, protocol.NewError(code, message))
	if err != nil {
		r.logger.Error("error encode failed", "error", err)
		return
	}
	if err := s.Send(data); err != nil {
		r.logger.Debug("error event dropped", "session_id", s.ID, "reason", err)
	}
}
