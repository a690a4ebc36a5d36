// Package protocol defines the wire protocol for the ant-app realtime
// collaboration channel.
//
// Every WebSocket message is a single JSON envelope:
//
//	{"type": "<event type>", "id": "<optional request id>", "payload": {...}}
//
// Client-to-server events: join-project, leave-project, cursor-move,
// actor-update, actor-create. Server-to-client events: cursor-update,
// actor-updated, actor-created, peer-joined, peer-left, ack, error.
//
// Mutations (actor-update, actor-create) may carry a client-chosen request
// id; the server replies with an ack or error event carrying the same id,
// so clients can correlate the outcome of each mutation.
//
// # Ordering and conflicts
//
// Delivery is FIFO per sender-recipient pair only. There is no ordering
// guarantee across different senders: two concurrent updates to the same
// actor from different clients may be observed in different orders by
// different recipients. Conflicts resolve last-write-wins at the entity
// store, ordered by write completion time, not by request time. Clients
// must not assume request-order delivery.
package protocol
