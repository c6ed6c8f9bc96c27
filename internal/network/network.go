// Package network defines the abstract transport every higher layer (mesh
// scheduler, governance federation sync, DAG gossip) programs against, plus
// concrete adapters. Grounded on
// _examples/orbas1-Synnergy/synnergy-network/core/network.go's libp2p
// host/gossipsub/mDNS wiring and topic-based Broadcast method; generalized
// here into a narrow interface so the rest of the node never imports libp2p
// directly (spec.md's "abstract NetworkService, libp2p is one adapter").
package network

import "context"

// Message is one gossip publication received on a topic.
type Message struct {
	Topic   string
	From    string
	Payload []byte
}

// Service is the transport capability every subsystem needs: topic gossip,
// and direct request/response to a known peer for point-to-point protocols
// (federation sync, bid solicitation).
type Service interface {
	// Publish gossips payload on topic to the whole mesh.
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe registers handler for every message received on topic,
	// until ctx is cancelled.
	Subscribe(ctx context.Context, topic string, handler func(Message)) error
	// Request sends payload directly to peerID and waits for a response.
	Request(ctx context.Context, peerID string, payload []byte) ([]byte, error)
	// LocalPeerID returns this node's identity on the transport.
	LocalPeerID() string
	// Close releases transport resources.
	Close() error
}
