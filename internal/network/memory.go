package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/icn-network/icn-node/internal/codes"
)

// bus is process-wide so independently constructed Memory peers can
// discover each other by ID without an explicit registry argument — the
// in-memory transport models a fully connected mesh for tests.
var (
	busMu   sync.Mutex
	busByID = map[string]*Memory{}
)

// Memory is an in-process Service used by tests and single-process
// simulations: Publish fans out synchronously to every Memory peer
// subscribed to the topic, the publisher included, and Request dispatches directly to the target
// peer's registered request handler.
type Memory struct {
	id string

	mu          sync.RWMutex
	subscribers map[string][]func(Message)
	reqHandler  func(from string, payload []byte) ([]byte, error)
}

// NewMemory registers a new in-memory peer with the given ID. IDs must be
// unique within a process.
func NewMemory(id string) (*Memory, error) {
	busMu.Lock()
	defer busMu.Unlock()
	if _, exists := busByID[id]; exists {
		return nil, codes.New(codes.InvalidArgument, "network: peer id already registered: "+id)
	}
	m := &Memory{id: id, subscribers: make(map[string][]func(Message))}
	busByID[id] = m
	return m, nil
}

// OnRequest installs the handler invoked when another peer calls Request
// against this peer's ID.
func (m *Memory) OnRequest(handler func(from string, payload []byte) ([]byte, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqHandler = handler
}

func (m *Memory) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	busMu.Lock()
	peers := make([]*Memory, 0, len(busByID))
	for _, p := range busByID {
		peers = append(peers, p)
	}
	busMu.Unlock()

	msg := Message{Topic: topic, From: m.id, Payload: payload}
	for _, p := range peers {
		p.mu.RLock()
		handlers := append([]func(Message){}, p.subscribers[topic]...)
		p.mu.RUnlock()
		for _, h := range handlers {
			h(msg)
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, topic string, handler func(Message)) error {
	m.mu.Lock()
	m.subscribers[topic] = append(m.subscribers[topic], handler)
	m.mu.Unlock()
	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		handlers := m.subscribers[topic]
		for i, h := range handlers {
			if fmt.Sprintf("%p", h) == fmt.Sprintf("%p", handler) {
				m.subscribers[topic] = append(handlers[:i], handlers[i+1:]...)
				break
			}
		}
	}()
	return nil
}

func (m *Memory) Request(ctx context.Context, peerID string, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	busMu.Lock()
	target, ok := busByID[peerID]
	busMu.Unlock()
	if !ok {
		return nil, codes.New(codes.Network, "network: unknown peer "+peerID)
	}
	target.mu.RLock()
	handler := target.reqHandler
	target.mu.RUnlock()
	if handler == nil {
		return nil, codes.New(codes.Network, "network: peer "+peerID+" has no request handler")
	}
	return handler(m.id, payload)
}

func (m *Memory) LocalPeerID() string { return m.id }

func (m *Memory) Close() error {
	busMu.Lock()
	defer busMu.Unlock()
	delete(busByID, m.id)
	return nil
}

var _ Service = (*Memory)(nil)
