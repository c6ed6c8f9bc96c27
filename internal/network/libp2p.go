package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/icn-network/icn-node/internal/codes"
)

const requestProtocolID = protocol.ID("/icn/request/1.0.0")

// LibP2P is the production Service backed by a gossipsub-enabled libp2p
// host, grounded directly on
// _examples/orbas1-Synnergy/synnergy-network/core/network.go's NewNode/
// Broadcast/HandlePeerFound/DialSeed. A rate limiter throttles inbound
// gossip delivery per spec.md's back-pressure requirement, using
// golang.org/x/time/rate (named in SPEC_FULL.md §3's domain stack, unused
// by the teacher but present in the pack's dependency surface).
type LibP2P struct {
	host   host.Host
	pubsub *pubsub.PubSub

	mu     sync.Mutex
	topics map[string]*pubsub.Topic

	limiter *rate.Limiter

	reqMu      sync.RWMutex
	reqHandler  func(from string, payload []byte) ([]byte, error)
}

// Config selects the listen address, discovery tag, and bootstrap peers for
// a LibP2P service, mirroring the teacher's Config fields consumed by
// NewNode.
type Config struct {
	ListenAddr     string
	DiscoveryTag   string
	BootstrapPeers []string
	// GossipRateLimit caps inbound messages/sec delivered to subscribers
	// across all topics; zero disables the limiter.
	GossipRateLimit float64
}

// NewLibP2P builds and starts a gossipsub-enabled libp2p host with mDNS
// discovery, dialing any configured bootstrap peers.
func NewLibP2P(ctx context.Context, cfg Config) (*LibP2P, error) {
	h, err := libp2p.New(libp2p.ListenAddrStrings(cfg.ListenAddr))
	if err != nil {
		return nil, codes.Wrap(codes.Network, "create libp2p host", err)
	}
	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		h.Close()
		return nil, codes.Wrap(codes.Network, "create gossipsub", err)
	}

	var limiter *rate.Limiter
	if cfg.GossipRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.GossipRateLimit), int(cfg.GossipRateLimit))
	}

	n := &LibP2P{
		host:    h,
		pubsub:  ps,
		topics:  make(map[string]*pubsub.Topic),
		limiter: limiter,
	}

	h.SetStreamHandler(requestProtocolID, n.handleStream)

	for _, addr := range cfg.BootstrapPeers {
		pi, err := peer.AddrInfoFromString(addr)
		if err != nil {
			logrus.Warnf("network: invalid bootstrap addr %s: %v", addr, err)
			continue
		}
		if err := h.Connect(ctx, *pi); err != nil {
			logrus.Warnf("network: bootstrap dial %s failed: %v", addr, err)
			continue
		}
	}

	mdns.NewMdnsService(h, cfg.DiscoveryTag, mdnsNotifee{host: h})

	return n, nil
}

type mdnsNotifee struct{ host host.Host }

func (m mdnsNotifee) HandlePeerFound(info peer.AddrInfo) {
	if info.ID == m.host.ID() {
		return
	}
	if err := m.host.Connect(context.Background(), info); err != nil {
		logrus.Warnf("network: mDNS connect to %s failed: %v", info.ID, err)
		return
	}
	logrus.Infof("network: connected to peer %s via mDNS", info.ID)
}

func (n *LibP2P) Publish(ctx context.Context, topic string, payload []byte) error {
	n.mu.Lock()
	t, ok := n.topics[topic]
	if !ok {
		var err error
		t, err = n.pubsub.Join(topic)
		if err != nil {
			n.mu.Unlock()
			return codes.Wrap(codes.Network, "join topic "+topic, err)
		}
		n.topics[topic] = t
	}
	n.mu.Unlock()
	if err := t.Publish(ctx, payload); err != nil {
		return codes.Wrap(codes.Network, "publish topic "+topic, err)
	}
	return nil
}

func (n *LibP2P) Subscribe(ctx context.Context, topic string, handler func(Message)) error {
	n.mu.Lock()
	t, ok := n.topics[topic]
	if !ok {
		var err error
		t, err = n.pubsub.Join(topic)
		if err != nil {
			n.mu.Unlock()
			return codes.Wrap(codes.Network, "join topic "+topic, err)
		}
		n.topics[topic] = t
	}
	n.mu.Unlock()

	sub, err := t.Subscribe()
	if err != nil {
		return codes.Wrap(codes.Network, "subscribe topic "+topic, err)
	}
	go func() {
		defer sub.Cancel()
		for {
			msg, err := sub.Next(ctx)
			if err != nil {
				return // ctx cancelled or subscription closed
			}
			if n.limiter != nil && !n.limiter.Allow() {
				logrus.Debugf("network: dropping message on %s, rate limit exceeded", topic)
				continue
			}
			handler(Message{Topic: topic, From: msg.ReceivedFrom.String(), Payload: msg.Data})
		}
	}()
	return nil
}

func (n *LibP2P) handleStream(s network.Stream) {
	defer s.Close()
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		k, err := s.Read(chunk)
		if k > 0 {
			buf = append(buf, chunk[:k]...)
		}
		if err != nil {
			break
		}
	}

	n.reqMu.RLock()
	handler := n.reqHandler
	n.reqMu.RUnlock()
	if handler == nil {
		return
	}
	resp, err := handler(s.Conn().RemotePeer().String(), buf)
	if err != nil {
		logrus.Warnf("network: request handler error: %v", err)
		return
	}
	if _, err := s.Write(resp); err != nil {
		logrus.Warnf("network: write response failed: %v", err)
	}
}

// OnRequest installs the handler invoked for inbound direct requests.
func (n *LibP2P) OnRequest(handler func(from string, payload []byte) ([]byte, error)) {
	n.reqMu.Lock()
	defer n.reqMu.Unlock()
	n.reqHandler = handler
}

func (n *LibP2P) Request(ctx context.Context, peerID string, payload []byte) ([]byte, error) {
	pid, err := peer.Decode(peerID)
	if err != nil {
		return nil, codes.Wrap(codes.InvalidArgument, "decode peer id", err)
	}
	s, err := n.host.NewStream(ctx, pid, requestProtocolID)
	if err != nil {
		return nil, codes.Wrap(codes.Network, "open stream to "+peerID, err)
	}
	defer s.Close()

	if _, err := s.Write(payload); err != nil {
		return nil, codes.Wrap(codes.Network, "write request", err)
	}
	if err := s.CloseWrite(); err != nil {
		return nil, codes.Wrap(codes.Network, "close write half", err)
	}

	var resp []byte
	chunk := make([]byte, 4096)
	for {
		k, err := s.Read(chunk)
		if k > 0 {
			resp = append(resp, chunk[:k]...)
		}
		if err != nil {
			break
		}
	}
	return resp, nil
}

func (n *LibP2P) LocalPeerID() string { return n.host.ID().String() }

func (n *LibP2P) Close() error {
	if err := n.host.Close(); err != nil {
		return fmt.Errorf("network: close host: %w", err)
	}
	return nil
}

var _ Service = (*LibP2P)(nil)
