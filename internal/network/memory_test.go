package network

import (
	"context"
	"testing"
	"time"
)

func TestMemoryPublishFansOutToSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := NewMemory("peer-a")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := NewMemory("peer-b")
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	received := make(chan Message, 1)
	if err := b.Subscribe(ctx, "jobs", func(m Message) { received <- m }); err != nil {
		t.Fatal(err)
	}

	if err := a.Publish(ctx, "jobs", []byte("hello")); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-received:
		if string(msg.Payload) != "hello" || msg.From != "peer-a" {
			t.Fatalf("unexpected message: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for gossip delivery")
	}
}

func TestMemoryRequestResponse(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := NewMemory("peer-server")
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()
	client, err := NewMemory("peer-client")
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	server.OnRequest(func(from string, payload []byte) ([]byte, error) {
		return append([]byte("echo:"), payload...), nil
	})

	resp, err := client.Request(ctx, "peer-server", []byte("ping"))
	if err != nil {
		t.Fatal(err)
	}
	if string(resp) != "echo:ping" {
		t.Fatalf("unexpected response: %q", resp)
	}
}
