package sse

import (
	"testing"

	"github.com/estateflow/estateflow/internal/domain/notification"
)

func TestDeliverToSubscribedClient(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()
	client := NewClient("c1", "recipient-1", 4)
	hub.Register(client)

	msg := &notification.Message{Event: notification.EventOfferReceived}
	if err := hub.Deliver("recipient-1", msg); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	select {
	case got := <-client.MessageChan:
		if got.Event != notification.EventOfferReceived {
			t.Fatalf("event = %q", got.Event)
		}
	default:
		t.Fatal("no message on channel")
	}
}

func TestDeliverNoClient(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()
	hub.Register(NewClient("c1", "someone-else", 1))

	err := hub.Deliver("recipient-1", &notification.Message{})
	if err != ErrClientNotFound {
		t.Fatalf("err = %v, want ErrClientNotFound", err)
	}
}

func TestDeliverFullChannel(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()
	client := NewClient("c1", "recipient-1", 1)
	hub.Register(client)

	if err := hub.Deliver("recipient-1", &notification.Message{}); err != nil {
		t.Fatalf("first deliver: %v", err)
	}
	err := hub.Deliver("recipient-1", &notification.Message{})
	if err != ErrChannelFull {
		t.Fatalf("err = %v, want ErrChannelFull", err)
	}
}

func TestDeliverFansOutToAllStreams(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()
	first := NewClient("c1", "recipient-1", 1)
	second := NewClient("c2", "recipient-1", 1)
	hub.Register(first)
	hub.Register(second)

	if err := hub.Deliver("recipient-1", &notification.Message{}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(first.MessageChan) != 1 || len(second.MessageChan) != 1 {
		t.Fatalf("message counts = %d, %d", len(first.MessageChan), len(second.MessageChan))
	}
}

func TestUnregisterClosesChannel(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()
	client := NewClient("c1", "recipient-1", 1)
	hub.Register(client)
	if hub.ClientCount() != 1 {
		t.Fatalf("client count = %d", hub.ClientCount())
	}

	hub.Unregister("c1")
	if hub.ClientCount() != 0 {
		t.Fatalf("client count = %d after unregister", hub.ClientCount())
	}
	if _, open := <-client.MessageChan; open {
		t.Fatal("channel should be closed")
	}

	// Unregistering twice is a no-op.
	hub.Unregister("c1")
}
