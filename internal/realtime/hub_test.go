package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSendToUserReachesRegisteredClient(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Shutdown()

	c := &Client{hub: h, send: make(chan Event, 1), id: "conn-1", userID: 7}
	h.register <- c

	h.SendToUser(7, "match:created", nil)

	select {
	case ev := <-c.send:
		assert.Equal(t, "match:created", ev.Name)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestDetachAfterShutdownDoesNotBlock(t *testing.T) {
	h := NewHub()
	go h.Run()
	h.Shutdown()

	c := &Client{hub: h, send: make(chan Event, 1), id: "conn-1", userID: 7}

	finished := make(chan struct{})
	go func() {
		c.detach()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("detach blocked after hub shutdown")
	}
}
