package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncAdapter(t *testing.T) {
	var got Event
	n := Func(func(e Event) { got = e })

	n.Notify(Event{Kind: Success, Message: "done"})
	assert.Equal(t, Success, got.Kind)
	assert.Equal(t, "done", got.Message)
}

func TestDiscardAcceptsEvents(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard.Notify(Event{Kind: Error, Message: "nobody listening"})
	})
}

func TestChannelDeliversInOrder(t *testing.T) {
	c := NewChannel(4, nil)
	c.Notify(Event{Kind: Info, Message: "first"})
	c.Notify(Event{Kind: Success, Message: "second"})

	first := <-c.Events()
	second := <-c.Events()
	assert.Equal(t, "first", first.Message)
	assert.Equal(t, "second", second.Message)
}

func TestChannelDropsWhenFullWithoutBlocking(t *testing.T) {
	c := NewChannel(1, nil)
	c.Notify(Event{Kind: Info, Message: "kept"})

	done := make(chan struct{})
	go func() {
		c.Notify(Event{Kind: Info, Message: "dropped"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full channel")
	}

	got := <-c.Events()
	require.Equal(t, "kept", got.Message)
	select {
	case extra := <-c.Events():
		t.Fatalf("unexpected buffered event %q", extra.Message)
	default:
	}
}
