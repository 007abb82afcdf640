package eventbus

import "testing"

func TestBus_FanOut(t *testing.T) {
	b := New()
	a := b.Subscribe()
	c := b.Subscribe()
	b.Publish("ev")
	if got := <-a; got != "ev" {
		t.Fatalf("subscriber a got %v", got)
	}
	if got := <-c; got != "ev" {
		t.Fatalf("subscriber c got %v", got)
	}
}

func TestBus_NonBlockingWhenFull(t *testing.T) {
	b := New()
	_ = b.Subscribe()
	for i := 0; i < 100; i++ {
		b.Publish(i) // must not deadlock with a full, unread buffer
	}
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	b.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
	b.Publish("after") // no panic
}

func TestBus_Close(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	b.Close()
	if _, ok := <-sub; ok {
		t.Fatal("channel should be closed after bus close")
	}
	b.Publish("late")
	if late := b.Subscribe(); late == nil {
		t.Fatal("subscribe after close should return a closed channel")
	}
}
