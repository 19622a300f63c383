package events

import (
	"context"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	ch := bus.Subscribe(EventDownloadCompleted, 1)

	e := DownloadCompleted{
		BaseEvent:  NewBaseEvent(EventDownloadCompleted, EntityDownload, 1),
		DownloadID: "abc123",
		GameID:     42,
	}
	if err := bus.Publish(context.Background(), e); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-ch:
		completed, ok := got.(DownloadCompleted)
		if !ok {
			t.Fatalf("event type = %T", got)
		}
		if completed.DownloadID != "abc123" {
			t.Errorf("DownloadID = %q", completed.DownloadID)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestBus_TypeFiltering(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	ch := bus.Subscribe(EventGameFileImported, 1)

	e := DownloadCompleted{BaseEvent: NewBaseEvent(EventDownloadCompleted, EntityDownload, 1)}
	if err := bus.Publish(context.Background(), e); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-ch:
		t.Fatalf("unexpected event %v on filtered subscription", got)
	default:
	}
}

func TestBus_FullBufferDoesNotBlock(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	bus.Subscribe(EventDownloadCompleted, 0) // never drained, zero buffer

	done := make(chan struct{})
	go func() {
		e := DownloadCompleted{BaseEvent: NewBaseEvent(EventDownloadCompleted, EntityDownload, 1)}
		_ = bus.Publish(context.Background(), e)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestBus_PublishAfterClose(t *testing.T) {
	bus := NewBus(nil)
	ch := bus.SubscribeAll(1)
	bus.Close()

	e := DownloadCompleted{BaseEvent: NewBaseEvent(EventDownloadCompleted, EntityDownload, 1)}
	if err := bus.Publish(context.Background(), e); err != nil {
		t.Fatalf("Publish after close: %v", err)
	}

	if _, open := <-ch; open {
		t.Error("subscriber channel should be closed")
	}
}
