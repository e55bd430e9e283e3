package events

import (
	"testing"
	"time"
)

func TestMemoryBusPublishSubscribe(t *testing.T) {
	bus := NewMemoryBus(0)
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	bus.Publish(NewEvent(EventTaskStart, TaskData{Task: "scene_1_27_2", SceneID: 1, FileID: "27_2"}))

	select {
	case event := <-ch:
		if event.Type != EventTaskStart {
			t.Errorf("expected EventTaskStart, got %s", event.Type)
		}
		data, ok := event.Data.(TaskData)
		if !ok || data.Task != "scene_1_27_2" {
			t.Errorf("unexpected data %v", event.Data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}
}

func TestMemoryBusFilter(t *testing.T) {
	bus := NewMemoryBus(0)
	ch := bus.Subscribe(EventTaskVerdict)
	defer bus.Unsubscribe(ch)

	bus.Publish(NewEvent(EventTaskStart, "should-be-filtered"))
	bus.Publish(NewEvent(EventTaskVerdict, "should-arrive"))

	select {
	case event := <-ch:
		if event.Data != "should-arrive" {
			t.Errorf("expected data 'should-arrive', got %v", event.Data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}

	select {
	case event := <-ch:
		t.Errorf("unexpected event: %v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBusSlowSubscriberDrops(t *testing.T) {
	bus := NewMemoryBus(0)
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	for i := 0; i < 100; i++ {
		bus.Publish(NewEvent(EventTaskSkip, i))
	}
	if got := len(ch); got != cap(ch) {
		t.Errorf("expected a full buffer of %d, got %d", cap(ch), got)
	}
	if got := len(bus.History(time.Time{})); got != 100 {
		t.Errorf("history should keep dropped events, got %d", got)
	}
}

func TestMemoryBusHistory(t *testing.T) {
	bus := NewMemoryBus(0)

	t1 := time.Now()
	bus.Publish(NewEvent(EventBatchStart, "first"))
	time.Sleep(10 * time.Millisecond)
	t2 := time.Now()
	bus.Publish(NewEvent(EventBatchEnd, "second"))

	if all := bus.History(t1); len(all) != 2 {
		t.Fatalf("expected 2 events, got %d", len(all))
	}
	since := bus.History(t2)
	if len(since) != 1 {
		t.Fatalf("expected 1 event since t2, got %d", len(since))
	}
	if since[0].Data != "second" {
		t.Errorf("expected 'second', got %v", since[0].Data)
	}
}

func TestMemoryBusHistoryLimit(t *testing.T) {
	bus := NewMemoryBus(3)
	for i := 0; i < 5; i++ {
		bus.Publish(NewEvent(EventTaskVerdict, i))
	}
	h := bus.History(time.Time{})
	if len(h) != 3 {
		t.Fatalf("expected 3 events, got %d", len(h))
	}
	if h[0].Data != 2 || h[2].Data != 4 {
		t.Errorf("expected the newest events, got %v..%v", h[0].Data, h[2].Data)
	}
}

func TestMemoryBusUnsubscribe(t *testing.T) {
	bus := NewMemoryBus(0)
	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed")
	}
	bus.Publish(NewEvent(EventBatchEnd, nil))
}

func TestNop(t *testing.T) {
	var bus EventBus = Nop{}
	bus.Publish(NewEvent(EventBatchStart, nil))
	if bus.History(time.Time{}) != nil {
		t.Error("Nop should keep no history")
	}
}
