package events

import (
	"context"
	"errors"
	"testing"

	"citaplan_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
}

func (testEvent) EventName() string { return "test.event" }

func TestPublishSyncRunsHandlersInOrder(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	var order []int
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		order = append(order, 1)
		return nil
	}))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		order = append(order, 2)
		return nil
	}))

	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()}); err != nil {
		t.Fatalf("PublishSync() error = %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("handler order = %v", order)
	}
}

func TestPublishSyncJoinsHandlerErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	first := errors.New("first failed")
	var secondRan bool
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		return first
	}))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		secondRan = true
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, first) {
		t.Fatalf("PublishSync() error = %v, want it to include the first failure", err)
	}
	if !secondRan {
		t.Fatal("a failing handler must not stop the remaining handlers")
	}
}

func TestPublishSyncRecoversHandlerPanic(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		panic("boom")
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if err == nil {
		t.Fatal("expected the panic to surface as an error")
	}
}

func TestPublishSyncWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()}); err != nil {
		t.Fatalf("PublishSync() error = %v", err)
	}
}
