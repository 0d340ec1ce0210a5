package events

import (
	"sync/atomic"
	"testing"
)

func TestEventBus_EmitRunsEveryHandler(t *testing.T) {
	bus := NewEventBus()
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		bus.On("menu.updated", func(data interface{}) {
			if data.(int) == 7 {
				calls.Add(1)
			}
		})
	}
	bus.Emit("menu.updated", 7)
	bus.Emit("unrelated", 7)
	bus.Wait()
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

func TestEventBus_RecoversPanics(t *testing.T) {
	bus := NewEventBus()
	var after atomic.Bool
	bus.On("boom", func(interface{}) { panic("handler failed") })
	bus.On("boom", func(interface{}) { after.Store(true) })
	bus.Emit("boom", nil)
	bus.Wait()
	if !after.Load() {
		t.Fatal("a panicking handler must not stop its siblings")
	}
}
