package source

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"
)

func TestRegistryReserveCollisionAndRelease(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	slot, err := r.Reserve("/live")
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if slot.Mount != "/live" {
		t.Fatalf("slot.Mount = %q, want /live", slot.Mount)
	}

	if _, err := r.Reserve("/live"); !errors.Is(err, ErrMountCollision) {
		t.Fatalf("Reserve() duplicate error = %v, want ErrMountCollision", err)
	}

	r.Release("/live")
	if _, ok := r.Find("/live"); ok {
		t.Fatal("Find() should fail after Release()")
	}

	if _, err := r.Reserve("/live"); err != nil {
		t.Fatalf("Reserve() after Release() error = %v", err)
	}
}

func TestSlotSubscribeUnsubscribeListenerCount(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	slot, _ := r.Reserve("/live")

	sub := slot.Subscribe()
	if got := slot.ListenerCount(); got != 1 {
		t.Fatalf("ListenerCount() = %d, want 1", got)
	}

	slot.Unsubscribe(sub)
	if got := slot.ListenerCount(); got != 0 {
		t.Fatalf("ListenerCount() after Unsubscribe = %d, want 0", got)
	}
}

func TestSlotPumpBroadcastsToSubscribers(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	slot, _ := r.Reserve("/live")
	sub := slot.Subscribe()

	payload := []byte("some mp3 bytes")
	errCh := make(chan error, 1)
	go func() {
		errCh <- slot.Pump(bytes.NewReader(payload))
	}()

	select {
	case got := <-sub.ch:
		if !bytes.Equal(got, payload) {
			t.Fatalf("received %q, want %q", got, payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pumped bytes")
	}

	if err := <-errCh; err != nil {
		t.Fatalf("Pump() error = %v", err)
	}
	if slot.Running() {
		t.Fatal("Pump() should clear Running() once the reader is exhausted")
	}
}

func TestSlotPumpStopsWhenRunningCleared(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	slot, _ := r.Reserve("/live")

	pr, pw := io.Pipe()
	errCh := make(chan error, 1)
	go func() {
		errCh <- slot.Pump(pr)
	}()

	// Give Pump a moment to set Running(true) before we clear it.
	for i := 0; i < 100 && !slot.Running(); i++ {
		time.Sleep(time.Millisecond)
	}

	slot.SetRunning(false)
	pw.Close()

	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Pump() did not return after Running() was cleared")
	}
}

func TestRegistryMoveClients(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	src, _ := r.Reserve("/live")
	dst, _ := r.Reserve("/fallback")

	src.Subscribe()
	src.Subscribe()

	moved := r.MoveClients(src, dst)
	if moved != 2 {
		t.Fatalf("MoveClients() = %d, want 2", moved)
	}
	if got := src.ListenerCount(); got != 0 {
		t.Fatalf("src.ListenerCount() after move = %d, want 0", got)
	}
	if got := dst.ListenerCount(); got != 2 {
		t.Fatalf("dst.ListenerCount() after move = %d, want 2", got)
	}
}

func TestOnDemandRequestFlag(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	slot, _ := r.Reserve("/live")

	if slot.OnDemandRequested() {
		t.Fatal("fresh slot should not report on-demand requested")
	}
	slot.RequestOnDemand()
	if !slot.OnDemandRequested() {
		t.Fatal("expected OnDemandRequested() after RequestOnDemand()")
	}
	slot.ClearOnDemandReq()
	if slot.OnDemandRequested() {
		t.Fatal("expected OnDemandRequested() to clear after ClearOnDemandReq()")
	}
}
