package output_storage

import (
	"testing"
	"time"
)

// helper: receive with timeout
func recvWithTimeout[T any](t *testing.T, ch <-chan T, d time.Duration) (T, bool) {
	t.Helper()
	var zero T
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(d):
		return zero, false
	}
}

// helper: assert no receive within duration
func assertNoRecv[T any](t *testing.T, ch <-chan T, d time.Duration) {
	t.Helper()
	if v, ok := recvWithTimeout(t, ch, d); ok {
		t.Fatalf("unexpected receive: %v", v)
	}
}

func TestBroadcaster_SingleSubscriberReceives(t *testing.T) {
	b := RunNewBroadcaster[string]()

	// Subscribe by pushing our channel into the internal queue (Subscribe returns send-only).
	ch, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	b.Publish("hello")

	if v, ok := recvWithTimeout(t, ch, 200*time.Millisecond); !ok || v != "hello" {
		t.Fatalf("expected to receive 'hello', got ok=%v val=%q", ok, v)
	}

	b.Stop()
}

func TestBroadcaster_CoalescesChangeNotifications(t *testing.T) {
	b := RunNewBroadcaster[struct{}]()
	defer b.Stop()

	ch, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	// A burst of changes leaves at least one pending wake-up, never a backlog.
	for i := 0; i < 100; i++ {
		b.Publish(struct{}{})
	}
	if _, ok := recvWithTimeout(t, ch, 200*time.Millisecond); !ok {
		t.Fatalf("expected a change notification after the burst")
	}
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case <-ch:
		default:
		}
		time.Sleep(5 * time.Millisecond)
	}
	assertNoRecv(t, ch, 50*time.Millisecond)

	// A later change wakes the subscriber again
	b.Publish(struct{}{})
	if _, ok := recvWithTimeout(t, ch, 200*time.Millisecond); !ok {
		t.Fatalf("expected a notification for the later change")
	}
}

func TestBroadcaster_MultipleSubscribersReceive(t *testing.T) {
	b := RunNewBroadcaster[int]()

	// Register first subscriber and ensure the goroutine processed it.
	ch1, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	b.Publish(1)
	if v, ok := recvWithTimeout(t, ch1, 200*time.Millisecond); !ok || v != 1 {
		t.Fatalf("ch1 did not receive initial message, ok=%v v=%d", ok, v)
	}

	// Now register second subscriber.
	ch2, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	// Broadcast again; both should see it.
	b.Publish(2)

	if v, ok := recvWithTimeout(t, ch1, 200*time.Millisecond); !ok || v != 2 {
		t.Fatalf("ch1 did not receive broadcast 2, ok=%v v=%d", ok, v)
	}
	if v, ok := recvWithTimeout(t, ch2, 200*time.Millisecond); !ok || v != 2 {
		t.Fatalf("ch2 did not receive broadcast 2, ok=%v v=%d", ok, v)
	}

	b.Stop()
}

func TestBroadcaster_NonBlockingSlowSubscriber(t *testing.T) {
	b := RunNewBroadcaster[int]()

	// Slow subscriber with a full buffer simulating being behind
	slow, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	// Pre-fill to make it full so broadcaster should drop this and deliver the latest
	slow <- -1
	// Fast subscriber that can capture the broadcast
	fast, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	// Publish a value; for 'slow' the oldest should be dropped and latest delivered;
	// 'fast' should receive it promptly.
	b.Publish(42)

	// Allow the message to go through
	time.Sleep(10 * time.Millisecond)

	// fast should receive
	if v, ok := recvWithTimeout(t, fast, 200*time.Millisecond); !ok || v != 42 {
		t.Fatalf("fast did not receive 42, ok=%v v=%d", ok, v)
	}

	// slow should receive the latest (42), not block or keep the old value
	if v, ok := recvWithTimeout(t, slow, 200*time.Millisecond); !ok || v != 42 {
		t.Fatalf("slow did not receive latest 42, ok=%v v=%d", ok, v)
	}

	b.Stop()
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := RunNewBroadcaster[int]()

	a, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	bch, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	// Ensure 'a' is active
	b.Publish(1)
	if v, ok := recvWithTimeout(t, a, 200*time.Millisecond); !ok || v != 1 {
		t.Fatalf("subscriber 'a' did not get initial message, ok=%v v=%d", ok, v)
	}

	<-bch

	// Unsubscribe 'a'
	b.Unsubscribe(a)

	// Publish several messages; bch should receive, 'a' should not
	for i := 0; i < 3; i++ {
		b.Publish(100 + i)
		if v, ok := recvWithTimeout(t, bch, 200*time.Millisecond); !ok || v != 100+i {
			t.Fatalf("subscriber 'bch' missed message %d, ok=%v v=%d", 100+i, ok, v)
		}
		// 'a' should not receive anything
		assertNoRecv(t, a, 50*time.Millisecond)
	}

	b.Stop()
}

func TestBroadcaster_StopClosesSubscribers(t *testing.T) {
	b := RunNewBroadcaster[struct{}]()

	ch, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	b.Stop()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel, got a value")
		}
	case <-time.After(300 * time.Millisecond):
		t.Fatalf("subscriber channel was not closed after Stop")
	}

	// Publishing, stopping and unsubscribing after Stop must not panic.
	b.Publish(struct{}{})
	b.Stop()
	b.Unsubscribe(ch)

	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		if _, err := b.Subscribe(); err != nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected Subscribe to fail after Stop")
}

func TestBroadcaster_PublishNeverBlocks(t *testing.T) {
	b := RunNewBroadcaster[int]()
	defer b.Stop()

	// A subscriber that never reads must not stall publishers.
	if _, err := b.Subscribe(); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			b.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Publish blocked on a slow subscriber")
	}
}
