package identity

import "testing"

func TestHub_WatchDeliversCurrentStateImmediately(t *testing.T) {
	h := NewHub()

	calls := 0
	var got *Principal
	h.Watch(func(p *Principal) {
		calls++
		got = p
	})
	if calls != 1 || got != nil {
		t.Fatalf("expected one immediate nil delivery, got %d calls, %+v", calls, got)
	}

	h.Announce(&Principal{UserID: "u1", DisplayName: "Nadia"})

	var late *Principal
	h.Watch(func(p *Principal) { late = p })
	if late == nil || late.UserID != "u1" {
		t.Fatalf("late watcher must see the current principal, got %+v", late)
	}
}

func TestHub_AnnounceReachesAllWatchers(t *testing.T) {
	h := NewHub()

	var a, b *Principal
	h.Watch(func(p *Principal) { a = p })
	h.Watch(func(p *Principal) { b = p })

	h.Announce(&Principal{UserID: "u1"})
	if a == nil || b == nil {
		t.Fatalf("expected both watchers notified, got %+v and %+v", a, b)
	}

	h.Announce(nil)
	if a != nil || b != nil {
		t.Fatalf("expected sign-out broadcast, got %+v and %+v", a, b)
	}
}

func TestHub_CancelStopsDelivery(t *testing.T) {
	h := NewHub()

	calls := 0
	cancel := h.Watch(func(p *Principal) { calls++ })
	cancel()

	h.Announce(&Principal{UserID: "u1"})
	if calls != 1 { // only the immediate delivery
		t.Fatalf("expected no deliveries after cancel, got %d", calls)
	}
}
