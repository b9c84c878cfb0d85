package events

import "testing"

func TestEmitDeliversToAllObservers(t *testing.T) {
	b := New()
	var a, b2 []Event
	b.Subscribe(func(e Event) { a = append(a, e) })
	b.Subscribe(func(e Event) { b2 = append(b2, e) })

	b.EmitFrameChanged(1, 5, 6)

	if len(a) != 1 || len(b2) != 1 {
		t.Fatalf("expected both observers to receive the event, got %d and %d", len(a), len(b2))
	}
	if a[0].Type != FrameChanged || a[0].Comp != 1 || a[0].Old != 5 || a[0].New != 6 {
		t.Fatalf("unexpected event: %+v", a[0])
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	var n int
	unsub := b.Subscribe(func(e Event) { n++ })
	b.EmitAttrsChanged(1)
	unsub()
	b.EmitAttrsChanged(1)
	if n != 1 {
		t.Fatalf("n = %d, want 1 (second emit after unsubscribe should not deliver)", n)
	}
}

func TestLayersChangedCarriesOptionalRange(t *testing.T) {
	b := New()
	var got Event
	b.Subscribe(func(e Event) { got = e })
	b.EmitLayersChanged(3, true, 10, 20)
	if !got.RangeSet || got.RangeA != 10 || got.RangeB != 20 {
		t.Fatalf("unexpected event: %+v", got)
	}
}
