package uart

import "testing"

func resetRing() {
	rxHead, rxTail, rxFull = 0, 0, false
}

func TestPushGetRoundTrip(t *testing.T) {
	resetRing()
	PushRx('a')
	PushRx('b')

	b, ok := Getc()
	if !ok || b != 'a' {
		t.Fatalf("got (%v,%v), want ('a',true)", b, ok)
	}
	b, ok = Getc()
	if !ok || b != 'b' {
		t.Fatalf("got (%v,%v), want ('b',true)", b, ok)
	}
	if _, ok = Getc(); ok {
		t.Fatalf("expected ring to be empty")
	}
}

func TestRingOverrunDropsOldest(t *testing.T) {
	resetRing()
	for i := 0; i < rxRingSize+10; i++ {
		PushRx(byte(i))
	}
	b, ok := Getc()
	if !ok {
		t.Fatalf("expected a byte after overrun")
	}
	if b != byte(10) {
		t.Fatalf("expected overrun to drop the oldest bytes, got %d want %d", b, 10)
	}
}
