package timer

import "testing"

func TestOnTickAdvancesClockAndFiresCallback(t *testing.T) {
	nowUS = 0
	ticks := 0
	SetTickFn(func() { ticks++ })
	defer SetTickFn(nil)

	before := NowUS()
	OnTick(100)
	if NowUS() != before+10_000 {
		t.Fatalf("NowUS = %d, want %d", NowUS(), before+10_000)
	}
	if ticks != 1 {
		t.Fatalf("tick callback fired %d times, want 1", ticks)
	}
}

func TestOnTickDefaultsFrequency(t *testing.T) {
	nowUS = 0
	OnTick(0)
	if NowUS() != 1_000_000/DefaultFrequencyHz {
		t.Fatalf("OnTick(0) did not fall back to DefaultFrequencyHz")
	}
}
