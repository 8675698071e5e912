package blockdev

import "testing"

func TestWriteReadRoundTrip(t *testing.T) {
	d := NewRAMDisk(4)
	in := make([]byte, BlockSize)
	copy(in, "hello block 2")

	if err := d.WriteBlock(2, in); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}

	out := make([]byte, BlockSize)
	if err := d.ReadBlock(2, out); err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if string(out[:13]) != "hello block 2" {
		t.Fatalf("got %q", out[:13])
	}
}

func TestOutOfRangeBlockFails(t *testing.T) {
	d := NewRAMDisk(2)
	buf := make([]byte, BlockSize)
	if err := d.ReadBlock(5, buf); err == nil {
		t.Fatalf("expected an error reading past BlockCount")
	}
	if err := d.WriteBlock(5, buf); err == nil {
		t.Fatalf("expected an error writing past BlockCount")
	}
}

func TestWrongSizedBufferFails(t *testing.T) {
	d := NewRAMDisk(2)
	if err := d.WriteBlock(0, make([]byte, 10)); err == nil {
		t.Fatalf("expected an error for a buffer not BlockSize bytes")
	}
}

func TestSyncIsANoOp(t *testing.T) {
	d := NewRAMDisk(1)
	if err := d.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}
