package mem

import (
	"testing"
	"unsafe"
)

func TestMemset(t *testing.T) {
	Memset(uintptr(0), 0x00, 0)

	for pageCount := uint32(1); pageCount <= 10; pageCount++ {
		buf := make([]byte, PageSize<<pageCount)
		for i := range buf {
			buf[i] = 0xFE
		}

		addr := uintptr(unsafe.Pointer(&buf[0]))
		Memset(addr, 0x00, Size(len(buf)))

		for i, b := range buf {
			if b != 0x00 {
				t.Errorf("[block with %d pages] byte %d: expected 0x00, got 0x%x", pageCount, i, b)
			}
		}
	}
}

func TestMemcopy(t *testing.T) {
	src := make([]byte, PageSize)
	dst := make([]byte, PageSize)
	for i := range src {
		src[i] = byte(i)
	}

	Memcopy(
		uintptr(unsafe.Pointer(&src[0])),
		uintptr(unsafe.Pointer(&dst[0])),
		Size(len(src)),
	)

	for i := range src {
		if dst[i] != src[i] {
			t.Fatalf("byte %d: expected %x, got %x", i, src[i], dst[i])
		}
	}
}
