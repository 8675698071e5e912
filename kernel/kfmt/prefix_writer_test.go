package kfmt

import (
	"bytes"
	"errors"
	"testing"
)

func TestPrefixWriter(t *testing.T) {
	specs := []struct {
		input string
		exp   string
	}{
		{
			"",
			"",
		},
		{
			"\n",
			"[pl011 ns16550(1.0.0)]: \n",
		},
		{
			"no line break anywhere",
			"[pl011 ns16550(1.0.0)]: no line break anywhere",
		},
		{
			"line feed at the end\n",
			"[pl011 ns16550(1.0.0)]: line feed at the end\n",
		},
		{
			"\ninit failed: no irq\nretrying\n",
			"[pl011 ns16550(1.0.0)]: \n[pl011 ns16550(1.0.0)]: init failed: no irq\n[pl011 ns16550(1.0.0)]: retrying\n",
		},
	}

	var (
		buf bytes.Buffer
		w   = PrefixWriter{
			Sink:   &buf,
			Prefix: []byte("[pl011 ns16550(1.0.0)]: "),
		}
	)

	for specIndex, spec := range specs {
		buf.Reset()
		w.bytesAfterPrefix = 0

		wrote, err := w.Write([]byte(spec.input))
		if err != nil {
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
		}

		if expLen := len(spec.input); expLen != wrote {
			t.Errorf("[spec %d] expected writer to write %d bytes; wrote %d", specIndex, expLen, wrote)
		}

		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %d] expected output:\n%q\ngot:\n%q", specIndex, spec.exp, got)
		}
	}
}

func TestPrefixWriterErrors(t *testing.T) {
	specs := []string{
		"no line break anywhere",
		"\ninit failed: no irq\nretrying\n",
	}

	var (
		expErr = errors.New("write failed")
		w      = PrefixWriter{
			Sink:   writerThatAlwaysErrors{expErr},
			Prefix: []byte("prefix: "),
		}
	)

	for specIndex, spec := range specs {
		w.bytesAfterPrefix = 0
		_, err := w.Write([]byte(spec))
		if err != expErr {
			t.Errorf("[spec %d] expected error: %v; got %v", specIndex, expErr, err)
		}
	}
}

func TestPrefixWriterNilSinkFallsBackToEarlyBuffer(t *testing.T) {
	earlyPrintBuffer.reset()

	w := PrefixWriter{Prefix: []byte("[timer pit(1.0.0)]: ")}
	if _, err := w.Write([]byte("initialized\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := make([]byte, 64)
	n, err := earlyPrintBuffer.Read(got)
	if err != nil {
		t.Fatalf("unexpected error reading earlyPrintBuffer: %v", err)
	}
	if want := "[timer pit(1.0.0)]: initialized\n"; string(got[:n]) != want {
		t.Errorf("expected %q, got %q", want, string(got[:n]))
	}
}

type writerThatAlwaysErrors struct {
	err error
}

func (w writerThatAlwaysErrors) Write(_ []byte) (int, error) {
	return 0, w.err
}
