//go:build fuzz
// +build fuzz

package codec

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
)

// FuzzDecode feeds arbitrary bytes to the decoder. Whatever decodes must
// encode, and the encoding must decode to the same log.
func FuzzDecode(f *testing.F) {
	logger := WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	f.Add([]byte{})
	f.Add([]byte("\x0e\x20\x54\x08\x00\x00\x00\x00.FIT\x00\x00"))
	f.Add(frame([]byte{0x40, 0, 0, 20, 0, 1, 3, 1, 2, 0x00, 0x78}))
	f.Add(frame([]byte{0x40, 0, 0, 20, 0, 1, 253, 4, 0x86, 0x00, 1, 0, 0, 0x10, 0x81}))

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 1<<16 {
			t.Skip("input too large")
		}

		rec, err := Decode(bytes.NewReader(data), logger, WithSkipCorrupt())
		if err != nil {
			return
		}

		encoded, err := Marshal(rec)
		if err != nil {
			t.Fatalf("encode of decoded input failed: %v", err)
		}

		again, err := Decode(bytes.NewReader(encoded), logger)
		if err != nil {
			t.Fatalf("re-decode failed: %v", err)
		}
		if again.Len() != rec.Len() {
			t.Fatalf("event count changed: %d != %d", again.Len(), rec.Len())
		}
		for i, ev := range rec.Events() {
			other := again.Events()[i]
			if ev.Kind != other.Kind {
				t.Fatalf("event %d kind changed", i)
			}
			if ev.Message != nil && !ev.Message.Equal(other.Message) {
				t.Fatalf("message %d changed", i)
			}
		}
	})
}
