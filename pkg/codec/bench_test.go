//go:build bench
// +build bench

package codec

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/ssargent/fitedit/pkg/message"
	"github.com/ssargent/fitedit/pkg/profile"
	"github.com/ssargent/fitedit/pkg/recording"
)

func benchRecording(b *testing.B, n int) *recording.Recording {
	b.Helper()
	rec := recording.New()
	for i := 0; i < n; i++ {
		m := message.New(profile.MesgRecord)
		m.SetTimestamp(start.Add(time.Duration(i) * time.Second))
		if err := m.SetFloat("distance", float64(i)*3.2); err != nil {
			b.Fatal(err)
		}
		if err := m.SetFloat("speed", 3.2); err != nil {
			b.Fatal(err)
		}
		if err := m.SetFloat("heart_rate", 140); err != nil {
			b.Fatal(err)
		}
		if err := rec.AppendMessage(m); err != nil {
			b.Fatal(err)
		}
	}
	if err := rec.Normalize(); err != nil {
		b.Fatal(err)
	}
	return rec
}

func BenchmarkEncode(b *testing.B) {
	for _, n := range []int{100, 3600, 36000} {
		rec := benchRecording(b, n)
		b.Run(fmt.Sprintf("records=%d", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := Marshal(rec); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkDecode(b *testing.B) {
	for _, n := range []int{100, 3600, 36000} {
		data, err := Marshal(benchRecording(b, n))
		if err != nil {
			b.Fatal(err)
		}
		b.Run(fmt.Sprintf("records=%d", n), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			for i := 0; i < b.N; i++ {
				if _, err := Decode(bytes.NewReader(data), quiet); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
