package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/fitedit/pkg/message"
	"github.com/ssargent/fitedit/pkg/profile"
	"github.com/ssargent/fitedit/pkg/recording"
)

var start = time.Date(2024, time.May, 12, 6, 45, 0, 0, time.UTC)

var quiet = WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

func sample(t *testing.T, offset time.Duration, hr uint64, dist float64) *message.Message {
	t.Helper()
	m := message.New(profile.MesgRecord)
	m.SetTimestamp(start.Add(offset))
	require.NoError(t, message.Set(m, "heart_rate", hr, message.Raw))
	require.NoError(t, m.SetFloat("distance", dist))
	return m
}

// testRecording builds a normalised recording that exercises big-endian
// definitions, developer fields, unknown messages and compressed timestamps.
func testRecording(t *testing.T) *recording.Recording {
	t.Helper()
	rec := recording.New()

	fileID := message.New(profile.MesgFileID)
	require.NoError(t, message.Set(fileID, "type", "activity", message.Pretty))
	require.NoError(t, message.Set(fileID, "manufacturer", "garmin", message.Pretty))
	require.NoError(t, message.Set(fileID, "product_name", "Edge 530", message.Pretty))
	require.NoError(t, fileID.SetTime("time_created", start))

	device := message.New(profile.MesgDeviceInfo)
	device.BigEndian = true
	device.SetTimestamp(start)
	require.NoError(t, message.Set(device, "manufacturer", "garmin", message.Pretty))
	require.NoError(t, message.Set(device, "serial_number", uint64(3912345678), message.Raw))

	unknown := message.New(0xFF00)
	unknown.Fields = []message.Field{{Num: 3, BaseType: profile.Uint8, Data: []byte{7}}}

	first := sample(t, 0, 120, 0)
	first.LocalType = 0
	first.DevFields = []message.DevField{{Num: 0, DevIndex: 0, Data: []byte{0x10, 0x27}}}

	raw := profile.FromTime(start.Add(3 * time.Second))
	compressed := message.New(profile.MesgRecord)
	compressed.LocalType = 1
	compressed.Compressed = true
	compressed.TimeOffset = uint8(raw & compressedTimeMask)
	compressed.CompressedTimestamp = raw
	require.NoError(t, message.Set(compressed, "heart_rate", uint64(124), message.Raw))

	lap := message.New(profile.MesgLap)
	lap.SetTimestamp(start.Add(4 * time.Second))
	require.NoError(t, lap.SetTime("start_time", start))
	require.NoError(t, lap.SetFloat("total_elapsed_time", 4))

	require.NoError(t, rec.AppendMessage(fileID, device, unknown, first, sample(t, time.Second, 121, 2.5), compressed, lap))
	require.NoError(t, rec.Normalize())
	return rec
}

func requireSameLog(t *testing.T, want, got *recording.Recording) {
	t.Helper()
	require.Equal(t, want.Len(), got.Len())
	for i, ev := range want.Events() {
		other := got.Events()[i]
		require.Equal(t, ev.Kind, other.Kind, "event %d", i)
		switch ev.Kind {
		case recording.KindDefinition:
			assert.True(t, ev.Definition.Equal(other.Definition), "definition %d", i)
		case recording.KindMessage:
			assert.True(t, ev.Message.Equal(other.Message), "message %d (%s)", i, ev.Message.Name())
		}
	}
}

// frame wraps a data section in a valid header and CRC.
func frame(body []byte) []byte {
	h := fileHeader{ProtocolVersion: 0x20, ProfileVersion: 2132, DataSize: uint32(len(body))}
	out := append(h.marshal(), body...)
	return binary.LittleEndian.AppendUint16(out, profile.CRC16(0, out))
}

func TestRoundTrip(t *testing.T) {
	rec := testRecording(t)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, rec))
	encoded := append([]byte(nil), buf.Bytes()...)

	decoded, err := Decode(bytes.NewReader(encoded), quiet)
	require.NoError(t, err)
	assert.False(t, decoded.Header.Degraded)
	requireSameLog(t, rec, decoded)

	again, err := Marshal(decoded)
	require.NoError(t, err)
	assert.Equal(t, encoded, again)

	t.Run("header", func(t *testing.T) {
		assert.Equal(t, byte(headerSize), encoded[0])
		assert.Equal(t, magic, string(encoded[8:12]))
		assert.Equal(t, uint32(len(encoded)-headerSize-crcSize), binary.LittleEndian.Uint32(encoded[4:8]))
		assert.Equal(t, uint16(0), profile.CRC16(0, encoded[:headerSize]))
		assert.Equal(t, uint16(0), profile.CRC16(0, encoded))
	})

	t.Run("values", func(t *testing.T) {
		device, ok := decoded.First(profile.MesgDeviceInfo)
		require.True(t, ok)
		assert.True(t, device.BigEndian)
		serial, ok := device.Uint("serial_number")
		require.True(t, ok)
		assert.Equal(t, uint64(3912345678), serial)

		unknown, ok := decoded.First(0xFF00)
		require.True(t, ok)
		assert.Equal(t, "unknown", unknown.Name())
		assert.Equal(t, []byte{7}, unknown.Fields[0].Data)

		records := decoded.Records()
		require.Len(t, records, 3)
		assert.Equal(t, []byte{0x10, 0x27}, records[0].DevFields[0].Data)

		ts, ok := records[2].Timestamp()
		require.True(t, ok)
		assert.Equal(t, start.Add(3*time.Second), ts)
		assert.True(t, records[2].Compressed)

		name, ok := decoded.Messages(profile.MesgFileID)[0].String("product_name")
		require.True(t, ok)
		assert.Equal(t, "Edge 530", name)
	})
}

func TestDecodeFormatMismatch(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte{14, 0x20, 0, 0}},
		{"wrong marker", []byte("\x0e\x20\x54\x08\x00\x00\x00\x00.GPX\x00\x00\x00\x00")},
		{"header size too small", []byte("\x08\x20\x54\x08\x00\x00\x00\x00.FIT\x00\x00")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tc.data), quiet)
			assert.ErrorIs(t, err, ErrFormatMismatch)
		})
	}
}

func TestDegradedMode(t *testing.T) {
	rec := testRecording(t)
	encoded, err := Marshal(rec)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		corrupt func([]byte)
	}{
		{"header crc", func(b []byte) { b[12] ^= 0xFF }},
		{"declared size beyond stream", func(b []byte) { binary.LittleEndian.PutUint32(b[4:8], 1<<20) }},
		{"declared size zero", func(b []byte) { binary.LittleEndian.PutUint32(b[4:8], 0) }},
		{"file crc", func(b []byte) { b[len(b)-1] ^= 0xFF }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := append([]byte(nil), encoded...)
			tc.corrupt(data)

			decoded, err := Decode(bytes.NewReader(data), quiet)
			require.NoError(t, err)
			assert.True(t, decoded.Header.Degraded)
			requireSameLog(t, rec, decoded)
		})
	}
}

func TestTruncatedStream(t *testing.T) {
	encoded, err := Marshal(testRecording(t))
	require.NoError(t, err)

	decoded, err := Decode(bytes.NewReader(encoded[:len(encoded)-8]), quiet)
	require.NoError(t, err)
	assert.True(t, decoded.Header.Degraded)
	assert.Less(t, decoded.MessageCount(), 7)
	assert.NotEmpty(t, decoded.Records())
}

func TestRecordDecodeError(t *testing.T) {
	rec := recording.New()
	require.NoError(t, rec.AppendMessage(sample(t, 0, 100, 0), sample(t, time.Second, 101, 3)))
	require.NoError(t, rec.Normalize())
	encoded, err := Marshal(rec)
	require.NoError(t, err)

	body := encoded[headerSize : len(encoded)-crcSize]
	msgSize := 1 + rec.Events()[1].Message.Definition().Size()
	split := len(body) - msgSize

	// Local type 5 has no definition.
	var corrupted []byte
	corrupted = append(corrupted, body[:split]...)
	corrupted = append(corrupted, 0x05)
	corrupted = append(corrupted, body[split:]...)
	data := frame(corrupted)

	t.Run("reported", func(t *testing.T) {
		_, err := Decode(bytes.NewReader(data), quiet)
		var rde *RecordDecodeError
		require.ErrorAs(t, err, &rde)
		assert.Equal(t, int64(headerSize+split), rde.Offset)
	})

	t.Run("caller continues", func(t *testing.T) {
		dec, err := NewDecoder(bytes.NewReader(data), quiet)
		require.NoError(t, err)

		var errs int
		for {
			p, err := dec.DecodeSome(100)
			if err != nil {
				errs++
				require.True(t, errors.As(err, new(*RecordDecodeError)))
				continue
			}
			if p.Done {
				break
			}
		}
		assert.Equal(t, 1, errs)
		assert.Len(t, dec.Recording().Records(), 2)
	})

	t.Run("skipped", func(t *testing.T) {
		dec, err := NewDecoder(bytes.NewReader(data), quiet, WithSkipCorrupt())
		require.NoError(t, err)
		p, err := dec.DecodeSome(100)
		require.NoError(t, err)
		assert.True(t, p.Done)
		assert.Equal(t, 1, p.Skipped)
		assert.Equal(t, 2, p.Messages)
	})

	t.Run("reserved header bits", func(t *testing.T) {
		bad := append([]byte(nil), body[:split]...)
		bad = append(bad, 0x10)
		_, err := Decode(bytes.NewReader(frame(bad)), quiet)
		var rde *RecordDecodeError
		require.ErrorAs(t, err, &rde)
		assert.Contains(t, rde.Error(), "reserved bits")
	})
}

func TestDecodeSomeProgress(t *testing.T) {
	encoded, err := Marshal(testRecording(t))
	require.NoError(t, err)

	var calls []int64
	dec, err := NewDecoder(bytes.NewReader(encoded), quiet, WithProgress(func(pos, total int64) {
		assert.LessOrEqual(t, pos, total)
		assert.Equal(t, int64(len(encoded)), total)
		calls = append(calls, pos)
	}))
	require.NoError(t, err)

	var last Progress
	for !last.Done {
		last, err = dec.DecodeSome(3)
		require.NoError(t, err)
	}
	assert.Equal(t, 7, last.Messages)
	assert.GreaterOrEqual(t, len(calls), 4)
	assert.IsIncreasing(t, calls[:len(calls)-1])

	again, err := dec.DecodeSome(3)
	require.NoError(t, err)
	assert.True(t, again.Done)
}

func TestDecodeChain(t *testing.T) {
	a := testRecording(t)
	b := recording.New()
	require.NoError(t, b.AppendMessage(sample(t, time.Hour, 90, 0)))
	require.NoError(t, b.Normalize())

	var buf bytes.Buffer
	require.NoError(t, EncodeChain(&buf, a, b))
	buf.WriteString("trailing")

	recs, err := DecodeChain(&buf, quiet)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	requireSameLog(t, a, recs[0])
	requireSameLog(t, b, recs[1])

	_, err = DecodeChain(bytes.NewReader([]byte("nothing here")), quiet)
	assert.ErrorIs(t, err, ErrFormatMismatch)
}

func TestDecoderNext(t *testing.T) {
	a := testRecording(t)
	b := recording.New()
	require.NoError(t, b.AppendMessage(sample(t, time.Hour, 90, 0)))
	require.NoError(t, b.Normalize())

	var buf bytes.Buffer
	require.NoError(t, EncodeChain(&buf, a, b))
	total := int64(buf.Len())

	dec, err := NewDecoder(&buf, quiet)
	require.NoError(t, err)
	_, err = dec.DecodeSome(1)
	require.NoError(t, err)
	assert.Nil(t, dec.Next())

	var last Progress
	for !last.Done {
		last, err = dec.DecodeSome(2)
		require.NoError(t, err)
	}
	next := dec.Next()
	require.NotNil(t, next)
	for p := (Progress{}); !p.Done; {
		p, err = next.DecodeSome(2)
		require.NoError(t, err)
		last = p
	}
	assert.Equal(t, total, last.Total)
	assert.Equal(t, 1, last.Messages)
	requireSameLog(t, b, next.Recording())
	assert.Nil(t, next.Next())
}

func TestEncodeErrors(t *testing.T) {
	t.Run("indices authoritative", func(t *testing.T) {
		rec := testRecording(t)
		rec.BeginIndexEdit()
		err := Encode(io.Discard, rec)
		assert.ErrorIs(t, err, recording.ErrIndicesAuthoritative)
	})

	t.Run("unassigned local type", func(t *testing.T) {
		rec := recording.New()
		require.NoError(t, rec.AppendMessage(sample(t, 0, 100, 0)))
		_, err := Marshal(rec)
		assert.ErrorIs(t, err, ErrLocalType)
	})

	t.Run("missing definition", func(t *testing.T) {
		rec := recording.New()
		m := sample(t, 0, 100, 0)
		m.LocalType = 0
		require.NoError(t, rec.AppendMessage(m))
		_, err := Marshal(rec)
		assert.ErrorIs(t, err, ErrDefinitionMismatch)
	})

	t.Run("layout changed after normalise", func(t *testing.T) {
		rec := testRecording(t)
		require.NoError(t, rec.Records()[0].SetFloat("cadence", 80))
		_, err := Marshal(rec)
		assert.ErrorIs(t, err, ErrDefinitionMismatch)

		require.NoError(t, rec.Normalize())
		_, err = Marshal(rec)
		assert.NoError(t, err)
	})
}

func TestResolveCompressed(t *testing.T) {
	testCases := []struct {
		last   uint32
		offset uint8
		want   uint32
	}{
		{last: 0x1000_0000, offset: 0, want: 0x1000_0000},
		{last: 0x1000_0005, offset: 9, want: 0x1000_0009},
		{last: 0x1000_001E, offset: 2, want: 0x1000_0022},
		{last: 0x1000_0010, offset: 0x10, want: 0x1000_0010},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, resolveCompressed(tc.last, tc.offset))
	}
}
