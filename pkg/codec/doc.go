// Package codec reads and writes FIT files.
//
// The decoder turns a byte stream into a recording.Recording whose event log
// mirrors the stream; the encoder writes that log back out. For any decoded
// recording, decoding the encoded bytes again yields an equal event log.
//
// # File Format
//
// A FIT file is a header, a data section and a trailing CRC:
//
//	[Size(1)][Protocol(1)][Profile(2)][DataSize(4)][".FIT"(4)][HeaderCRC(2)]
//	[record][record]...
//	[CRC(2)]
//
// The header is 12 or 14 bytes long; all multi-byte header fields are
// little-endian. The file CRC is CRC-16 over the header and data section.
//
// Every record starts with a one byte record header:
//   - bit 7 clear, bit 6 set: definition record for local type bits 0-3;
//     bit 5 announces developer fields.
//   - bit 7 clear, bit 6 clear: data message of local type bits 0-3.
//   - bit 7 set: data message with a compressed timestamp. Bits 5-6 hold the
//     local type (0-3) and bits 0-4 a time offset in seconds.
//
// A definition record lays out the messages of its local type:
//
//	[Reserved(1)][Arch(1)][GlobalNum(2)][N(1)][N x {Num,Size,BaseType}]
//	[M(1)][M x {Num,Size,DevIndex}]   (developer fields, optional)
//
// Arch 0 is little-endian and 1 big-endian; it applies to the global number
// and to every multi-byte field of the messages that follow.
//
// # Compressed Timestamps
//
// The offset of a compressed header replaces the low five bits of the last
// full timestamp. When the offset is smaller than those bits the counter has
// rolled over and 32 seconds are added.
//
// # Integrity
//
// Decoding checks the ".FIT" marker first and fails with ErrFormatMismatch
// when it is absent. The header CRC (when present and non-zero), the
// declared data size and the file CRC are checked next. If any of them fails
// the decoder logs a warning and switches to degraded mode: the declared size
// is ignored and records are read until the last two bytes of the stream,
// which are taken to be the file CRC. The resulting recording has
// Header.Degraded set.
//
// # Errors
//
// A record that cannot be decoded yields a *RecordDecodeError carrying its
// offset; the decoder has already moved past it, so the caller may call
// DecodeSome again. WithSkipCorrupt skips such records and counts them in
// Progress.Skipped. Running out of data is not an error: it sets
// Progress.Done.
//
// The encoder refuses recordings whose indices are authoritative and
// messages that do not match the active definition of their local type
// (ErrDefinitionMismatch). Call Normalize on synthesised recordings first.
//
// # Usage
//
//	rec, err := codec.Decode(f, codec.WithSkipCorrupt())
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := codec.Encode(&buf, rec); err != nil {
//	    return err
//	}
//
// Large files can be decoded in chunks:
//
//	dec, err := codec.NewDecoder(f)
//	for {
//	    p, err := dec.DecodeSome(512)
//	    ...
//	    if p.Done {
//	        break
//	    }
//	}
//	rec := dec.Recording()
//
// # Thread Safety
//
// A Decoder must be used by one goroutine at a time. Encode only reads the
// recording, so several goroutines may encode the same recording as long as
// nobody mutates it.
package codec
