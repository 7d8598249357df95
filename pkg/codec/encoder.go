package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ssargent/fitedit/pkg/message"
	"github.com/ssargent/fitedit/pkg/profile"
	"github.com/ssargent/fitedit/pkg/recording"
)

// Encode writes rec as one FIT file: a 14-byte header, the event log in
// order, and the file CRC.
func Encode(w io.Writer, rec *recording.Recording) error {
	data, err := Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// EncodeChain writes several recordings back to back into one stream.
func EncodeChain(w io.Writer, recs ...*recording.Recording) error {
	for i, rec := range recs {
		if err := Encode(w, rec); err != nil {
			return fmt.Errorf("file %d: %w", i, err)
		}
	}
	return nil
}

// Marshal returns the encoded bytes of rec.
func Marshal(rec *recording.Recording) ([]byte, error) {
	if rec.State() == recording.IndicesAuthoritative {
		return nil, recording.ErrIndicesAuthoritative
	}

	var body bytes.Buffer
	var active [recording.MaxLocalTypes]*message.Definition
	for i, ev := range rec.Events() {
		switch ev.Kind {
		case recording.KindDefinition:
			def := ev.Definition
			if int(def.LocalType) >= recording.MaxLocalTypes {
				return nil, fmt.Errorf("event %d: %w: %d", i, ErrLocalType, def.LocalType)
			}
			writeDefinition(&body, def)
			active[def.LocalType] = def
		case recording.KindMessage:
			m := ev.Message
			if int(m.LocalType) >= recording.MaxLocalTypes {
				return nil, fmt.Errorf("event %d (%s): %w: %d", i, m.Name(), ErrLocalType, m.LocalType)
			}
			if !m.Matches(active[m.LocalType]) {
				return nil, fmt.Errorf("event %d (%s): %w", i, m.Name(), ErrDefinitionMismatch)
			}
			if err := writeMessage(&body, m); err != nil {
				return nil, fmt.Errorf("event %d (%s): %w", i, m.Name(), err)
			}
		}
	}
	if uint64(body.Len()) > math.MaxUint32 {
		return nil, fmt.Errorf("data section too large: %d bytes", body.Len())
	}

	h := fileHeader{
		ProtocolVersion: rec.Header.ProtocolVersion,
		ProfileVersion:  rec.Header.ProfileVersion,
		DataSize:        uint32(body.Len()),
	}
	if h.ProtocolVersion == 0 {
		h.ProtocolVersion = recording.DefaultProtocolVersion
	}
	if h.ProfileVersion == 0 {
		h.ProfileVersion = recording.DefaultProfileVersion
	}

	out := make([]byte, 0, headerSize+body.Len()+crcSize)
	out = append(out, h.marshal()...)
	out = append(out, body.Bytes()...)
	out = binary.LittleEndian.AppendUint16(out, profile.CRC16(0, out))
	return out, nil
}

// writeDefinition lays out a definition record.
// Format: [Header][Reserved(1)][Arch(1)][Global(2)][N(1)][N x {Num,Size,BaseType}]{[M(1)][M x {Num,Size,DevIndex}]}
func writeDefinition(buf *bytes.Buffer, def *message.Definition) {
	hdr := definitionMask | def.LocalType
	if def.HasDev() {
		hdr |= devDataMask
	}
	buf.WriteByte(hdr)
	buf.WriteByte(0)
	if def.BigEndian {
		buf.WriteByte(1)
		buf.Write(binary.BigEndian.AppendUint16(nil, def.Num))
	} else {
		buf.WriteByte(0)
		buf.Write(binary.LittleEndian.AppendUint16(nil, def.Num))
	}
	buf.WriteByte(uint8(len(def.Fields)))
	for _, f := range def.Fields {
		buf.Write([]byte{f.Num, f.Size, uint8(f.BaseType)})
	}
	if def.HasDev() {
		buf.WriteByte(uint8(len(def.DevFields)))
		for _, f := range def.DevFields {
			buf.Write([]byte{f.Num, f.Size, f.DevIndex})
		}
	}
}

// writeMessage lays out a data record.
func writeMessage(buf *bytes.Buffer, m *message.Message) error {
	if m.Compressed {
		if m.LocalType > 3 || m.TimeOffset > compressedTimeMask {
			return fmt.Errorf("%w: compressed header cannot carry local type %d", ErrLocalType, m.LocalType)
		}
		buf.WriteByte(compressedHeaderMask | m.LocalType<<5 | m.TimeOffset)
	} else {
		buf.WriteByte(m.LocalType)
	}
	for _, f := range m.Fields {
		buf.Write(f.Data)
	}
	for _, f := range m.DevFields {
		buf.Write(f.Data)
	}
	return nil
}
