package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/ssargent/fitedit/pkg/profile"
)

const (
	minHeaderSize = 12
	headerSize    = 14
	crcSize       = 2
	magic         = ".FIT"
)

// fileHeader is the fixed preamble of a FIT file.
// Format: [Size(1)][Protocol(1)][Profile(2)][DataSize(4)][".FIT"(4)][CRC(2), 14-byte headers only]
type fileHeader struct {
	Size            uint8
	ProtocolVersion uint8
	ProfileVersion  uint16
	DataSize        uint32
	CRC             uint16
}

// parseHeader reads the header at the start of data. Only the marker and
// the header length are checked here.
func parseHeader(data []byte) (fileHeader, error) {
	if len(data) < minHeaderSize || string(data[8:12]) != magic {
		return fileHeader{}, ErrFormatMismatch
	}
	h := fileHeader{
		Size:            data[0],
		ProtocolVersion: data[1],
		ProfileVersion:  binary.LittleEndian.Uint16(data[2:4]),
		DataSize:        binary.LittleEndian.Uint32(data[4:8]),
	}
	if h.Size < minHeaderSize || int(h.Size) > len(data) {
		return fileHeader{}, fmt.Errorf("%w: header size %d", ErrFormatMismatch, h.Size)
	}
	if h.Size >= headerSize {
		h.CRC = binary.LittleEndian.Uint16(data[12:14])
	}
	return h, nil
}

// verify runs the integrity checks of a header against the whole stream.
func (h fileHeader) verify(data []byte) error {
	if h.Size >= headerSize && h.CRC != 0 && h.CRC != profile.CRC16(0, data[:12]) {
		return &IntegrityError{Reason: fmt.Sprintf("header crc 0x%04X does not match", h.CRC)}
	}
	end := int64(h.Size) + int64(h.DataSize) + crcSize
	if end > int64(len(data)) {
		return &IntegrityError{Reason: fmt.Sprintf("declared data size %d exceeds stream length %d", h.DataSize, len(data))}
	}
	if h.DataSize == 0 {
		return &IntegrityError{Reason: "declared data size is zero"}
	}
	if profile.CRC16(0, data[:end]) != 0 {
		return &IntegrityError{Reason: "file crc does not match"}
	}
	return nil
}

// marshal lays out a 14-byte header with its CRC.
func (h fileHeader) marshal() []byte {
	buf := make([]byte, headerSize)
	buf[0] = headerSize
	buf[1] = h.ProtocolVersion
	binary.LittleEndian.PutUint16(buf[2:], h.ProfileVersion)
	binary.LittleEndian.PutUint32(buf[4:], h.DataSize)
	copy(buf[8:], magic)
	binary.LittleEndian.PutUint16(buf[12:], profile.CRC16(0, buf[:12]))
	return buf
}
