package protocol

import (
	"encoding/binary"
	"fmt"
)

// BuildGetLogCmd constructs a GET_LOG request frame asking for count bytes
// of log storage starting at offset.
//
// Frame structure:
//
//	[STX][MSGID][DLC][RSVD][OFFSET(4, little-endian)][COUNT][CRC][ETX]
//
// The CRC covers the six DLC bytes RSVD through COUNT.
func BuildGetLogCmd(offset uint32, count int) ([]byte, error) {
	if count <= 0 || count > MaxPayloadSize {
		return nil, fmt.Errorf("byte count must be between 1 and %d, got %d", MaxPayloadSize, count)
	}

	frame := make([]byte, RequestSize)
	frame[reqSTX] = STX
	frame[reqMsgID] = MsgGetLog
	frame[reqDLC] = DLC
	binary.LittleEndian.PutUint32(frame[reqOffset:reqOffset+4], offset)
	frame[reqCount] = byte(count)
	frame[reqCRC] = Checksum(frame[reqCRCStart:reqCRCEnd])
	frame[reqETX] = ETX

	return frame, nil
}

// Request is a decoded GET_LOG request frame.
type Request struct {
	// MsgID is the message identifier (MsgGetLog)
	MsgID byte

	// Offset is the first storage byte requested
	Offset uint32

	// Count is the number of bytes requested
	Count int
}

// ParseRequest decodes and validates a request frame. It is the device-side
// counterpart of BuildGetLogCmd and is used by simulators.
func ParseRequest(frame []byte) (*Request, error) {
	if len(frame) != RequestSize {
		return nil, fmt.Errorf("request length mismatch: got %d bytes, expected %d", len(frame), RequestSize)
	}
	if frame[reqSTX] != STX {
		return nil, &ValidationError{Field: FieldSTX, Got: frame[reqSTX], Want: STX}
	}
	if frame[reqDLC] != DLC {
		return nil, fmt.Errorf("invalid data length code: got 0x%02X, expected 0x%02X", frame[reqDLC], DLC)
	}
	if frame[reqETX] != ETX {
		return nil, fmt.Errorf("invalid end of text: got 0x%02X, expected 0x%02X", frame[reqETX], ETX)
	}
	if crc := Checksum(frame[reqCRCStart:reqCRCEnd]); crc != frame[reqCRC] {
		return nil, &ValidationError{Field: FieldCRC, Got: frame[reqCRC], Want: crc}
	}

	return &Request{
		MsgID:  frame[reqMsgID],
		Offset: binary.LittleEndian.Uint32(frame[reqOffset : reqOffset+4]),
		Count:  int(frame[reqCount]),
	}, nil
}
