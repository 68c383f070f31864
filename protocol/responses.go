package protocol

import "fmt"

// ValidateResponse checks a response frame for a request of count bytes and
// returns its payload. The returned slice aliases frame.
//
// Response frame structure:
//
//	[STX][MSGID][COUNT][PAYLOAD...][CRC][ACK|NAK]
//
// Checks run in a fixed order: a trailing NAK is reported as ErrNAK before
// anything else is inspected; then the ACK byte, STX, message ID, byte
// count, and finally the payload CRC. Every failure other than NAK is a
// *ValidationError naming the first field that did not match.
func ValidateResponse(frame []byte, count int) ([]byte, error) {
	size := ResponseSize(count)
	if len(frame) != size {
		return nil, &ValidationError{Field: FieldLength, Got: len(frame), Want: size}
	}

	if frame[size-1] == NAK {
		return nil, ErrNAK
	}
	if frame[size-1] != ACK {
		return nil, &ValidationError{Field: FieldACK, Got: frame[size-1], Want: ACK}
	}
	if frame[respSTX] != STX {
		return nil, &ValidationError{Field: FieldSTX, Got: frame[respSTX], Want: STX}
	}
	if frame[respMsgID] != MsgGetLog {
		return nil, &ValidationError{Field: FieldMsgID, Got: frame[respMsgID], Want: MsgGetLog}
	}
	if int(frame[respCount]) != count {
		return nil, &ValidationError{Field: FieldCount, Got: frame[respCount], Want: count}
	}

	payload := frame[respPayload : respPayload+count]
	crc := Checksum(payload)
	if frame[respPayload+count] != crc {
		return nil, &ValidationError{Field: FieldCRC, Got: frame[respPayload+count], Want: crc}
	}

	return payload, nil
}

// BuildResponse constructs an acknowledged response frame carrying payload.
// It is the device-side counterpart of ValidateResponse.
func BuildResponse(payload []byte) ([]byte, error) {
	if len(payload) == 0 || len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("payload must be between 1 and %d bytes, got %d", MaxPayloadSize, len(payload))
	}

	frame := make([]byte, 0, ResponseSize(len(payload)))
	frame = append(frame, STX, MsgGetLog, byte(len(payload)))
	frame = append(frame, payload...)
	frame = append(frame, Checksum(payload), ACK)

	return frame, nil
}

// BuildNAKResponse constructs a refused response of the size a request for
// count bytes expects. Only the trailing byte is meaningful.
func BuildNAKResponse(count int) []byte {
	frame := make([]byte, ResponseSize(count))
	frame[respSTX] = STX
	frame[respMsgID] = MsgGetLog
	frame[respCount] = byte(count)
	frame[len(frame)-1] = NAK
	return frame
}
