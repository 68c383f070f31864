package protocol

// Field identifies a part of a response frame checked by ValidateResponse.
type Field int

const (
	// FieldLength is the overall frame size
	FieldLength Field = iota

	// FieldACK is the trailing acknowledge byte
	FieldACK

	// FieldSTX is the start of text marker
	FieldSTX

	// FieldMsgID is the echoed message identifier
	FieldMsgID

	// FieldCount is the echoed payload byte count
	FieldCount

	// FieldCRC is the payload checksum
	FieldCRC
)

func (f Field) String() string {
	switch f {
	case FieldLength:
		return "frame length"
	case FieldACK:
		return "acknowledge byte"
	case FieldSTX:
		return "start of text"
	case FieldMsgID:
		return "message ID"
	case FieldCount:
		return "byte count"
	case FieldCRC:
		return "checksum"
	default:
		return "unknown field"
	}
}
