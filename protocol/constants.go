package protocol

// ProtocolVersion identifies the log retrieval protocol implemented by this library.
const ProtocolVersion = "GET_LOG/1"

// Frame structure constants.
const (
	// STX is the start of text marker that opens every frame (0x02)
	STX = 0x02

	// ETX is the end of text marker that closes a request frame (0x03)
	ETX = 0x03

	// ACK is the trailing byte of an accepted response (0x06)
	ACK = 0x06

	// NAK is the trailing byte of a refused response (0x15)
	NAK = 0x15

	// DLC is the data length code of a GET_LOG request: offset(4) + count(1) + reserved(1)
	DLC = 0x06
)

// Message identifiers.
const (
	// MsgGetLog requests a range of bytes from the device log storage
	MsgGetLog = 0x01
)

// CRC parameters.
const (
	// CRC8Polynomial is the reflected CRC-8 polynomial used in both directions
	CRC8Polynomial = 0x8C

	// BitsPerByte is the number of bits per byte
	BitsPerByte = 8
)

// Frame sizes.
const (
	// RequestSize is the fixed size of a request frame:
	// STX(1) + MSGID(1) + DLC(1) + OFFSET(4) + COUNT(1) + CRC(1) + ETX(1)
	RequestSize = 11

	// ResponseOverhead is the number of non-payload bytes in a response:
	// STX(1) + MSGID(1) + COUNT(1) + CRC(1) + ACK/NAK(1)
	ResponseOverhead = 5

	// MaxPayloadSize is the largest payload a single frame can carry
	MaxPayloadSize = 128

	// MaxResponseSize is the largest possible response frame
	MaxResponseSize = MaxPayloadSize + ResponseOverhead
)

// Field positions inside a request frame.
const (
	reqSTX    = 0
	reqMsgID  = 1
	reqDLC    = 2
	reqOffset = 4
	reqCount  = 8
	reqCRC    = 9
	reqETX    = 10

	// the CRC covers the DLC payload: reserved(1) + offset(4) + count(1)
	reqCRCStart = 3
	reqCRCEnd   = 9
)

// Field positions inside a response frame.
const (
	respSTX     = 0
	respMsgID   = 1
	respCount   = 2
	respPayload = 3
)

// ResponseSize returns the size of the response frame carrying count payload bytes.
func ResponseSize(count int) int {
	return count + ResponseOverhead
}
