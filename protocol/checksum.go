package protocol

// CRC8 computes a reflected 8-bit CRC with a configurable polynomial.
// The zero value uses polynomial 0x00; use NewCRC8 or DefaultCRC.
//
// A CRC8 holds no running state, so one value may be shared freely.
type CRC8 struct {
	poly byte
}

// DefaultCRC is the calculator used by the GET_LOG protocol.
var DefaultCRC = NewCRC8(CRC8Polynomial)

// NewCRC8 returns a calculator for the given reflected polynomial.
func NewCRC8(poly byte) CRC8 {
	return CRC8{poly: poly}
}

// Polynomial returns the polynomial this calculator was built with.
func (c CRC8) Polynomial() byte {
	return c.poly
}

// Calculate returns the CRC of data. Each byte is XORed into the
// accumulator (initial value 0) and shifted out least significant bit first.
// An empty input yields 0.
func (c CRC8) Calculate(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < BitsPerByte; i++ {
			if crc&0x01 != 0 {
				crc = (crc >> 1) ^ c.poly
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// Checksum computes the protocol CRC (polynomial 0x8C) over data.
func Checksum(data []byte) byte {
	return DefaultCRC.Calculate(data)
}
