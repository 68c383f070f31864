// Package protocol implements the BioHarness GET_LOG log retrieval protocol.
//
// This package provides functions to build request frames and validate
// response frames. It performs no I/O; see the downloader package for the
// retrying reader that drives a transport.
//
// # Protocol Overview
//
// The host requests at most 128 bytes of log storage per exchange:
//
//	Request:  [STX][MSGID][DLC][RSVD][OFFSET(4)][COUNT][CRC][ETX]
//	Response: [STX][MSGID][COUNT][PAYLOAD...][CRC][ACK|NAK]
//
// Where:
//   - STX = Start of Text (0x02), ETX = End of Text (0x03)
//   - MSGID = 0x01 (GET_LOG), DLC = 6
//   - OFFSET = 32-bit storage offset (little-endian)
//   - CRC = reflected CRC-8, polynomial 0x8C, over the DLC bytes (request)
//     or over the payload (response)
//   - ACK = 0x06, NAK = 0x15
//
// # Building Requests
//
//	frame, err := protocol.BuildGetLogCmd(offset, 128)
//
// # Validating Responses
//
//	payload, err := protocol.ValidateResponse(frame, 128)
//	switch {
//	case protocol.IsNAK(err):
//	    // device refused; do not retry this frame
//	case protocol.IsValidationError(err):
//	    // corrupted frame; drain input and retry
//	}
package protocol
