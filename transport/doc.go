// Package transport provides byte-stream connections to BioHarness devices.
//
// Two variants implement Transport:
//
//   - Serial: a UART or virtual COM port at 115200-8-N-1 (go.bug.st/serial)
//   - USB: a native device addressed by serial number, using a bulk IN/OUT
//     pipe pair (github.com/google/gousb)
//
// Open picks the variant from the identifier. Names starting with COM, CNC
// or /dev/ are serial ports; anything else is a USB serial number.
//
//	t, err := transport.Open(ctx, "COM7")
//	if err != nil {
//	    return err // *transport.ConnectionError
//	}
//	defer t.Close()
//
// Transports only move bytes. Framing, validation and retries live in the
// downloader package.
//
// Discover lists attached devices of both kinds.
package transport
