// Package downloader retrieves log data from BioHarness devices.
//
// # Reading Storage
//
// FrameReader turns a transport into a reliable reader of device storage.
// Reads longer than one frame are split into 128-byte requests and
// reassembled:
//
//	r := downloader.NewFrameReader(t)
//	var diag downloader.Diagnostics
//	data, err := r.Read(ctx, offset, length, &diag)
//
// Each frame is checked for its STX, message ID, byte count, CRC and ACK.
// A corrupt frame is re-requested up to 10 times after draining stale
// input. A transport failure or an explicit NAK ends the read at once.
// ReadRetry repeats a failed read once as a whole.
//
// # Downloading Sessions
//
// Downloader opens a device per operation:
//
//	d := downloader.New(downloader.WithLogger(log))
//
//	dir, _, err := d.SessionDirectory(ctx, "COM3")
//	if err != nil {
//	    return err
//	}
//	data, diag, err := d.LoadSessionData(ctx, "COM3", dir.Sessions[0])
//
// Pass the data and dir.FormatVersion to the decoder package to obtain samples.
//
// # Error Handling
//
// Opening failures are *transport.ConnectionError. Read failures are
// *ReadError, wrapping a transport error, protocol.ErrNAK, or a *FrameError
// when a frame stayed corrupt. Malformed storage is *riff.FormatError.
//
//	var re *downloader.ReadError
//	if errors.As(err, &re) {
//	    fmt.Printf("read failed at 0x%08X\n", re.FrameOffset)
//	}
package downloader
