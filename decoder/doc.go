// Package decoder converts raw BioHarness session bytes into samples.
//
// Session data is a sequence of fixed-size records, Channels*2 bytes each,
// one per logging period. The layout of a record depends on the format
// version read from the storage header:
//
//	0003  Standard Log                         general + breathing/R-R
//	0004  ECG Log                              general + breathing/R-R + ECG
//	0005  Accelerometer Log                    general + 3-axis accelerometer
//	0006  BioRICS custom Log                   summary + packed R-R + 3-axis accelerometer
//	0007  Accelerometer Magnitude Log          general + breathing/R-R + magnitude
//	0008  Accelerometer Magnitude Log (100Hz)  as 0007, 10 ms magnitude spacing
//
// Example:
//
//	recs, err := decoder.Decode(dir.FormatVersion, session, data)
//	if errors.Is(err, decoder.ErrUnsupportedFormat) {
//	    ...
//	}
//	for _, g := range recs.General {
//	    fmt.Println(g.Timestamp, g.HeartRate)
//	}
//
// Decoders never read past a record. Waveform blocks that do not fit the
// record or the logging period are truncated.
package decoder
