// Package export writes decoded session samples as CSV files.
//
// Each session produces one file per sample stream, named after the
// session start time:
//
//	2024_03_14__09_26_53_General.csv
//	2024_03_14__09_26_53_BR_RR.csv
//	2024_03_14__09_26_53_ECG.csv
//
// Which streams are written depends on the log format; see Streams.
// Timestamps are written as dd/MM/yyyy HH:mm:ss.fff.
package export
