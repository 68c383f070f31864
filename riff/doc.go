// Package riff reads the session directory from BioHarness log storage.
//
// # Container Format
//
// Log storage holds a RIFF-style container: a 12-byte root header followed
// by tagged, length-prefixed chunks. All integers are little-endian.
//
//	Root:  ["RIFF"][TOTAL(4)][FORM(4)]
//	Chunk: [TAG(4)][LENGTH(4)][PAYLOAD(LENGTH)]
//
// TOTAL is the storage offset at which the chunk walk stops.
//
// Recognized chunks:
//
//	zphr       format header; payload[4:8] is the format version ("0003")
//	fms        skipped
//	JUNK       skipped; may sit between a log header and its data
//	logh/log1/log2
//	           log header opening a session:
//	           [YEAR(2)][MONTH][DAY][MS_OF_DAY(4)][PERIOD(2)][RSVD(2)][CHANNELS(2)][PAD(2)]
//	logr       log data closing the open session; PAD leading bytes are padding
//
// # Recovery
//
// Storage written up to a power loss can hold truncated or garbage chunks.
// On an unrecognized chunk the walk returns to the last recognized chunk and
// skips forward to the next 2048-byte block boundary, where chunks usually
// restart. Errors inside one bad region are reported once.
//
// # Usage
//
// Scan a device through any Reader:
//
//	dir, err := riff.Parse(ctx, reader, riff.WithLogger(log))
//
// Or a storage dump in memory:
//
//	dir, err := riff.ParseBytes(image)
//	for _, s := range dir.Sessions {
//	    fmt.Println(s)
//	}
package riff
