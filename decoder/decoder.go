package decoder

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/moffa90/go-bioharness/riff"
)

// ErrUnsupportedFormat is returned for a format version no decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported log format")

// Format versions.
const (
	FormatStandard     = "0003"
	FormatECG          = "0004"
	FormatAccel        = "0005"
	FormatBioRICS      = "0006"
	FormatMagnitude    = "0007"
	FormatMagnitude100 = "0008"
)

// recordFunc decodes one sample record into out.
type recordFunc func(out *Records, rec []byte, ts time.Time, period int)

// Decoder turns the raw sample bytes of a session into records.
type Decoder struct {
	// Format is the format version handled
	Format string

	// Name is the human readable format name
	Name string

	record recordFunc
}

// Decode decodes every whole sample record in raw. Record i is stamped
// s.Timestamp plus i periods; trailing bytes short of a full record are
// ignored.
func (d *Decoder) Decode(s riff.Session, raw []byte) *Records {
	out := &Records{Format: d.Format}
	stride := s.Stride()
	if stride <= 0 {
		return out
	}

	period := s.PeriodDuration()
	for i, off := 0, 0; off+stride <= len(raw); i, off = i+1, off+stride {
		ts := s.Timestamp.Add(time.Duration(i) * period)
		d.record(out, raw[off:off+stride], ts, s.Period)
	}
	return out
}

var decoders = map[string]*Decoder{
	FormatStandard:     {Format: FormatStandard, Name: "Standard Log", record: standardRecord},
	FormatECG:          {Format: FormatECG, Name: "ECG Log", record: ecgRecord},
	FormatAccel:        {Format: FormatAccel, Name: "Accelerometer Log", record: accelRecord},
	FormatBioRICS:      {Format: FormatBioRICS, Name: "BioRICS custom Log", record: bioricsRecord},
	FormatMagnitude:    {Format: FormatMagnitude, Name: "Accelerometer Magnitude Log", record: magnitudeRecord(MagnitudeStep)},
	FormatMagnitude100: {Format: FormatMagnitude100, Name: "Accelerometer Magnitude Log (100Hz)", record: magnitudeRecord(Magnitude100Step)},
}

// For returns the decoder for a format version.
func For(format string) (*Decoder, error) {
	d, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return d, nil
}

// Decode decodes raw session bytes with the decoder for format.
//
// Example:
//
//	dir, _, _ := d.SessionDirectory(ctx, id)
//	data, _, _ := d.LoadSessionData(ctx, id, dir.Sessions[0])
//	recs, err := decoder.Decode(dir.FormatVersion, dir.Sessions[0], data)
func Decode(format string, s riff.Session, raw []byte) (*Records, error) {
	d, err := For(format)
	if err != nil {
		return nil, err
	}
	return d.Decode(s, raw), nil
}

// Describe returns the display name of a format version.
func Describe(format string) string {
	if d, ok := decoders[format]; ok {
		return d.Name
	}
	return "Unsupported - " + format
}

// Formats returns the supported format versions in order.
func Formats() []string {
	return slices.Sorted(maps.Keys(decoders))
}

func standardRecord(out *Records, rec []byte, ts time.Time, period int) {
	if g, ok := decodeGeneral(rec, ts); ok {
		out.General = append(out.General, g)
	}
	out.Intervals = appendIntervals(out.Intervals, rec, ts)
}

func ecgRecord(out *Records, rec []byte, ts time.Time, period int) {
	standardRecord(out, rec, ts, period)
	out.ECG = appendECG(out.ECG, rec, ts, waveformLimit(period))
}

func accelRecord(out *Records, rec []byte, ts time.Time, period int) {
	if g, ok := decodeGeneral(rec, ts); ok {
		out.General = append(out.General, g)
	}
	out.Accel = appendAccel(out.Accel, rec, accelBase, ts, waveformLimit(period))
}

// bioricsRecord always decodes all accelerometer samples, whatever the period.
func bioricsRecord(out *Records, rec []byte, ts time.Time, period int) {
	if s, ok := decodeSummary(rec, ts); ok {
		out.Summaries = append(out.Summaries, s)
	}
	out.Intervals = appendBioRICSIntervals(out.Intervals, rec, ts)
	out.Accel = appendAccel(out.Accel, rec, bioricsAccel, ts, WaveformGroups)
}

func magnitudeRecord(step time.Duration) recordFunc {
	return func(out *Records, rec []byte, ts time.Time, period int) {
		standardRecord(out, rec, ts, period)
		out.Magnitude = appendMagnitude(out.Magnitude, rec, ts, waveformLimit(period), step)
	}
}
