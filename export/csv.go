package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/moffa90/go-bioharness/decoder"
	"github.com/moffa90/go-bioharness/riff"
)

// Timestamp layouts.
const (
	// PrefixLayout names the files of one session after its start time
	PrefixLayout = "2006_01_02__15_04_05"

	// TimestampLayout formats sample timestamps
	TimestampLayout = "02/01/2006 15:04:05.000"
)

// Stream identifies one CSV file of an export.
type Stream int

const (
	// StreamGeneral holds the general block of each record
	StreamGeneral Stream = iota

	// StreamBreathingRR holds breathing waveform and R-R interval pairs
	StreamBreathingRR

	// StreamECG holds ECG waveform samples
	StreamECG

	// StreamAccel holds three-axis accelerometer samples
	StreamAccel

	// StreamMagnitude holds accelerometer magnitude samples
	StreamMagnitude

	// StreamBioRICSGeneral holds the reduced general block of BioRICS logs
	StreamBioRICSGeneral
)

var streamInfo = [...]struct {
	suffix string
	header []string
}{
	StreamGeneral: {"_General.csv", []string{"Timestamp", "HR", "BR", "Temp", "Posture", "Activity", "Acceleration",
		"Battery", "BRAmplitude", "ECGAmplitude", "ECGNoise", "XMin", "XPeak", "YMin", "YPeak", "ZMin", "ZPeak"}},
	StreamBreathingRR:    {"_BR_RR.csv", []string{"Timestamp", "BR", "RtoR"}},
	StreamECG:            {"_ECG.csv", []string{"Timestamp", "ECG"}},
	StreamAccel:          {"_ACCEL.csv", []string{"Timestamp", "Accel_x", "Accel_y", "Accel_z"}},
	StreamMagnitude:      {"_ACCELMAG.csv", []string{"Timestamp", "Accel Mag(g)"}},
	StreamBioRICSGeneral: {"_BioRICSGeneral.csv", []string{"Timestamp", "HR", "BR", "Temp", "Battery"}},
}

func (s Stream) valid() bool {
	return s >= 0 && int(s) < len(streamInfo)
}

// Suffix returns the file name suffix of the stream, or "" for an unknown stream.
func (s Stream) Suffix() string {
	if !s.valid() {
		return ""
	}
	return streamInfo[s].suffix
}

// Header returns the CSV header row of the stream, or nil for an unknown stream.
func (s Stream) Header() []string {
	if !s.valid() {
		return nil
	}
	return append([]string(nil), streamInfo[s].header...)
}

func (s Stream) String() string {
	if !s.valid() {
		return fmt.Sprintf("Stream(%d)", int(s))
	}
	return streamInfo[s].suffix
}

var formatStreams = map[string][]Stream{
	decoder.FormatStandard:     {StreamGeneral, StreamBreathingRR},
	decoder.FormatECG:          {StreamGeneral, StreamBreathingRR, StreamECG},
	decoder.FormatAccel:        {StreamGeneral, StreamAccel},
	decoder.FormatBioRICS:      {StreamBioRICSGeneral, StreamBreathingRR, StreamAccel},
	decoder.FormatMagnitude:    {StreamGeneral, StreamBreathingRR, StreamMagnitude},
	decoder.FormatMagnitude100: {StreamGeneral, StreamBreathingRR, StreamMagnitude},
}

// Streams returns the files written for a format version, or nil if the
// format is not supported.
func Streams(format string) []Stream {
	return append([]Stream(nil), formatStreams[format]...)
}

// Prefix returns the file name prefix for a session.
func Prefix(s riff.Session) string {
	return s.Timestamp.Format(PrefixLayout)
}

// WriteCSV writes one CSV file per stream of recs into dir and returns the
// paths written. A file is written with its header even when the stream
// holds no samples.
//
// Example:
//
//	recs, _ := decoder.Decode(dir.FormatVersion, s, data)
//	paths, err := export.WriteCSV("out", s, recs)
func WriteCSV(dir string, s riff.Session, recs *decoder.Records) ([]string, error) {
	streams, ok := formatStreams[recs.Format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", decoder.ErrUnsupportedFormat, recs.Format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	prefix := filepath.Join(dir, Prefix(s))
	paths := make([]string, 0, len(streams))
	for _, st := range streams {
		path := prefix + st.Suffix()
		if err := writeFile(path, st, recs); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, st Stream, recs *decoder.Records) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close %s: %w", path, cerr))
		}
	}()

	if err := WriteStream(f, st, recs); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteStream writes the header and rows of one stream to w.
func WriteStream(w io.Writer, st Stream, recs *decoder.Records) error {
	if !st.valid() {
		return fmt.Errorf("unknown stream %d", int(st))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(st.Header()); err != nil {
		return err
	}

	write := func(row ...string) {
		_ = cw.Write(row)
	}
	switch st {
	case StreamGeneral:
		for _, g := range recs.General {
			write(ts(g.Timestamp), itoa(g.HeartRate), fixed(g.BreathingRate, 1), fixed(g.Temperature, 1),
				itoa(g.Posture), fixed(g.Activity, 2), fixed(g.Acceleration, 2), fixed(g.Battery, 3),
				fixed(g.BreathingAmplitude, 3), fixed(g.ECGAmplitude, 6), fixed(g.ECGNoise, 6),
				fixed(g.XMin, 2), fixed(g.XPeak, 2), fixed(g.YMin, 2), fixed(g.YPeak, 2),
				fixed(g.ZMin, 2), fixed(g.ZPeak, 2))
		}
	case StreamBreathingRR:
		for _, iv := range recs.Intervals {
			write(ts(iv.Timestamp), itoa(iv.Breathing), short(iv.RR))
		}
	case StreamECG:
		for _, e := range recs.ECG {
			write(ts(e.Timestamp), itoa(e.Value))
		}
	case StreamAccel:
		for _, a := range recs.Accel {
			write(ts(a.Timestamp), short(a.X), short(a.Y), short(a.Z))
		}
	case StreamMagnitude:
		for _, m := range recs.Magnitude {
			write(ts(m.Timestamp), short(m.G))
		}
	case StreamBioRICSGeneral:
		for _, s := range recs.Summaries {
			write(ts(s.Timestamp), itoa(s.HeartRate), fixed(s.BreathingRate, 1),
				fixed(s.Temperature, 1), fixed(s.Battery, 3))
		}
	}

	cw.Flush()
	return cw.Error()
}

func ts(t time.Time) string {
	return t.Format(TimestampLayout)
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

func fixed(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// short formats v with the fewest digits that round-trip.
func short(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
