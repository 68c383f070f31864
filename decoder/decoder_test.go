package decoder

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-bioharness/riff"
)

var t0 = time.Date(2024, time.March, 14, 9, 26, 53, 589*int(time.Millisecond), time.UTC)

func put16(b []byte, off, v int) {
	binary.LittleEndian.PutUint16(b[off:], uint16(int16(v)))
}

func session(channels, period, records int) riff.Session {
	return riff.Session{
		Timestamp: t0,
		Period:    period,
		Channels:  channels,
		Length:    channels * 2 * records,
	}
}

// generalRecord returns a record with a known general block.
func generalRecord(stride int) []byte {
	rec := make([]byte, stride)
	put16(rec, 0, 72)
	put16(rec, 2, 155)
	put16(rec, 4, 368)
	put16(rec, 6, -12)
	put16(rec, 8, 25)
	put16(rec, 10, 110)
	put16(rec, 12, 4012)
	put16(rec, 14, 1500)
	put16(rec, 18, 2500)
	put16(rec, 20, 300)
	put16(rec, 24, -150)
	put16(rec, 26, 200)
	put16(rec, 28, -75)
	put16(rec, 30, 80)
	put16(rec, 32, -99)
	put16(rec, 34, 101)
	return rec
}

// withIntervals fills the breathing/R-R block; pair 3 has a missing
// breathing value and pair 7 a missing R-R interval.
func withIntervals(rec []byte) []byte {
	for k := 0; k < IntervalsPerRecord; k++ {
		put16(rec, 36+2*k, 10*k)
		put16(rec, 72+2*k, 800+k)
	}
	put16(rec, 36+2*3, Sentinel)
	put16(rec, 72+2*7, Sentinel)
	return rec
}

func records(recs ...[]byte) []byte {
	var out []byte
	for _, r := range recs {
		out = append(out, r...)
	}
	return out
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"0003", "Standard Log"},
		{"0004", "ECG Log"},
		{"0005", "Accelerometer Log"},
		{"0006", "BioRICS custom Log"},
		{"0007", "Accelerometer Magnitude Log"},
		{"0008", "Accelerometer Magnitude Log (100Hz)"},
		{"0042", "Unsupported - 0042"},
		{"", "Unsupported - "},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.format))
		})
	}
}

func TestFor(t *testing.T) {
	assert.Equal(t, []string{"0003", "0004", "0005", "0006", "0007", "0008"}, Formats())

	for _, f := range Formats() {
		d, err := For(f)
		require.NoError(t, err)
		assert.Equal(t, f, d.Format)
	}

	_, err := For("0009")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	recs, err := Decode("0009", session(64, 1008, 1), make([]byte, 128))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Nil(t, recs)
}

func TestDecodeStandard(t *testing.T) {
	second := withIntervals(generalRecord(128))
	put16(second, 0, 90)
	raw := records(withIntervals(generalRecord(128)), second)

	recs, err := Decode(FormatStandard, session(64, 1008, 2), raw)
	require.NoError(t, err)
	assert.Equal(t, FormatStandard, recs.Format)

	require.Len(t, recs.General, 2)
	g := recs.General[0]
	assert.Equal(t, t0, g.Timestamp)
	assert.Equal(t, 72, g.HeartRate)
	assert.InDelta(t, 15.5, g.BreathingRate, 1e-9)
	assert.InDelta(t, 36.8, g.Temperature, 1e-9)
	assert.Equal(t, -12, g.Posture)
	assert.InDelta(t, 0.25, g.Activity, 1e-9)
	assert.InDelta(t, 1.10, g.Acceleration, 1e-9)
	assert.InDelta(t, 4.012, g.Battery, 1e-9)
	assert.InDelta(t, 1.5, g.BreathingAmplitude, 1e-9)
	assert.InDelta(t, 0.0025, g.ECGAmplitude, 1e-12)
	assert.InDelta(t, 0.0003, g.ECGNoise, 1e-12)
	assert.InDelta(t, -1.5, g.XMin, 1e-9)
	assert.InDelta(t, 2.0, g.XPeak, 1e-9)
	assert.InDelta(t, -0.75, g.YMin, 1e-9)
	assert.InDelta(t, 0.8, g.YPeak, 1e-9)
	assert.InDelta(t, -0.99, g.ZMin, 1e-9)
	assert.InDelta(t, 1.01, g.ZPeak, 1e-9)

	assert.Equal(t, 90, recs.General[1].HeartRate)
	assert.Equal(t, t0.Add(1008*time.Millisecond), recs.General[1].Timestamp)

	// two pairs per record carry the sentinel
	require.Len(t, recs.Intervals, 2*(IntervalsPerRecord-2))
	first := recs.Intervals[:IntervalsPerRecord-2]
	assert.Equal(t, 0, first[0].Breathing)
	assert.InDelta(t, 0.800, first[0].RR, 1e-9)
	assert.Equal(t, 40, first[3].Breathing, "pair 3 is skipped")
	assert.Equal(t, t0.Add(3*IntervalStep), first[3].Timestamp)
	assert.Equal(t, 80, first[6].Breathing, "pair 7 is skipped")
	assert.Equal(t, t0.Add(15*IntervalStep), first[15].Timestamp)

	// sub-timestamps restart at each record
	assert.Equal(t, t0.Add(1008*time.Millisecond), recs.Intervals[IntervalsPerRecord-2].Timestamp)

	assert.Empty(t, recs.ECG)
	assert.Empty(t, recs.Accel)
	assert.Empty(t, recs.Magnitude)
	assert.Empty(t, recs.Summaries)
}

func TestDecodeWholeRecordsOnly(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		raw      []byte
		want     int
	}{
		{"trailing partial record", 64, make([]byte, 2*128+10), 2},
		{"shorter than one record", 64, make([]byte, 100), 0},
		{"empty", 64, nil, 0},
		{"zero channels", 0, make([]byte, 256), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := session(tt.channels, 1008, 0)
			recs, err := Decode(FormatStandard, s, tt.raw)
			require.NoError(t, err)
			assert.Len(t, recs.General, tt.want)
		})
	}
}

func TestDecodeRecordTooShortForBlocks(t *testing.T) {
	// a 16-byte record holds no complete general block
	recs, err := Decode(FormatECG, session(8, 1008, 3), make([]byte, 48))
	require.NoError(t, err)
	assert.Equal(t, 0, recs.Len())
}

func ecgRecordBytes() []byte {
	rec := withIntervals(generalRecord(506))
	for g := 0; g < WaveformGroups; g++ {
		rec[128+3*g] = 0xAB
		rec[128+3*g+1] = 0xCD
		rec[128+3*g+2] = 0xEF
	}
	return rec
}

func TestDecodeECG(t *testing.T) {
	t.Run("full period", func(t *testing.T) {
		recs, err := Decode(FormatECG, session(253, 1008, 1), ecgRecordBytes())
		require.NoError(t, err)

		assert.Len(t, recs.General, 1)
		assert.Len(t, recs.Intervals, IntervalsPerRecord-2)
		require.Len(t, recs.ECG, 2*WaveformGroups)
		assert.Equal(t, 0xDAB, recs.ECG[0].Value)
		assert.Equal(t, 0xEFC, recs.ECG[1].Value)
		assert.Equal(t, t0, recs.ECG[0].Timestamp)
		assert.Equal(t, t0.Add(ECGStep), recs.ECG[1].Timestamp)
		assert.Equal(t, t0.Add(2*ECGStep), recs.ECG[2].Timestamp)
		assert.Equal(t, t0.Add(251*ECGStep), recs.ECG[251].Timestamp)
	})

	t.Run("short period truncates", func(t *testing.T) {
		recs, err := Decode(FormatECG, session(253, 400, 1), ecgRecordBytes())
		require.NoError(t, err)
		assert.Len(t, recs.ECG, 100)
	})

	t.Run("record without waveform room", func(t *testing.T) {
		raw := withIntervals(generalRecord(128))
		recs, err := Decode(FormatECG, session(64, 1008, 1), raw)
		require.NoError(t, err)
		assert.Len(t, recs.General, 1)
		assert.Empty(t, recs.ECG)
	})
}

func accelRecordBytes(stride, base int) []byte {
	rec := generalRecord(stride)
	block := rec[base:]
	for i := 0; i < WaveformGroups; i++ {
		putBits(block, 30*i, 10, 512)
		putBits(block, 30*i+10, 10, 1023)
		putBits(block, 30*i+20, 10, uint32(i))
	}
	return rec
}

func TestDecodeAccel(t *testing.T) {
	recs, err := Decode(FormatAccel, session(255, 1008, 1), accelRecordBytes(510, 36))
	require.NoError(t, err)

	assert.Len(t, recs.General, 1)
	assert.Empty(t, recs.Intervals)
	require.Len(t, recs.Accel, WaveformGroups)

	a := recs.Accel[0]
	assert.InDelta(t, 0, a.X, 1e-9)
	assert.InDelta(t, 511/19.456, a.Y, 1e-9)
	assert.InDelta(t, -512/19.456, a.Z, 1e-9)
	assert.InDelta(t, (125-512)/19.456, recs.Accel[125].Z, 1e-9)
	assert.Equal(t, t0.Add(125*AccelStep), recs.Accel[125].Timestamp)

	recs, err = Decode(FormatAccel, session(255, 40, 1), accelRecordBytes(510, 36))
	require.NoError(t, err)
	assert.Len(t, recs.Accel, 5)
}

func TestDecodeMagnitude(t *testing.T) {
	rec := withIntervals(generalRecord(254))
	for i := 0; i < WaveformGroups; i++ {
		rec[128+i] = byte(i)
	}
	rec[128] = 25

	tests := []struct {
		format string
		period int
		step   time.Duration
		want   int
	}{
		{FormatMagnitude, 1008, 8 * time.Millisecond, 126},
		{FormatMagnitude100, 1008, 10 * time.Millisecond, 126},
		{FormatMagnitude, 80, 8 * time.Millisecond, 10},
	}

	for _, tt := range tests {
		t.Run(Describe(tt.format), func(t *testing.T) {
			recs, err := Decode(tt.format, session(127, tt.period, 1), rec)
			require.NoError(t, err)

			assert.Len(t, recs.General, 1)
			assert.Len(t, recs.Intervals, IntervalsPerRecord-2)
			require.Len(t, recs.Magnitude, tt.want)
			assert.InDelta(t, 2.5, recs.Magnitude[0].G, 1e-9)
			assert.InDelta(t, 0.1, recs.Magnitude[1].G, 1e-9)
			assert.Equal(t, t0.Add(tt.step), recs.Magnitude[1].Timestamp)
		})
	}
}

func TestDecodeBioRICS(t *testing.T) {
	rec := accelRecordBytes(512, 38)
	// the BioRICS summary overlaps the general block layout
	put16(rec, 0, 60)
	put16(rec, 2, 120)
	put16(rec, 4, 370)
	put16(rec, 6, 3900)
	for i := 8; i < 38; i++ {
		rec[i] = 0
	}
	rr := rec[8:38]
	putBits(rr, 0, 13, 250)
	putBits(rr, 13, 13, 0x1000|125)
	putBits(rr, 26, 13, 0x0FFF)
	putBits(rr, 39, 1, 1) // filler
	putBits(rr, 40, 13, 1)

	// a short period does not truncate BioRICS accelerometer data
	recs, err := Decode(FormatBioRICS, session(256, 40, 1), rec)
	require.NoError(t, err)

	assert.Empty(t, recs.General)
	require.Len(t, recs.Summaries, 1)
	s := recs.Summaries[0]
	assert.Equal(t, 60, s.HeartRate)
	assert.InDelta(t, 12.0, s.BreathingRate, 1e-9)
	assert.InDelta(t, 37.0, s.Temperature, 1e-9)
	assert.InDelta(t, 3.9, s.Battery, 1e-9)

	require.Len(t, recs.Intervals, IntervalsPerRecord)
	assert.InDelta(t, 1.0, recs.Intervals[0].RR, 1e-9)
	assert.InDelta(t, -0.5, recs.Intervals[1].RR, 1e-9)
	assert.InDelta(t, 16.38, recs.Intervals[2].RR, 1e-9)
	assert.InDelta(t, 0.004, recs.Intervals[3].RR, 1e-9)
	assert.Equal(t, 0.0, recs.Intervals[4].RR)
	for _, iv := range recs.Intervals {
		assert.Equal(t, 0, iv.Breathing)
	}
	assert.Equal(t, t0.Add(17*IntervalStep), recs.Intervals[17].Timestamp)

	require.Len(t, recs.Accel, WaveformGroups)
	assert.InDelta(t, 0, recs.Accel[0].X, 1e-9)
	assert.InDelta(t, 511/19.456, recs.Accel[0].Y, 1e-9)
}

func TestRecordsLen(t *testing.T) {
	r := &Records{
		General:   make([]General, 2),
		Intervals: make([]Interval, 3),
		ECG:       make([]ECGSample, 4),
	}
	assert.Equal(t, 9, r.Len())
}

func BenchmarkDecodeECG(b *testing.B) {
	rec := ecgRecordBytes()
	raw := make([]byte, 0, len(rec)*100)
	for i := 0; i < 100; i++ {
		raw = append(raw, rec...)
	}
	s := session(253, 1008, 100)
	d, err := For(FormatECG)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = d.Decode(s, raw)
	}
}
