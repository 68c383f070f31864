package decoder

import "time"

// Layout of a sample record. Offsets are relative to the start of the record.
const (
	// GeneralSize is the size of the general block at the start of a record
	GeneralSize = 36

	// IntervalsPerRecord is the number of breathing/R-R pairs in a record
	IntervalsPerRecord = 18

	// Sentinel marks a missing breathing or R-R value
	Sentinel = 32767

	// WaveformGroups is the number of ECG byte triples, accelerometer
	// samples or magnitude samples a record can hold
	WaveformGroups = 126

	// ZeroG is the raw accelerometer reading at 0 g
	ZeroG = 512

	// CountsPerG converts raw accelerometer counts to g
	CountsPerG = 19.456

	breathingBase   = 36
	rrBase          = 72
	ecgBase         = 128
	accelBase       = 36
	magnitudeBase   = 128
	bioricsRRBase   = 8
	bioricsAccel    = 38
	accelSampleBits = 30
	accelAxisBits   = 10
	bioricsRRBits   = 13
)

// Sub-record sample spacing.
const (
	IntervalStep     = 56 * time.Millisecond
	ECGStep          = 4 * time.Millisecond
	AccelStep        = 8 * time.Millisecond
	MagnitudeStep    = 8 * time.Millisecond
	Magnitude100Step = 10 * time.Millisecond
)

// waveformLimit returns how many 8 ms waveform groups a record period covers.
func waveformLimit(period int) int {
	n := period / 8
	if n > WaveformGroups {
		n = WaveformGroups
	}
	if n < 0 {
		n = 0
	}
	return n
}

func decodeGeneral(rec []byte, ts time.Time) (General, bool) {
	if len(rec) < GeneralSize {
		return General{}, false
	}
	return General{
		Timestamp:          ts,
		HeartRate:          int16At(rec, 0),
		BreathingRate:      float64(int16At(rec, 2)) / 10,
		Temperature:        float64(int16At(rec, 4)) / 10,
		Posture:            int16At(rec, 6),
		Activity:           float64(int16At(rec, 8)) / 100,
		Acceleration:       float64(int16At(rec, 10)) / 100,
		Battery:            float64(int16At(rec, 12)) / 1000,
		BreathingAmplitude: float64(int16At(rec, 14)) / 1000,
		ECGAmplitude:       float64(int16At(rec, 18)) / 1e6,
		ECGNoise:           float64(int16At(rec, 20)) / 1e6,
		XMin:               float64(int16At(rec, 24)) / 100,
		XPeak:              float64(int16At(rec, 26)) / 100,
		YMin:               float64(int16At(rec, 28)) / 100,
		YPeak:              float64(int16At(rec, 30)) / 100,
		ZMin:               float64(int16At(rec, 32)) / 100,
		ZPeak:              float64(int16At(rec, 34)) / 100,
	}, true
}

func decodeSummary(rec []byte, ts time.Time) (Summary, bool) {
	if len(rec) < bioricsRRBase {
		return Summary{}, false
	}
	return Summary{
		Timestamp:     ts,
		HeartRate:     int16At(rec, 0),
		BreathingRate: float64(int16At(rec, 2)) / 10,
		Temperature:   float64(int16At(rec, 4)) / 10,
		Battery:       float64(int16At(rec, 6)) / 1000,
	}, true
}

// appendIntervals decodes the breathing/R-R block. A pair holding the
// sentinel in either field is skipped and does not advance the timestamp.
func appendIntervals(out []Interval, rec []byte, ts time.Time) []Interval {
	for k := 0; k < IntervalsPerRecord; k++ {
		br, rr := breathingBase+2*k, rrBase+2*k
		if rr+2 > len(rec) {
			break
		}
		breathing, interval := int16At(rec, br), int16At(rec, rr)
		if breathing == Sentinel || interval == Sentinel {
			continue
		}
		out = append(out, Interval{Timestamp: ts, Breathing: breathing, RR: float64(interval) / 1000})
		ts = ts.Add(IntervalStep)
	}
	return out
}

// appendBioRICSIntervals decodes the 18 packed 13-bit R-R values. Every
// third value is followed by one filler bit. The low 12 bits count 4 ms
// units; bit 12 is the beat detection toggle, reported as the sign.
func appendBioRICSIntervals(out []Interval, rec []byte, ts time.Time) []Interval {
	if len(rec) < bioricsRRBase {
		return out
	}
	block := rec[bioricsRRBase:]
	for i := 0; i < IntervalsPerRecord; i++ {
		v, ok := Field(block, bioricsRRBits*i+i/3, bioricsRRBits)
		if !ok {
			break
		}
		rr := float64(v&0x0FFF) * 4 / 1000
		if v&0x1000 != 0 {
			rr = -rr
		}
		out = append(out, Interval{Timestamp: ts, RR: rr})
		ts = ts.Add(IntervalStep)
	}
	return out
}

// appendECG decodes up to n triples of bytes, each holding two 12-bit samples.
func appendECG(out []ECGSample, rec []byte, ts time.Time, n int) []ECGSample {
	for g := 0; g < n; g++ {
		o := ecgBase + 3*g
		if o+3 > len(rec) {
			break
		}
		b0, b1, b2 := int(rec[o]), int(rec[o+1]), int(rec[o+2])
		out = append(out,
			ECGSample{Timestamp: ts, Value: b0 | (b1&0x0F)<<8},
			ECGSample{Timestamp: ts.Add(ECGStep), Value: (b1&0xF0)>>4 | b2<<4},
		)
		ts = ts.Add(2 * ECGStep)
	}
	return out
}

// appendAccel decodes up to n samples of three 10-bit axes packed back to
// back from base.
func appendAccel(out []AccelSample, rec []byte, base int, ts time.Time, n int) []AccelSample {
	if base > len(rec) {
		return out
	}
	block := rec[base:]
	for i := 0; i < n; i++ {
		var axes [3]float64
		for ch := range axes {
			raw, ok := Field(block, accelSampleBits*i+accelAxisBits*ch, accelAxisBits)
			if !ok {
				return out
			}
			axes[ch] = (float64(raw) - ZeroG) / CountsPerG
		}
		out = append(out, AccelSample{Timestamp: ts, X: axes[0], Y: axes[1], Z: axes[2]})
		ts = ts.Add(AccelStep)
	}
	return out
}

// appendMagnitude decodes up to n one-byte magnitude samples in tenths of g.
func appendMagnitude(out []MagnitudeSample, rec []byte, ts time.Time, n int, step time.Duration) []MagnitudeSample {
	for i := 0; i < n; i++ {
		o := magnitudeBase + i
		if o >= len(rec) {
			break
		}
		out = append(out, MagnitudeSample{Timestamp: ts, G: float64(rec[o]) / 10})
		ts = ts.Add(step)
	}
	return out
}
