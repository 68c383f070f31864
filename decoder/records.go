package decoder

import "time"

// General is the once-per-record summary carried by every format except 0006.
type General struct {
	Timestamp time.Time

	// HeartRate in beats per minute
	HeartRate int

	// BreathingRate in breaths per minute
	BreathingRate float64

	// Temperature in degrees Celsius
	Temperature float64

	// Posture in degrees from vertical
	Posture int

	// Activity in VMU (g)
	Activity float64

	// Acceleration is the peak acceleration magnitude in g
	Acceleration float64

	// Battery voltage in volts
	Battery float64

	BreathingAmplitude float64
	ECGAmplitude       float64
	ECGNoise           float64

	// Axis minima and peaks in g
	XMin, XPeak float64
	YMin, YPeak float64
	ZMin, ZPeak float64
}

// Summary is the reduced once-per-record block of the BioRICS format.
type Summary struct {
	Timestamp     time.Time
	HeartRate     int
	BreathingRate float64
	Temperature   float64
	Battery       float64
}

// Interval is one breathing waveform sample paired with an R-R interval.
type Interval struct {
	Timestamp time.Time

	// Breathing is the raw breathing waveform value; always 0 for BioRICS logs
	Breathing int

	// RR is the R-R interval in seconds. BioRICS logs carry the beat
	// detection toggle as the sign.
	RR float64
}

// ECGSample is one 12-bit ECG waveform value.
type ECGSample struct {
	Timestamp time.Time
	Value     int
}

// AccelSample is one three-axis accelerometer sample in g.
type AccelSample struct {
	Timestamp time.Time
	X, Y, Z   float64
}

// MagnitudeSample is one accelerometer magnitude sample in g.
type MagnitudeSample struct {
	Timestamp time.Time
	G         float64
}

// Records holds every sample decoded from one session. Only the streams
// the format carries are populated.
type Records struct {
	// Format is the format version the records were decoded with
	Format string

	General   []General
	Summaries []Summary
	Intervals []Interval
	ECG       []ECGSample
	Accel     []AccelSample
	Magnitude []MagnitudeSample
}

// Len returns the total number of samples across all streams.
func (r *Records) Len() int {
	return len(r.General) + len(r.Summaries) + len(r.Intervals) +
		len(r.ECG) + len(r.Accel) + len(r.Magnitude)
}
