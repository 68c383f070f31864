package downloader

import "time"

// Progress phases.
const (
	// PhaseScanning is reported while the session directory is read
	PhaseScanning = "scanning"

	// PhaseDownloading is reported after each frame of session data
	PhaseDownloading = "downloading"

	// PhaseComplete is reported once when an operation succeeds
	PhaseComplete = "complete"
)

// Progress contains information about the download progress.
// Passed to ProgressCallback during downloads.
type Progress struct {
	// Phase describes the current operation phase:
	//   "scanning"    - Reading the session directory
	//   "downloading" - Reading session data frames
	//   "complete"    - Operation completed successfully
	Phase string

	// Frame is the number of frames read so far
	Frame int

	// TotalFrames is the number of frames in the read
	TotalFrames int

	// BytesRead is the number of payload bytes read so far
	BytesRead int

	// TotalBytes is the number of bytes requested
	TotalBytes int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time elapsed since the operation started
	ElapsedTime time.Duration
}

// ProgressCallback is called after each frame to report progress.
// Implementations should return quickly to avoid stalling the device link.
//
// Example:
//
//	d := downloader.New(
//	    downloader.WithProgressCallback(func(p downloader.Progress) {
//	        fmt.Printf("[%s] %.1f%% - frame %d/%d\n",
//	            p.Phase, p.Percentage, p.Frame, p.TotalFrames)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the downloader.
// This allows integration with any logging framework; see the logging package
// for a zerolog adapter.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	d := downloader.New(downloader.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
