package transport

import (
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
)

// port is the subset of serial.Port used by Serial.
type port interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
}

// Serial is a Transport over a serial port configured 8-N-1 without
// handshaking.
type Serial struct {
	name string

	mu     sync.Mutex
	port   port
	closed bool
}

// OpenSerial opens and configures the named serial port.
func OpenSerial(name string, cfg Config) (*Serial, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port: %w", err)
	}
	// go.bug.st/serial has no write timeout; a write is bounded only by the driver
	if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	if err := p.ResetInputBuffer(); err != nil {
		p.Close()
		return nil, fmt.Errorf("reset input buffer: %w", err)
	}
	return newSerial(name, p), nil
}

func newSerial(name string, p port) *Serial {
	return &Serial{name: name, port: p}
}

// Name returns the port name.
func (s *Serial) Name() string {
	return s.name
}

// Read reads available bytes. A read that times out with no data returns ErrTimeout.
func (s *Serial) Read(p []byte) (int, error) {
	pt, err := s.current()
	if err != nil {
		return 0, err
	}
	n, err := pt.Read(p)
	if err != nil {
		return n, fmt.Errorf("serial read: %w", err)
	}
	// go.bug.st/serial reports a timeout as a zero-length read
	if n == 0 && len(p) > 0 {
		return 0, ErrTimeout
	}
	return n, nil
}

// Write sends all of p.
func (s *Serial) Write(p []byte) (int, error) {
	pt, err := s.current()
	if err != nil {
		return 0, err
	}
	n, err := pt.Write(p)
	if err != nil {
		return n, fmt.Errorf("serial write: %w", err)
	}
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// DiscardInput drops bytes waiting in the driver's receive buffer.
func (s *Serial) DiscardInput() error {
	pt, err := s.current()
	if err != nil {
		return err
	}
	return pt.ResetInputBuffer()
}

// Close closes the port. Closing twice is a no-op.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.port.Close()
}

func (s *Serial) current() (port, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.port, nil
}
