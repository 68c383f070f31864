package simulator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/moffa90/go-bioharness/protocol"
	"github.com/moffa90/go-bioharness/transport"
)

// Fault is a corruption applied to one response.
type Fault int

const (
	// FaultNone sends a correct response
	FaultNone Fault = iota

	// FaultCRC flips the payload checksum
	FaultCRC

	// FaultSTX replaces the start of text marker
	FaultSTX

	// FaultMsgID replaces the echoed message ID
	FaultMsgID

	// FaultCount replaces the echoed byte count
	FaultCount

	// FaultACK replaces the acknowledge byte with garbage
	FaultACK

	// FaultNAK refuses the request
	FaultNAK

	// FaultDrop sends nothing, so the host times out
	FaultDrop

	// FaultNoise appends stray bytes after a correct response
	FaultNoise

	// FaultReadError makes the next Read fail as if the device were unplugged
	FaultReadError
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultCRC:
		return "crc"
	case FaultSTX:
		return "stx"
	case FaultMsgID:
		return "msgid"
	case FaultCount:
		return "count"
	case FaultACK:
		return "ack"
	case FaultNAK:
		return "nak"
	case FaultDrop:
		return "drop"
	case FaultNoise:
		return "noise"
	case FaultReadError:
		return "read-error"
	default:
		return fmt.Sprintf("fault(%d)", int(f))
	}
}

// ErrUnplugged is returned by Read after FaultReadError.
var ErrUnplugged = errors.New("simulator: device unplugged")

type faultRule struct {
	fault     Fault
	offset    uint32
	anyOffset bool
	remaining int
}

// Device is an in-memory BioHarness answering GET_LOG requests from a
// storage image. It is safe for use by one connection at a time; stats and
// fault rules may be changed concurrently.
type Device struct {
	mu       sync.Mutex
	id       string
	storage  []byte
	rules    []*faultRule
	requests int
	opens    int
	discards int
	open     bool
}

// NewDevice returns a device with the given identifier and storage.
func NewDevice(id string, storage []byte) *Device {
	return &Device{id: id, storage: storage}
}

// ID returns the device identifier.
func (d *Device) ID() string {
	return d.id
}

// Inject applies f to the next n responses.
func (d *Device) Inject(f Fault, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rules = append(d.rules, &faultRule{fault: f, anyOffset: true, remaining: n})
}

// InjectAt applies f to the next n responses for requests at offset.
func (d *Device) InjectAt(offset uint32, f Fault, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rules = append(d.rules, &faultRule{fault: f, offset: offset, remaining: n})
}

// Requests returns the number of valid requests received.
func (d *Device) Requests() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requests
}

// Opens returns how many connections have been opened.
func (d *Device) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// Discards returns how many times a connection discarded its input.
func (d *Device) Discards() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.discards
}

// Connect opens a connection to the device. Only one connection may be
// open at a time.
func (d *Device) Connect() (*Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open {
		return nil, fmt.Errorf("simulator: device %q already open", d.id)
	}
	d.open = true
	d.opens++
	return &Conn{dev: d}, nil
}

// Opener returns a transport.Opener resolving identifiers against the
// given devices.
func Opener(devices ...*Device) transport.Opener {
	return func(ctx context.Context, id string) (transport.Transport, error) {
		for _, d := range devices {
			if d.id == id {
				c, err := d.Connect()
				if err != nil {
					return nil, &transport.ConnectionError{ID: id, Kind: transport.KindOf(id), Err: err}
				}
				return c, nil
			}
		}
		return nil, &transport.ConnectionError{ID: id, Kind: transport.KindOf(id), Err: transport.ErrNotFound}
	}
}

// nextFault consumes and returns the fault for a request at offset.
func (d *Device) nextFault(offset uint32) Fault {
	for i, r := range d.rules {
		if !r.anyOffset && r.offset != offset {
			continue
		}
		r.remaining--
		if r.remaining <= 0 {
			d.rules = append(d.rules[:i], d.rules[i+1:]...)
		}
		return r.fault
	}
	return FaultNone
}

// respond builds the response bytes for one request frame.
func (d *Device) respond(frame []byte) ([]byte, Fault) {
	req, err := protocol.ParseRequest(frame)
	if err != nil {
		// a device ignores malformed requests
		return nil, FaultDrop
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests++

	end := uint64(req.Offset) + uint64(req.Count)
	if req.MsgID != protocol.MsgGetLog || end > uint64(len(d.storage)) {
		return protocol.BuildNAKResponse(req.Count), FaultNAK
	}

	fault := d.nextFault(req.Offset)
	switch fault {
	case FaultNAK:
		return protocol.BuildNAKResponse(req.Count), fault
	case FaultDrop, FaultReadError:
		return nil, fault
	}

	resp, err := protocol.BuildResponse(d.storage[req.Offset:end])
	if err != nil {
		return nil, FaultDrop
	}
	last := len(resp) - 1
	switch fault {
	case FaultCRC:
		resp[last-1] ^= 0xFF
	case FaultSTX:
		resp[0] = 0x7E
	case FaultMsgID:
		resp[1] = 0x7F
	case FaultCount:
		resp[2]++
	case FaultACK:
		resp[last] = 0x00
	case FaultNoise:
		resp = append(resp, 0xDE, 0xAD, 0xBE, 0xEF)
	}
	return resp, fault
}

// Conn is one open connection to a Device. It implements transport.Transport.
// Reads never block: an empty receive buffer reports transport.ErrTimeout at once.
type Conn struct {
	dev *Device

	mu      sync.Mutex
	pending []byte
	rx      []byte
	failErr error
	closed  bool
}

// Write accepts request bytes; each complete request queues a response.
func (c *Conn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, transport.ErrClosed
	}

	c.pending = append(c.pending, p...)
	for len(c.pending) >= protocol.RequestSize {
		frame := c.pending[:protocol.RequestSize]
		c.pending = c.pending[protocol.RequestSize:]

		resp, fault := c.dev.respond(frame)
		if fault == FaultReadError {
			c.failErr = ErrUnplugged
		}
		c.rx = append(c.rx, resp...)
	}
	return len(p), nil
}

// Read returns queued response bytes.
func (c *Conn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, transport.ErrClosed
	}
	if c.failErr != nil {
		err := c.failErr
		c.failErr = nil
		return 0, err
	}
	if len(c.rx) == 0 {
		return 0, transport.ErrTimeout
	}
	n := copy(p, c.rx)
	c.rx = c.rx[n:]
	return n, nil
}

// DiscardInput drops queued response bytes.
func (c *Conn) DiscardInput() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return transport.ErrClosed
	}
	c.rx = nil

	c.dev.mu.Lock()
	c.dev.discards++
	c.dev.mu.Unlock()
	return nil
}

// Close closes the connection. Closing twice is a no-op.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	c.dev.mu.Lock()
	c.dev.open = false
	c.dev.mu.Unlock()
	return nil
}
