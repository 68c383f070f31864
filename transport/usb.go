package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/gousb"
)

// ZephyrVendorID is the USB vendor ID of BioHarness devices.
const ZephyrVendorID = 0x22F3

// pumpBufferSize is the size of one bulk IN transfer.
const pumpBufferSize = 512

type inPipe interface {
	ReadContext(ctx context.Context, buf []byte) (int, error)
}

type outPipe interface {
	WriteContext(ctx context.Context, buf []byte) (int, error)
}

// USB is a Transport over a pair of bulk endpoints.
//
// A pump goroutine keeps a bulk IN transfer outstanding and appends what
// arrives to a receive queue. Read drains the queue and waits at most
// USBTimeout for data when it is empty.
type USB struct {
	serialNumber string
	in           inPipe
	out          outPipe
	release      func() error
	timeout      time.Duration

	mu      sync.Mutex
	queue   []byte
	pumpErr error
	closed  bool
	notify  chan struct{}

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// OpenUSB finds the device with the given serial number and claims its bulk
// pipes. If the device is not present it waits OpenRetryDelay and tries
// once more, covering re-enumeration after a device reset.
func OpenUSB(ctx context.Context, serialNumber string, cfg Config) (*USB, error) {
	var u *USB
	op := func() error {
		var err error
		u, err = openUSBOnce(serialNumber, cfg)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(cfg.OpenRetryDelay), 1), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}

	u.drainBanner(ctx, cfg.BannerWait, cfg.BannerMax)
	return u, nil
}

func openUSBOnce(serialNumber string, cfg Config) (*USB, error) {
	usbCtx := gousb.NewContext()

	devs, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return uint16(desc.Vendor) == cfg.VendorID
	})
	var dev *gousb.Device
	for _, d := range devs {
		if dev == nil {
			if sn, snErr := d.SerialNumber(); snErr == nil && sn == serialNumber {
				dev = d
				continue
			}
		}
		d.Close()
	}
	if dev == nil {
		usbCtx.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
		}
		return nil, fmt.Errorf("%w: serial number %q (VID=0x%04X)", ErrNotFound, serialNumber, cfg.VendorID)
	}

	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("failed to enable kernel driver auto-detach: %w", err)
	}

	intf, done, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("failed to claim default interface: %w", err)
	}

	release := func() error {
		done()
		dev.Close()
		return usbCtx.Close()
	}

	inNum, outNum := -1, -1
	for _, ep := range intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		if ep.Direction == gousb.EndpointDirectionIn {
			if inNum < 0 {
				inNum = ep.Number
			}
		} else if outNum < 0 {
			outNum = ep.Number
		}
	}
	if inNum < 0 || outNum < 0 {
		release()
		return nil, fmt.Errorf("device %q has no bulk IN/OUT endpoint pair", serialNumber)
	}

	in, err := intf.InEndpoint(inNum)
	if err != nil {
		release()
		return nil, fmt.Errorf("failed to open bulk in endpoint: %w", err)
	}
	out, err := intf.OutEndpoint(outNum)
	if err != nil {
		release()
		return nil, fmt.Errorf("failed to open bulk out endpoint: %w", err)
	}

	return newUSB(serialNumber, in, out, release, cfg.USBTimeout), nil
}

func newUSB(serialNumber string, in inPipe, out outPipe, release func() error, timeout time.Duration) *USB {
	ctx, cancel := context.WithCancel(context.Background())
	u := &USB{
		serialNumber: serialNumber,
		in:           in,
		out:          out,
		release:      release,
		timeout:      timeout,
		notify:       make(chan struct{}, 1),
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	go u.pump(ctx)
	return u
}

// SerialNumber returns the device serial number.
func (u *USB) SerialNumber() string {
	return u.serialNumber
}

func (u *USB) pump(ctx context.Context) {
	defer close(u.done)
	buf := make([]byte, pumpBufferSize)
	for {
		n, err := u.in.ReadContext(ctx, buf)
		if n > 0 {
			u.mu.Lock()
			u.queue = append(u.queue, buf[:n]...)
			u.mu.Unlock()
			u.signal()
		}
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			u.mu.Lock()
			u.pumpErr = err
			u.mu.Unlock()
			u.signal()
			return
		}
	}
}

func (u *USB) signal() {
	select {
	case u.notify <- struct{}{}:
	default:
	}
}

// Read copies queued bytes into p, waiting up to the USB timeout for the
// first byte.
func (u *USB) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	timer := time.NewTimer(u.timeout)
	defer timer.Stop()

	for {
		u.mu.Lock()
		if u.closed {
			u.mu.Unlock()
			return 0, ErrClosed
		}
		if len(u.queue) > 0 {
			n := copy(p, u.queue)
			u.queue = u.queue[n:]
			u.mu.Unlock()
			return n, nil
		}
		if err := u.pumpErr; err != nil {
			u.mu.Unlock()
			return 0, fmt.Errorf("usb read: %w", err)
		}
		u.mu.Unlock()

		select {
		case <-u.notify:
		case <-u.done:
			// pump exited; loop once more to report its error or ErrClosed
			u.mu.Lock()
			if u.pumpErr == nil && !u.closed {
				u.pumpErr = io.EOF
			}
			u.mu.Unlock()
		case <-timer.C:
			return 0, ErrTimeout
		}
	}
}

// Write sends p on the bulk OUT pipe.
func (u *USB) Write(p []byte) (int, error) {
	u.mu.Lock()
	closed := u.closed
	u.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), u.timeout)
	defer cancel()
	n, err := u.out.WriteContext(ctx, p)
	if err != nil {
		return n, fmt.Errorf("usb write: %w", err)
	}
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// DiscardInput empties the receive queue.
func (u *USB) DiscardInput() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return ErrClosed
	}
	u.queue = u.queue[:0]
	return nil
}

// drainBanner waits for a device startup message and discards up to max
// bytes of it.
func (u *USB) drainBanner(ctx context.Context, wait time.Duration, max int) {
	select {
	case <-time.After(wait):
	case <-ctx.Done():
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	n := len(u.queue)
	if n > max {
		n = max
	}
	u.queue = u.queue[n:]
}

// Close stops the pump and releases the device. Closing twice is a no-op.
func (u *USB) Close() error {
	u.closeOnce.Do(func() {
		u.mu.Lock()
		u.closed = true
		u.mu.Unlock()
		u.cancel()
		<-u.done
		if u.release != nil {
			u.closeErr = u.release()
		}
		u.signal()
	})
	return u.closeErr
}
