package transport

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		id   string
		want Kind
	}{
		{"COM7", KindSerial},
		{"com12", KindSerial},
		{"CNCA0", KindSerial},
		{"/dev/ttyUSB0", KindSerial},
		{"/dev/cu.usbmodem1101", KindSerial},
		{"BHT012345", KindUSB},
		{"9C1234ABCD", KindUSB},
		{"", KindUSB},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.id))
		})
	}
}

func TestConnectionError(t *testing.T) {
	err := &ConnectionError{ID: "COM3", Kind: KindSerial, Err: ErrNotFound}
	assert.Contains(t, err.Error(), `serial device "COM3"`)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsConnectionError(err))
	assert.False(t, IsConnectionError(ErrNotFound))
}

func TestDefaultConfigAndOptions(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 115200, cfg.BaudRate)
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 2*time.Second, cfg.USBTimeout)
	assert.Equal(t, uint16(ZephyrVendorID), cfg.VendorID)
	assert.Equal(t, 128, cfg.BannerMax)

	for _, opt := range []Option{
		WithBaudRate(9600),
		WithReadTimeout(time.Second),
		WithUSBTimeout(3 * time.Second),
		WithVendorID(0x1234),
		WithOpenRetryDelay(time.Millisecond),
		WithBanner(0, 64),
	} {
		opt(&cfg)
	}
	assert.Equal(t, 9600, cfg.BaudRate)
	assert.Equal(t, time.Second, cfg.ReadTimeout)
	assert.Equal(t, 3*time.Second, cfg.USBTimeout)
	assert.Equal(t, uint16(0x1234), cfg.VendorID)
	assert.Equal(t, time.Millisecond, cfg.OpenRetryDelay)
	assert.Equal(t, time.Duration(0), cfg.BannerWait)
	assert.Equal(t, 64, cfg.BannerMax)
}

// fakePort is an in-memory serial port.
type fakePort struct {
	mu        sync.Mutex
	rx        []byte
	tx        []byte
	shortBy   int
	resets    int
	closes    int
	readError error
}

func (f *fakePort) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readError != nil {
		return 0, f.readError
	}
	n := copy(p, f.rx)
	f.rx = f.rx[n:]
	return n, nil
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(p) - f.shortBy
	f.tx = append(f.tx, p[:n]...)
	return n, nil
}

func (f *fakePort) ResetInputBuffer() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.rx = nil
	return nil
}

func (f *fakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func TestSerialReadWrite(t *testing.T) {
	fp := &fakePort{rx: []byte{1, 2, 3}}
	s := newSerial("COM9", fp)
	assert.Equal(t, "COM9", s.Name())

	buf := make([]byte, 8)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, buf[:n])

	// empty port behaves like an expired read timeout
	_, err = s.Read(buf)
	assert.ErrorIs(t, err, ErrTimeout)

	n, err = s.Write([]byte{9, 8, 7})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{9, 8, 7}, fp.tx)

	fp.shortBy = 1
	_, err = s.Write([]byte{1, 2})
	assert.ErrorIs(t, err, io.ErrShortWrite)

	fp.rx = []byte{5}
	require.NoError(t, s.DiscardInput())
	assert.Equal(t, 1, fp.resets)
	_, err = s.Read(buf)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestSerialReadError(t *testing.T) {
	boom := errors.New("device unplugged")
	s := newSerial("COM1", &fakePort{readError: boom})
	_, err := s.Read(make([]byte, 4))
	assert.ErrorIs(t, err, boom)
}

func TestSerialCloseIdempotent(t *testing.T) {
	fp := &fakePort{}
	s := newSerial("COM1", fp)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, fp.closes)

	_, err := s.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Write([]byte{1})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.DiscardInput(), ErrClosed)
}

// fakeIn delivers chunks pushed on a channel as bulk IN transfers.
type fakeIn struct {
	chunks chan []byte
	err    chan error
}

func newFakeIn() *fakeIn {
	return &fakeIn{chunks: make(chan []byte, 16), err: make(chan error, 1)}
}

func (f *fakeIn) ReadContext(ctx context.Context, buf []byte) (int, error) {
	select {
	case c := <-f.chunks:
		return copy(buf, c), nil
	case err := <-f.err:
		return 0, err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

type fakeOut struct {
	mu      sync.Mutex
	written []byte
}

func (f *fakeOut) WriteContext(ctx context.Context, buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, buf...)
	return len(buf), nil
}

func TestUSBReadQueue(t *testing.T) {
	in, out := newFakeIn(), &fakeOut{}
	u := newUSB("BH1", in, out, nil, 200*time.Millisecond)
	defer u.Close()
	assert.Equal(t, "BH1", u.SerialNumber())

	in.chunks <- []byte{1, 2, 3, 4, 5}

	buf := make([]byte, 3)
	n, err := u.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, buf[:n])

	n, err = u.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5}, buf[:n])

	start := time.Now()
	_, err = u.Read(buf)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)

	n, err = u.Write([]byte{0xAA, 0xBB})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{0xAA, 0xBB}, out.written)
}

func TestUSBDiscardInput(t *testing.T) {
	in := newFakeIn()
	u := newUSB("BH1", in, &fakeOut{}, nil, 100*time.Millisecond)
	defer u.Close()

	in.chunks <- []byte{1, 2, 3}
	require.Eventually(t, func() bool {
		u.mu.Lock()
		defer u.mu.Unlock()
		return len(u.queue) == 3
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, u.DiscardInput())
	_, err := u.Read(make([]byte, 4))
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestUSBDrainBanner(t *testing.T) {
	in := newFakeIn()
	u := newUSB("BH1", in, &fakeOut{}, nil, 100*time.Millisecond)
	defer u.Close()

	banner := make([]byte, 130)
	for i := range banner {
		banner[i] = byte(i)
	}
	in.chunks <- banner

	u.drainBanner(context.Background(), 50*time.Millisecond, 128)

	buf := make([]byte, 8)
	n, err := u.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{128, 129}, buf[:n])
}

func TestUSBPumpError(t *testing.T) {
	in := newFakeIn()
	u := newUSB("BH1", in, &fakeOut{}, nil, time.Second)
	defer u.Close()

	boom := errors.New("pipe stalled")
	in.err <- boom

	_, err := u.Read(make([]byte, 4))
	assert.ErrorIs(t, err, boom)
}

func TestUSBCloseIdempotent(t *testing.T) {
	releases := 0
	u := newUSB("BH1", newFakeIn(), &fakeOut{}, func() error {
		releases++
		return nil
	}, time.Second)

	require.NoError(t, u.Close())
	require.NoError(t, u.Close())
	assert.Equal(t, 1, releases)

	_, err := u.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = u.Write([]byte{1})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestUSBCloseUnblocksRead(t *testing.T) {
	u := newUSB("BH1", newFakeIn(), &fakeOut{}, nil, 5*time.Second)

	errc := make(chan error, 1)
	go func() {
		_, err := u.Read(make([]byte, 1))
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, u.Close())

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Read did not return after Close")
	}
}

func TestMatchSerialPort(t *testing.T) {
	tests := []struct {
		name string
		port *enumerator.PortDetails
		want bool
	}{
		{"zephyr", &enumerator.PortDetails{Name: "COM3", IsUSB: true, VID: "22f3", PID: "0100"}, true},
		{"bridge", &enumerator.PortDetails{Name: "COM4", IsUSB: true, VID: "10C4", PID: "81E8"}, true},
		{"other silabs", &enumerator.PortDetails{Name: "COM5", IsUSB: true, VID: "10C4", PID: "EA60"}, false},
		{"not usb", &enumerator.PortDetails{Name: "COM1", VID: "22F3"}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchSerialPort(tt.port, ZephyrVendorID))
		})
	}
}

func TestDiscover(t *testing.T) {
	origSerial, origUSB := listSerialPorts, listUSBSerials
	t.Cleanup(func() {
		listSerialPorts, listUSBSerials = origSerial, origUSB
	})

	listSerialPorts = func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: "COM3", IsUSB: true, VID: "22F3", PID: "0100", SerialNumber: "A1", Product: "BioHarness 3"},
			{Name: "COM1"},
		}, nil
	}
	usbErr := errors.New("libusb unavailable")
	listUSBSerials = func(vid uint16) ([]string, error) {
		return nil, usbErr
	}

	devices, err := Discover(ZephyrVendorID)
	assert.ErrorIs(t, err, usbErr)
	require.Len(t, devices, 1)
	assert.Equal(t, "COM3", devices[0].ID)
	assert.Equal(t, KindSerial, devices[0].Kind)
	assert.Equal(t, "COM3 (serial, BioHarness 3)", devices[0].String())

	listSerialPorts = func() ([]*enumerator.PortDetails, error) {
		return nil, errors.New("no ports")
	}
	listUSBSerials = func(vid uint16) ([]string, error) {
		return []string{"BHT0001"}, nil
	}
	devices, err = Discover(ZephyrVendorID)
	assert.Error(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, Device{ID: "BHT0001", Kind: KindUSB, SerialNumber: "BHT0001", Description: "BioHarness"}, devices[0])
}
