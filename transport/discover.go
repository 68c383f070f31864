package transport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/gousb"
	"go.bug.st/serial/enumerator"
)

// Silicon Labs CP210x bridge used by older cradles.
const (
	bridgeVendorID  = "10C4"
	bridgeProductID = "81E8"
)

// Device is a BioHarness found during discovery.
type Device struct {
	// ID is the identifier to pass to Open: a port name or a USB serial number
	ID string

	// Kind is the transport variant ID selects
	Kind Kind

	// SerialNumber is the USB serial number, when known
	SerialNumber string

	// Description is a human-readable product string, when known
	Description string
}

func (d Device) String() string {
	if d.Description == "" {
		return fmt.Sprintf("%s (%s)", d.ID, d.Kind)
	}
	return fmt.Sprintf("%s (%s, %s)", d.ID, d.Kind, d.Description)
}

// listSerialPorts and listUSBSerials are replaced in tests.
var (
	listSerialPorts = enumerator.GetDetailedPortsList
	listUSBSerials  = usbSerialNumbers
)

// Discover lists attached devices: serial ports backed by a Zephyr or
// bridge USB device, then native USB devices by serial number. A failure
// to enumerate one kind does not hide devices of the other; the returned
// error joins whatever failed.
func Discover(vendorID uint16) ([]Device, error) {
	var (
		devices []Device
		errs    []error
	)

	ports, err := listSerialPorts()
	if err != nil {
		errs = append(errs, fmt.Errorf("enumerate serial ports: %w", err))
	}
	for _, p := range ports {
		if !matchSerialPort(p, vendorID) {
			continue
		}
		devices = append(devices, Device{
			ID:           p.Name,
			Kind:         KindSerial,
			SerialNumber: p.SerialNumber,
			Description:  p.Product,
		})
	}

	serials, err := listUSBSerials(vendorID)
	if err != nil {
		errs = append(errs, fmt.Errorf("enumerate usb devices: %w", err))
	}
	for _, sn := range serials {
		devices = append(devices, Device{
			ID:           sn,
			Kind:         KindUSB,
			SerialNumber: sn,
			Description:  "BioHarness",
		})
	}

	return devices, errors.Join(errs...)
}

func matchSerialPort(p *enumerator.PortDetails, vendorID uint16) bool {
	if p == nil || !p.IsUSB {
		return false
	}
	vid := strings.ToUpper(p.VID)
	pid := strings.ToUpper(p.PID)
	if vid == fmt.Sprintf("%04X", vendorID) {
		return true
	}
	return vid == bridgeVendorID && pid == bridgeProductID
}

func usbSerialNumbers(vendorID uint16) ([]string, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return uint16(desc.Vendor) == vendorID
	})
	var serials []string
	for _, dev := range devs {
		if sn, snErr := dev.SerialNumber(); snErr == nil && sn != "" {
			serials = append(serials, sn)
		}
		dev.Close()
	}
	return serials, err
}
