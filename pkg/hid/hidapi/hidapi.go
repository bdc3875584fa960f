/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package hidapi

import (
	"errors"
	"time"

	gohid "github.com/sstallion/go-hid"

	"github.com/hidbridge/go-mds/pkg/hid"
	"github.com/hidbridge/go-mds/pkg/log"
)

// Library is the process-scoped handle to the hidapi runtime. Init
// returns it and Exit consumes it, every open goes through it. There is
// no package-level mutable state to double-initialize.
type Library struct{}

func Init() (*Library, error) {
	if err := gohid.Init(); err != nil {
		return nil, hid.ErrTransportIO{Op: "hidapi init", Err: err}
	}
	return &Library{}, nil
}

func (l *Library) Exit() error {
	if err := gohid.Exit(); err != nil {
		return hid.ErrTransportIO{Op: "hidapi exit", Err: err}
	}
	return nil
}

// Enumerate lists the attached HID devices matching vendor and product
// ID. Zero matches any.
func (l *Library) Enumerate(vid, pid uint16) ([]hid.DeviceInfo, error) {
	var infos []hid.DeviceInfo
	err := gohid.Enumerate(vid, pid, func(info *gohid.DeviceInfo) error {
		infos = append(infos, hid.DeviceInfo{
			Path:         info.Path,
			VendorID:     info.VendorID,
			ProductID:    info.ProductID,
			Serial:       info.SerialNbr,
			Manufacturer: info.MfrStr,
			Product:      info.ProductStr,
		})
		return nil
	})
	if err != nil {
		return nil, hid.ErrTransportIO{Op: "device enumeration", Err: err}
	}
	return infos, nil
}

// Open opens a device by vendor and product ID. An empty serial opens
// the first matching device.
func (l *Library) Open(vid, pid uint16, serial string) (*Device, error) {
	var dev *gohid.Device
	var err error
	if serial == "" {
		dev, err = gohid.OpenFirst(vid, pid)
	} else {
		dev, err = gohid.Open(vid, pid, serial)
	}
	if err != nil {
		return nil, hid.ErrTransportIO{Op: "device open", Err: err}
	}
	log.Info("Opened HID device: vid: 0x%04x pid: 0x%04x serial: %q", vid, pid, serial)
	return &Device{dev: dev}, nil
}

// Device adapts one open hidapi handle to the transport capability the
// protocol engine consumes. It adds the report ID prefix on the way to
// the device and strips it on the way back.
type Device struct {
	dev *gohid.Device
}

var _ hid.Device = &Device{}

// GetFeatureReport reads one feature report. hidapi feature transfers
// are synchronous control transfers without a timeout knob, the timeout
// parameter exists for interface parity only.
func (d *Device) GetFeatureReport(reportID byte, maxLen int, timeout time.Duration) ([]byte, error) {
	buf := make([]byte, maxLen+1)
	buf[0] = reportID
	n, err := d.dev.GetFeatureReport(buf)
	if err != nil {
		return nil, hid.ErrTransportIO{Op: "feature report read", Err: err}
	}
	if n < 1 {
		return nil, hid.ErrTransportIO{Op: "feature report read", Err: errors.New("empty feature transfer")}
	}
	// hidapi returns the report ID in the first byte, the body starts
	// after it
	return buf[1:n], nil
}

// WriteOutputReport writes one output report. hidapi writes have no
// timeout knob, the timeout parameter exists for interface parity only.
func (d *Device) WriteOutputReport(reportID byte, data []byte, timeout time.Duration) (int, error) {
	buf := make([]byte, len(data)+1)
	buf[0] = reportID
	copy(buf[1:], data)
	n, err := d.dev.Write(buf)
	if err != nil {
		return 0, hid.ErrTransportIO{Op: "output report write", Err: err}
	}
	if n < 1 {
		return 0, hid.ErrTransportIO{Op: "output report write", Err: errors.New("empty write")}
	}
	return n - 1, nil
}

func (d *Device) ReadInputReport(maxLen int, timeout time.Duration) (byte, []byte, error) {
	buf := make([]byte, maxLen+1)
	n, err := d.dev.ReadWithTimeout(buf, timeout)
	if err != nil {
		return 0, nil, hid.ErrTransportIO{Op: "input report read", Err: err}
	}
	if n == 0 {
		// hidapi signals an expired timeout with a zero-length read
		return 0, nil, hid.ErrTimeout{Op: "input report"}
	}
	return buf[0], buf[1:n], nil
}

func (d *Device) Close() error {
	if err := d.dev.Close(); err != nil {
		return hid.ErrTransportIO{Op: "device close", Err: err}
	}
	return nil
}
