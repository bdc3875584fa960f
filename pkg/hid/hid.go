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

package hid

import (
	"time"
)

// Device is the raw HID transport capability consumed by the protocol
// engine. The engine borrows an already-open device and never closes it,
// opening and closing stays with whoever created the concrete device.
//
// Timeouts follow one convention everywhere: zero polls without
// blocking, a negative value blocks indefinitely, a positive value
// bounds the wait.
type Device interface {
	// GetFeatureReport reads the feature report with the given report ID.
	// The returned body excludes the report ID prefix.
	GetFeatureReport(reportID byte, maxLen int, timeout time.Duration) ([]byte, error)

	// WriteOutputReport writes one output report. It returns the number
	// of body bytes written, the report ID prefix excluded.
	WriteOutputReport(reportID byte, data []byte, timeout time.Duration) (int, error)

	// ReadInputReport reads one input report and returns its report ID
	// and body.
	ReadInputReport(maxLen int, timeout time.Duration) (byte, []byte, error)
}

// DeviceInfo describes one attached HID device
type DeviceInfo struct {
	Path         string `json:"path"`
	VendorID     uint16 `json:"vendor_id"`
	ProductID    uint16 `json:"product_id"`
	Serial       string `json:"serial,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Product      string `json:"product,omitempty"`
}
