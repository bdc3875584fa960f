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

package emu

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/gopacket"

	"github.com/hidbridge/go-mds/pkg/hid"
	"github.com/hidbridge/go-mds/pkg/layers"
	"github.com/hidbridge/go-mds/pkg/log"
)

const (
	// DefaultSerial is the identifier the demo device reports
	DefaultSerial = "DEMOSERIAL"
	// DefaultChunkInterval is the pace the demo device produces chunks at
	DefaultChunkInterval = 500 * time.Millisecond
	// SupportedFeatures is the feature bitmask the demo device advertises
	SupportedFeatures = 0x0000001f
	// URIBase prefixes the per-device chunk ingestion endpoint
	URIBase = "https://chunks.memfault.com/api/v0/chunks/"
	// DefaultAuthorization is the header line the demo device hands out
	DefaultAuthorization = "Memfault-Project-Key:demo"

	pollStep = 5 * time.Millisecond
)

// Device is an in-process stand-in for the demo firmware. It answers the
// four configuration feature reports, honors the stream control output
// report and produces one diagnostic chunk per interval while streaming.
// Like the firmware it restarts its chunk counter at zero whenever
// streaming is disabled.
type Device struct {
	mu sync.Mutex

	serial   string
	uri      string
	auth     string
	features uint32

	interval  time.Duration
	streaming bool
	seq       uint8
	chunk     uint32
	skip      int
	lastEmit  time.Time
}

var _ hid.Device = &Device{}

func NewDevice(serial string) *Device {
	if serial == "" {
		serial = DefaultSerial
	}
	return &Device{
		serial:   serial,
		uri:      URIBase + serial,
		auth:     DefaultAuthorization,
		features: SupportedFeatures,
		interval: DefaultChunkInterval,
	}
}

// SetInterval overrides the chunk production pace. With a zero interval
// a chunk is available on every read.
func (d *Device) SetInterval(interval time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.interval = interval
}

// SetUploadTarget overrides the data URI and authorization header the
// device reports, e.g. to point the demo pipeline at a local endpoint
func (d *Device) SetUploadTarget(uri, auth string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if uri != "" {
		d.uri = uri
	}
	if auth != "" {
		d.auth = auth
	}
}

// DropNext makes the device skip n sequence numbers before the next
// chunk, emulating lost packets
func (d *Device) DropNext(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.skip += n
}

func (d *Device) GetFeatureReport(reportID byte, maxLen int, timeout time.Duration) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var body []byte
	switch reportID {
	case layers.ReportIDFeatures:
		body = layers.EncodeFeatures(d.features)
	case layers.ReportIDDeviceID:
		body = []byte(d.serial)
	case layers.ReportIDDataURI:
		body = []byte(d.uri)
	case layers.ReportIDAuthorization:
		body = []byte(d.auth)
	default:
		return nil, hid.ErrTransportIO{Op: "feature report read", Err: fmt.Errorf("unsupported report ID 0x%02x", reportID)}
	}
	if maxLen > 0 && len(body) > maxLen {
		body = body[:maxLen]
	}
	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}

// WriteOutputReport handles host-to-device reports the way the firmware
// descriptor handler does, dispatching on the report ID prefix
func (d *Device) WriteOutputReport(reportID byte, data []byte, timeout time.Duration) (int, error) {
	frame := make([]byte, len(data)+1)
	frame[0] = reportID
	copy(frame[1:], data)

	packet := gopacket.NewPacket(frame, layers.ReportLayerType, gopacket.Default)
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		return 0, hid.ErrTransportIO{Op: "output report write", Err: errLayer.Error()}
	}
	ctlLayer := packet.Layer(layers.StreamControlLayerType)
	if ctlLayer == nil {
		return 0, hid.ErrTransportIO{Op: "output report write", Err: fmt.Errorf("unsupported report ID 0x%02x", reportID)}
	}
	ctl := ctlLayer.(*layers.StreamControlLayer)

	d.mu.Lock()
	defer d.mu.Unlock()
	if ctl.Enable {
		d.streaming = true
		d.lastEmit = time.Time{}
	} else {
		d.streaming = false
		// the firmware forgets its stream position when told to stop
		d.seq = 0
		d.chunk = 0
		d.skip = 0
	}
	log.Debug("Emulated device stream control: enable: %t", ctl.Enable)
	return len(data), nil
}

func (d *Device) ReadInputReport(maxLen int, timeout time.Duration) (byte, []byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		d.mu.Lock()
		if d.streaming && time.Since(d.lastEmit) >= d.interval {
			body := d.nextChunk(maxLen)
			d.mu.Unlock()
			return layers.ReportIDStreamData, body, nil
		}
		d.mu.Unlock()

		if timeout == 0 {
			return 0, nil, hid.ErrTimeout{Op: "input report"}
		}
		if timeout > 0 && !time.Now().Before(deadline) {
			return 0, nil, hid.ErrTimeout{Op: "input report"}
		}
		time.Sleep(pollStep)
	}
}

// nextChunk builds the next stream data report body. The caller holds d.mu.
func (d *Device) nextChunk(maxLen int) []byte {
	for d.skip > 0 {
		d.seq = (d.seq + 1) % layers.SequenceModulo
		d.chunk++
		d.skip--
	}

	sd := &layers.StreamDataLayer{
		Sequence: d.seq,
		Data:     []byte(fmt.Sprintf("demo-chunk-%06d", d.chunk)),
	}
	buf := gopacket.NewSerializeBuffer()
	if err := sd.SerializeTo(buf, gopacket.SerializeOptions{}); err != nil {
		log.Error("Error while serializing emulated stream data report: %s", err)
		return nil
	}

	d.seq = (d.seq + 1) % layers.SequenceModulo
	d.chunk++
	d.lastEmit = time.Now()

	body := buf.Bytes()
	if maxLen > 0 && len(body) > maxLen {
		body = body[:maxLen]
	}
	return body
}
