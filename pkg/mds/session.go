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

package mds

import (
	"fmt"
	"time"

	"github.com/google/gopacket"

	"github.com/hidbridge/go-mds/pkg/hid"
	"github.com/hidbridge/go-mds/pkg/layers"
	"github.com/hidbridge/go-mds/pkg/log"
	"github.com/hidbridge/go-mds/pkg/upload"
)

const (
	// FeatureTimeout bounds each configuration feature-report read
	FeatureTimeout = 1000 * time.Millisecond
	// ControlTimeout bounds the stream control output-report write
	ControlTimeout = 1000 * time.Millisecond
)

// DeviceConfig is the upload configuration a device exposes through its
// feature reports. It is a snapshot, re-reading the configuration means
// calling ReadConfig again.
type DeviceConfig struct {
	SupportedFeatures uint32 `json:"supported_features"`
	DeviceIdentifier  string `json:"device_identifier"`
	DataURI           string `json:"data_uri"`
	Authorization     string `json:"authorization"`
}

// StreamPacket is one received diagnostic chunk
type StreamPacket struct {
	Sequence uint8
	Payload  []byte
}

// DecodeStreamPacket decodes the body of a stream data report. It is
// the buffer-based companion to Session.ReadPacket for callers that
// drive the transport themselves.
func DecodeStreamPacket(buf []byte) (*StreamPacket, error) {
	var sd layers.StreamDataLayer
	if err := sd.DecodeFromBytes(buf, gopacket.NilDecodeFeedback); err != nil {
		return nil, err
	}
	return &StreamPacket{Sequence: sd.Sequence, Payload: sd.Data}, nil
}

// Session drives the MDS protocol against one HID device: configuration
// retrieval, the streaming lifecycle and packet reception. The device is
// borrowed, a Session never closes it. All methods must be called from a
// single goroutine, the protocol carries one logical stream per device
// and there is no concurrent-writer scenario to arbitrate.
//
// A Session may be created without a device. It then acts as a
// sequence-and-uploader holder for callers that drive the transport
// themselves and use the codec helpers in pkg/layers directly.
type Session struct {
	dev             hid.Device
	uploader        upload.Deliverer
	tracker         SequenceTracker
	streaming       bool
	discontinuities uint64
}

func NewSession(dev hid.Device) *Session {
	return &Session{
		dev: dev,
	}
}

// SetUploader registers the capability Process delivers chunk payloads to
func (s *Session) SetUploader(d upload.Deliverer) {
	s.uploader = d
}

// Streaming reports whether the device confirmed the last streaming
// enable and has not confirmed a disable since
func (s *Session) Streaming() bool {
	return s.streaming
}

// Discontinuities returns the number of discontinuous sequence verdicts
// observed over the lifetime of the session
func (s *Session) Discontinuities() uint64 {
	return s.discontinuities
}

// LastSequence returns the most recently accepted sequence number. The
// second return value is false while the tracker is unset.
func (s *Session) LastSequence() (uint8, bool) {
	return s.tracker.Last()
}

// Observe feeds an externally received sequence number to the tracker.
// It is the entry point for callers that decode stream data reports
// themselves instead of going through ReadPacket.
func (s *Session) Observe(seq uint8) Verdict {
	verdict := s.tracker.Observe(seq)
	if verdict == VerdictDiscontinuous {
		s.discontinuities++
	}
	return verdict
}

// ReadConfig retrieves the device configuration with four feature-report
// reads in fixed order: features, identifier, URI, authorization. The
// first failed read aborts the sequence, the remaining reads are not
// attempted.
func (s *Session) ReadConfig() (*DeviceConfig, error) {
	if s.dev == nil {
		return nil, ErrInvalidArgument{What: "session has no transport"}
	}

	buf, err := s.dev.GetFeatureReport(layers.ReportIDFeatures, layers.FeaturesLen, FeatureTimeout)
	if err != nil {
		return nil, err
	}
	features, err := layers.DecodeFeatures(buf)
	if err != nil {
		return nil, err
	}

	buf, err = s.dev.GetFeatureReport(layers.ReportIDDeviceID, layers.MaxDeviceIDLen, FeatureTimeout)
	if err != nil {
		return nil, err
	}
	deviceID := layers.DecodeStringField(buf, layers.MaxDeviceIDLen)

	buf, err = s.dev.GetFeatureReport(layers.ReportIDDataURI, layers.MaxDataURILen, FeatureTimeout)
	if err != nil {
		return nil, err
	}
	uri := layers.DecodeStringField(buf, layers.MaxDataURILen)

	buf, err = s.dev.GetFeatureReport(layers.ReportIDAuthorization, layers.MaxAuthorizationLen, FeatureTimeout)
	if err != nil {
		return nil, err
	}
	auth := layers.DecodeStringField(buf, layers.MaxAuthorizationLen)

	log.Debug("Read device config: device: %s features: 0x%08x uri: %s", deviceID, features, uri)

	return &DeviceConfig{
		SupportedFeatures: features,
		DeviceIdentifier:  deviceID,
		DataURI:           uri,
		Authorization:     auth,
	}, nil
}

// StreamEnable asks the device to start streaming diagnostic chunks
func (s *Session) StreamEnable() error {
	return s.streamControl(true)
}

// StreamDisable asks the device to stop streaming diagnostic chunks
func (s *Session) StreamDisable() error {
	return s.streamControl(false)
}

func (s *Session) streamControl(enable bool) error {
	if s.dev == nil {
		return ErrInvalidArgument{What: "session has no transport"}
	}
	body := []byte{layers.EncodeStreamControl(enable)}
	n, err := s.dev.WriteOutputReport(layers.ReportIDStreamControl, body, ControlTimeout)
	if err != nil {
		return err
	}
	if n < len(body) {
		return hid.ErrTransportIO{Op: "stream control write", Err: fmt.Errorf("short write: %d of %d bytes", n, len(body))}
	}
	// The streaming flag only changes once the device confirmed the
	// write. A failed disable leaves it set, the device may well still
	// be streaming.
	s.streaming = enable
	if !enable {
		// The device restarts its chunk counter when streaming stops,
		// the next stream begins a fresh sequence.
		s.tracker.Reset()
	}
	log.Debug("Stream control applied: enable: %t", enable)
	return nil
}

// ReadPacket reads one input report, decodes it as a stream data report
// and updates the sequence tracker. The returned verdict is only
// meaningful when the error is nil.
func (s *Session) ReadPacket(timeout time.Duration) (*StreamPacket, Verdict, error) {
	if s.dev == nil {
		return nil, VerdictFirst, ErrInvalidArgument{What: "session has no transport"}
	}

	reportID, data, err := s.dev.ReadInputReport(layers.MaxInputReportLen, timeout)
	if err != nil {
		return nil, VerdictFirst, err
	}
	if reportID != layers.ReportIDStreamData {
		return nil, VerdictFirst, ErrWrongReportType{Got: reportID, Want: layers.ReportIDStreamData}
	}

	packet, err := DecodeStreamPacket(data)
	if err != nil {
		return nil, VerdictFirst, err
	}

	verdict := s.Observe(packet.Sequence)
	return packet, verdict, nil
}

// Process is the per-iteration driving call of the forwarding pipeline:
// read one packet, log the continuity verdict and hand the payload to
// the registered uploader. The first error encountered is returned.
// A failed delivery does not roll back the sequence update, the tracker
// keeps the value it resynchronized to.
func (s *Session) Process(cfg *DeviceConfig, timeout time.Duration) error {
	if cfg == nil {
		return ErrInvalidArgument{What: "device config is required"}
	}
	if s.uploader == nil {
		return ErrInvalidArgument{What: "no uploader registered"}
	}

	packet, verdict, err := s.ReadPacket(timeout)
	if err != nil {
		return err
	}

	if verdict == VerdictDiscontinuous {
		log.Warning("Sequence discontinuity: received %d, total discontinuities: %d",
			packet.Sequence, s.discontinuities)
	}

	status, err := s.uploader.Deliver(cfg.DataURI, cfg.Authorization, packet.Payload)
	if err != nil {
		return err
	}

	log.Debug("Chunk delivered: sequence: %d size: %d status: %d", packet.Sequence, len(packet.Payload), status)
	return nil
}

// Close ends the session. If streaming is still enabled it attempts a
// best-effort disable on the device, a failure there is logged and does
// not stop the close. The borrowed device stays open.
func (s *Session) Close() {
	if s.streaming {
		if err := s.StreamDisable(); err != nil {
			log.Warning("Could not disable streaming on close: %s", err)
		}
	}
	s.tracker.Reset()
}
