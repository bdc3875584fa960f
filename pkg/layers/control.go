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

package layers

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// StreamControlLayerNum identifies the layer
	StreamControlLayerNum = 2025

	// StreamDisabled disables chunk streaming on the device
	StreamDisabled = 0x00
	// StreamEnabled enables chunk streaming on the device
	StreamEnabled = 0x01
)

// EncodeStreamControl maps the enable flag to the one-byte stream control
// report body. It always succeeds.
func EncodeStreamControl(enable bool) byte {
	if enable {
		return StreamEnabled
	}
	return StreamDisabled
}

// DecodeStreamControl decodes a stream control report body. Anything but
// the two defined control values is rejected.
func DecodeStreamControl(buf []byte) (bool, error) {
	if len(buf) < 1 {
		return false, ErrMalformedReport{What: "stream control report must be 1 byte"}
	}
	switch buf[0] {
	case StreamDisabled:
		return false, nil
	case StreamEnabled:
		return true, nil
	default:
		return false, ErrMalformedReport{What: "stream control value must be 0x00 or 0x01"}
	}
}

// StreamControlLayer carries the host-to-device streaming enable/disable
// output report
type StreamControlLayer struct {
	layers.BaseLayer
	Enable bool
}

var StreamControlLayerType = gopacket.RegisterLayerType(StreamControlLayerNum,
	gopacket.LayerTypeMetadata{Name: "StreamControlLayerType", Decoder: gopacket.DecodeFunc(DecodeStreamControlLayer)})

func (c *StreamControlLayer) LayerType() gopacket.LayerType {
	return StreamControlLayerType
}

// SerializeTo serializes the control byte and writes it to the SerializeBuffer
func (c *StreamControlLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(1)
	if err != nil {
		return err
	}
	bytes[0] = EncodeStreamControl(c.Enable)
	return nil
}

func (c *StreamControlLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	enable, err := DecodeStreamControl(data)
	if err != nil {
		if len(data) < 1 {
			df.SetTruncated()
		}
		return err
	}
	c.BaseLayer = layers.BaseLayer{
		Contents: data[0:1],
		Payload:  []byte{},
	}
	c.Enable = enable
	return nil
}

func DecodeStreamControlLayer(data []byte, p gopacket.PacketBuilder) error {
	c := &StreamControlLayer{}
	err := c.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(c)
	return nil
}
