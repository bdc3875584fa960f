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
	"bytes"
	"encoding/binary"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// FeaturesLayerNum identifies the layer
	FeaturesLayerNum = 2021
	// DeviceIDLayerNum identifies the layer
	DeviceIDLayerNum = 2022
	// DataURILayerNum identifies the layer
	DataURILayerNum = 2023
	// AuthorizationLayerNum identifies the layer
	AuthorizationLayerNum = 2024
)

const (
	// FeaturesLen is the exact size of the features feature report
	FeaturesLen = 4
	// MaxDeviceIDLen is the max size of the device identifier feature report
	MaxDeviceIDLen = 64
	// MaxDataURILen is the max size of the data URI feature report
	MaxDataURILen = 128
	// MaxAuthorizationLen is the max size of the authorization feature report
	MaxAuthorizationLen = 128
)

// DecodeFeatures interprets the first four bytes of buf as a little-endian
// unsigned 32-bit feature bitmask
func DecodeFeatures(buf []byte) (uint32, error) {
	if len(buf) < FeaturesLen {
		return 0, ErrMalformedReport{What: "features report must be at least 4 bytes"}
	}
	return binary.LittleEndian.Uint32(buf[0:FeaturesLen]), nil
}

// EncodeFeatures encodes a feature bitmask as little-endian bytes
func EncodeFeatures(features uint32) []byte {
	buf := make([]byte, FeaturesLen)
	binary.LittleEndian.PutUint32(buf, features)
	return buf
}

// DecodeStringField copies at most maxLen-1 bytes of buf and cuts the
// result at the first NUL. Oversized buffers are silently truncated,
// this is a lossy-but-safe policy and not an error. Empty input yields
// the empty string.
func DecodeStringField(buf []byte, maxLen int) string {
	n := len(buf)
	if maxLen > 0 && n > maxLen-1 {
		n = maxLen - 1
	}
	field := buf[:n]
	if i := bytes.IndexByte(field, 0x00); i >= 0 {
		field = field[:i]
	}
	return string(field)
}

// FeaturesLayer carries the supported-features bitmask feature report
type FeaturesLayer struct {
	layers.BaseLayer
	Features uint32
}

var FeaturesLayerType = gopacket.RegisterLayerType(FeaturesLayerNum,
	gopacket.LayerTypeMetadata{Name: "FeaturesLayerType", Decoder: gopacket.DecodeFunc(DecodeFeaturesLayer)})

func (f *FeaturesLayer) LayerType() gopacket.LayerType {
	return FeaturesLayerType
}

// SerializeTo serializes the feature bitmask into bytes and writes the bytes to the SerializeBuffer
func (f *FeaturesLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(FeaturesLen)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(bytes, f.Features)
	return nil
}

func (f *FeaturesLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	features, err := DecodeFeatures(data)
	if err != nil {
		df.SetTruncated()
		return err
	}
	f.BaseLayer = layers.BaseLayer{
		Contents: data[0:FeaturesLen],
		Payload:  []byte{},
	}
	f.Features = features
	return nil
}

func DecodeFeaturesLayer(data []byte, p gopacket.PacketBuilder) error {
	f := &FeaturesLayer{}
	err := f.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(f)
	return nil
}

// DeviceIDLayer carries the device identifier feature report
type DeviceIDLayer struct {
	layers.BaseLayer
	DeviceID string
}

var DeviceIDLayerType = gopacket.RegisterLayerType(DeviceIDLayerNum,
	gopacket.LayerTypeMetadata{Name: "DeviceIDLayerType", Decoder: gopacket.DecodeFunc(DecodeDeviceIDLayer)})

func (d *DeviceIDLayer) LayerType() gopacket.LayerType {
	return DeviceIDLayerType
}

// SerializeTo serializes the device identifier into bytes and writes the bytes to the SerializeBuffer
func (d *DeviceIDLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(len(d.DeviceID))
	if err != nil {
		return err
	}
	copy(bytes, d.DeviceID)
	return nil
}

func (d *DeviceIDLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	d.BaseLayer = layers.BaseLayer{
		Contents: data[:],
		Payload:  []byte{},
	}
	d.DeviceID = DecodeStringField(data, MaxDeviceIDLen)
	return nil
}

func DecodeDeviceIDLayer(data []byte, p gopacket.PacketBuilder) error {
	d := &DeviceIDLayer{}
	err := d.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(d)
	return nil
}

// DataURILayer carries the data URI feature report
type DataURILayer struct {
	layers.BaseLayer
	URI string
}

var DataURILayerType = gopacket.RegisterLayerType(DataURILayerNum,
	gopacket.LayerTypeMetadata{Name: "DataURILayerType", Decoder: gopacket.DecodeFunc(DecodeDataURILayer)})

func (d *DataURILayer) LayerType() gopacket.LayerType {
	return DataURILayerType
}

// SerializeTo serializes the data URI into bytes and writes the bytes to the SerializeBuffer
func (d *DataURILayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(len(d.URI))
	if err != nil {
		return err
	}
	copy(bytes, d.URI)
	return nil
}

func (d *DataURILayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	d.BaseLayer = layers.BaseLayer{
		Contents: data[:],
		Payload:  []byte{},
	}
	d.URI = DecodeStringField(data, MaxDataURILen)
	return nil
}

func DecodeDataURILayer(data []byte, p gopacket.PacketBuilder) error {
	d := &DataURILayer{}
	err := d.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(d)
	return nil
}

// AuthorizationLayer carries the authorization feature report. The value
// is a single "Header-Name: value" HTTP header line.
type AuthorizationLayer struct {
	layers.BaseLayer
	Authorization string
}

var AuthorizationLayerType = gopacket.RegisterLayerType(AuthorizationLayerNum,
	gopacket.LayerTypeMetadata{Name: "AuthorizationLayerType", Decoder: gopacket.DecodeFunc(DecodeAuthorizationLayer)})

func (a *AuthorizationLayer) LayerType() gopacket.LayerType {
	return AuthorizationLayerType
}

// SerializeTo serializes the authorization header into bytes and writes the bytes to the SerializeBuffer
func (a *AuthorizationLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(len(a.Authorization))
	if err != nil {
		return err
	}
	copy(bytes, a.Authorization)
	return nil
}

func (a *AuthorizationLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	a.BaseLayer = layers.BaseLayer{
		Contents: data[:],
		Payload:  []byte{},
	}
	a.Authorization = DecodeStringField(data, MaxAuthorizationLen)
	return nil
}

func DecodeAuthorizationLayer(data []byte, p gopacket.PacketBuilder) error {
	a := &AuthorizationLayer{}
	err := a.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(a)
	return nil
}
