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
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func init() {
	initUnknownReportTypes()
	initActualReportTypes()
}

const (
	// ReportLayerNum identifies the layer
	ReportLayerNum = 2020

	// MDS report identifiers. They prefix every report crossing the
	// HID boundary, the payload of each report starts after them.
	ReportIDFeatures      = 0x01
	ReportIDDeviceID      = 0x02
	ReportIDDataURI       = 0x03
	ReportIDAuthorization = 0x04
	ReportIDStreamControl = 0x05
	ReportIDStreamData    = 0x06
)

type ReportType uint8

type errorDecoderForReportType int

func (e *errorDecoderForReportType) Decode(data []byte, p gopacket.PacketBuilder) error {
	return e
}

func (e *errorDecoderForReportType) Error() string {
	return fmt.Sprintf("Unable to decode MDS report type %d", int(*e))
}

var errorDecodersForReportType [256]errorDecoderForReportType
var ReportMetadata [256]layers.EnumMetadata

func initUnknownReportTypes() {
	for i := 0; i < 256; i++ {
		errorDecodersForReportType[i] = errorDecoderForReportType(i)
		ReportMetadata[i] = layers.EnumMetadata{
			DecodeWith: &errorDecodersForReportType[i],
			Name:       "UnknownReportType",
		}
	}
}

func initActualReportTypes() {
	ReportMetadata[ReportIDFeatures] = layers.EnumMetadata{DecodeWith: gopacket.DecodeFunc(DecodeFeaturesLayer), Name: "Features", LayerType: FeaturesLayerType}
	ReportMetadata[ReportIDDeviceID] = layers.EnumMetadata{DecodeWith: gopacket.DecodeFunc(DecodeDeviceIDLayer), Name: "DeviceID", LayerType: DeviceIDLayerType}
	ReportMetadata[ReportIDDataURI] = layers.EnumMetadata{DecodeWith: gopacket.DecodeFunc(DecodeDataURILayer), Name: "DataURI", LayerType: DataURILayerType}
	ReportMetadata[ReportIDAuthorization] = layers.EnumMetadata{DecodeWith: gopacket.DecodeFunc(DecodeAuthorizationLayer), Name: "Authorization", LayerType: AuthorizationLayerType}
	ReportMetadata[ReportIDStreamControl] = layers.EnumMetadata{DecodeWith: gopacket.DecodeFunc(DecodeStreamControlLayer), Name: "StreamControl", LayerType: StreamControlLayerType}
	ReportMetadata[ReportIDStreamData] = layers.EnumMetadata{DecodeWith: gopacket.DecodeFunc(DecodeStreamDataLayer), Name: "StreamData", LayerType: StreamDataLayerType}
}

// LayerType returns ReportMetadata.LayerType
func (t ReportType) LayerType() gopacket.LayerType {
	return ReportMetadata[t].LayerType
}

// Decode calls ReportMetadata.DecodeWith's decoder
func (t ReportType) Decode(data []byte, p gopacket.PacketBuilder) error {
	return ReportMetadata[t].DecodeWith.Decode(data, p)
}

// String returns ReportMetadata.Name
func (t ReportType) String() string {
	return ReportMetadata[t].Name
}

// ReportLayer is the one-byte report-ID prefix every HID report carries
// on the wire. Its payload is the report body which is decoded by the
// per-report layers below it.
type ReportLayer struct {
	layers.BaseLayer
	ReportID uint8
}

var ReportLayerType = gopacket.RegisterLayerType(ReportLayerNum,
	gopacket.LayerTypeMetadata{Name: "ReportLayerType", Decoder: gopacket.DecodeFunc(decodeReportLayer)})

func (r *ReportLayer) LayerType() gopacket.LayerType {
	return ReportLayerType
}

// SerializeTo serializes the report-ID prefix into bytes and writes the bytes to the SerializeBuffer
func (r *ReportLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.PrependBytes(1)
	if err != nil {
		return err
	}
	bytes[0] = r.ReportID
	return nil
}

// DecodeFromBytes attempts to decode the byte slice as a report-ID-prefixed MDS report
func (r *ReportLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < 1 {
		df.SetTruncated()
		return ErrMalformedReport{What: "missing report ID prefix"}
	}

	r.BaseLayer = layers.BaseLayer{
		Contents: data[0:1],
		Payload:  data[1:],
	}
	r.ReportID = data[0]

	return nil
}

func (r *ReportLayer) NextLayerType() gopacket.LayerType {
	return ReportType(r.ReportID).LayerType()
}

func decodeReportLayer(data []byte, p gopacket.PacketBuilder) error {
	r := &ReportLayer{}
	err := r.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(r)
	return p.NextDecoder(r.NextLayerType())
}
