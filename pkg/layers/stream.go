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
	// StreamDataLayerNum identifies the layer
	StreamDataLayerNum = 2026

	// SequenceMask selects the sequence number from the first byte of a
	// stream data report, the upper three bits are reserved
	SequenceMask = 0x1f
	// SequenceModulo is the wrap point of the sequence counter
	SequenceModulo = 32
	// MaxChunkDataLen is the max size of one chunk of diagnostic data
	MaxChunkDataLen = 63
	// MaxInputReportLen is the max size of a stream data report body
	MaxInputReportLen = 64
)

// StreamDataLayer carries one diagnostic chunk. The first byte of the
// report body holds the 5-bit wrapping sequence number, the rest is the
// chunk payload.
type StreamDataLayer struct {
	layers.BaseLayer
	Sequence uint8
	Data     []byte
}

var StreamDataLayerType = gopacket.RegisterLayerType(StreamDataLayerNum,
	gopacket.LayerTypeMetadata{Name: "StreamDataLayerType", Decoder: gopacket.DecodeFunc(DecodeStreamDataLayer)})

func (s *StreamDataLayer) LayerType() gopacket.LayerType {
	return StreamDataLayerType
}

// SerializeTo serializes the stream data report body and writes the bytes to the SerializeBuffer
func (s *StreamDataLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	data := s.Data
	if len(data) > MaxChunkDataLen {
		data = data[:MaxChunkDataLen]
	}
	bytes, err := b.AppendBytes(1 + len(data))
	if err != nil {
		return err
	}
	bytes[0] = s.Sequence & SequenceMask
	copy(bytes[1:], data)
	return nil
}

// DecodeFromBytes attempts to decode the byte slice as a stream data
// report body. Payload bytes beyond MaxChunkDataLen are dropped.
func (s *StreamDataLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < 1 {
		df.SetTruncated()
		return ErrMalformedReport{What: "stream data report must carry a sequence byte"}
	}

	payload := data[1:]
	if len(payload) > MaxChunkDataLen {
		payload = payload[:MaxChunkDataLen]
	}

	s.BaseLayer = layers.BaseLayer{
		Contents: data[0:1],
		Payload:  payload,
	}
	s.Sequence = data[0] & SequenceMask
	s.Data = payload

	return nil
}

func DecodeStreamDataLayer(data []byte, p gopacket.PacketBuilder) error {
	s := &StreamDataLayer{}
	err := s.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(s)
	return nil
}
