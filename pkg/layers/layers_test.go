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
	"strings"
	"testing"

	"github.com/google/gopacket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeaturesRoundTrip(t *testing.T) {
	for _, features := range []uint32{0, 1, 0x0000001f, 0xdeadbeef, 0xffffffff} {
		buf := EncodeFeatures(features)
		require.Len(t, buf, FeaturesLen)
		decoded, err := DecodeFeatures(buf)
		require.NoError(t, err)
		assert.Equal(t, features, decoded)
	}
}

func TestDecodeFeaturesLittleEndian(t *testing.T) {
	decoded, err := DecodeFeatures([]byte{0x1f, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0000001f), decoded)

	decoded, err = DecodeFeatures([]byte{0x78, 0x56, 0x34, 0x12})
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), decoded)
}

func TestDecodeFeaturesShortBuffer(t *testing.T) {
	for _, buf := range [][]byte{nil, {}, {0x01}, {0x01, 0x02, 0x03}} {
		_, err := DecodeFeatures(buf)
		require.Error(t, err)
		assert.IsType(t, ErrMalformedReport{}, err)
	}
}

func TestDecodeFeaturesIgnoresTrailingBytes(t *testing.T) {
	decoded, err := DecodeFeatures([]byte{0x01, 0x00, 0x00, 0x00, 0xff, 0xff})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), decoded)
}

func TestDecodeStringField(t *testing.T) {
	assert.Equal(t, "DEMOSERIAL", DecodeStringField([]byte("DEMOSERIAL"), MaxDeviceIDLen))
	assert.Equal(t, "", DecodeStringField(nil, MaxDeviceIDLen))
	assert.Equal(t, "", DecodeStringField([]byte{}, MaxDeviceIDLen))
	assert.Equal(t, "abc", DecodeStringField([]byte("abc\x00def"), MaxDeviceIDLen))
}

func TestDecodeStringFieldBounds(t *testing.T) {
	huge := bytes.Repeat([]byte{'a'}, 4096)
	field := DecodeStringField(huge, MaxDeviceIDLen)
	assert.Len(t, field, MaxDeviceIDLen-1)
	assert.Equal(t, strings.Repeat("a", MaxDeviceIDLen-1), field)

	// a NUL beyond the length cap must not matter
	withNul := append(bytes.Repeat([]byte{'b'}, 100), 0x00)
	assert.Equal(t, strings.Repeat("b", MaxDeviceIDLen-1), DecodeStringField(withNul, MaxDeviceIDLen))
}

func TestStreamControlRoundTrip(t *testing.T) {
	for _, enable := range []bool{true, false} {
		decoded, err := DecodeStreamControl([]byte{EncodeStreamControl(enable)})
		require.NoError(t, err)
		assert.Equal(t, enable, decoded)
	}
}

func TestDecodeStreamControlRejects(t *testing.T) {
	_, err := DecodeStreamControl(nil)
	require.Error(t, err)

	for _, value := range []byte{0x02, 0x10, 0xff} {
		_, err = DecodeStreamControl([]byte{value})
		require.Error(t, err)
		assert.IsType(t, ErrMalformedReport{}, err)
	}
}

func TestStreamDataDecode(t *testing.T) {
	var sd StreamDataLayer
	err := sd.DecodeFromBytes([]byte{0x05, 'c', 'h', 'u', 'n', 'k'}, gopacket.NilDecodeFeedback)
	require.NoError(t, err)
	assert.Equal(t, uint8(5), sd.Sequence)
	assert.Equal(t, []byte("chunk"), sd.Data)
}

func TestStreamDataSequenceMasked(t *testing.T) {
	// upper three bits of the sequence byte are reserved
	var sd StreamDataLayer
	err := sd.DecodeFromBytes([]byte{0xe3, 0x01}, gopacket.NilDecodeFeedback)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), sd.Sequence)
}

func TestStreamDataEmptyPayload(t *testing.T) {
	var sd StreamDataLayer
	err := sd.DecodeFromBytes([]byte{0x00}, gopacket.NilDecodeFeedback)
	require.NoError(t, err)
	assert.Empty(t, sd.Data)
}

func TestStreamDataPayloadCap(t *testing.T) {
	body := make([]byte, 1+100)
	body[0] = 7
	var sd StreamDataLayer
	err := sd.DecodeFromBytes(body, gopacket.NilDecodeFeedback)
	require.NoError(t, err)
	assert.Len(t, sd.Data, MaxChunkDataLen)
}

func TestStreamDataMissingSequence(t *testing.T) {
	var sd StreamDataLayer
	err := sd.DecodeFromBytes([]byte{}, gopacket.NilDecodeFeedback)
	require.Error(t, err)
	assert.IsType(t, ErrMalformedReport{}, err)
}

func TestReportTypeDispatch(t *testing.T) {
	assert.Equal(t, FeaturesLayerType, ReportType(ReportIDFeatures).LayerType())
	assert.Equal(t, DeviceIDLayerType, ReportType(ReportIDDeviceID).LayerType())
	assert.Equal(t, DataURILayerType, ReportType(ReportIDDataURI).LayerType())
	assert.Equal(t, AuthorizationLayerType, ReportType(ReportIDAuthorization).LayerType())
	assert.Equal(t, StreamControlLayerType, ReportType(ReportIDStreamControl).LayerType())
	assert.Equal(t, StreamDataLayerType, ReportType(ReportIDStreamData).LayerType())

	assert.Equal(t, "UnknownReportType", ReportType(0x7f).String())
}

func TestDecodeStreamDataPacket(t *testing.T) {
	packet := gopacket.NewPacket([]byte{ReportIDStreamData, 0x1f, 'x'}, ReportLayerType, gopacket.Default)
	require.Nil(t, packet.ErrorLayer())

	reportLayer := packet.Layer(ReportLayerType)
	require.NotNil(t, reportLayer)
	assert.Equal(t, uint8(ReportIDStreamData), reportLayer.(*ReportLayer).ReportID)

	sdLayer := packet.Layer(StreamDataLayerType)
	require.NotNil(t, sdLayer)
	sd := sdLayer.(*StreamDataLayer)
	assert.Equal(t, uint8(31), sd.Sequence)
	assert.Equal(t, []byte("x"), sd.Data)
}

func TestDecodeStreamControlPacket(t *testing.T) {
	packet := gopacket.NewPacket([]byte{ReportIDStreamControl, StreamEnabled}, ReportLayerType, gopacket.Default)
	require.Nil(t, packet.ErrorLayer())

	ctlLayer := packet.Layer(StreamControlLayerType)
	require.NotNil(t, ctlLayer)
	assert.True(t, ctlLayer.(*StreamControlLayer).Enable)
}

func TestDecodeDeviceIDPacket(t *testing.T) {
	packet := gopacket.NewPacket(append([]byte{ReportIDDeviceID}, "DEMOSERIAL"...), ReportLayerType, gopacket.Default)
	require.Nil(t, packet.ErrorLayer())

	idLayer := packet.Layer(DeviceIDLayerType)
	require.NotNil(t, idLayer)
	assert.Equal(t, "DEMOSERIAL", idLayer.(*DeviceIDLayer).DeviceID)
}

func TestDecodeUnknownReportPacket(t *testing.T) {
	packet := gopacket.NewPacket([]byte{0x7f, 0x00}, ReportLayerType, gopacket.Default)
	require.NotNil(t, packet.ErrorLayer())
}

func TestDecodeEmptyReportPacket(t *testing.T) {
	packet := gopacket.NewPacket([]byte{}, ReportLayerType, gopacket.Default)
	require.NotNil(t, packet.ErrorLayer())
}

func TestSerializeStreamDataReport(t *testing.T) {
	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{},
		&ReportLayer{ReportID: ReportIDStreamData},
		&StreamDataLayer{Sequence: 9, Data: []byte("payload")},
	)
	require.NoError(t, err)
	assert.Equal(t, append([]byte{ReportIDStreamData, 9}, "payload"...), buf.Bytes())
}

func TestSerializeStreamDataCapsPayload(t *testing.T) {
	buf := gopacket.NewSerializeBuffer()
	sd := &StreamDataLayer{Sequence: 1, Data: bytes.Repeat([]byte{'z'}, 200)}
	require.NoError(t, sd.SerializeTo(buf, gopacket.SerializeOptions{}))
	assert.Len(t, buf.Bytes(), 1+MaxChunkDataLen)
}

func TestSerializeStreamControlReport(t *testing.T) {
	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{},
		&ReportLayer{ReportID: ReportIDStreamControl},
		&StreamControlLayer{Enable: false},
	)
	require.NoError(t, err)
	assert.Equal(t, []byte{ReportIDStreamControl, StreamDisabled}, buf.Bytes())
}
