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

package gateway

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hidbridge/go-mds/pkg/config"
)

func newTestState(t *testing.T) *StatsState {
	cfg := config.NewDefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "state.db")
	state, err := NewStatsState(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(state.Close)
	return state
}

func TestSaveLoadStats(t *testing.T) {
	state := newTestState(t)

	saved := Stats{
		PacketsRead:     1000,
		Discontinuities: 3,
		ChunksUploaded:  997,
		BytesUploaded:   62811,
		UploadFailures:  2,
		LastStatus:      202,
	}
	require.NoError(t, state.SaveStats("DEMOSERIAL", saved))

	loaded, err := state.LoadStats("DEMOSERIAL")
	require.NoError(t, err)
	assert.Equal(t, saved.PacketsRead, loaded.PacketsRead)
	assert.Equal(t, saved.Discontinuities, loaded.Discontinuities)
	assert.Equal(t, saved.ChunksUploaded, loaded.ChunksUploaded)
	assert.Equal(t, saved.BytesUploaded, loaded.BytesUploaded)
	assert.Equal(t, saved.UploadFailures, loaded.UploadFailures)
	// the last HTTP status is a live value, it is not persisted
	assert.Equal(t, 0, loaded.LastStatus)
}

func TestLoadStatsUnknownDevice(t *testing.T) {
	state := newTestState(t)

	stats, err := state.LoadStats("NEVERSEEN")
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestSaveStatsOverwrites(t *testing.T) {
	state := newTestState(t)

	require.NoError(t, state.SaveStats("DEMOSERIAL", Stats{PacketsRead: 10}))
	require.NoError(t, state.SaveStats("DEMOSERIAL", Stats{}))

	loaded, err := state.LoadStats("DEMOSERIAL")
	require.NoError(t, err)
	assert.Equal(t, Stats{}, loaded)
}

func TestStatsPerDevice(t *testing.T) {
	state := newTestState(t)

	require.NoError(t, state.SaveStats("DEV-A", Stats{PacketsRead: 1}))
	require.NoError(t, state.SaveStats("DEV-B", Stats{PacketsRead: 2}))

	a, err := state.LoadStats("DEV-A")
	require.NoError(t, err)
	b, err := state.LoadStats("DEV-B")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), a.PacketsRead)
	assert.Equal(t, uint64(2), b.PacketsRead)
}

func TestUint64Encoding(t *testing.T) {
	assert.Equal(t, uint64(0), byteToUint64(nil))
	assert.Equal(t, uint64(0), byteToUint64([]byte{1, 2, 3}))
	for _, v := range []uint64{0, 1, 255, 1 << 32, 1<<64 - 1} {
		assert.Equal(t, v, byteToUint64(uint64ToByte(v)))
	}
}
