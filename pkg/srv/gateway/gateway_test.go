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
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hidbridge/go-mds/pkg/config"
	"github.com/hidbridge/go-mds/pkg/hid/emu"
)

const testAuth = "Memfault-Project-Key:test"

// gatewayFixture runs a gateway over an emulated device, uploading to a
// local chunk server
type gatewayFixture struct {
	g      *Gateway
	dev    *emu.Device
	cfg    *config.Config
	server *httptest.Server

	mu       sync.Mutex
	uploads  uint64
	lastAuth string
	lastBody []byte

	cancel context.CancelFunc
	done   chan error
	once   sync.Once
	runErr error
}

func (f *gatewayFixture) handleChunk(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.uploads++
	f.lastAuth = r.Header.Get("Memfault-Project-Key")
	f.lastBody = body
	f.mu.Unlock()
	w.WriteHeader(http.StatusAccepted)
}

func (f *gatewayFixture) uploadCount() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads
}

// stop cancels the run and returns the error Run exited with
func (f *gatewayFixture) stop() error {
	f.once.Do(func() {
		f.cancel()
		f.runErr = <-f.done
	})
	return f.runErr
}

func startTestGateway(t *testing.T, serial string) *gatewayFixture {
	f := &gatewayFixture{done: make(chan error, 1)}
	f.server = httptest.NewServer(http.HandlerFunc(f.handleChunk))
	t.Cleanup(f.server.Close)

	f.dev = emu.NewDevice(serial)
	f.dev.SetInterval(10 * time.Millisecond)
	f.dev.SetUploadTarget(f.server.URL, testAuth)

	f.cfg = config.NewDefaultConfig()
	f.cfg.Host = "127.0.0.1"
	f.cfg.Port = 0
	f.cfg.DBPath = filepath.Join(t.TempDir(), "gateway.db")

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel

	g, err := New(ctx, f.cfg, f.dev)
	require.NoError(t, err)
	f.g = g

	go func() {
		f.done <- g.Run()
	}()
	t.Cleanup(func() { f.stop() })
	return f
}

func waitForUploads(t *testing.T, f *gatewayFixture, n uint64) {
	require.Eventually(t, func() bool {
		return f.uploadCount() >= n
	}, 5*time.Second, 10*time.Millisecond)
}

func TestGatewayForwardsChunks(t *testing.T) {
	f := startTestGateway(t, "GWTEST01")
	waitForUploads(t, f, 3)

	f.mu.Lock()
	assert.Equal(t, "test", f.lastAuth)
	assert.Contains(t, string(f.lastBody), "demo-chunk-")
	f.mu.Unlock()

	status := f.g.Status()
	assert.Equal(t, "GWTEST01", status.DeviceIdentifier)
	assert.Equal(t, "0x0000001f", status.SupportedFeatures)
	assert.Equal(t, f.server.URL, status.DataURI)
	assert.True(t, status.Streaming)
	assert.GreaterOrEqual(t, status.LastSequence, 0)

	stats := f.g.Stats()
	assert.GreaterOrEqual(t, stats.PacketsRead, uint64(3))
	assert.GreaterOrEqual(t, stats.ChunksUploaded, uint64(3))
	assert.NotZero(t, stats.BytesUploaded)
	assert.Equal(t, http.StatusAccepted, stats.LastStatus)
	assert.Equal(t, uint64(0), stats.UploadFailures)

	assert.ErrorIs(t, f.stop(), context.Canceled)
}

func TestGatewayStreamControl(t *testing.T) {
	f := startTestGateway(t, "GWTEST02")
	waitForUploads(t, f, 1)

	require.NoError(t, f.g.StreamStop())
	status := f.g.Status()
	assert.False(t, status.Streaming)
	// the sequence state is forgotten with the stream
	assert.Equal(t, -1, status.LastSequence)

	require.NoError(t, f.g.StreamStart())
	assert.True(t, f.g.Status().Streaming)
}

func TestGatewayCountsDiscontinuities(t *testing.T) {
	f := startTestGateway(t, "GWTEST03")
	waitForUploads(t, f, 1)

	f.dev.DropNext(2)
	require.Eventually(t, func() bool {
		return f.g.Stats().Discontinuities >= 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestGatewayStatsReset(t *testing.T) {
	f := startTestGateway(t, "GWTEST04")
	waitForUploads(t, f, 1)

	// stop streaming first so the counters hold still
	require.NoError(t, f.g.StreamStop())
	require.NoError(t, f.g.StatsReset())
	assert.Equal(t, Stats{}, f.g.Stats())
}

func TestGatewayPersistsStats(t *testing.T) {
	f := startTestGateway(t, "GWTEST05")
	waitForUploads(t, f, 2)
	require.ErrorIs(t, f.stop(), context.Canceled)

	state, err := NewStatsState(context.Background(), f.cfg)
	require.NoError(t, err)
	persisted, err := state.LoadStats("GWTEST05")
	state.Close()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, persisted.PacketsRead, uint64(2))
	assert.GreaterOrEqual(t, persisted.ChunksUploaded, uint64(2))

	// a new run on the same database continues the lifetime counters
	dev := emu.NewDevice("GWTEST05")
	dev.SetInterval(10 * time.Millisecond)
	dev.SetUploadTarget(f.server.URL, testAuth)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, err := New(ctx, f.cfg, dev)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() {
		done <- g.Run()
	}()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool {
		return g.Stats().PacketsRead > persisted.PacketsRead
	}, 5*time.Second, 10*time.Millisecond)
}

func TestGatewayUploadFailures(t *testing.T) {
	f := startTestGateway(t, "GWTEST06")
	waitForUploads(t, f, 1)

	// delivery failures are counted, the forwarding loop keeps going
	f.server.Close()
	require.Eventually(t, func() bool {
		stats := f.g.Stats()
		return stats.UploadFailures >= 1 && stats.PacketsRead > stats.ChunksUploaded
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, f.g.Status().Streaming)
}
