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
	"fmt"
	"sync"
	"time"

	"github.com/hidbridge/go-mds/pkg/config"
	"github.com/hidbridge/go-mds/pkg/hid"
	"github.com/hidbridge/go-mds/pkg/layers"
	"github.com/hidbridge/go-mds/pkg/log"
	"github.com/hidbridge/go-mds/pkg/mds"
	"github.com/hidbridge/go-mds/pkg/upload"
)

const (
	// ReadTimeout paces the forwarding loop. It bounds one input report
	// read, control requests wait at most one iteration.
	ReadTimeout = 100 * time.Millisecond
)

type ctlOp int

const (
	ctlStreamStart ctlOp = iota
	ctlStreamStop
	ctlStatsReset
)

type ctlRequest struct {
	op   ctlOp
	resp chan error
}

// Stats are the lifetime forwarding counters, persisted counters plus
// the counters of the current run
type Stats struct {
	PacketsRead     uint64 `json:"packets_read"`
	Discontinuities uint64 `json:"discontinuities"`
	ChunksUploaded  uint64 `json:"chunks_uploaded"`
	BytesUploaded   uint64 `json:"bytes_uploaded"`
	UploadFailures  uint64 `json:"upload_failures"`
	LastStatus      int    `json:"last_status"`
}

// Status is the gateway snapshot the API serves. LastSequence is -1
// while no packet has been accepted since streaming started.
type Status struct {
	DeviceIdentifier  string `json:"device_identifier"`
	SupportedFeatures string `json:"supported_features"`
	DataURI           string `json:"data_uri"`
	Streaming         bool   `json:"streaming"`
	LastSequence      int    `json:"last_sequence"`
	Stats             Stats  `json:"stats"`
}

// Gateway drives one MDS session. All session calls happen on the Run
// goroutine, the API reaches the session through the control channel
// and reads counters from a guarded mirror.
type Gateway struct {
	context.Context
	*config.Config
	api      *ApiServer
	session  *mds.Session
	uploader *upload.Uploader
	state    *StatsState
	metrics  *Metrics
	ctl      chan ctlRequest

	mu              sync.Mutex
	devConfig       *mds.DeviceConfig
	streaming       bool
	lastSequence    int
	baseline        Stats
	packetsRead     uint64
	discontinuities uint64
	lastSessionDisc uint64
}

func New(ctx context.Context, cfg *config.Config, dev hid.Device) (*Gateway, error) {
	log.Info("Initializing gateway with address: %s port: %d", cfg.Host, cfg.Port)

	state, err := NewStatsState(ctx, cfg)
	if err != nil {
		return nil, err
	}

	g := &Gateway{
		Context:      ctx,
		Config:       cfg,
		session:      mds.NewSession(dev),
		uploader:     upload.NewUploader(time.Duration(cfg.TimeoutSec)*time.Second, cfg.Verbose),
		state:        state,
		ctl:          make(chan ctlRequest),
		lastSequence: -1,
	}
	g.metrics = NewMetrics(g)
	g.session.SetUploader(newMeteredDeliverer(g.uploader, g.metrics))

	apiServer, err := NewApiServer(ctx, cfg, g)
	if err != nil {
		return nil, err
	}
	g.api = apiServer

	return g, nil
}

// Run reads the device configuration, enables streaming and forwards
// chunks until the context is canceled or the transport fails
func (g *Gateway) Run() error {
	defer g.shutdown()

	devConfig, err := g.session.ReadConfig()
	if err != nil {
		return err
	}
	if g.Config.URI != "" {
		log.Info("Overriding device data URI: %s", g.Config.URI)
		devConfig.DataURI = g.Config.URI
	}
	if g.Config.Authorization != "" {
		log.Info("Overriding device authorization header")
		devConfig.Authorization = g.Config.Authorization
	}
	log.Info("Device configuration: identifier: %s features: 0x%08x uri: %s",
		devConfig.DeviceIdentifier, devConfig.SupportedFeatures, devConfig.DataURI)

	baseline, err := g.state.LoadStats(devConfig.DeviceIdentifier)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.devConfig = devConfig
	g.baseline = baseline
	g.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		errChan <- g.api.Run()
	}()

	if err = g.session.StreamEnable(); err != nil {
		return err
	}
	g.setStreaming(true)

	for {
		select {
		case <-g.Context.Done():
			return g.Context.Err()
		case err = <-errChan:
			return err
		case req := <-g.ctl:
			req.resp <- g.handleControl(req.op)
			continue
		default:
		}

		if err = g.step(); err != nil {
			return err
		}
	}
}

// step runs one forwarding iteration. Timeouts mean no chunk arrived
// within one pacing interval, delivery failures are counted and logged.
// Anything else ends the run.
func (g *Gateway) step() error {
	if !g.Status().Streaming {
		time.Sleep(ReadTimeout)
		return nil
	}

	err := g.session.Process(g.DeviceConfig(), ReadTimeout)
	switch err.(type) {
	case nil:
	case hid.ErrTimeout:
		return nil
	case mds.ErrWrongReportType, layers.ErrMalformedReport:
		log.Warning("Dropping unexpected report: %s", err)
		return nil
	case upload.ErrInvalidArgument, upload.ErrInvalidAuthFormat, upload.ErrDeliveryFailed:
		log.Error("Error while delivering chunk: %s", err)
	default:
		return err
	}

	// nil and delivery errors both mean a packet was read
	g.mu.Lock()
	g.packetsRead++
	disc := g.session.Discontinuities()
	g.discontinuities += disc - g.lastSessionDisc
	g.lastSessionDisc = disc
	if seq, ok := g.session.LastSequence(); ok {
		g.lastSequence = int(seq)
	}
	g.mu.Unlock()
	return nil
}

// handleControl services one control request on the Run goroutine
func (g *Gateway) handleControl(op ctlOp) error {
	switch op {
	case ctlStreamStart:
		if err := g.session.StreamEnable(); err != nil {
			return err
		}
		g.setStreaming(true)
		return nil
	case ctlStreamStop:
		if err := g.session.StreamDisable(); err != nil {
			return err
		}
		// a confirmed disable resets the session tracker, the next
		// stream starts a fresh sequence
		g.mu.Lock()
		g.streaming = false
		g.lastSequence = -1
		g.mu.Unlock()
		return nil
	case ctlStatsReset:
		return g.resetStats()
	default:
		return ErrUnknownOperation{What: fmt.Sprintf("control operation %d", op)}
	}
}

func (g *Gateway) control(op ctlOp) error {
	req := ctlRequest{op: op, resp: make(chan error, 1)}
	select {
	case g.ctl <- req:
	case <-g.Context.Done():
		return g.Context.Err()
	}
	select {
	case err := <-req.resp:
		return err
	case <-g.Context.Done():
		return g.Context.Err()
	}
}

// StreamStart asks the forwarding loop to enable streaming on the device
func (g *Gateway) StreamStart() error {
	return g.control(ctlStreamStart)
}

// StreamStop asks the forwarding loop to disable streaming on the device
func (g *Gateway) StreamStop() error {
	return g.control(ctlStreamStop)
}

// StatsReset asks the forwarding loop to zero the lifetime counters
func (g *Gateway) StatsReset() error {
	return g.control(ctlStatsReset)
}

func (g *Gateway) resetStats() error {
	g.uploader.ResetStats()
	g.mu.Lock()
	g.baseline = Stats{}
	g.packetsRead = 0
	g.discontinuities = 0
	deviceID := ""
	if g.devConfig != nil {
		deviceID = g.devConfig.DeviceIdentifier
	}
	g.mu.Unlock()
	if deviceID == "" {
		return nil
	}
	return g.state.SaveStats(deviceID, Stats{})
}

func (g *Gateway) setStreaming(streaming bool) {
	g.mu.Lock()
	g.streaming = streaming
	g.mu.Unlock()
}

// DeviceConfig returns the configuration read from the device with any
// local overrides applied, nil before the first read
func (g *Gateway) DeviceConfig() *mds.DeviceConfig {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.devConfig
}

// Stats returns the lifetime forwarding counters. Safe to call from any
// goroutine.
func (g *Gateway) Stats() Stats {
	u := g.uploader.Stats()
	g.mu.Lock()
	defer g.mu.Unlock()
	return Stats{
		PacketsRead:     g.baseline.PacketsRead + g.packetsRead,
		Discontinuities: g.baseline.Discontinuities + g.discontinuities,
		ChunksUploaded:  g.baseline.ChunksUploaded + u.ChunksUploaded,
		BytesUploaded:   g.baseline.BytesUploaded + u.BytesUploaded,
		UploadFailures:  g.baseline.UploadFailures + u.UploadFailures,
		LastStatus:      u.LastStatus,
	}
}

// Status returns a point-in-time gateway snapshot. Safe to call from
// any goroutine.
func (g *Gateway) Status() Status {
	status := Status{Stats: g.Stats()}
	g.mu.Lock()
	status.Streaming = g.streaming
	status.LastSequence = g.lastSequence
	if g.devConfig != nil {
		status.DeviceIdentifier = g.devConfig.DeviceIdentifier
		status.SupportedFeatures = fmt.Sprintf("0x%08x", g.devConfig.SupportedFeatures)
		status.DataURI = g.devConfig.DataURI
	}
	g.mu.Unlock()
	return status
}

func (g *Gateway) shutdown() {
	g.session.Close()
	g.setStreaming(false)
	if devConfig := g.DeviceConfig(); devConfig != nil {
		if err := g.state.SaveStats(devConfig.DeviceIdentifier, g.Stats()); err != nil {
			log.Error("Error while persisting forwarding stats: %s", err)
		}
	}
	g.state.Close()
}
