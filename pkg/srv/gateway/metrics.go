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
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hidbridge/go-mds/pkg/upload"
)

const (
	MetricsNamespace = "gomds"
)

// Metrics holds the gateway registry. The counters sample the gateway
// snapshot on scrape, only the upload duration histogram is observed
// on the delivery path.
type Metrics struct {
	registry       *prometheus.Registry
	uploadDuration prometheus.Histogram
}

func NewMetrics(g *Gateway) *Metrics {
	registry := prometheus.NewRegistry()

	uploadDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "upload_duration_seconds",
		Help:      "Time spent delivering one chunk to the ingestion endpoint.",
		Buckets:   prometheus.DefBuckets,
	})
	registry.MustRegister(uploadDuration)

	registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "streaming",
		Help:      "Whether chunk streaming is currently enabled on the device.",
	}, func() float64 {
		if g.Status().Streaming {
			return 1
		}
		return 0
	}))
	registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "packets_read_total",
		Help:      "Stream data reports read from the device.",
	}, func() float64 {
		return float64(g.Stats().PacketsRead)
	}))
	registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "discontinuities_total",
		Help:      "Sequence discontinuities observed on the chunk stream.",
	}, func() float64 {
		return float64(g.Stats().Discontinuities)
	}))
	registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "chunks_uploaded_total",
		Help:      "Chunks delivered to the ingestion endpoint.",
	}, func() float64 {
		return float64(g.Stats().ChunksUploaded)
	}))
	registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "bytes_uploaded_total",
		Help:      "Chunk payload bytes delivered to the ingestion endpoint.",
	}, func() float64 {
		return float64(g.Stats().BytesUploaded)
	}))
	registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "upload_failures_total",
		Help:      "Chunk deliveries that failed.",
	}, func() float64 {
		return float64(g.Stats().UploadFailures)
	}))

	return &Metrics{
		registry:       registry,
		uploadDuration: uploadDuration,
	}
}

// Handler exposes the gateway registry to the API server
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// meteredDeliverer decorates a Deliverer with the upload duration
// histogram. The gateway hands it to the session instead of the bare
// uploader.
type meteredDeliverer struct {
	inner    upload.Deliverer
	duration prometheus.Observer
}

var _ upload.Deliverer = &meteredDeliverer{}

func newMeteredDeliverer(inner upload.Deliverer, m *Metrics) *meteredDeliverer {
	return &meteredDeliverer{
		inner:    inner,
		duration: m.uploadDuration,
	}
}

func (d *meteredDeliverer) Deliver(uri, authHeader string, payload []byte) (int, error) {
	start := time.Now()
	status, err := d.inner.Deliver(uri, authHeader, payload)
	d.duration.Observe(time.Since(start).Seconds())
	return status, err
}
