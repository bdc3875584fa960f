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

package upload

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/imroc/req"

	"github.com/hidbridge/go-mds/pkg/log"
)

const (
	// DefaultTimeout bounds one upload attempt when no timeout is configured
	DefaultTimeout = 30 * time.Second

	contentType = "application/octet-stream"
)

// Deliverer is the upload capability the protocol engine hands chunk
// payloads to. Implementations post the payload to the given URI with
// the given "Name:Value" authorization header and return the delivery
// status code.
type Deliverer interface {
	Deliver(uri, authHeader string, payload []byte) (int, error)
}

// UploadStats is a point-in-time snapshot of the delivery counters
type UploadStats struct {
	ChunksUploaded uint64 `json:"chunks_uploaded"`
	BytesUploaded  uint64 `json:"bytes_uploaded"`
	UploadFailures uint64 `json:"upload_failures"`
	LastStatus     int    `json:"last_status"`
}

// Uploader is the default HTTP implementation of Deliverer. One call
// issues exactly one POST, retries are the caller's business. The
// counters are atomic, the API server reads them while the forwarding
// pipeline writes them.
type Uploader struct {
	client *req.Req

	chunksUploaded atomic.Uint64
	bytesUploaded  atomic.Uint64
	uploadFailures atomic.Uint64
	lastStatus     atomic.Int64
}

var _ Deliverer = &Uploader{}

// NewUploader creates an Uploader with the given per-attempt timeout.
// Verbose mode dumps requests and responses through the req logger.
func NewUploader(timeout time.Duration, verbose bool) *Uploader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := req.New()
	client.SetTimeout(timeout)
	if verbose {
		req.Debug = true
	}
	return &Uploader{
		client: client,
	}
}

// Deliver posts one chunk payload. The authorization header is split at
// the first colon, a header without a colon is rejected before any
// network attempt and leaves every counter untouched. Success requires
// both a transport-level success and an HTTP status in [200,300).
func (u *Uploader) Deliver(uri, authHeader string, payload []byte) (int, error) {
	if uri == "" {
		return 0, ErrInvalidArgument{What: "upload URI is required"}
	}
	name, value, found := strings.Cut(authHeader, ":")
	if !found {
		return 0, ErrInvalidAuthFormat{Header: authHeader}
	}
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)

	header := req.Header{
		"Content-Type": contentType,
		name:           value,
	}

	r, err := u.client.Post(uri, header, payload)
	if err != nil {
		u.uploadFailures.Add(1)
		u.lastStatus.Store(0)
		return 0, ErrDeliveryFailed{Err: err}
	}

	status := r.Response().StatusCode
	u.lastStatus.Store(int64(status))
	if status < 200 || status >= 300 {
		u.uploadFailures.Add(1)
		return status, ErrDeliveryFailed{Status: status}
	}

	u.chunksUploaded.Add(1)
	u.bytesUploaded.Add(uint64(len(payload)))
	log.Debug("Uploaded chunk: %d bytes to %s: status: %d", len(payload), uri, status)
	return status, nil
}

// Stats returns a snapshot of the delivery counters
func (u *Uploader) Stats() UploadStats {
	return UploadStats{
		ChunksUploaded: u.chunksUploaded.Load(),
		BytesUploaded:  u.bytesUploaded.Load(),
		UploadFailures: u.uploadFailures.Load(),
		LastStatus:     int(u.lastStatus.Load()),
	}
}

// ResetStats zeroes the delivery counters. The counters are otherwise
// monotonic, nothing but an explicit reset ever decreases them.
func (u *Uploader) ResetStats() {
	u.chunksUploaded.Store(0)
	u.bytesUploaded.Store(0)
	u.uploadFailures.Store(0)
	u.lastStatus.Store(0)
}
