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
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/hidbridge/go-mds/pkg/config"
	"github.com/hidbridge/go-mds/pkg/log"
)

const (
	BucketNamePrefix = "stats_"
)

var (
	keyPacketsRead     = []byte("packets_read")
	keyDiscontinuities = []byte("discontinuities")
	keyChunksUploaded  = []byte("chunks_uploaded")
	keyBytesUploaded   = []byte("bytes_uploaded")
	keyUploadFailures  = []byte("upload_failures")
)

// StatsState persists the lifetime forwarding counters per device
// identifier so they survive gateway restarts
type StatsState struct {
	context.Context
	DB *bbolt.DB
}

func NewStatsState(ctx context.Context, cfg *config.Config) (*StatsState, error) {
	// open stats database
	db, err := bbolt.Open(cfg.DBPath, 0600, nil)
	if err != nil {
		return nil, err
	}
	return &StatsState{
		Context: ctx,
		DB:      db,
	}, nil
}

func uint64ToByte(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func byteToUint64(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func bucketName(deviceID string) string {
	return fmt.Sprintf("%s%s", BucketNamePrefix, deviceID)
}

// Close ...
func (s *StatsState) Close() {
	s.DB.Close()
}

// SaveStats ...
func (s *StatsState) SaveStats(deviceID string, stats Stats) error {
	log.Debug("Persisting forwarding stats for device: %s", deviceID)
	if err := s.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketName(deviceID)))
		if err != nil {
			return err
		}
		if err := b.Put(keyPacketsRead, uint64ToByte(stats.PacketsRead)); err != nil {
			return err
		}
		if err := b.Put(keyDiscontinuities, uint64ToByte(stats.Discontinuities)); err != nil {
			return err
		}
		if err := b.Put(keyChunksUploaded, uint64ToByte(stats.ChunksUploaded)); err != nil {
			return err
		}
		if err := b.Put(keyBytesUploaded, uint64ToByte(stats.BytesUploaded)); err != nil {
			return err
		}
		if err := b.Put(keyUploadFailures, uint64ToByte(stats.UploadFailures)); err != nil {
			return err
		}
		return nil
	}); err != nil {
		return err
	}
	return nil
}

// LoadStats returns the persisted counters for a device. A device that
// was never seen before gets zero counters, not an error.
func (s *StatsState) LoadStats(deviceID string) (Stats, error) {
	log.Debug("Loading forwarding stats for device: %s", deviceID)
	var stats Stats
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName(deviceID)))
		if b == nil {
			return nil
		}
		stats.PacketsRead = byteToUint64(b.Get(keyPacketsRead))
		stats.Discontinuities = byteToUint64(b.Get(keyDiscontinuities))
		stats.ChunksUploaded = byteToUint64(b.Get(keyChunksUploaded))
		stats.BytesUploaded = byteToUint64(b.Get(keyBytesUploaded))
		stats.UploadFailures = byteToUint64(b.Get(keyUploadFailures))
		return nil
	}); err != nil {
		return Stats{}, err
	}
	return stats, nil
}
