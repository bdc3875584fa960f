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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T) *Config {
	cfg := NewDefaultConfig()
	cfg.filepath = filepath.Join(t.TempDir(), "config")
	return cfg
}

func TestPersistLoad(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.VendorID = "0x1234"
	cfg.Serial = "DEMOSERIAL"
	cfg.Emulated = true
	cfg.Port = 9000
	cfg.URI = "https://chunks.example.com/api/v0/chunks/DEMOSERIAL"
	require.NoError(t, cfg.Persist(false))

	loaded := NewDefaultConfig()
	loaded.filepath = cfg.filepath
	require.NoError(t, loaded.Load())

	assert.Equal(t, "0x1234", loaded.VendorID)
	assert.Equal(t, "DEMOSERIAL", loaded.Serial)
	assert.True(t, loaded.Emulated)
	assert.Equal(t, 9000, loaded.Port)
	assert.Equal(t, "https://chunks.example.com/api/v0/chunks/DEMOSERIAL", loaded.URI)
	// untouched fields keep their defaults
	assert.Equal(t, DefaultProductID, loaded.ProductID)
	assert.Equal(t, DefaultApiHost, loaded.Host)
}

func TestPersistRefusesOverwrite(t *testing.T) {
	cfg := newTestConfig(t)
	require.NoError(t, cfg.Persist(false))

	err := cfg.Persist(false)
	require.Error(t, err)
	assert.IsType(t, ErrConfigFileExists{}, err)

	assert.NoError(t, cfg.Persist(true))
}

func TestLoadMissingFile(t *testing.T) {
	cfg := newTestConfig(t)
	require.NoError(t, cfg.Load())
	assert.Equal(t, DefaultVendorID, cfg.VendorID)
	assert.Equal(t, DefaultApiPort, cfg.Port)
}

func TestLoadPartialFile(t *testing.T) {
	cfg := newTestConfig(t)
	data := []byte("api:\n  port: 9999\n")
	require.NoError(t, os.WriteFile(cfg.filepath, data, 0644))

	require.NoError(t, cfg.Load())
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, DefaultApiHost, cfg.Host)
	assert.Equal(t, DefaultVendorID, cfg.VendorID)
}

func TestParseDeviceIDs(t *testing.T) {
	d := &DeviceConfig{VendorID: "0x1915", ProductID: "0x520f"}

	vid, err := d.ParseVendorID()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1915), vid)

	pid, err := d.ParseProductID()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x520f), pid)

	d.VendorID = "not-a-number"
	_, err = d.ParseVendorID()
	assert.Error(t, err)
}

func TestConfigString(t *testing.T) {
	cfg := NewDefaultConfig()
	s := cfg.String()
	assert.Contains(t, s, "vendor_id")
	assert.Contains(t, s, DefaultVendorID)
}
