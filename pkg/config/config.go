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
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"

	"sigs.k8s.io/yaml"
)

// DeviceConfig tells the gateway which HID device to open.
// VendorID and ProductID are hexadecimal strings, e.g. 0x1915.
type DeviceConfig struct {
	VendorID  string `json:"vendor_id,omitempty"`
	ProductID string `json:"product_id,omitempty"`
	Serial    string `json:"serial,omitempty"`
	Emulated  bool   `json:"emulated,omitempty"`
}

// ParseVendorID parses the hexadecimal vendor ID string
func (d *DeviceConfig) ParseVendorID() (uint16, error) {
	v, err := strconv.ParseUint(d.VendorID, 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// ParseProductID parses the hexadecimal product ID string
func (d *DeviceConfig) ParseProductID() (uint16, error) {
	v, err := strconv.ParseUint(d.ProductID, 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// UploadConfig configures the chunk uploader.
// URI and Authorization, when set, override the values read from the device.
type UploadConfig struct {
	TimeoutSec    int    `json:"timeout_sec,omitempty"`
	Verbose       bool   `json:"verbose,omitempty"`
	URI           string `json:"uri,omitempty"`
	Authorization string `json:"authorization,omitempty"`
}

type ApiConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

type Config struct {
	*DeviceConfig `json:"device,omitempty"`
	*UploadConfig `json:"upload,omitempty"`
	*ApiConfig    `json:"api,omitempty"`
	DBPath        string `json:"db_path,omitempty"`
	LogLevel      string `json:"log_level,omitempty"`
	filepath      string
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	err = ioutil.WriteFile(c.filepath, data, 0644)
	if err != nil {
		return err
	}

	return nil
}

// Load reads the config file into c. A missing config file is not an
// error, the defaults are kept in that case.
func (c *Config) Load() error {
	data, err := ioutil.ReadFile(c.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) String() string {
	data, err := yaml.Marshal(&c)
	if err != nil {
		return ""
	}
	return string(data)
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, DBFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		DeviceConfig: &DeviceConfig{
			VendorID:  DefaultVendorID,
			ProductID: DefaultProductID,
		},
		UploadConfig: &UploadConfig{
			TimeoutSec: DefaultUploadTimeoutSec,
		},
		ApiConfig: &ApiConfig{
			Host: DefaultApiHost,
			Port: DefaultApiPort,
		},
		DBPath:   DefaultDBPath(),
		LogLevel: DefaultLogLevel,
		filepath: DefaultConfigPath(),
	}
}
