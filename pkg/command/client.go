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

package command

import (
	"errors"
	"fmt"

	"github.com/imroc/req"

	"github.com/hidbridge/go-mds/pkg/config"
	"github.com/hidbridge/go-mds/pkg/mds"
	"github.com/hidbridge/go-mds/pkg/srv/gateway"
)

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s:%d%s", cfg.Host, cfg.Port, gateway.ApiPrefix),
	}
}

// DeviceConfig sends request to get the configuration the gateway read
// from the device
func (c *ApiClient) DeviceConfig() (*mds.DeviceConfig, error) {
	r, err := req.Get(fmt.Sprintf("%s/config", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	devConfig := &mds.DeviceConfig{}
	err = r.ToJSON(devConfig)
	if err != nil {
		return nil, err
	}
	return devConfig, nil
}

// Status sends request to get the gateway status
func (c *ApiClient) Status() (*gateway.Status, error) {
	r, err := req.Get(fmt.Sprintf("%s/status", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	status := &gateway.Status{}
	err = r.ToJSON(status)
	if err != nil {
		return nil, err
	}
	return status, nil
}

// Stats sends request to get the forwarding counters
func (c *ApiClient) Stats() (*gateway.Stats, error) {
	r, err := req.Get(fmt.Sprintf("%s/stats", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	stats := &gateway.Stats{}
	err = r.ToJSON(stats)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// StatsReset sends request to zero the forwarding counters
func (c *ApiClient) StatsReset() (*gateway.Stats, error) {
	r, err := req.Post(fmt.Sprintf("%s/stats/reset", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	stats := &gateway.Stats{}
	err = r.ToJSON(stats)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// StreamStart sends request to enable chunk streaming on the device
func (c *ApiClient) StreamStart() error {
	r, err := req.Get(fmt.Sprintf("%s/stream/start", c.ApiPrefix))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}

// StreamStop sends request to disable chunk streaming on the device
func (c *ApiClient) StreamStop() error {
	r, err := req.Get(fmt.Sprintf("%s/stream/stop", c.ApiPrefix))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}
