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
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/hidbridge/go-mds/pkg/config"
	"github.com/hidbridge/go-mds/pkg/hid"
	"github.com/hidbridge/go-mds/pkg/hid/emu"
	"github.com/hidbridge/go-mds/pkg/hid/hidapi"
	"github.com/hidbridge/go-mds/pkg/log"
	"github.com/hidbridge/go-mds/pkg/mds"
	"github.com/hidbridge/go-mds/pkg/srv/gateway"
)

// StartGateway opens the configured device and runs the gateway until
// the process is told to stop. Stopping via SIGINT/SIGTERM is a normal
// shutdown, the device is asked to stop streaming on the way out.
func StartGateway(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dev, cleanup, err := openDevice(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	g, err := gateway.New(ctx, cfg, dev)
	if err != nil {
		return err
	}
	if err := g.Run(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// ListDevices enumerates the attached HID devices. With all set the
// vendor and product ID filter from the config is ignored.
func ListDevices(cfg *config.Config, all bool) ([]hid.DeviceInfo, error) {
	if cfg.Emulated {
		return []hid.DeviceInfo{{
			Path:    "emu",
			Serial:  emu.DefaultSerial,
			Product: "emulated diagnostic device",
		}}, nil
	}

	lib, err := hidapi.Init()
	if err != nil {
		return nil, err
	}
	defer lib.Exit()

	var vendorID, productID uint16
	if !all {
		if vendorID, err = cfg.ParseVendorID(); err != nil {
			return nil, err
		}
		if productID, err = cfg.ParseProductID(); err != nil {
			return nil, err
		}
	}
	return lib.Enumerate(vendorID, productID)
}

// ReadDeviceConfig opens the configured device and reads its MDS
// configuration without starting the gateway
func ReadDeviceConfig(cfg *config.Config) (*mds.DeviceConfig, error) {
	dev, cleanup, err := openDevice(cfg)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	session := mds.NewSession(dev)
	defer session.Close()

	return session.ReadConfig()
}

func openDevice(cfg *config.Config) (hid.Device, func(), error) {
	if cfg.Emulated {
		log.Info("Using emulated device: serial: %s", cfg.Serial)
		return emu.NewDevice(cfg.Serial), func() {}, nil
	}

	lib, err := hidapi.Init()
	if err != nil {
		return nil, nil, err
	}

	vendorID, err := cfg.ParseVendorID()
	if err != nil {
		lib.Exit()
		return nil, nil, err
	}
	productID, err := cfg.ParseProductID()
	if err != nil {
		lib.Exit()
		return nil, nil, err
	}

	log.Info("Opening device: vendor: 0x%04x product: 0x%04x serial: %s", vendorID, productID, cfg.Serial)
	dev, err := lib.Open(vendorID, productID, cfg.Serial)
	if err != nil {
		lib.Exit()
		return nil, nil, err
	}

	cleanup := func() {
		dev.Close()
		lib.Exit()
	}
	return dev, cleanup, nil
}
