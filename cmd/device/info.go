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

package device

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/hidbridge/go-mds/pkg/command"
	"github.com/hidbridge/go-mds/pkg/config"
)

const (
	VendorIDOptionName  = "vendor-id"
	ProductIDOptionName = "product-id"
	SerialOptionName    = "serial"
	EmulatedOptionName  = "emulated"
)

func NewInfoCommand() *cobra.Command {
	var vendorID, productID, serial string
	var emulated bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Read the MDS configuration from the device",
		RunE: func(cmd *cobra.Command, args []string) error {
			if vendorID != "" {
				cfg.VendorID = vendorID
			}
			if productID != "" {
				cfg.ProductID = productID
			}
			if serial != "" {
				cfg.Serial = serial
			}
			if emulated {
				cfg.Emulated = true
			}
			devConfig, err := command.ReadDeviceConfig(cfg)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(devConfig)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&vendorID, VendorIDOptionName, "", fmt.Sprintf("Vendor ID of the device. E.g. %s", config.DefaultVendorID))
	cmd.Flags().StringVar(&productID, ProductIDOptionName, "", fmt.Sprintf("Product ID of the device. E.g. %s", config.DefaultProductID))
	cmd.Flags().StringVar(&serial, SerialOptionName, "", "Serial number of the device. Empty means first matching device")
	cmd.Flags().BoolVar(&emulated, EmulatedOptionName, false, "Use the emulated device instead of real hardware")

	return cmd
}
