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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hidbridge/go-mds/pkg/command"
	"github.com/hidbridge/go-mds/pkg/config"
)

const (
	VendorIDOptionName  = "vendor-id"
	ProductIDOptionName = "product-id"
	SerialOptionName    = "serial"
	EmulatedOptionName  = "emulated"
	URIOptionName       = "uri"
	AuthOptionName      = "authorization"
	HostOptionName      = "host"
	PortOptionName      = "port"
	DBPathOptionName    = "db-path"
)

func NewCommand() *cobra.Command {
	var vendorID, productID, serial, uri, auth, host, dbPath string
	var port int
	var emulated bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Start the gateway forwarding diagnostic chunks to the cloud",
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
			if uri != "" {
				cfg.URI = uri
			}
			if auth != "" {
				cfg.Authorization = auth
			}
			if host != "" {
				cfg.Host = host
			}
			if port != 0 {
				cfg.Port = port
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			return command.StartGateway(cfg)
		},
	}
	cmd.Flags().StringVar(&vendorID, VendorIDOptionName, "", fmt.Sprintf("Vendor ID of the device. E.g. %s", config.DefaultVendorID))
	cmd.Flags().StringVar(&productID, ProductIDOptionName, "", fmt.Sprintf("Product ID of the device. E.g. %s", config.DefaultProductID))
	cmd.Flags().StringVar(&serial, SerialOptionName, "", "Serial number of the device. Empty means first matching device")
	cmd.Flags().BoolVar(&emulated, EmulatedOptionName, false, "Use the emulated device instead of real hardware")
	cmd.Flags().StringVar(&uri, URIOptionName, "", "Override the chunk URI reported by the device")
	cmd.Flags().StringVar(&auth, AuthOptionName, "", "Override the authorization header reported by the device. Format Name:Value")
	cmd.Flags().StringVar(&host, HostOptionName, "", fmt.Sprintf("API address to bind. E.g. %s", config.DefaultApiHost))
	cmd.Flags().IntVar(&port, PortOptionName, 0, fmt.Sprintf("API port to bind. E.g. %d", config.DefaultApiPort))
	cmd.Flags().StringVar(&dbPath, DBPathOptionName, "", "Path to the stats database file")

	return cmd
}
