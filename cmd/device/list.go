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
	AllOptionName = "all"
)

func NewListCommand() *cobra.Command {
	var vendorID, productID string
	var all bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List attached HID devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			if vendorID != "" {
				cfg.VendorID = vendorID
			}
			if productID != "" {
				cfg.ProductID = productID
			}
			infos, err := command.ListDevices(cfg, all)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(infos)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&vendorID, VendorIDOptionName, "", fmt.Sprintf("Vendor ID to filter on. E.g. %s", config.DefaultVendorID))
	cmd.Flags().StringVar(&productID, ProductIDOptionName, "", fmt.Sprintf("Product ID to filter on. E.g. %s", config.DefaultProductID))
	cmd.Flags().BoolVar(&all, AllOptionName, false, "List all HID devices regardless of vendor and product ID")

	return cmd
}
