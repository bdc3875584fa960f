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

package stats

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/hidbridge/go-mds/pkg/command"
	"github.com/hidbridge/go-mds/pkg/config"
	"github.com/hidbridge/go-mds/pkg/srv/gateway"
)

// NewCommand creates the stats command which shows or resets the
// forwarding counters of a running gateway
func NewCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:       "stats get|reset",
		Short:     "Show or reset the forwarding counters",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"get", "reset"},
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			var stats *gateway.Stats
			var err error
			switch args[0] {
			case "get":
				stats, err = apiClient.Stats()
			case "reset":
				stats, err = apiClient.StatsReset()
			default:
				return errors.New("Wrong stats command. Must be one of get/reset")
			}
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(stats)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	return cmd
}
