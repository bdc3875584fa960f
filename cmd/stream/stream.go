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

package stream

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/hidbridge/go-mds/pkg/command"
	"github.com/hidbridge/go-mds/pkg/config"
)

// NewCommand creates the stream command which asks a running gateway to
// enable or disable chunk streaming on the device
func NewCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:       "stream start|stop",
		Short:     "Enable/disable chunk streaming on the device",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"start", "stop"},
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			switch args[0] {
			case "start":
				return apiClient.StreamStart()
			case "stop":
				return apiClient.StreamStop()
			default:
				return errors.New("Wrong streaming command. Must be one of start/stop")
			}
		},
	}
	return cmd
}
