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

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hidbridge/go-mds/cmd/completion"
	"github.com/hidbridge/go-mds/cmd/config"
	"github.com/hidbridge/go-mds/cmd/device"
	"github.com/hidbridge/go-mds/cmd/gateway"
	"github.com/hidbridge/go-mds/cmd/stats"
	"github.com/hidbridge/go-mds/cmd/stream"
	pkgconfig "github.com/hidbridge/go-mds/pkg/config"
	"github.com/hidbridge/go-mds/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel string
	cfg := pkgconfig.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "go-mds",
		Short: "Tool to bridge diagnostic data from MDS-over-HID devices to the cloud",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			log.Init(cmd.ErrOrStderr(), cfg.LogLevel)
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(config.NewCommand())
	cmd.AddCommand(gateway.NewCommand())
	cmd.AddCommand(stream.NewCommand())
	cmd.AddCommand(stats.NewCommand())
	cmd.AddCommand(device.NewCommand())
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	return cmd
}
