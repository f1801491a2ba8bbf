package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/prlens/prlens/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long:  "Print the merged configuration (defaults, config file, environment, flags) as YAML. The GitHub token is never printed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig, buildOverrides())
		if err != nil {
			fail(err)
			return nil
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fail(err)
			return nil
		}
		fmt.Fprint(os.Stdout, string(data))
		return nil
	},
}

func init() {
	configCmd.Flags().StringVar(&flagConfig, "config", "", "Config file path (default: prlens.yaml if present)")
}
