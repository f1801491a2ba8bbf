package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prlens/prlens/internal/cache"
	"github.com/prlens/prlens/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the completion reply cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached completion replies",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			fail(err)
			return nil
		}
		if err := c.Clear(); err != nil {
			fail(err)
			return nil
		}
		fmt.Fprintln(os.Stdout, "Cache cleared.")
		return nil
	},
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cache location and entry count",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			fail(err)
			return nil
		}
		dir, count, err := c.Info()
		if err != nil {
			fail(err)
			return nil
		}
		if dir == "" {
			fmt.Fprintln(os.Stdout, "Cache is disabled.")
			return nil
		}
		fmt.Fprintf(os.Stdout, "Cache directory: %s\n", dir)
		fmt.Fprintf(os.Stdout, "Entries: %d\n", count)
		return nil
	},
}

func openCache() (*cache.Cache, error) {
	cfg, err := config.Load(flagConfig, nil)
	if err != nil {
		return nil, err
	}
	return cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheInfoCmd)
}
