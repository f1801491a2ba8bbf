package cli

import (
	"github.com/spf13/cobra"

	"github.com/prlens/prlens/internal/config"
	"github.com/prlens/prlens/internal/logger"
	"github.com/prlens/prlens/internal/web"
)

var (
	flagServeAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve generated reports over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig, buildOverrides())
		if err != nil {
			fail(err)
			return nil
		}

		log := logger.New(cfg.Log.Level, cfg.Log.Format)

		addr := flagServeAddr
		if addr == "" {
			addr = cfg.Serve.Address()
		}

		srv := web.NewServer(cfg.ReportsDir, log)
		if err := srv.ListenAndServe(addr); err != nil {
			fail(err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "Listen address (default from config, host:port)")
	serveCmd.Flags().StringVar(&flagConfig, "config", "", "Config file path (default: prlens.yaml if present)")
	serveCmd.Flags().StringVar(&flagReportsDir, "out", "", "Reports directory to serve")
}
