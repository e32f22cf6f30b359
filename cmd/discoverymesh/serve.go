package main

import (
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/discoverymesh/discoverymesh/config"
	"github.com/discoverymesh/discoverymesh/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the discovery HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New(configPath)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		mesh, err := buildMesh(cfg, logger)
		if err != nil {
			return err
		}
		defer mesh.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := server.New(mesh.Orchestrator(), func(o *server.Options) {
			o.Logger = logger
		})
		err = srv.ListenAndServe(ctx, cfg.Server.Addr())
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
