package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"media-pipeline/internal/pipeline/router"
	"media-pipeline/internal/server"
)

func newServeCommand(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /process over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr != "" {
				a.cfg.Server.Address = addr
			}
			if err := a.cfg.ValidateServer(); err != nil {
				return err
			}
			if a.cfg.Logging.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			intentMode := router.IntentDiscard
			if a.cfg.Server.ExposeIntent {
				intentMode = router.IntentExpose
			}
			r := a.newRouter(router.Options{Output: router.OutputMemory, Intent: intentMode})

			srv := server.New(a.cfg.Server, r, a.log, server.WithReadinessCheck("cache", a.cacheCheck))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")
	return cmd
}
